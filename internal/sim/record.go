package sim

import "github.com/go-gl/mathgl/mgl64"

// Sample is one moving body's state at one tick.
type Sample struct {
	Time     float64    `json:"time"`
	Body     int        `json:"body"`
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Force    mgl64.Vec3 `json:"force"`
}

// Result is a recorded run: the sampled tick times, every moving body at
// each of them in body order, and final metric values.
type Result struct {
	Times   []float64
	Samples []Sample
	Metrics map[string]float64
}

// Trajectory filters samples for one body.
func (r *Result) Trajectory(body int) []Sample {
	var out []Sample
	for _, s := range r.Samples {
		if s.Body == body {
			out = append(out, s)
		}
	}
	return out
}

// Recorder is an Observer that keeps every Stride-th frame.
type Recorder struct {
	Stride int
	result Result
}

func NewRecorder(stride int) *Recorder {
	return &Recorder{Stride: max(stride, 1)}
}

func (r *Recorder) OnStep(f Frame) {
	if r.Stride > 1 && f.Tick%r.Stride != 0 {
		return
	}
	r.result.Times = append(r.result.Times, f.Time)
	for _, b := range f.Bodies {
		if b.Static {
			continue
		}
		r.result.Samples = append(r.result.Samples, Sample{
			Time:     f.Time,
			Body:     b.Index,
			Position: b.Position,
			Velocity: b.Velocity,
			Force:    b.Force,
		})
	}
}

// Result returns the recording so far with metric values read from ms.
func (r *Recorder) Result(ms []Metric) *Result {
	out := r.result
	out.Metrics = make(map[string]float64, len(ms))
	for _, m := range ms {
		out.Metrics[m.Name()] = m.Value()
	}
	return &out
}

func (r *Recorder) Reset() {
	r.result = Result{}
}
