package compute

import (
	"fmt"
	"math"
)

// Kernel identifies an entry of the kernel catalog.
type Kernel int

const (
	KernelAdd Kernel = iota
	KernelSub
	KernelMul
	KernelDiv
	KernelMax
	KernelMin
	KernelNeg
	KernelAbs
	KernelExp
	KernelLog
	KernelSqrt
	KernelTanh
	KernelRelu
	KernelSigmoid
	KernelScale
	KernelReduceSum
	KernelReduceMean
	KernelReduceMax
	KernelMatMul
	KernelRandomUniform
	KernelRandomNormal
	KernelExpandInstances
	KernelIntegrateBodies
	KernelDetectContactsSDF
	KernelSolveContactsPBD
	KernelSolveJointsPBD
	kernelCount
)

// appendedOutput marks kernels whose result is shaped like binding 0 rather
// than by a placeholder binding.
const appendedOutput = -1

type kernelSpec struct {
	name        string
	minBindings int
	output      int
	check       func(k Kernel, b []View) error
	cpu         func(c *CPUBackend, k Kernel, b []View) []byte
}

var catalog = [kernelCount]kernelSpec{
	KernelAdd:     {name: "add", minBindings: 3, output: 2, check: checkBinary, cpu: cpuBinary},
	KernelSub:     {name: "sub", minBindings: 3, output: 2, check: checkBinary, cpu: cpuBinary},
	KernelMul:     {name: "mul", minBindings: 3, output: 2, check: checkBinary, cpu: cpuBinary},
	KernelDiv:     {name: "div", minBindings: 3, output: 2, check: checkBinary, cpu: cpuBinary},
	KernelMax:     {name: "max", minBindings: 3, output: 2, check: checkBinary, cpu: cpuBinary},
	KernelMin:     {name: "min", minBindings: 3, output: 2, check: checkBinary, cpu: cpuBinary},
	KernelNeg:     {name: "neg", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelAbs:     {name: "abs", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelExp:     {name: "exp", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelLog:     {name: "log", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelSqrt:    {name: "sqrt", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelTanh:    {name: "tanh", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelRelu:    {name: "relu", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelSigmoid: {name: "sigmoid", minBindings: 2, output: 1, check: checkUnary, cpu: cpuUnary},
	KernelScale:   {name: "scale", minBindings: 3, output: 1, check: checkScale, cpu: cpuUnary},

	KernelReduceSum:  {name: "reduce_sum", minBindings: 2, output: 1, check: checkReduce, cpu: cpuReduce},
	KernelReduceMean: {name: "reduce_mean", minBindings: 2, output: 1, check: checkReduce, cpu: cpuReduce},
	KernelReduceMax:  {name: "reduce_max", minBindings: 2, output: 1, check: checkReduce, cpu: cpuReduce},
	KernelMatMul:     {name: "matmul", minBindings: 3, output: 2, check: checkMatMul, cpu: cpuMatMul},

	KernelRandomUniform:   {name: "random_uniform", minBindings: 2, output: 0, check: checkRandom, cpu: cpuRandom},
	KernelRandomNormal:    {name: "random_normal", minBindings: 2, output: 0, check: checkRandom, cpu: cpuRandom},
	KernelExpandInstances: {name: "expand_instances", minBindings: 3, output: 1, check: checkExpand, cpu: cpuExpand},

	KernelIntegrateBodies:   {name: "integrate_bodies", minBindings: 2, output: appendedOutput, check: checkIntegrate, cpu: cpuIntegrate},
	KernelDetectContactsSDF: {name: "detect_contacts_sdf", minBindings: 3, output: 2, check: checkDetect, cpu: cpuDetect},
	KernelSolveContactsPBD:  {name: "solve_contacts_pbd", minBindings: 3, output: appendedOutput, check: checkSolveContacts, cpu: cpuSolveContacts},
	KernelSolveJointsPBD:    {name: "solve_joints_pbd", minBindings: 3, output: appendedOutput, check: checkSolveJoints, cpu: cpuSolveJoints},
}

func (k Kernel) String() string {
	if k < 0 || k >= kernelCount {
		return fmt.Sprintf("kernel(%d)", int(k))
	}
	return catalog[k].name
}

// MinBindings is the number of bindings the kernel requires.
func (k Kernel) MinBindings() int {
	if k < 0 || k >= kernelCount {
		return 0
	}
	return catalog[k].minBindings
}

// Catalog lists every kernel in id order.
func Catalog() []Kernel {
	out := make([]Kernel, kernelCount)
	for i := range out {
		out[i] = Kernel(i)
	}
	return out
}

func ParseKernel(name string) (Kernel, error) {
	for i, spec := range catalog {
		if spec.name == name {
			return Kernel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
}

// validate applies the binding contract shared by every backend: catalog
// membership, binding count, byte lengths, element size and the kernel's
// own shape rules.
func validate(k Kernel, bindings []View) (kernelSpec, error) {
	if k < 0 || k >= kernelCount {
		return kernelSpec{}, fmt.Errorf("%w: %d", ErrUnknownKernel, int(k))
	}
	spec := catalog[k]
	if len(bindings) < spec.minBindings {
		return spec, mismatch(k, -1, "got %d bindings, need %d", len(bindings), spec.minBindings)
	}
	for i, v := range bindings {
		if err := v.Validate(); err != nil {
			return spec, &ShapeMismatchError{Kernel: k, Binding: i, Reason: err.Error()}
		}
		if v.elemSize != 4 {
			return spec, mismatch(k, i, "element size %d, kernels operate on 4-byte elements", v.elemSize)
		}
	}
	if err := spec.check(k, bindings); err != nil {
		return spec, err
	}
	return spec, nil
}

// outputSize is the byte length of a kernel's result.
func outputSize(spec kernelSpec, bindings []View) int {
	if spec.output == appendedOutput {
		return len(bindings[0].data)
	}
	return len(bindings[spec.output].data)
}

func checkBinary(k Kernel, b []View) error {
	n := b[0].Len()
	if b[1].Len() != n {
		return mismatch(k, 1, "length %d, want %d", b[1].Len(), n)
	}
	if b[2].Len() != n {
		return mismatch(k, 2, "output length %d, want %d", b[2].Len(), n)
	}
	return nil
}

func checkUnary(k Kernel, b []View) error {
	if b[1].Len() != b[0].Len() {
		return mismatch(k, 1, "output length %d, want %d", b[1].Len(), b[0].Len())
	}
	return nil
}

func checkScale(k Kernel, b []View) error {
	if err := checkUnary(k, b); err != nil {
		return err
	}
	if b[2].Len() < 1 {
		return mismatch(k, 2, "config holds no scalar")
	}
	return nil
}

func checkReduce(k Kernel, b []View) error {
	cols := b[0].Cols()
	if cols == 0 {
		return mismatch(k, 0, "cannot reduce an empty axis")
	}
	if want := b[0].Len() / cols; b[1].Len() != want {
		return mismatch(k, 1, "output length %d, want %d", b[1].Len(), want)
	}
	return nil
}

func checkMatMul(k Kernel, b []View) error {
	for i := 0; i < 3; i++ {
		if len(b[i].shape) != 2 {
			return mismatch(k, i, "rank %d, want 2", len(b[i].shape))
		}
	}
	m, inner := b[0].shape[0], b[0].shape[1]
	if b[1].shape[0] != inner {
		return mismatch(k, 1, "inner dimension %d, want %d", b[1].shape[0], inner)
	}
	n := b[1].shape[1]
	if b[2].shape[0] != m || b[2].shape[1] != n {
		return mismatch(k, 2, "output shape %v, want [%d %d]", b[2].shape, m, n)
	}
	return nil
}

func checkRandom(k Kernel, b []View) error {
	if b[1].Len() < 4 {
		return mismatch(k, 1, "config holds %d values, want 4", b[1].Len())
	}
	return nil
}

func checkExpand(k Kernel, b []View) error {
	tpl, out, cfg := b[0], b[1], b[2]
	if len(tpl.shape) != 2 || tpl.Cols() < 3 {
		return mismatch(k, 0, "template shape %v, want [records, stride>=3]", tpl.shape)
	}
	if cfg.Len() < 4 {
		return mismatch(k, 2, "config holds %d values, want 4", cfg.Len())
	}
	if tpl.Rows() == 0 {
		return mismatch(k, 0, "template has no records")
	}
	count := cfg.Float32s()[0]
	if count < 0 || float32(math.Trunc(float64(count))) != count {
		return mismatch(k, 2, "instance count %v is not a whole number", count)
	}
	if float64(count) > float64(math.MaxInt/tpl.Len()) {
		return mismatch(k, 2, "instance count %v overflows the output", count)
	}
	if want := int(count) * tpl.Len(); out.Cols() != tpl.Cols() || out.Len() != want {
		return mismatch(k, 1, "output shape %v, want [%d %d]", out.shape, int(count)*tpl.Rows(), tpl.Cols())
	}
	return nil
}

func checkBodies(k Kernel, v View) error {
	if v.Len()%BodyStride != 0 {
		return mismatch(k, 0, "%d floats is not a whole number of %d-float body records", v.Len(), BodyStride)
	}
	if len(v.shape) == 2 && v.Cols() != BodyStride {
		return mismatch(k, 0, "record width %d, want %d", v.Cols(), BodyStride)
	}
	return nil
}

func checkParams(k Kernel, b []View, i, want int) error {
	if b[i].Len() < want {
		return mismatch(k, i, "params hold %d values, want %d", b[i].Len(), want)
	}
	return nil
}

func checkIntegrate(k Kernel, b []View) error {
	if err := checkBodies(k, b[0]); err != nil {
		return err
	}
	return checkParams(k, b, 1, 4)
}

func checkDetect(k Kernel, b []View) error {
	if err := checkBodies(k, b[0]); err != nil {
		return err
	}
	if err := checkParams(k, b, 1, 4); err != nil {
		return err
	}
	if want := b[0].Len() / BodyStride * ContactStride; b[2].Len() != want {
		return mismatch(k, 2, "contact placeholder holds %d floats, want %d", b[2].Len(), want)
	}
	return nil
}

func checkSolveContacts(k Kernel, b []View) error {
	if err := checkBodies(k, b[0]); err != nil {
		return err
	}
	if want := b[0].Len() / BodyStride * ContactStride; b[1].Len() != want {
		return mismatch(k, 1, "contacts hold %d floats, want %d", b[1].Len(), want)
	}
	return checkParams(k, b, 2, 4)
}

func checkSolveJoints(k Kernel, b []View) error {
	if err := checkBodies(k, b[0]); err != nil {
		return err
	}
	if b[1].Len()%JointStride != 0 {
		return mismatch(k, 1, "%d floats is not a whole number of %d-float joint records", b[1].Len(), JointStride)
	}
	if err := checkParams(k, b, 2, 1); err != nil {
		return err
	}
	n := b[0].Len() / BodyStride
	joints := b[1].Float32s()
	for j := 0; j < len(joints); j += JointStride {
		ia, ib := int(joints[j+JointBodyA]), int(joints[j+JointBodyB])
		if ia < 0 || ia >= n || ib < 0 || ib >= n {
			return mismatch(k, 1, "joint %d references bodies (%d, %d) outside [0, %d)", j/JointStride, ia, ib, n)
		}
	}
	return nil
}
