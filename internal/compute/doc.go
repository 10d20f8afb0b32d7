// Package compute is the numeric backend the simulator dispatches bulk work
// through.
//
// Work is described by a Kernel from a fixed catalog and a list of Views:
// flat byte buffers with a logical shape and element size. Bindings are
// ordered inputs first, then any pre-sized output placeholder, then a
// fixed-size config buffer. Every backend validates the bindings before
// running anything, so a malformed view fails with ErrShapeMismatch no
// matter which backend receives it.
//
// # Backends
//
//   - cpu: the reference implementation. Deterministic, always available.
//   - wgpu: WebGPU compute shaders, built with -tags wgpu. Carries the
//     elementwise and per-body kernels; Supports reports the rest.
//
// New("auto", log) prefers the GPU and falls back to the CPU.
//
// # Physics records
//
// The physics kernels operate on packed f32 records whose layouts are
// described next to BodyStride, ContactStride and JointStride:
//
//	out, err := backend.Dispatch(compute.KernelIntegrateBodies,
//		[]compute.View{bodies, compute.Vec4Config(0, -9.81, 0, dt)},
//		compute.Workgroups(n))
package compute
