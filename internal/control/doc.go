// Package control writes forces into a simulation's force slots before each
// tick, standing in for a policy that reads observations and acts.
//
//   - [PID]: holds a body at a target height
//   - [Manual]: applies a force set from outside, such as a key press
//   - [None]: leaves force slots untouched
//
// # Usage
//
//	pid := control.NewPID(40, 2, 12, 3)  // Kp, Ki, Kd, target height
//	pid.Body = ball
//	for i := 0; i < steps; i++ {
//		if err := pid.Apply(s); err != nil { ... }
//		if err := s.Step(); err != nil { ... }
//	}
package control
