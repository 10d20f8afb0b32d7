// Package physics holds the rigid-body model: primitive shapes, bodies,
// narrow-phase contact detection and the contact and joint solvers.
//
// Narrow-phase detection dispatches on the ordered pair of shape kinds. A
// pair without a detector yields Unsupported rather than a silent miss so
// callers can tell "not touching" from "cannot tell".
//
// Contact normals point from body A to body B. Solvers push B along the
// normal and A against it.
package physics
