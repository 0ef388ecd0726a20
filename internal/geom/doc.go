// Package geom holds the pose and rotation helpers shared by the grab core,
// the simulated body and the reference host.
//
// Vectors and quaternions are [mgl64.Vec3] and [mgl64.Quat]. Interpolation
// helpers clamp their parameter to [0, 1] and always take the shortest arc,
// and Euler decomposition follows the Z, X, Y application order used by
// common XR runtimes.
package geom
