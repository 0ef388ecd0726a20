package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AngleEpsilon is the smallest angle, in degrees, treated as a real rotation.
const AngleEpsilon = 1e-6

func Clamp01(t float64) float64 {
	return mgl64.Clamp(t, 0, 1)
}

// Lerp interpolates from a to b with t clamped to [0, 1].
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = Clamp01(t)
	if t == 1 {
		return b
	}
	return a.Add(b.Sub(a).Mul(t))
}

// Slerp interpolates rotations along the shortest arc with t clamped to [0, 1].
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	t = Clamp01(t)
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t).Normalize()
}

// RotationDelta returns the rotation that takes from onto to in world space.
func RotationDelta(from, to mgl64.Quat) mgl64.Quat {
	return to.Mul(from.Inverse()).Normalize()
}

// RotationsEqual reports whether a and b describe the same orientation.
func RotationsEqual(a, b mgl64.Quat, eps float64) bool {
	return math.Abs(a.Normalize().Dot(b.Normalize())) >= 1-eps
}

// DeltaAngle returns the shortest signed difference target-current in
// degrees, in (-180, 180].
func DeltaAngle(current, target float64) float64 {
	delta := math.Mod(target-current, 360)
	if delta < 0 {
		delta += 360
	}
	if delta > 180 {
		delta -= 360
	}
	return delta
}

// EulerAngles decomposes q into degrees in [0, 360) using the Z, X, Y
// application order, i.e. q = Ry * Rx * Rz.
func EulerAngles(q mgl64.Quat) mgl64.Vec3 {
	q = q.Normalize()
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	sinX := mgl64.Clamp(2*(w*x-y*z), -1, 1)
	ex := math.Asin(sinX)
	ey := math.Atan2(2*(w*y+x*z), 1-2*(x*x+y*y))
	ez := math.Atan2(2*(w*z+x*y), 1-2*(x*x+z*z))

	return mgl64.Vec3{wrap360(mgl64.RadToDeg(ex)), wrap360(mgl64.RadToDeg(ey)), wrap360(mgl64.RadToDeg(ez))}
}

// EulerDeltaRadians converts a rotation delta into per-axis signed angles in
// radians, each taken along the shorter way round.
func EulerDeltaRadians(delta mgl64.Quat) mgl64.Vec3 {
	e := EulerAngles(delta)
	return mgl64.Vec3{
		mgl64.DegToRad(DeltaAngle(0, e[0])),
		mgl64.DegToRad(DeltaAngle(0, e[1])),
		mgl64.DegToRad(DeltaAngle(0, e[2])),
	}
}

// ToAngleAxis returns the rotation angle of q in degrees, in [0, 360], and its
// unit axis. A rotation too small to define an axis reports the X axis.
func ToAngleAxis(q mgl64.Quat) (float64, mgl64.Vec3) {
	q = q.Normalize()
	w := mgl64.Clamp(q.W, -1, 1)
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return mgl64.RadToDeg(angle), mgl64.Vec3{1, 0, 0}
	}
	return mgl64.RadToDeg(angle), q.V.Mul(1 / s)
}

// IsFinite reports whether every component of v is a real number.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
