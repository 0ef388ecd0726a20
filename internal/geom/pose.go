package geom

import "github.com/go-gl/mathgl/mgl64"

// Pose is a world or local position plus rotation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Identity returns a pose at the origin with no rotation.
func Identity() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

func NewPose(position mgl64.Vec3, rotation mgl64.Quat) Pose {
	return Pose{Position: position, Rotation: rotation}
}

// Mul returns the world pose of a child whose pose relative to p is local.
func (p Pose) Mul(local Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(local.Position)),
		Rotation: p.Rotation.Mul(local.Rotation),
	}
}

func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position.Mul(-1)),
		Rotation: inv,
	}
}

// Local expresses world relative to p, so that p.Mul(p.Local(world)) == world.
func (p Pose) Local(world Pose) Pose {
	return p.Inverse().Mul(world)
}

func (p Pose) TransformPoint(v mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(v))
}

func (p Pose) TransformDirection(v mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Rotate(v)
}

func (p Pose) InverseTransformDirection(v mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Inverse().Rotate(v)
}

// ApproxEqual compares positions component-wise and rotations as orientations,
// so q and -q are considered equal.
func (p Pose) ApproxEqual(other Pose, eps float64) bool {
	return p.Position.ApproxEqualThreshold(other.Position, eps) &&
		RotationsEqual(p.Rotation, other.Rotation, eps)
}
