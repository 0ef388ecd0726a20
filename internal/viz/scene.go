package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
)

const (
	maxPitch = 1.4
	minZoom  = 0.2
	maxZoom  = 5.0
	near     = 0.1
)

// Camera orbits a target point at a fixed distance.
type Camera struct {
	Target   mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Distance float64
	Zoom     float64
}

func NewCamera() *Camera {
	return &Camera{Target: mgl64.Vec3{0, 1, 0}, Yaw: -0.6, Pitch: 0.3, Distance: 6, Zoom: 1}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, c.Pitch+dPitch))
}

func (c *Camera) ZoomBy(f float64) {
	c.Zoom = math.Max(minZoom, math.Min(maxZoom, c.Zoom*f))
}

// view rotates world offsets into camera space, where the camera looks down
// -Z from +Z.
func (c *Camera) view() mgl64.Quat {
	orient := mgl64.QuatRotate(c.Yaw, mgl64.Vec3{0, 1, 0}).Mul(mgl64.QuatRotate(-c.Pitch, mgl64.Vec3{1, 0, 0}))
	return orient.Inverse()
}

// Project maps a world point to dot coordinates on a w by h raster. ok is
// false for points behind the camera.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y int, depth float64, ok bool) {
	rel := c.view().Rotate(p.Sub(c.Target))
	depth = c.Distance - rel.Z()
	if depth <= near {
		return 0, 0, depth, false
	}
	s := c.Zoom * float64(min(w, h)) / depth
	x = w/2 + int(math.Round(rel.X()*s))
	y = h/2 - int(math.Round(rel.Y()*s))
	return x, y, depth, true
}

type Segment struct {
	A, B mgl64.Vec3
}

// Scene is a list of world-space segments; a point is a zero-length one.
type Scene struct {
	segments []Segment
	points   []mgl64.Vec3
}

func (s *Scene) Reset() {
	s.segments = s.segments[:0]
	s.points = s.points[:0]
}

func (s *Scene) Add(segs ...Segment) { s.segments = append(s.segments, segs...) }

func (s *Scene) AddPoint(p mgl64.Vec3) { s.points = append(s.points, p) }

func (s *Scene) Render(c *Canvas, cam *Camera) {
	w, h := c.Size()
	for _, seg := range s.segments {
		x0, y0, _, ok0 := cam.Project(seg.A, w, h)
		x1, y1, _, ok1 := cam.Project(seg.B, w, h)
		if ok0 && ok1 {
			c.Line(x0, y0, x1, y1)
		}
	}
	for _, p := range s.points {
		if x, y, _, ok := cam.Project(p, w, h); ok {
			c.Blob(x, y, 1)
		}
	}
}

var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Cube returns the edges of a cube of the given size placed at pose.
func Cube(pose geom.Pose, size float64) []Segment {
	s := size / 2
	corners := [8]mgl64.Vec3{
		{-s, -s, -s}, {s, -s, -s}, {s, s, -s}, {-s, s, -s},
		{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s},
	}
	for i := range corners {
		corners[i] = pose.TransformPoint(corners[i])
	}
	segs := make([]Segment, len(cubeEdges))
	for i, e := range cubeEdges {
		segs[i] = Segment{corners[e[0]], corners[e[1]]}
	}
	return segs
}

// Cross marks a point with three short axis-aligned strokes.
func Cross(p mgl64.Vec3, size float64) []Segment {
	segs := make([]Segment, 0, 3)
	for i := 0; i < 3; i++ {
		var d mgl64.Vec3
		d[i] = size / 2
		segs = append(segs, Segment{p.Sub(d), p.Add(d)})
	}
	return segs
}

// Grid is a square ground grid at height 0, centred on center.
func Grid(center mgl64.Vec3, half float64, lines int) []Segment {
	segs := make([]Segment, 0, 2*lines)
	step := 2 * half / float64(lines-1)
	for i := 0; i < lines; i++ {
		o := -half + step*float64(i)
		segs = append(segs,
			Segment{mgl64.Vec3{center.X() + o, 0, center.Z() - half}, mgl64.Vec3{center.X() + o, 0, center.Z() + half}},
			Segment{mgl64.Vec3{center.X() - half, 0, center.Z() + o}, mgl64.Vec3{center.X() + half, 0, center.Z() + o}},
		)
	}
	return segs
}
