package grab

import (
	"fmt"
	"sort"

	"github.com/san-kum/grabsim/internal/geom"
	"github.com/tanema/gween/ease"
)

// Curve maps a normalized sample recency in [0, 1] (1 = newest) to a weight.
type Curve interface {
	Evaluate(t float64) float64
}

// EaseCurve adapts an easing function over the unit interval.
type EaseCurve struct {
	Fn ease.TweenFunc
}

func (c EaseCurve) Evaluate(t float64) float64 {
	return float64(c.Fn(float32(geom.Clamp01(t)), 0, 1, 1))
}

// ConstantCurve weights every sample equally.
type ConstantCurve float64

func (c ConstantCurve) Evaluate(float64) float64 { return float64(c) }

// Keyframe is one point of a KeyframeCurve.
type Keyframe struct {
	T float64 `yaml:"t"`
	V float64 `yaml:"v"`
}

// KeyframeCurve interpolates linearly between keys sorted by T and holds the
// end values outside them.
type KeyframeCurve []Keyframe

func (c KeyframeCurve) Evaluate(t float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if t <= c[0].T {
		return c[0].V
	}
	last := c[len(c)-1]
	if t >= last.T {
		return last.V
	}
	i := sort.Search(len(c), func(i int) bool { return c[i].T >= t })
	a, b := c[i-1], c[i]
	if b.T == a.T {
		return b.V
	}
	return a.V + (b.V-a.V)*(t-a.T)/(b.T-a.T)
}

var curves = map[string]Curve{
	"linear":      EaseCurve{Fn: ease.Linear},
	"constant":    ConstantCurve(1),
	"in_quad":     EaseCurve{Fn: ease.InQuad},
	"out_quad":    EaseCurve{Fn: ease.OutQuad},
	"in_out_quad": EaseCurve{Fn: ease.InOutQuad},
	"in_cubic":    EaseCurve{Fn: ease.InCubic},
	"out_cubic":   EaseCurve{Fn: ease.OutCubic},
	"in_sine":     EaseCurve{Fn: ease.InSine},
	"out_sine":    EaseCurve{Fn: ease.OutSine},
	"in_expo":     EaseCurve{Fn: ease.InExpo},
	"out_expo":    EaseCurve{Fn: ease.OutExpo},
}

func CurveByName(name string) (Curve, error) {
	if name == "" {
		name = "linear"
	}
	c, ok := curves[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}
	return c, nil
}

func CurveNames() []string {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
