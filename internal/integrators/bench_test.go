package integrators

import "testing"

func benchmarkStep(b *testing.B, name string) {
	integ, err := ByName(name)
	if err != nil {
		b.Fatal(err)
	}
	sys := gravity3{}
	x := State{0, 1, 0, 1, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, 0, 1.0/90)
	}
}

func BenchmarkEuler(b *testing.B)        { benchmarkStep(b, "euler") }
func BenchmarkSemiImplicit(b *testing.B) { benchmarkStep(b, "semi_implicit") }
func BenchmarkVerlet(b *testing.B)       { benchmarkStep(b, "verlet") }
func BenchmarkLeapfrog(b *testing.B)     { benchmarkStep(b, "leapfrog") }
func BenchmarkRK4(b *testing.B)          { benchmarkStep(b, "rk4") }
