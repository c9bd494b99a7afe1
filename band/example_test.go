package band_test

import (
	"fmt"
	"math"

	"github.com/katalvlaran/laso/band"
	"github.com/katalvlaran/laso/block"
	"github.com/katalvlaran/laso/rng"
)

// ExampleSolver_Eigen computes the two smallest eigenvalues of the order-4
// second-difference matrix tridiag(-1, 2, -1).
func ExampleSolver_Eigen() {
	a, _ := band.New(4, 2)
	for k := 0; k < 4; k++ {
		a.Set(0, k, 2)
		if k < 3 {
			a.Set(1, k, -1)
		}
	}
	tmin, tmax := a.Gershgorin(0, math.Inf(1), math.Inf(-1))

	s, _ := band.NewSolver(4, 2, rng.New(1))
	vals := make([]float64, 2)
	vecs, _ := block.New(4, 2)
	if err := s.Eigen(a, 0, 2, vals, vecs, 0x1p-53, tmin, tmax); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%.6f %.6f\n", vals[0], vals[1])
	// Output:
	// 0.381966 1.381966
}

// ExampleSolver_Inertia counts eigenvalues below a shift.
func ExampleSolver_Inertia() {
	a, _ := band.New(3, 1)
	a.Set(0, 0, -2)
	a.Set(0, 1, 1)
	a.Set(0, 2, 5)
	s, _ := band.NewSolver(3, 1, nil)
	below, _ := s.Inertia(a, 2)
	fmt.Println(below)
	// Output:
	// 2
}
