package linalg

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestInvertIdentity(t *testing.T) {
	n := 3
	a := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	inv, err := Invert(a, n)
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	for i, v := range inv {
		if !almostEqual(v, a[i], 1e-9) {
			t.Errorf("inv[%d] = %v, want %v", i, v, a[i])
		}
	}
}

func TestInvertRoundTrip(t *testing.T) {
	n := 2
	a := []float64{4, 7, 2, 6}
	inv, err := Invert(a, n)
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	// a * inv should be the identity.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += a[i*n+k] * inv[k*n+j]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			if !almostEqual(sum, want, 1e-9) {
				t.Errorf("(a*inv)[%d][%d] = %v, want %v", i, j, sum, want)
			}
		}
	}
}

func TestInvertSingularReturnsError(t *testing.T) {
	n := 2
	a := []float64{1, 2, 2, 4}
	if _, err := Invert(a, n); err != ErrSingular {
		t.Errorf("Invert(singular) err = %v, want ErrSingular", err)
	}
}

func TestSolve(t *testing.T) {
	n := 2
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6}
	got := Solve(a, b, n)
	want := []float64{1*5 + 2*6, 3*5 + 4*6}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-9) {
			t.Errorf("Solve[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
