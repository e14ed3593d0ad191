package surface

import (
	"math"

	"github.com/rzzdr/options-backtester/pkg/utils/errors"
)

// interpolator evaluates a fitted 2-D scattered-data interpolant. A NaN
// result signals that the caller should fall back to the nearest sample.
type interpolator interface {
	eval(x, y float64) float64
}

type rbfKernel int

const (
	kernelCubic rbfKernel = iota
	kernelMultiquadric
)

// rbfInterpolator is a radial-basis-function interpolant over scattered
// (x, y) -> z samples. The cubic kernel is used with diagonal smoothing
// for the default surface fit; the multiquadric kernel without smoothing
// serves as the fallback fit.
type rbfInterpolator struct {
	xs, ys  []float64
	weights []float64
	kernel  rbfKernel
	epsilon float64
}

func newRBFInterpolator(xs, ys, zs []float64, kernel rbfKernel, smooth float64) (*rbfInterpolator, error) {
	n := len(xs)
	if n == 0 {
		return nil, errors.Numerical("no sample points for rbf fit")
	}

	r := &rbfInterpolator{
		xs:     append([]float64(nil), xs...),
		ys:     append([]float64(nil), ys...),
		kernel: kernel,
	}
	r.epsilon = averageDistance(xs, ys)
	if r.epsilon <= 0 {
		return nil, errors.Numerical("zero-width sample range for rbf fit")
	}

	// A[i][j] = phi(||p_i - p_j||), with the smoothing factor subtracted
	// from the diagonal.
	a := make([][]float64, n)
	for i := 0; i < n; i++ {
		a[i] = make([]float64, n+1)
		for j := 0; j < n; j++ {
			d := math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
			a[i][j] = r.phi(d)
		}
		a[i][i] -= smooth
		a[i][n] = zs[i]
	}

	weights, err := solveLinearSystem(a)
	if err != nil {
		return nil, err
	}
	r.weights = weights
	return r, nil
}

func (r *rbfInterpolator) phi(dist float64) float64 {
	switch r.kernel {
	case kernelMultiquadric:
		s := dist / r.epsilon
		return math.Sqrt(s*s + 1)
	default:
		return dist * dist * dist
	}
}

func (r *rbfInterpolator) eval(x, y float64) float64 {
	sum := 0.0
	for i := range r.weights {
		d := math.Hypot(x-r.xs[i], y-r.ys[i])
		sum += r.weights[i] * r.phi(d)
	}
	return sum
}

// solveLinearSystem solves the augmented n x (n+1) system in place using
// Gaussian elimination with partial pivoting. The sample counts here are
// small, so a dense solve is fine.
func solveLinearSystem(a [][]float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.Numerical("singular interpolation matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k <= n; k++ {
				a[row][k] -= factor * a[col][k]
			}
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := a[row][n]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

func averageDistance(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 1.0
	}
	total := 0.0
	count := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
			count++
		}
	}
	if count == 0 || total == 0 {
		return 0
	}
	return total / float64(count)
}

// linearInterpolator approximates a piecewise-linear triangulated fit by
// taking barycentric weights over the triangle of the three nearest
// samples. Points outside that triangle evaluate to NaN, which routes the
// caller to the nearest-sample fallback, mirroring a triangulated
// interpolant's behavior outside its hull.
type linearInterpolator struct {
	xs, ys, zs []float64
}

func newLinearInterpolator(xs, ys, zs []float64) *linearInterpolator {
	return &linearInterpolator{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		zs: append([]float64(nil), zs...),
	}
}

func (l *linearInterpolator) eval(x, y float64) float64 {
	n := len(l.xs)
	if n < 3 {
		return math.NaN()
	}

	// Indices of the three nearest samples.
	i0, i1, i2 := -1, -1, -1
	d0, d1, d2 := math.Inf(1), math.Inf(1), math.Inf(1)
	for i := 0; i < n; i++ {
		d := math.Hypot(x-l.xs[i], y-l.ys[i])
		switch {
		case d < d0:
			i2, d2 = i1, d1
			i1, d1 = i0, d0
			i0, d0 = i, d
		case d < d1:
			i2, d2 = i1, d1
			i1, d1 = i, d
		case d < d2:
			i2, d2 = i, d
		}
	}

	ax, ay := l.xs[i0], l.ys[i0]
	bx, by := l.xs[i1], l.ys[i1]
	cx, cy := l.xs[i2], l.ys[i2]

	det := (by-cy)*(ax-cx) + (cx-bx)*(ay-cy)
	if math.Abs(det) < 1e-12 {
		return math.NaN()
	}

	wa := ((by-cy)*(x-cx) + (cx-bx)*(y-cy)) / det
	wb := ((cy-ay)*(x-cx) + (ax-cx)*(y-cy)) / det
	wc := 1 - wa - wb

	const tol = 1e-9
	if wa < -tol || wb < -tol || wc < -tol {
		return math.NaN()
	}

	return wa*l.zs[i0] + wb*l.zs[i1] + wc*l.zs[i2]
}
