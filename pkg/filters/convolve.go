package filters

import (
	"math"

	"filterbench/internal/domain"
)

// Kernel is a 3x3 convolution kernel indexed [row][col].
type Kernel [3][3]float64

var (
	// BlurKernel is the binomial smoothing kernel normalized by 16.
	BlurKernel = Kernel{
		{1.0 / 16, 2.0 / 16, 1.0 / 16},
		{2.0 / 16, 4.0 / 16, 2.0 / 16},
		{1.0 / 16, 2.0 / 16, 1.0 / 16},
	}

	SobelX = Kernel{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	SobelY = Kernel{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	SharpenKernel = Kernel{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}
)

// reflect maps an index one step outside [0, n) back inside by mirroring across
// the nearest edge, excluding the edge sample itself: -1 -> 1, n -> n-2.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*(n-1) - i
	}
	return i
}

// Convolve computes the same-size 2-D convolution of a plane with k using
// symmetric reflection at the borders. The kernel is flipped, so asymmetric
// kernels behave as a true convolution rather than a correlation.
func Convolve(p domain.Plane, k Kernel) []float64 {
	w, h := p.Width, p.Height
	out := make([]float64, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for ky := 0; ky < 3; ky++ {
				sy := reflect(y-(ky-1), h)
				row := sy * w
				for kx := 0; kx < 3; kx++ {
					weight := k[ky][kx]
					if weight == 0 {
						continue
					}
					sx := reflect(x-(kx-1), w)
					sum += weight * float64(p.Pix[row+sx])
				}
			}
			out[y*w+x] = sum
		}
	}

	return out
}

// roundClamp rounds to the nearest integer and clamps to [0, 255].
func roundClamp(v float64) uint8 {
	return truncClamp(math.Round(v))
}

// truncClamp clamps to [0, 255] and drops the fractional part.
func truncClamp(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

func toPlane(w, h int, values []float64, conv func(float64) uint8) domain.Plane {
	p := domain.NewPlane(w, h)
	for i, v := range values {
		p.Pix[i] = conv(v)
	}
	return p
}
