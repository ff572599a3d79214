// Package filters implements the fixed image filter set applied to every benchmark image.
// Every filter is pure: it validates its input, never modifies it, and returns a new buffer
// whose samples all lie in [0, 255].
package filters

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"filterbench/internal/domain"
)

const DefaultBrightnessFactor = 1.3

// Filter names, also used as output file suffixes.
const (
	NameGrayscale  = "grayscale"
	NameBlur       = "blur"
	NameEdges      = "edges"
	NameSharpen    = "sharpen"
	NameBrightness = "brightness"
)

// Luminance weights for RGB to intensity conversion
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Filter is one named transform of the pipeline.
type Filter struct {
	Name  string
	Apply func(*domain.PixelBuffer) (*domain.PixelBuffer, error)
}

// Pipeline returns the five filters in application order.
func Pipeline(brightnessFactor float64) []Filter {
	if brightnessFactor == 0 {
		brightnessFactor = DefaultBrightnessFactor
	}
	return []Filter{
		{Name: NameGrayscale, Apply: Grayscale},
		{Name: NameBlur, Apply: Blur},
		{Name: NameEdges, Apply: EdgeDetect},
		{Name: NameSharpen, Apply: Sharpen},
		{Name: NameBrightness, Apply: func(b *domain.PixelBuffer) (*domain.PixelBuffer, error) {
			return Brightness(b, brightnessFactor)
		}},
	}
}

// ApplyAll runs every filter independently on the same input.
func ApplyAll(buf *domain.PixelBuffer, brightnessFactor float64) ([]domain.FilterResult, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	pipeline := Pipeline(brightnessFactor)
	results := make([]domain.FilterResult, 0, len(pipeline))
	for _, f := range pipeline {
		out, err := f.Apply(buf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		results = append(results, domain.FilterResult{Name: f.Name, Buffer: out})
	}
	return results, nil
}

// Grayscale converts a color buffer to a single intensity plane.
// A single-channel buffer is returned unchanged (as a copy).
func Grayscale(buf *domain.PixelBuffer) (*domain.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	switch {
	case buf.Channels() == 1:
		return buf.Clone(), nil
	case buf.Channels() < 3:
		return nil, fmt.Errorf("%w: grayscale needs 1 or at least 3 channels, got %d",
			domain.ErrInvalidBuffer, buf.Channels())
	}

	r, g, b := buf.Planes[0], buf.Planes[1], buf.Planes[2]
	gray := domain.NewPlane(buf.Width(), buf.Height())
	for i := range gray.Pix {
		v := lumaR*float64(r.Pix[i]) + lumaG*float64(g.Pix[i]) + lumaB*float64(b.Pix[i])
		gray.Pix[i] = roundClamp(v)
	}

	return &domain.PixelBuffer{Planes: []domain.Plane{gray}}, nil
}

// Blur smooths every channel with the 3x3 binomial kernel.
func Blur(buf *domain.PixelBuffer) (*domain.PixelBuffer, error) {
	return convolveChannels(buf, BlurKernel, roundClamp)
}

// Sharpen enhances edges of every channel with the unit-gain sharpening kernel.
func Sharpen(buf *domain.PixelBuffer) (*domain.PixelBuffer, error) {
	return convolveChannels(buf, SharpenKernel, truncClamp)
}

// EdgeDetect computes the Sobel gradient magnitude of the intensity plane,
// normalized so that the strongest edge maps to 255.
func EdgeDetect(buf *domain.PixelBuffer) (*domain.PixelBuffer, error) {
	gray, err := Grayscale(buf)
	if err != nil {
		return nil, err
	}

	plane := gray.Planes[0]
	gx := Convolve(plane, SobelX)
	gy := Convolve(plane, SobelY)

	mag := make([]float64, len(gx))
	for i := range gx {
		mag[i] = math.Hypot(gx[i], gy[i])
	}

	// A flat image has no gradient anywhere; leave it all-zero.
	if peak := floats.Max(mag); peak > 0 {
		for i, v := range mag {
			mag[i] = v / peak * 255
		}
	}

	out := toPlane(plane.Width, plane.Height, mag, truncClamp)
	return &domain.PixelBuffer{Planes: []domain.Plane{out}}, nil
}

// Brightness scales every sample by factor.
func Brightness(buf *domain.PixelBuffer, factor float64) (*domain.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := &domain.PixelBuffer{Planes: make([]domain.Plane, buf.Channels())}
	for c, p := range buf.Planes {
		dst := domain.NewPlane(p.Width, p.Height)
		for i, v := range p.Pix {
			dst.Pix[i] = truncClamp(float64(v) * factor)
		}
		out.Planes[c] = dst
	}
	return out, nil
}

func convolveChannels(buf *domain.PixelBuffer, k Kernel, conv func(float64) uint8) (*domain.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := &domain.PixelBuffer{Planes: make([]domain.Plane, buf.Channels())}
	for c, p := range buf.Planes {
		out.Planes[c] = toPlane(p.Width, p.Height, Convolve(p, k), conv)
	}
	return out, nil
}
