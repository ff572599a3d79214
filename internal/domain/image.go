package domain

import "fmt"

// Plane is one channel of an image, stored row-major.
type Plane struct {
	Width, Height int
	Pix           []uint8
}

func NewPlane(width, height int) Plane {
	return Plane{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func (p Plane) At(x, y int) uint8 {
	return p.Pix[y*p.Width+x]
}

func (p Plane) Set(x, y int, v uint8) {
	p.Pix[y*p.Width+x] = v
}

// PixelBuffer is a decoded image: a single intensity plane or one plane per color channel.
type PixelBuffer struct {
	Planes []Plane
}

// NewPixelBuffer allocates a zeroed buffer with the given number of channels.
func NewPixelBuffer(width, height, channels int) *PixelBuffer {
	planes := make([]Plane, channels)
	for i := range planes {
		planes[i] = NewPlane(width, height)
	}
	return &PixelBuffer{Planes: planes}
}

func (b *PixelBuffer) Channels() int {
	return len(b.Planes)
}

func (b *PixelBuffer) Width() int {
	if len(b.Planes) == 0 {
		return 0
	}
	return b.Planes[0].Width
}

func (b *PixelBuffer) Height() int {
	if len(b.Planes) == 0 {
		return 0
	}
	return b.Planes[0].Height
}

// Validate checks that the buffer has at least one plane and that every plane
// shares the same dimensions and holds exactly width*height samples.
func (b *PixelBuffer) Validate() error {
	if b == nil || len(b.Planes) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidBuffer)
	}

	w, h := b.Planes[0].Width, b.Planes[0].Height
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty dimensions %dx%d", ErrInvalidBuffer, w, h)
	}
	for i, p := range b.Planes {
		if p.Width != w || p.Height != h {
			return fmt.Errorf("%w: channel %d is %dx%d, expected %dx%d",
				ErrInvalidBuffer, i, p.Width, p.Height, w, h)
		}
		if len(p.Pix) != w*h {
			return fmt.Errorf("%w: channel %d holds %d samples, expected %d",
				ErrInvalidBuffer, i, len(p.Pix), w*h)
		}
	}
	return nil
}

// Clone returns a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	out := &PixelBuffer{Planes: make([]Plane, len(b.Planes))}
	for i, p := range b.Planes {
		pix := make([]uint8, len(p.Pix))
		copy(pix, p.Pix)
		out.Planes[i] = Plane{Width: p.Width, Height: p.Height, Pix: pix}
	}
	return out
}

// FilterResult is a filtered buffer together with the name of the filter that produced it.
type FilterResult struct {
	Name   string
	Buffer *PixelBuffer
}
