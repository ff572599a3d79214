package infrastructure

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"go.uber.org/zap"

	"filterbench/internal/domain"
)

type ImageFileReader struct {
	logger *zap.Logger
}

func NewImageFileReader(logger *zap.Logger) *ImageFileReader {
	return &ImageFileReader{logger: logger}
}

// ReadImage decodes a PNG or JPEG file. Grayscale images yield one plane,
// everything else three RGB planes; alpha is dropped.
func (r *ImageFileReader) ReadImage(path string) (*domain.PixelBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, path, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s: empty image", domain.ErrDecode, path)
	}

	r.logger.Debug("Decoded image",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()))

	return toPixelBuffer(img), nil
}

func toPixelBuffer(img image.Image) *domain.PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if gray, ok := img.(*image.Gray); ok {
		buf := domain.NewPixelBuffer(w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				buf.Planes[0].Set(x, y, gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return buf
	}

	buf := domain.NewPixelBuffer(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			buf.Planes[0].Set(x, y, c.R)
			buf.Planes[1].Set(x, y, c.G)
			buf.Planes[2].Set(x, y, c.B)
		}
	}
	return buf
}
