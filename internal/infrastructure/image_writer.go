package infrastructure

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"filterbench/internal/domain"
)

const jpegQuality = 95

type ImageFileWriter struct {
	logger *zap.Logger
}

func NewImageFileWriter(logger *zap.Logger) *ImageFileWriter {
	return &ImageFileWriter{logger: logger}
}

// WriteImage encodes buf to path, as JPEG for .jpg/.jpeg and PNG otherwise.
// Parent directories are created as needed.
func (w *ImageFileWriter) WriteImage(path string, buf *domain.PixelBuffer) error {
	img, err := fromPixelBuffer(buf)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrEncode, path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(writer, img, &jpeg.Options{Quality: jpegQuality})
	default:
		err = png.Encode(writer, img)
	}
	if err == nil {
		err = writer.Flush()
	}
	if err == nil {
		err = file.Close()
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrEncode, path, err)
	}

	w.logger.Debug("Wrote image", zap.String("path", path))
	return nil
}

func fromPixelBuffer(buf *domain.PixelBuffer) (image.Image, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	w, h := buf.Width(), buf.Height()
	rect := image.Rect(0, 0, w, h)

	switch buf.Channels() {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, buf.Planes[0].Pix)
		return img, nil
	case 3:
		img := image.NewRGBA(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetRGBA(x, y, color.RGBA{
					R: buf.Planes[0].At(x, y),
					G: buf.Planes[1].At(x, y),
					B: buf.Planes[2].At(x, y),
					A: 255,
				})
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %d channels", domain.ErrInvalidBuffer, buf.Channels())
	}
}
