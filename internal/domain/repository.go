package domain

// ImageReader decodes an image identifier into a pixel buffer
type ImageReader interface {
	ReadImage(imageID string) (*PixelBuffer, error)
}

// ImageWriter encodes a pixel buffer to a destination path
type ImageWriter interface {
	WriteImage(path string, buf *PixelBuffer) error
}

// ConfigReader reads the benchmark configuration
type ConfigReader interface {
	ReadConfig(path string) (*Config, error)
}

// ReportWriter persists a finished benchmark report
type ReportWriter interface {
	WriteReport(path string, report *Report) error
}
