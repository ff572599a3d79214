package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"filterbench/internal/domain"
)

type ReportFileWriter struct {
	logger *zap.Logger
}

func NewReportFileWriter(logger *zap.Logger) *ReportFileWriter {
	return &ReportFileWriter{logger: logger}
}

// WriteReport serializes the report as YAML for .yaml/.yml paths and JSON otherwise.
func (w *ReportFileWriter) WriteReport(path string, report *domain.Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	w.logger.Info("Report written",
		zap.String("path", path),
		zap.String("run_id", report.RunID))
	return nil
}
