package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"filterbench/internal/domain"
	"filterbench/internal/pool"
	"filterbench/pkg/filters"
)

// FilterTask is the per-image workload: decode, apply every filter, encode each result.
type FilterTask struct {
	logger *zap.Logger
	reader domain.ImageReader
	writer domain.ImageWriter
}

func NewFilterTask(logger *zap.Logger, reader domain.ImageReader, writer domain.ImageWriter) *FilterTask {
	return &FilterTask{
		logger: logger,
		reader: reader,
		writer: writer,
	}
}

func (t *FilterTask) Run(item domain.WorkItem, opts domain.TaskOptions) error {
	buf, err := t.reader.ReadImage(item.ImageID)
	if err != nil {
		return err
	}

	results, err := filters.ApplyAll(buf, opts.BrightnessFactor)
	if err != nil {
		return err
	}

	for _, result := range results {
		path := OutputPath(item.Destination, item.ImageID, result.Name)
		if err := t.writer.WriteImage(path, result.Buffer); err != nil {
			return fmt.Errorf("%s: %w", result.Name, err)
		}
	}

	t.logger.Debug("Image filtered",
		zap.String("image", item.ImageID),
		zap.Int("outputs", len(results)))
	return nil
}

// OutputPath names the output of one filter: <dest>/<base>_<filter><ext>.
func OutputPath(destination, imageID, filter string) string {
	ext := filepath.Ext(imageID)
	base := strings.TrimSuffix(filepath.Base(imageID), ext)
	if ext == "" {
		ext = ".png"
	}
	return filepath.Join(destination, base+"_"+filter+ext)
}

// NewTaskRegistry registers every workload under its configuration name.
// The parent and worker processes both build their registry here.
func NewTaskRegistry(task *FilterTask) pool.Registry {
	registry := pool.Registry{}
	registry.Register(domain.WorkloadFilters, task.Run)
	registry.Register(domain.WorkloadSleep, pool.SleepTask)
	return registry
}

// BuildItems creates one work item per image, all writing to destination.
func BuildItems(images []string, destination string) []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(images))
	for _, image := range images {
		items = append(items, domain.WorkItem{ImageID: image, Destination: destination})
	}
	return items
}
