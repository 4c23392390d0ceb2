// Package archive bundles every output file plus the run report into a
// single downloadable ZIP.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"codeport-cli/internal/domain"
)

// ReportFileName is the report's path at the archive root.
const ReportFileName = "conversion_report.json"

// Builder writes ZIP bundles.
type Builder struct {
	logger *zap.Logger
}

func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// Write packages every file's output entries (converted or pass-through)
// plus the report. Files without output entries fall back to their
// original content so no input path is ever dropped from the bundle.
func (b *Builder) Write(path string, files []*domain.ProjectFile, report *domain.ConversionReport) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	entries := 0
	for _, file := range files {
		outputs := file.OutputFiles
		if len(outputs) == 0 {
			outputs = []domain.OutputFile{{
				Name:    file.Name,
				Path:    file.Path,
				Content: file.PassThrough(),
			}}
		}

		for _, output := range outputs {
			w, err := zw.Create(output.Path)
			if err != nil {
				zw.Close()
				return fmt.Errorf("failed to create archive entry %s: %w", output.Path, err)
			}
			if _, err := w.Write([]byte(output.Content)); err != nil {
				zw.Close()
				return fmt.Errorf("failed to write archive entry %s: %w", output.Path, err)
			}
			entries++
		}
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode report: %w", err)
	}

	w, err := zw.Create(ReportFileName)
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to create report entry: %w", err)
	}
	if _, err := w.Write(reportJSON); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write report entry: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	b.logger.Info("Wrote archive",
		zap.String("path", path),
		zap.Int("entries", entries))

	return nil
}
