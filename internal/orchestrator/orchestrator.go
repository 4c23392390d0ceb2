// Package orchestrator drives the batch conversion: one gateway call per
// file, strictly sequential, with isolated per-file failure handling,
// live progress events, and final report synthesis.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"codeport-cli/internal/apperrors"
	"codeport-cli/internal/domain"
)

// ProgressEvent is emitted after every file status change. Percent is
// monotonically non-decreasing across a run and reaches 100 exactly when
// the last file has been processed.
type ProgressEvent struct {
	FileID  string
	Path    string
	Status  domain.FileStatus
	Error   string
	Percent int
}

// RunRequest describes one batch run over a session.
type RunRequest struct {
	Session     *Session
	Source      domain.SourceSelection
	Target      domain.Language
	AllowSplit  bool
	ArchivePath string
	Events      chan<- ProgressEvent // optional; never blocks the run when nil
}

// RunResult is returned after a completed batch run.
type RunResult struct {
	Report      *domain.ConversionReport
	ArchivePath string
	Source      domain.Language
}

// Orchestrator wires the gateway, history store, and archive builder.
type Orchestrator struct {
	gateway domain.GatewayClient
	history domain.HistoryStore
	archive domain.ArchiveBuilder
	logger  *zap.Logger
}

// New creates an orchestrator with dependency injection.
func New(
	gateway domain.GatewayClient,
	history domain.HistoryStore,
	archive domain.ArchiveBuilder,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		history: history,
		archive: archive,
		logger:  logger,
	}
}

// Run converts every file in load order. Per-file failures are contained:
// the file is marked error with its original content as the sole output,
// and its path lands on the manual-review list. Two failures abort the
// whole run: a gateway error carrying the configuration code, and an
// expired context. After the loop the report is synthesized and the
// archive written; archive errors propagate unhandled.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	files := req.Session.Files()
	if len(files) == 0 {
		return nil, apperrors.NewEmptyProject()
	}

	source := req.Source.Resolve(req.Session.Analysis())
	start := time.Now()
	total := len(files)

	o.logger.Info("Starting batch conversion",
		zap.Int("total_files", total),
		zap.String("source", string(source)),
		zap.String("target", string(req.Target)),
		zap.Bool("allow_split", req.AllowSplit))

	var manualReview []string
	converted := 0
	splits := 0
	languages := map[string]bool{}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch run aborted after %d of %d files: %w", i, total, err)
		}

		if file.Language != "" {
			languages[file.Language] = true
		}

		percent := progressPercent(i+1, total)

		if file.IsAsset {
			o.completeAsset(req, file, percent)
			continue
		}

		o.setProcessing(req, file)

		outputs, err := o.gateway.Convert(ctx, file, source, req.Target, req.AllowSplit)
		if err != nil {
			if apperrors.IsConfiguration(err) {
				o.failFile(req, file, err, percent)
				return nil, err
			}

			o.logger.Error("File conversion failed",
				zap.String("path", file.Path),
				zap.Error(err))

			o.failFile(req, file, err, percent)
			manualReview = append(manualReview, file.Path)
			continue
		}

		o.completeFile(req, file, outputs, percent)
		converted++
		if len(outputs) > 1 {
			splits++
		}

		o.recordHistory(ctx, file, outputs, source, req.Target)
	}

	report := o.buildReport(req.Session, source, req.Target, converted, splits, manualReview, languages, start)

	if err := o.archive.Write(req.ArchivePath, req.Session.Files(), report); err != nil {
		return nil, err
	}

	o.logger.Info("Batch conversion completed",
		zap.Int("total_files", report.TotalFiles),
		zap.Int("converted_files", report.ConvertedFiles),
		zap.Int("splits_found", report.SplitsFound),
		zap.Int("manual_review", len(report.ManualReviewRequired)),
		zap.Duration("elapsed", time.Since(start)))

	return &RunResult{
		Report:      report,
		ArchivePath: req.ArchivePath,
		Source:      source,
	}, nil
}

// completeAsset passes an asset straight to completed; assets never touch
// the gateway.
func (o *Orchestrator) completeAsset(req RunRequest, file *domain.ProjectFile, percent int) {
	req.Session.update(file.ID, func(f domain.ProjectFile) domain.ProjectFile {
		f.Status = domain.StatusCompleted
		f.OutputFiles = []domain.OutputFile{{
			Name:    f.Name,
			Path:    f.Path,
			Content: f.PassThrough(),
		}}
		return f
	})
	req.Session.setProgress(percent)
	o.emit(req, ProgressEvent{
		FileID:  file.ID,
		Path:    file.Path,
		Status:  domain.StatusCompleted,
		Percent: percent,
	})
}

func (o *Orchestrator) setProcessing(req RunRequest, file *domain.ProjectFile) {
	req.Session.update(file.ID, func(f domain.ProjectFile) domain.ProjectFile {
		f.Status = domain.StatusProcessing
		return f
	})
	o.emit(req, ProgressEvent{
		FileID:  file.ID,
		Path:    file.Path,
		Status:  domain.StatusProcessing,
		Percent: req.Session.Progress(),
	})
}

// failFile marks the file error and falls back to its original content as
// the sole output so packaging never misses this path.
func (o *Orchestrator) failFile(req RunRequest, file *domain.ProjectFile, err error, percent int) {
	req.Session.update(file.ID, func(f domain.ProjectFile) domain.ProjectFile {
		f.Status = domain.StatusError
		f.Error = err.Error()
		f.OutputFiles = []domain.OutputFile{{
			Name:    f.Name,
			Path:    f.Path,
			Content: f.PassThrough(),
		}}
		return f
	})
	req.Session.setProgress(percent)
	o.emit(req, ProgressEvent{
		FileID:  file.ID,
		Path:    file.Path,
		Status:  domain.StatusError,
		Error:   err.Error(),
		Percent: percent,
	})
}

func (o *Orchestrator) completeFile(req RunRequest, file *domain.ProjectFile, outputs []domain.OutputFile, percent int) {
	req.Session.update(file.ID, func(f domain.ProjectFile) domain.ProjectFile {
		f.Status = domain.StatusCompleted
		f.OutputFiles = outputs
		return f
	})
	req.Session.setProgress(percent)
	o.emit(req, ProgressEvent{
		FileID:  file.ID,
		Path:    file.Path,
		Status:  domain.StatusCompleted,
		Percent: percent,
	})
}

// recordHistory appends a snapshot for a successful conversion. History
// failures are logged, never surfaced: they must not fail the file.
func (o *Orchestrator) recordHistory(
	ctx context.Context,
	file *domain.ProjectFile,
	outputs []domain.OutputFile,
	source, target domain.Language,
) {
	if o.history == nil {
		return
	}

	err := o.history.Append(ctx, &domain.HistoryItem{
		FilePath:        file.Path,
		OriginalContent: file.Content,
		OutputFiles:     outputs,
		SourceLanguage:  string(source),
		TargetLanguage:  string(target),
		CreatedAt:       time.Now(),
	})
	if err != nil {
		o.logger.Warn("Failed to record history entry",
			zap.String("path", file.Path),
			zap.Error(err))
	}
}

// buildReport synthesizes the write-once run summary.
func (o *Orchestrator) buildReport(
	session *Session,
	source, target domain.Language,
	converted, splits int,
	manualReview []string,
	languages map[string]bool,
	start time.Time,
) *domain.ConversionReport {
	found := make([]string, 0, len(languages))
	for lang := range languages {
		found = append(found, lang)
	}
	sort.Strings(found)

	projectType := ""
	if analysis := session.Analysis(); analysis != nil {
		projectType = analysis.ProjectType
	}

	if manualReview == nil {
		manualReview = []string{}
	}

	return &domain.ConversionReport{
		Timestamp:            time.Now(),
		ProjectType:          projectType,
		LanguagesFound:       found,
		TotalFiles:           len(session.Files()),
		ConvertedFiles:       converted,
		SplitsFound:          splits,
		ManualReviewRequired: manualReview,
		Notes: fmt.Sprintf("Converted %d of %d files from %s to %s in %s.",
			converted, len(session.Files()), source, target, time.Since(start).Round(time.Millisecond)),
	}
}

func (o *Orchestrator) emit(req RunRequest, event ProgressEvent) {
	if req.Events == nil {
		return
	}
	req.Events <- event
}

// progressPercent is round(100 * done / total).
func progressPercent(done, total int) int {
	return int(math.Round(100 * float64(done) / float64(total)))
}
