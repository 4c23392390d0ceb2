// Package analyzer classifies a loaded project before a batch run.
package analyzer

import (
	"context"

	"go.uber.org/zap"

	"codeport-cli/internal/apperrors"
	"codeport-cli/internal/domain"
	"codeport-cli/internal/manifest"
)

// Analyzer asks the gateway to classify a project from its file manifest
// and falls back to local manifest inspection when the gateway cannot be
// reached.
type Analyzer struct {
	gateway   domain.GatewayClient
	inspector *manifest.Inspector
	logger    *zap.Logger
}

func New(gateway domain.GatewayClient, inspector *manifest.Inspector, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		gateway:   gateway,
		inspector: inspector,
		logger:    logger,
	}
}

// Analyze classifies the loaded files. Zero files fail with EMPTY_PROJECT
// before any gateway call is attempted. A gateway failure falls back to
// local manifest hints; only when both fail does the gateway error
// surface.
func (a *Analyzer) Analyze(ctx context.Context, files []*domain.ProjectFile) (*domain.ProjectAnalysis, error) {
	if len(files) == 0 {
		return nil, apperrors.NewEmptyProject()
	}

	manifestStats := make([]domain.FileStat, 0, len(files))
	for _, file := range files {
		manifestStats = append(manifestStats, domain.FileStat{
			Name: file.Name,
			Path: file.Path,
			Size: file.Size,
		})
	}

	analysis, err := a.gateway.Analyze(ctx, manifestStats)
	if err == nil {
		a.logger.Info("Project analysis completed",
			zap.String("project_type", analysis.ProjectType),
			zap.String("primary_language", analysis.PrimaryLanguage),
			zap.String("framework", analysis.Framework))
		return analysis, nil
	}

	a.logger.Warn("Gateway analysis failed, inspecting manifests locally", zap.Error(err))

	hints := a.inspector.Inspect(files)
	if !hints.Found() {
		return nil, err
	}

	a.logger.Info("Using local manifest hints",
		zap.String("project_type", hints.ProjectType),
		zap.String("primary_language", hints.PrimaryLanguage))

	return &domain.ProjectAnalysis{
		ProjectType:     hints.ProjectType,
		PrimaryLanguage: hints.PrimaryLanguage,
		Framework:       hints.Framework,
		Fallback:        true,
	}, nil
}
