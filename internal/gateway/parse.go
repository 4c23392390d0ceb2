package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeport-cli/internal/apperrors"
	"codeport-cli/internal/domain"
)

// stripFence removes an optional triple-backtick markdown fence, with or
// without a leading "json" tag, from around the reply text.
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

type filesPayload struct {
	Files []domain.OutputFile `json:"files"`
}

// parseFiles validates a conversion reply against the files schema. The
// result is guaranteed non-empty with name and path set on every entry.
// Content may be empty; some source files legitimately convert to an
// empty counterpart.
func parseFiles(text string) ([]domain.OutputFile, error) {
	var payload filesPayload
	if err := json.Unmarshal([]byte(stripFence(text)), &payload); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}

	if len(payload.Files) == 0 {
		return nil, fmt.Errorf("reply contains no files")
	}

	for i, f := range payload.Files {
		if f.Name == "" || f.Path == "" {
			return nil, fmt.Errorf("files[%d] is missing a required field", i)
		}
	}

	return payload.Files, nil
}

type analysisPayload struct {
	ProjectType     string   `json:"projectType"`
	PrimaryLanguage string   `json:"primaryLanguage"`
	Framework       string   `json:"framework"`
	AmbiguousFiles  []string `json:"ambiguousFiles"`
	SuggestedTarget string   `json:"suggestedTarget"`
}

// parseAnalysis validates an analyze reply. Missing required fields are a
// schema violation.
func parseAnalysis(text string) (*domain.ProjectAnalysis, error) {
	var payload analysisPayload
	if err := json.Unmarshal([]byte(stripFence(text)), &payload); err != nil {
		return nil, apperrors.NewSchemaViolation(fmt.Sprintf("analysis reply is not valid JSON: %v", err))
	}

	if payload.ProjectType == "" {
		return nil, apperrors.NewSchemaViolation("analysis reply is missing projectType")
	}
	if payload.PrimaryLanguage == "" {
		return nil, apperrors.NewSchemaViolation("analysis reply is missing primaryLanguage")
	}

	return &domain.ProjectAnalysis{
		ProjectType:     payload.ProjectType,
		PrimaryLanguage: payload.PrimaryLanguage,
		Framework:       payload.Framework,
		AmbiguousFiles:  payload.AmbiguousFiles,
		SuggestedTarget: payload.SuggestedTarget,
	}, nil
}
