package domain

import "time"

// FileStatus tracks a file through the conversion state machine:
// idle -> processing -> {completed | error}.
type FileStatus string

const (
	StatusIdle       FileStatus = "idle"
	StatusProcessing FileStatus = "processing"
	StatusCompleted  FileStatus = "completed"
	StatusError      FileStatus = "error"
)

// BinaryPlaceholder is stored in ProjectFile.Content for binary assets.
// The original bytes are kept in Raw so packaging never loses the file.
const BinaryPlaceholder = "[binary file]"

type ProjectFile struct {
	ID          string       `json:"id"`       // ULID, unique within a session
	Name        string       `json:"name"`     // "main.py"
	Path        string       `json:"path"`     // "src/main.py", slash-separated, relative
	Content     string       `json:"content"`  // decoded text, BinaryPlaceholder for binaries
	Raw         []byte       `json:"-"`        // original bytes for binary assets
	Size        int64        `json:"size"`     // original size in bytes
	Language    string       `json:"language"` // "Python", "" when unknown
	IsAsset     bool         `json:"is_asset"` // passed through unconverted
	Status      FileStatus   `json:"status"`
	Error       string       `json:"error,omitempty"`
	OutputFiles []OutputFile `json:"output_files"` // empty until conversion completes
}

// PassThrough returns the content that packaging should emit when the
// file is not converted: the original bytes for binaries, the original
// text otherwise.
func (f *ProjectFile) PassThrough() string {
	if len(f.Raw) > 0 {
		return string(f.Raw)
	}
	return f.Content
}

// OutputFile is one file produced for an input file. A conversion may
// emit several of these for a single input (a "split").
type OutputFile struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileStat is the manifest entry sent to the gateway for project analysis.
// Content is deliberately absent.
type FileStat struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ProjectAnalysis classifies a loaded project. Immutable after creation.
type ProjectAnalysis struct {
	ProjectType     string   `json:"project_type"`     // "Node.js", "Maven"
	PrimaryLanguage string   `json:"primary_language"` // "python"
	Framework       string   `json:"framework,omitempty"`
	AmbiguousFiles  []string `json:"ambiguous_files,omitempty"`
	SuggestedTarget string   `json:"suggested_target,omitempty"`
	Fallback        bool     `json:"fallback,omitempty"` // derived locally, not by the gateway
}

// ConversionReport summarizes one full batch run. Write-once.
type ConversionReport struct {
	Timestamp            time.Time `json:"timestamp"`
	ProjectType          string    `json:"project_type"`
	LanguagesFound       []string  `json:"languages_found"`
	TotalFiles           int       `json:"total_files"`
	ConvertedFiles       int       `json:"converted_files"`
	SplitsFound          int       `json:"splits_found"`
	ManualReviewRequired []string  `json:"manual_review_required"`
	Notes                string    `json:"notes"`
}

// HistoryItem is an immutable snapshot of one converted file.
type HistoryItem struct {
	ID              string       `json:"id"` // ULID, orders eviction
	FilePath        string       `json:"file_path"`
	OriginalContent string       `json:"original_content"`
	OutputFiles     []OutputFile `json:"output_files"`
	SourceLanguage  string       `json:"source_language"`
	TargetLanguage  string       `json:"target_language"`
	CreatedAt       time.Time    `json:"created_at"`
}
