package domain

import "context"

type GatewayClient interface {
	// converts one text file, returning the ordered output files
	Convert(ctx context.Context, file *ProjectFile, source, target Language, allowSplit bool) ([]OutputFile, error)

	// classifies a project from a name/path/size manifest
	Analyze(ctx context.Context, manifest []FileStat) (*ProjectAnalysis, error)
}

type ProjectSource interface {
	// reads a project into memory; locator is a directory or repository URL
	Load(ctx context.Context, locator string) ([]*ProjectFile, error)
}

type ProjectAnalyzer interface {
	// classifies the loaded files, falling back to local manifest hints
	Analyze(ctx context.Context, files []*ProjectFile) (*ProjectAnalysis, error)
}

type HistoryStore interface {
	// appends a snapshot, evicting the oldest entries beyond the cap
	Append(ctx context.Context, item *HistoryItem) error

	// returns the most recent snapshots, newest first
	List(ctx context.Context, limit int) ([]*HistoryItem, error)
}

type ArchiveBuilder interface {
	// packages every file's output entries plus the report into one bundle
	Write(path string, files []*ProjectFile, report *ConversionReport) error
}
