// Package ingest reads a project's files into memory from a local
// directory or a GitLab repository and classifies each one as convertible
// text or a pass-through asset.
package ingest

import (
	"context"
	"crypto/rand"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	gitignore "github.com/denormal/go-gitignore"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"codeport-cli/internal/domain"
)

// Options controls which files enter the working set.
type Options struct {
	Include          []string // doublestar globs; empty means everything
	Exclude          []string
	MaxFileSizeBytes int64
}

// Loader reads a project from a local directory tree.
type Loader struct {
	opts   Options
	logger *zap.Logger
}

func NewLoader(opts Options, logger *zap.Logger) *Loader {
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = 1024 * 1024
	}
	return &Loader{opts: opts, logger: logger}
}

// candidate is one file selected during the walk, before its content has
// been read.
type candidate struct {
	absPath string
	relPath string
	name    string
	size    int64
}

// Load walks root, filters the tree, and reads all selected files into
// memory. Reads run concurrently and are joined before returning; the
// returned order is the deterministic walk order.
func (l *Loader) Load(ctx context.Context, root string) ([]*domain.ProjectFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	matcher := loadGitignore(root)
	candidates, err := l.collect(root, matcher)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Collected project files",
		zap.String("root", root),
		zap.Int("file_count", len(candidates)))

	// Read every file concurrently; distinct slice slots need no lock.
	contents := make([][]byte, len(candidates))
	errChan := make(chan error, len(candidates))
	var wg sync.WaitGroup

	for idx, cand := range candidates {
		wg.Add(1)
		go func(idx int, cand candidate) {
			defer wg.Done()

			data, err := os.ReadFile(cand.absPath)
			if err != nil {
				errChan <- fmt.Errorf("failed to read %s: %w", cand.relPath, err)
				return
			}
			contents[idx] = data
		}(idx, cand)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entropy := ulid.Monotonic(rand.Reader, 0)
	files := make([]*domain.ProjectFile, 0, len(candidates))
	for idx, cand := range candidates {
		file := buildProjectFile(cand.name, cand.relPath, cand.size, contents[idx])

		id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
		if err != nil {
			return nil, fmt.Errorf("failed to generate file id: %w", err)
		}
		file.ID = id.String()

		files = append(files, file)
	}

	return files, nil
}

// collect walks the tree and returns the selected candidates in walk
// order. Directories named for VCS or dependency-cache metadata are
// pruned, .gitignore rules and the configured globs are honored.
func (l *Loader) collect(root string, matcher gitignore.GitIgnore) ([]candidate, error) {
	var candidates []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			if matcher != nil {
				if match := matcher.Relative(rel, true); match != nil && match.Ignore() {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if matcher != nil {
			if match := matcher.Relative(rel, false); match != nil && match.Ignore() {
				return nil
			}
		}
		if matchAny(l.opts.Exclude, rel) {
			return nil
		}
		if len(l.opts.Include) > 0 && !matchAny(l.opts.Include, rel) && !IsAssetName(d.Name()) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if info.Size() > l.opts.MaxFileSizeBytes {
			l.logger.Debug("Skipping oversized file",
				zap.String("path", rel),
				zap.Int64("size", info.Size()))
			return nil
		}

		candidates = append(candidates, candidate{
			absPath: path,
			relPath: rel,
			name:    d.Name(),
			size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return candidates, nil
}

// buildProjectFile classifies raw content into a ProjectFile. Binary
// files keep their bytes in Raw with a placeholder Content; text files
// without a recognized source extension pass through as assets.
func buildProjectFile(name, relPath string, size int64, data []byte) *domain.ProjectFile {
	file := &domain.ProjectFile{
		Name:   name,
		Path:   relPath,
		Size:   size,
		Status: domain.StatusIdle,
	}

	if IsBinaryExtension(relPath) || IsBinaryContent(data) {
		file.Content = domain.BinaryPlaceholder
		file.Raw = data
		file.IsAsset = true
		return file
	}

	file.Content = string(data)
	file.Language = DetectLanguage(relPath)
	file.IsAsset = IsAssetName(name) || file.Language == ""
	return file
}

// loadGitignore builds a matcher from the project's .gitignore, if any.
func loadGitignore(root string) gitignore.GitIgnore {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, root, nil)
}
