package ingest

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.uber.org/zap"

	"codeport-cli/internal/domain"
)

// fetchWorkers bounds concurrent blob fetches so the API is not
// overwhelmed.
const fetchWorkers = 5

// GitLabSource loads a project from a GitLab repository instead of the
// local filesystem. The same classification rules apply.
type GitLabSource struct {
	client *gitlab.Client
	opts   Options
	logger *zap.Logger
}

// NewGitLabSource creates a repository-backed project source.
func NewGitLabSource(baseURL, token string, opts Options, logger *zap.Logger) (*GitLabSource, error) {
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return &GitLabSource{
		client: client,
		opts:   opts,
		logger: logger,
	}, nil
}

// Load lists the repository tree on the default branch, filters it, and
// fetches every remaining blob.
func (s *GitLabSource) Load(ctx context.Context, repoURL string) ([]*domain.ProjectFile, error) {
	projectPath, err := extractProjectPath(repoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract project path from URL %s: %w", repoURL, err)
	}

	project, _, err := s.client.Projects.GetProject(projectPath, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", projectPath, err)
	}

	paths, err := s.listTree(ctx, projectPath, project.DefaultBranch)
	if err != nil {
		return nil, err
	}

	selected := s.filter(paths)
	s.logger.Info("Selected repository files",
		zap.String("project", projectPath),
		zap.Int("tree_files", len(paths)),
		zap.Int("selected", len(selected)))

	contents, err := s.fetchContents(ctx, projectPath, project.DefaultBranch, selected)
	if err != nil {
		return nil, err
	}

	entropy := ulid.Monotonic(rand.Reader, 0)
	files := make([]*domain.ProjectFile, 0, len(selected))
	for idx, path := range selected {
		name := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			name = path[i+1:]
		}

		file := buildProjectFile(name, path, int64(len(contents[idx])), contents[idx])

		id, idErr := ulid.New(ulid.Timestamp(time.Now()), entropy)
		if idErr != nil {
			return nil, fmt.Errorf("failed to generate file id: %w", idErr)
		}
		file.ID = id.String()

		files = append(files, file)
	}

	return files, nil
}

// listTree pages through the recursive repository tree and returns blob
// paths in listing order.
func (s *GitLabSource) listTree(ctx context.Context, projectPath, ref string) ([]string, error) {
	var paths []string
	page := 1
	perPage := 100

	for {
		tree, _, err := s.client.Repositories.ListTree(projectPath, &gitlab.ListTreeOptions{
			Recursive: gitlab.Ptr(true),
			Ref:       gitlab.Ptr(ref),
			ListOptions: gitlab.ListOptions{
				Page:    page,
				PerPage: perPage,
			},
		}, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to get repository tree for %s: %w", projectPath, err)
		}

		for _, item := range tree {
			if item.Type == "blob" {
				paths = append(paths, item.Path)
			}
		}

		if len(tree) < perPage {
			break
		}
		page++
	}

	return paths, nil
}

// filter applies the same directory, glob, and include rules as the local
// loader.
func (s *GitLabSource) filter(paths []string) []string {
	var selected []string

	for _, path := range paths {
		if hasSkippedDir(path) {
			continue
		}
		if matchAny(s.opts.Exclude, path) {
			continue
		}

		name := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			name = path[i+1:]
		}
		if len(s.opts.Include) > 0 && !matchAny(s.opts.Include, path) && !IsAssetName(name) {
			continue
		}

		selected = append(selected, path)
	}

	return selected
}

// fetchContents retrieves blobs with a bounded worker pool. Distinct
// slice slots need no lock.
func (s *GitLabSource) fetchContents(ctx context.Context, projectPath, ref string, paths []string) ([][]byte, error) {
	contents := make([][]byte, len(paths))
	idxChan := make(chan int, len(paths))
	errChan := make(chan error, len(paths))

	for idx := range paths {
		idxChan <- idx
	}
	close(idxChan)

	workers := fetchWorkers
	if len(paths) < workers {
		workers = len(paths)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range idxChan {
				select {
				case <-ctx.Done():
					errChan <- ctx.Err()
					return
				default:
				}

				data, err := s.fetchFile(ctx, projectPath, ref, paths[idx])
				if err != nil {
					errChan <- err
					return
				}
				contents[idx] = data
			}
		}()
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	return contents, nil
}

func (s *GitLabSource) fetchFile(ctx context.Context, projectPath, ref, path string) ([]byte, error) {
	file, _, err := s.client.RepositoryFiles.GetFile(projectPath, path, &gitlab.GetFileOptions{
		Ref: gitlab.Ptr(ref),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s from project %s: %w", path, projectPath, err)
	}

	data, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content for %s: %w", path, err)
	}

	return data, nil
}

// hasSkippedDir reports whether any path component names an excluded
// directory.
func hasSkippedDir(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if SkipDir(part) {
			return true
		}
	}
	return false
}

// extractProjectPath extracts the project path from a GitLab URL.
func extractProjectPath(gitlabURL string) (string, error) {
	parsed, err := url.Parse(gitlabURL)
	if err != nil {
		return "", err
	}

	path := strings.TrimPrefix(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "", fmt.Errorf("no path found in URL: %s", gitlabURL)
	}

	// Undo any existing encoding so the API client does not double-encode
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return path, nil
	}

	return decoded, nil
}
