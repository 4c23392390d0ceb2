package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codeport-cli/internal/apperrors"
	"codeport-cli/internal/domain"
	"codeport-cli/internal/orchestrator"
)

// MockGatewayClient for testing
type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) Convert(
	ctx context.Context,
	file *domain.ProjectFile,
	source, target domain.Language,
	allowSplit bool,
) ([]domain.OutputFile, error) {
	args := m.Called(ctx, file, source, target, allowSplit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutputFile), args.Error(1)
}

func (m *MockGatewayClient) Analyze(ctx context.Context, manifest []domain.FileStat) (*domain.ProjectAnalysis, error) {
	args := m.Called(ctx, manifest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProjectAnalysis), args.Error(1)
}

// MockHistoryStore for testing
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Append(ctx context.Context, item *domain.HistoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockHistoryStore) List(ctx context.Context, limit int) ([]*domain.HistoryItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryItem), args.Error(1)
}

// MockArchiveBuilder for testing
type MockArchiveBuilder struct {
	mock.Mock
}

func (m *MockArchiveBuilder) Write(path string, files []*domain.ProjectFile, report *domain.ConversionReport) error {
	args := m.Called(path, files, report)
	return args.Error(0)
}

func sampleFiles() []*domain.ProjectFile {
	return []*domain.ProjectFile{
		{
			ID:       "01A",
			Name:     "a.py",
			Path:     "a.py",
			Content:  "print('a')",
			Size:     10,
			Language: "Python",
			Status:   domain.StatusIdle,
		},
		{
			ID:       "01B",
			Name:     "b.py",
			Path:     "b.py",
			Content:  "print('b')",
			Size:     10,
			Language: "Python",
			Status:   domain.StatusIdle,
		},
		{
			ID:      "01C",
			Name:    "config.json",
			Path:    "config.json",
			Content: `{"key": true}`,
			Size:    13,
			IsAsset: true,
			Status:  domain.StatusIdle,
		},
	}
}

func TestRun_HappyPath(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	session := orchestrator.NewSession(files)
	session.SetAnalysis(&domain.ProjectAnalysis{ProjectType: "Python Script", PrimaryLanguage: "python"})

	mockGateway := &MockGatewayClient{}
	mockHistory := &MockHistoryStore{}
	mockArchive := &MockArchiveBuilder{}

	mockGateway.On("Convert", mock.Anything, mock.MatchedBy(func(f *domain.ProjectFile) bool {
		return f.Path == "a.py"
	}), domain.LanguagePython, domain.LanguageJava, true).
		Return([]domain.OutputFile{{Name: "A.java", Path: "A.java", Content: "class A {}"}}, nil)

	// b.py splits into two outputs
	mockGateway.On("Convert", mock.Anything, mock.MatchedBy(func(f *domain.ProjectFile) bool {
		return f.Path == "b.py"
	}), domain.LanguagePython, domain.LanguageJava, true).
		Return([]domain.OutputFile{
			{Name: "B.java", Path: "B.java", Content: "class B {}"},
			{Name: "BHelper.java", Path: "BHelper.java", Content: "class BHelper {}"},
		}, nil)

	mockHistory.On("Append", mock.Anything, mock.Anything).Return(nil)
	mockArchive.On("Write", "out.zip", mock.Anything, mock.Anything).Return(nil)

	orch := orchestrator.New(mockGateway, mockHistory, mockArchive, zap.NewNop())
	result, err := orch.Run(context.Background(), orchestrator.RunRequest{
		Session:     session,
		Source:      domain.AutoSource(),
		Target:      domain.LanguageJava,
		AllowSplit:  true,
		ArchivePath: "out.zip",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.LanguagePython, result.Source)
	assert.Equal(t, "out.zip", result.ArchivePath)

	report := result.Report
	assert.Equal(t, 3, report.TotalFiles)
	assert.Equal(t, 2, report.ConvertedFiles)
	assert.Equal(t, 1, report.SplitsFound)
	assert.Equal(t, []string{}, report.ManualReviewRequired)
	assert.Equal(t, "Python Script", report.ProjectType)
	assert.Equal(t, []string{"Python"}, report.LanguagesFound)

	// Every file ends completed; the asset carries itself as its output.
	for _, f := range session.Files() {
		assert.Equal(t, domain.StatusCompleted, f.Status, f.Path)
		assert.NotEmpty(t, f.OutputFiles, f.Path)
	}
	asset := session.Files()[2]
	assert.Equal(t, `{"key": true}`, asset.OutputFiles[0].Content)

	mockGateway.AssertExpectations(t)
	mockHistory.AssertNumberOfCalls(t, "Append", 2)
	mockArchive.AssertExpectations(t)
}

func TestRun_FailedFileIsIsolated(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	session := orchestrator.NewSession(files)

	mockGateway := &MockGatewayClient{}
	mockHistory := &MockHistoryStore{}
	mockArchive := &MockArchiveBuilder{}

	mockGateway.On("Convert", mock.Anything, mock.MatchedBy(func(f *domain.ProjectFile) bool {
		return f.Path == "a.py"
	}), mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.OutputFile{{Name: "A.java", Path: "A.java", Content: "class A {}"}}, nil)

	mockGateway.On("Convert", mock.Anything, mock.MatchedBy(func(f *domain.ProjectFile) bool {
		return f.Path == "b.py"
	}), mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewConversionFailed("b.py", errors.New("connection reset")))

	mockHistory.On("Append", mock.Anything, mock.Anything).Return(nil)
	mockArchive.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	orch := orchestrator.New(mockGateway, mockHistory, mockArchive, zap.NewNop())
	result, err := orch.Run(context.Background(), orchestrator.RunRequest{
		Session:     session,
		Source:      domain.FixedSource(domain.LanguagePython),
		Target:      domain.LanguageJava,
		AllowSplit:  true,
		ArchivePath: "out.zip",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Report.ConvertedFiles)
	assert.Equal(t, []string{"b.py"}, result.Report.ManualReviewRequired)

	failed := session.Files()[1]
	assert.Equal(t, domain.StatusError, failed.Status)
	assert.NotEmpty(t, failed.Error)
	require.Len(t, failed.OutputFiles, 1)
	assert.Equal(t, "print('b')", failed.OutputFiles[0].Content, "failed file must pass through unchanged")

	// History records successes only.
	mockHistory.AssertNumberOfCalls(t, "Append", 1)
}

func TestRun_ConfigurationErrorAborts(t *testing.T) {
	t.Parallel()

	session := orchestrator.NewSession(sampleFiles())

	mockGateway := &MockGatewayClient{}
	mockArchive := &MockArchiveBuilder{}

	mockGateway.On("Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewConfiguration("API key rejected"))

	orch := orchestrator.New(mockGateway, nil, mockArchive, zap.NewNop())
	result, err := orch.Run(context.Background(), orchestrator.RunRequest{
		Session:     session,
		Source:      domain.FixedSource(domain.LanguagePython),
		Target:      domain.LanguageJava,
		ArchivePath: "out.zip",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.CodeOf(err))

	// No archive is written for an aborted run.
	mockArchive.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	mockGateway.AssertNumberOfCalls(t, "Convert", 1)
}

func TestRun_ProgressIsMonotonicAndEndsAt100(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	session := orchestrator.NewSession(files)

	mockGateway := &MockGatewayClient{}
	mockArchive := &MockArchiveBuilder{}

	mockGateway.On("Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.OutputFile{{Name: "X.java", Path: "X.java", Content: "class X {}"}}, nil)
	mockArchive.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	events := make(chan orchestrator.ProgressEvent, 2*len(files)+4)

	orch := orchestrator.New(mockGateway, nil, mockArchive, zap.NewNop())
	_, err := orch.Run(context.Background(), orchestrator.RunRequest{
		Session:     session,
		Source:      domain.FixedSource(domain.LanguagePython),
		Target:      domain.LanguageJava,
		ArchivePath: "out.zip",
		Events:      events,
	})
	require.NoError(t, err)
	close(events)

	last := 0
	for event := range events {
		assert.GreaterOrEqual(t, event.Percent, last)
		last = event.Percent
	}
	assert.Equal(t, 100, last)
	assert.Equal(t, 100, session.Progress())
}

func TestRun_EmptyProject(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New(&MockGatewayClient{}, nil, &MockArchiveBuilder{}, zap.NewNop())
	result, err := orch.Run(context.Background(), orchestrator.RunRequest{
		Session: orchestrator.NewSession(nil),
		Source:  domain.FixedSource(domain.LanguagePython),
		Target:  domain.LanguageJava,
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, apperrors.CodeEmptyProject, apperrors.CodeOf(err))
}

func TestRun_CancelledContextAborts(t *testing.T) {
	t.Parallel()

	session := orchestrator.NewSession(sampleFiles())
	mockArchive := &MockArchiveBuilder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := orchestrator.New(&MockGatewayClient{}, nil, mockArchive, zap.NewNop())
	result, err := orch.Run(ctx, orchestrator.RunRequest{
		Session:     session,
		Source:      domain.FixedSource(domain.LanguagePython),
		Target:      domain.LanguageJava,
		ArchivePath: "out.zip",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	mockArchive.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_ArchiveErrorPropagates(t *testing.T) {
	t.Parallel()

	session := orchestrator.NewSession(sampleFiles()[2:])

	mockArchive := &MockArchiveBuilder{}
	mockArchive.On("Write", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("disk full"))

	orch := orchestrator.New(&MockGatewayClient{}, nil, mockArchive, zap.NewNop())
	_, err := orch.Run(context.Background(), orchestrator.RunRequest{
		Session:     session,
		Source:      domain.FixedSource(domain.LanguagePython),
		Target:      domain.LanguageJava,
		ArchivePath: "out.zip",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRun_HistoryFailureDoesNotFailFile(t *testing.T) {
	t.Parallel()

	session := orchestrator.NewSession(sampleFiles()[:1])

	mockGateway := &MockGatewayClient{}
	mockHistory := &MockHistoryStore{}
	mockArchive := &MockArchiveBuilder{}

	mockGateway.On("Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.OutputFile{{Name: "A.java", Path: "A.java", Content: "class A {}"}}, nil)
	mockHistory.On("Append", mock.Anything, mock.Anything).Return(errors.New("database locked"))
	mockArchive.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	orch := orchestrator.New(mockGateway, mockHistory, mockArchive, zap.NewNop())
	result, err := orch.Run(context.Background(), orchestrator.RunRequest{
		Session:     session,
		Source:      domain.FixedSource(domain.LanguagePython),
		Target:      domain.LanguageJava,
		ArchivePath: "out.zip",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Report.ConvertedFiles)
	assert.Equal(t, domain.StatusCompleted, session.Files()[0].Status)
}
