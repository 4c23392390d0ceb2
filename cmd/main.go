package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codeport-cli/internal/analyzer"
	"codeport-cli/internal/archive"
	"codeport-cli/internal/config"
	"codeport-cli/internal/domain"
	"codeport-cli/internal/gateway"
	"codeport-cli/internal/history"
	"codeport-cli/internal/ingest"
	"codeport-cli/internal/logger"
	"codeport-cli/internal/manifest"
	"codeport-cli/internal/orchestrator"
)

var (
	configFile string
	outputFile string
	sourceLang string
	targetLang string
	gitlabURL  string
	noSplit    bool
	debug      bool
	timeout    int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codeport",
	Short: "Codeport - Convert whole projects between programming languages",
	Long: `A command-line tool that loads a project from a local directory or a
GitLab repository, classifies it, sends each source file to a hosted
AI conversion gateway, and packages the translated files together with
a conversion report into a single ZIP bundle. Conversion runs strictly
one file at a time with live per-file progress; failed files pass
through unchanged and are flagged for manual review.`,
}

// analyzeCmd classifies a project without converting anything
var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Classify a project from its file manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

// convertCmd runs the full batch conversion
var convertCmd = &cobra.Command{
	Use:   "convert <path>",
	Short: "Convert every source file in a project and bundle the results",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConvert,
}

// historyCmd lists recent conversion snapshots
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent per-file conversion snapshots",
	RunE:  runHistory,
}

func setupCommands() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(historyCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (required)")
	if err := rootCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as required: %v", err))
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging with verbose output")

	// Convert command flags
	convertCmd.Flags().StringVarP(&sourceLang, "source", "s", "", `Source language ("auto" or a language tag; overrides config)`)
	convertCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language (overrides config)")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output archive path (overrides config)")
	convertCmd.Flags().StringVar(&gitlabURL, "from-gitlab", "", "Load the project from a GitLab repository URL instead of a local path")
	convertCmd.Flags().BoolVar(&noSplit, "no-split", false, "Force a strict 1:1 file mapping")
	convertCmd.Flags().IntVar(&timeout, "timeout", 0, "Run timeout in minutes (overrides config, 0 = use config default)")
}

func main() {
	setupCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if sourceLang != "" {
		cfg.Conversion.Source = sourceLang
	}
	if targetLang != "" {
		cfg.Conversion.Target = targetLang
	}
	if outputFile != "" {
		cfg.Output.ArchiveFile = outputFile
	}
	if noSplit {
		cfg.Conversion.AllowSplit = false
	}
	if timeout > 0 {
		cfg.Timeout.RunTimeoutMinutes = timeout
	}

	return cfg, nil
}

// configureLogging applies the configured level; --debug wins.
func configureLogging(cfg *config.Config) *zap.Logger {
	if debug {
		logger.SetLevel(zap.DebugLevel)
	} else if cfg.Logging.Level != "" {
		if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
			logger.SetLevel(level)
		}
	}
	return logger.Get()
}

// sourceSelection maps the configured source tag to the tagged choice.
func sourceSelection(tag string) (domain.SourceSelection, error) {
	if tag == "auto" {
		return domain.AutoSource(), nil
	}
	lang, ok := domain.ParseLanguage(tag)
	if !ok {
		return domain.SourceSelection{}, fmt.Errorf("unrecognized source language %q", tag)
	}
	return domain.FixedSource(lang), nil
}

// projectSource picks between the local loader and the GitLab source.
func projectSource(cfg *config.Config, l *zap.Logger) (domain.ProjectSource, string, error) {
	opts := ingest.Options{
		Include:          cfg.Ingest.Include,
		Exclude:          cfg.Ingest.Exclude,
		MaxFileSizeBytes: cfg.Ingest.MaxFileSizeBytes,
	}

	if gitlabURL != "" {
		source, err := ingest.NewGitLabSource(cfg.GitLab.BaseURL, cfg.GitLab.Token, opts, l)
		if err != nil {
			return nil, "", err
		}
		return source, gitlabURL, nil
	}

	return ingest.NewLoader(opts, l), "", nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l := configureLogging(cfg)

	client, err := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Model, l)
	if err != nil {
		return err
	}

	loader := ingest.NewLoader(ingest.Options{
		Include:          cfg.Ingest.Include,
		Exclude:          cfg.Ingest.Exclude,
		MaxFileSizeBytes: cfg.Ingest.MaxFileSizeBytes,
	}, l)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Timeout.RunTimeoutMinutes)*time.Minute)
	defer cancel()

	files, err := loader.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	analysis, err := analyzer.New(client, manifest.NewInspector(l), l).Analyze(ctx, files)
	if err != nil {
		return fmt.Errorf("failed to analyze project: %w", err)
	}

	fmt.Println("🔎 Project analysis:")
	fmt.Printf("  • Project Type: %s\n", analysis.ProjectType)
	fmt.Printf("  • Primary Language: %s\n", analysis.PrimaryLanguage)
	if analysis.Framework != "" {
		fmt.Printf("  • Framework: %s\n", analysis.Framework)
	}
	if analysis.SuggestedTarget != "" {
		fmt.Printf("  • Suggested Target: %s\n", analysis.SuggestedTarget)
	}
	if len(analysis.AmbiguousFiles) > 0 {
		fmt.Printf("  • Ambiguous Files: %v\n", analysis.AmbiguousFiles)
	}
	if analysis.Fallback {
		fmt.Println("  • (derived from local manifests; gateway was unreachable)")
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	if gitlabURL == "" && len(args) == 0 {
		return fmt.Errorf("a project path or --from-gitlab URL is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l := configureLogging(cfg)

	selection, err := sourceSelection(cfg.Conversion.Source)
	if err != nil {
		return err
	}
	target, ok := domain.ParseLanguage(cfg.Conversion.Target)
	if !ok {
		return fmt.Errorf("unrecognized target language %q", cfg.Conversion.Target)
	}

	client, err := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Model, l)
	if err != nil {
		return err
	}

	source, locator, err := projectSource(cfg, l)
	if err != nil {
		return err
	}
	if locator == "" {
		locator = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Timeout.RunTimeoutMinutes)*time.Minute)
	defer cancel()

	fmt.Println("📦 Loading project...")
	files, err := source.Load(ctx, locator)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	session := orchestrator.NewSession(files)

	analysis, err := analyzer.New(client, manifest.NewInspector(l), l).Analyze(ctx, files)
	if err != nil {
		l.Warn("Project analysis unavailable", zap.Error(err))
	} else {
		session.SetAnalysis(analysis)
	}

	store, err := history.Open(cfg.History.Dir, cfg.History.Cap)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	events := make(chan orchestrator.ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(events)
	}()

	orch := orchestrator.New(client, store, archive.NewBuilder(l), l)
	result, runErr := orch.Run(ctx, orchestrator.RunRequest{
		Session:     session,
		Source:      selection,
		Target:      target,
		AllowSplit:  cfg.Conversion.AllowSplit,
		ArchivePath: cfg.Output.ArchiveFile,
		Events:      events,
	})
	close(events)
	<-done

	if runErr != nil {
		return fmt.Errorf("failed to convert project: %w", runErr)
	}

	fmt.Println("\n🎉 Conversion completed!")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  • Total Files: %d\n", result.Report.TotalFiles)
	fmt.Printf("  • Converted Files: %d\n", result.Report.ConvertedFiles)
	fmt.Printf("  • Splits Found: %d\n", result.Report.SplitsFound)
	fmt.Printf("  • Manual Review: %d\n", len(result.Report.ManualReviewRequired))
	fmt.Printf("  • Archive: %s\n", result.ArchivePath)
	return nil
}

// printProgress renders one colored line per file status change.
func printProgress(events <-chan orchestrator.ProgressEvent) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for event := range events {
		switch event.Status {
		case domain.StatusProcessing:
			fmt.Printf("%s %s\n", yellow("…"), event.Path)
		case domain.StatusCompleted:
			fmt.Printf("%s %s (%d%%)\n", green("✓"), event.Path, event.Percent)
		case domain.StatusError:
			fmt.Printf("%s %s (%d%%): %s\n", red("✗"), event.Path, event.Percent, event.Error)
		}
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Dir, cfg.History.Cap)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	items, err := store.List(context.Background(), 0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("No conversion history yet.")
		return nil
	}

	for _, item := range items {
		fmt.Printf("%s  %s → %s  %s (%d output files)\n",
			item.CreatedAt.Format("2006-01-02 15:04:05"),
			item.SourceLanguage, item.TargetLanguage,
			item.FilePath, len(item.OutputFiles))
	}
	return nil
}
