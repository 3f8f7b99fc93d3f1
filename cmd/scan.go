package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/crossmaphq/crossmap/internal/discover"
	"github.com/crossmaphq/crossmap/internal/report"
	"github.com/crossmaphq/crossmap/internal/scan"
	"github.com/crossmaphq/crossmap/internal/search"
	"github.com/crossmaphq/crossmap/pkg/config"
	"github.com/crossmaphq/crossmap/pkg/exitcode"
	"github.com/crossmaphq/crossmap/pkg/graph"
	"github.com/crossmaphq/crossmap/pkg/logger"
	"github.com/crossmaphq/crossmap/pkg/modalias"
	"github.com/crossmaphq/crossmap/pkg/safeio"
)

// DefaultOutputDirName is created under the repos root when --output-dir
// is not given.
const DefaultOutputDirName = "_dependency_map"

// newScanCommand creates a fresh scan command instance so tests can build
// isolated command trees.
func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [repos-root]",
		Short: "Scan local clones and build the cross-repo dependency map",
		Long: `Scan walks every git repository directly under the repos root (default:
the current directory), searches each tree for references to the other
repositories, and writes the aggregated map to <output-dir>/edges.json,
edges.csv and dependency-map.mmd.

References are matched three ways: hosting URLs (github.com/owner/repo),
owner/repo shorthand for the configured --org, and Go module path aliases
collected from the go.mod files of the scanned repositories.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}

	flags := cmd.Flags()
	flags.String("config", "", "Config file (default: .crossmap.yaml in the current directory)")
	flags.String("org", "", "GitHub org for owner/repo shorthand matching (e.g. example-org)")
	flags.String("repo-list", "", "File with owner/repo lines restricting the repo set")
	flags.String("output-dir", "", "Output directory (default: <repos-root>/"+DefaultOutputDirName+")")
	flags.Int("max-evidence-per-edge", config.Default().MaxEvidencePerEdge, "Max evidence snippets kept per edge")
	flags.StringSlice("exclude-repos", nil, "Repository name globs to skip")
	flags.Int("workers", config.Default().Scan.Workers, "Repositories scanned in parallel")
	flags.String("searcher", config.Default().Scan.Searcher, "Search backend (auto|ripgrep|native)")
	flags.Duration("timeout", config.Default().Scan.Timeout, "Per-repository search timeout")
	flags.String("summary", config.Default().Report.Summary, "Summary format (concise|markdown|html|json)")
	flags.String("output", "", "Write the summary to a file instead of stdout")
	flags.Bool("graphml", false, "Also write dependency-map.graphml")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	reposRoot := "."
	if len(args) == 1 {
		reposRoot = args[0]
	}
	rootAbs, err := resolvePath(reposRoot)
	if err != nil {
		logger.Error("invalid repos root", logger.Err(err))
		os.Exit(exitcode.ConfigError)
	}
	if info, err := os.Stat(rootAbs); err != nil || !info.IsDir() {
		logger.Error(fmt.Sprintf("repos root not found: %s", rootAbs))
		os.Exit(exitcode.ConfigError)
	}

	cfgPath, _ := flags.GetString("config")
	cfg, err := config.Load(cfgPath, rootAbs)
	if err != nil {
		logger.Error("configuration invalid", logger.Err(err))
		os.Exit(exitcode.ConfigError)
	}
	applyFlagOverrides(flags, cfg)

	summaryFormat, err := report.ParseFormat(cfg.Report.Summary)
	if err != nil {
		logger.Error("configuration invalid", logger.Err(err))
		os.Exit(exitcode.ConfigError)
	}

	repoDirs, err := discover.Repos(rootAbs)
	if err != nil {
		logger.Error("repository discovery failed", logger.Err(err))
		os.Exit(exitcode.FileSystemError)
	}
	if len(repoDirs) == 0 {
		logger.Error(fmt.Sprintf("no git repos found under: %s", rootAbs))
		os.Exit(exitcode.ConfigError)
	}

	if repoList, _ := flags.GetString("repo-list"); repoList != "" {
		repoDirs = applyRepoList(repoDirs, repoList)
	}

	if len(cfg.Scan.ExcludeRepos) > 0 {
		repoDirs, err = discover.FilterExcluded(repoDirs, cfg.Scan.ExcludeRepos)
		if err != nil {
			logger.Error("invalid exclude pattern", logger.Err(err))
			os.Exit(exitcode.ConfigError)
		}
		if len(repoDirs) == 0 {
			logger.Error("every repository matched an exclude pattern")
			os.Exit(exitcode.ConfigError)
		}
	}

	nodes := discover.Nodes(repoDirs)
	known := make(map[string]struct{}, len(repoDirs))
	for _, dir := range repoDirs {
		known[filepath.Base(dir)] = struct{}{}
	}

	aliases := modalias.Collect(repoDirs, known)

	searcher, err := search.Select(cfg.Scan.Searcher, search.ExcludedDirs(cfg.Scan.ExtraExcludeDirs), cfg.Scan.Timeout)
	if err != nil {
		logger.Error("searcher unavailable", logger.Err(err))
		os.Exit(exitcode.ToolNotFound)
	}

	logger.Info("scan starting",
		logger.String("root", rootAbs),
		logger.Int("repos", len(repoDirs)),
		logger.String("searcher", searcher.Name()),
		logger.Int("workers", cfg.Scan.Workers))

	agg := graph.NewAggregator(cfg.MaxEvidencePerEdge)
	runner, err := scan.New(searcher, agg, known, aliases, scan.Options{
		Org:       cfg.Org,
		ChunkSize: cfg.ChunkSize,
		Workers:   cfg.Scan.Workers,
	})
	if err != nil {
		return fmt.Errorf("prepare scan: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := runner.Run(ctx, repoDirs); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Error("scan interrupted", logger.Err(err))
			os.Exit(exitcode.GeneralError)
		case errors.Is(err, context.DeadlineExceeded):
			logger.Error("search timed out", logger.Err(err))
			os.Exit(exitcode.TimeoutError)
		default:
			logger.Error("scan failed", logger.Err(err))
			os.Exit(exitcode.SearchError)
		}
	}

	edges := agg.Finalize()
	logger.Info("scan finished",
		logger.Int("edges", len(edges)),
		logger.Duration("took", time.Since(start)))

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(rootAbs, DefaultOutputDirName)
	} else if outputDir, err = resolvePath(outputDir); err != nil {
		logger.Error("invalid output dir", logger.Err(err))
		os.Exit(exitcode.ConfigError)
	}

	result := report.Build(rootAbs, cfg.Org, nodes, edges)
	paths, err := report.WriteFiles(result, outputDir, cfg.Report.GraphML)
	if err != nil {
		logger.Error("failed to write artifacts", logger.Err(err))
		os.Exit(exitcode.FileSystemError)
	}

	summary, err := report.NewFormatter(summaryFormat).FormatSummary(result, paths)
	if err != nil {
		return err
	}
	if outFile, _ := flags.GetString("output"); outFile != "" {
		if err := safeio.WriteFilePreservePerms(outFile, []byte(summary)); err != nil {
			logger.Error("failed to write summary", logger.Err(err))
			os.Exit(exitcode.FileSystemError)
		}
		logger.Info("summary written", logger.String("path", outFile))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), summary)
	return nil
}

// applyFlagOverrides lets explicit scan flags take precedence over file and
// environment configuration.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("org") {
		cfg.Org, _ = flags.GetString("org")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("max-evidence-per-edge") {
		cfg.MaxEvidencePerEdge, _ = flags.GetInt("max-evidence-per-edge")
	}
	if flags.Changed("exclude-repos") {
		cfg.Scan.ExcludeRepos, _ = flags.GetStringSlice("exclude-repos")
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("searcher") {
		cfg.Scan.Searcher, _ = flags.GetString("searcher")
	}
	if flags.Changed("timeout") {
		cfg.Scan.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("summary") {
		cfg.Report.Summary, _ = flags.GetString("summary")
	}
	if flags.Changed("graphml") {
		cfg.Report.GraphML, _ = flags.GetBool("graphml")
	}
}

// applyRepoList restricts repoDirs to the names listed in the given file.
// A list that parses to nothing disables filtering; a list that matches no
// local repository is fatal.
func applyRepoList(repoDirs []string, repoList string) []string {
	listPath, err := resolvePath(repoList)
	if err != nil {
		logger.Error("invalid repo list path", logger.Err(err))
		os.Exit(exitcode.ConfigError)
	}
	if info, err := os.Stat(listPath); err != nil || info.IsDir() {
		logger.Error(fmt.Sprintf("repo list file not found: %s", listPath))
		os.Exit(exitcode.ConfigError)
	}

	allowed, err := discover.LoadAllowedNames(listPath)
	if err != nil {
		logger.Error("failed to read repo list", logger.Err(err))
		os.Exit(exitcode.FileSystemError)
	}
	if len(allowed) > 0 {
		repoDirs = discover.FilterAllowed(repoDirs, allowed)
	}
	if len(repoDirs) == 0 {
		logger.Error("repo list file did not match any local repos.")
		os.Exit(exitcode.ConfigError)
	}
	return repoDirs
}

// resolvePath expands a leading ~ and makes the path absolute.
func resolvePath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}
