package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/steph-dove/conventions/internal/config"
	"github.com/steph-dove/conventions/internal/detect/builtin"
	"github.com/steph-dove/conventions/internal/engine"
	"github.com/steph-dove/conventions/internal/indexers/goindexer"
	"github.com/steph-dove/conventions/internal/indexers/nodeindexer"
	"github.com/steph-dove/conventions/internal/indexers/pyindexer"
	"github.com/steph-dove/conventions/internal/report"
)

var (
	flagConfig    string
	flagMaxFiles  int
	flagLanguages []string
	flagDisable   []string
	flagNoCache   bool
	flagFormat    string
	flagOutput    string
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:   "conventions",
		Short: "Detect and rate coding conventions in a repository",
		Long: `conventions scans a repository, detects the coding conventions its
source files actually follow (typing, testing, naming, error handling,
frameworks, layout) and rates each detected convention from 1 to 5.`,
		SilenceUsage: true,
	}

	scan := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a repository and emit a conventions report",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	scan.Flags().StringVarP(&flagConfig, "config", "c", "", "path to a conventions.yaml config file")
	scan.Flags().IntVar(&flagMaxFiles, "max-files", 0, "limit the number of files indexed (0 = config default)")
	scan.Flags().StringSliceVar(&flagLanguages, "languages", nil, "restrict scanning to these languages (go, node, python)")
	scan.Flags().StringSliceVar(&flagDisable, "disable", nil, "rule identifiers to disable")
	scan.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable the incremental index cache")
	scan.Flags().StringVarP(&flagFormat, "format", "f", "markdown", "output format: json or markdown")
	scan.Flags().StringVarP(&flagOutput, "output", "o", "", "write the report to this file instead of stdout")
	scan.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(scan)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	repoPath := "."
	if len(args) == 1 {
		repoPath = args[0]
	}

	log := newLogger(flagVerbose)

	cfg, err := loadConfig(repoPath, log)
	if err != nil {
		return err
	}
	applyFlags(cfg, cmd)

	eng, err := engine.New(cfg, log)
	if err != nil {
		return err
	}

	eng.RegisterIndexer(goindexer.New())
	eng.RegisterIndexer(pyindexer.New())
	eng.RegisterIndexer(nodeindexer.New())

	for _, d := range builtin.All() {
		if err := eng.RegisterDetector(d); err != nil {
			return err
		}
	}

	rep, err := eng.Scan(cmd.Context(), repoPath)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(flagOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	switch flagFormat {
	case "json":
		err = report.WriteJSON(out, rep)
	case "markdown", "md":
		err = report.WriteMarkdown(out, rep)
	default:
		return fmt.Errorf("unknown format %q (want json or markdown)", flagFormat)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	log.Info().
		Int("conventions", len(rep.Entries)).
		Int("warnings", len(rep.Warnings)).
		Float64("average_score", rep.Meta.AverageScore).
		Msg("scan complete")
	return nil
}

// loadConfig resolves the config file. An explicit --config that cannot be
// read is a hard error; a missing conventions.yaml next to the repo falls
// back to defaults.
func loadConfig(repoPath string, log zerolog.Logger) (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	implicit := filepath.Join(repoPath, "conventions.yaml")
	if _, err := os.Stat(implicit); err == nil {
		cfg, err := config.Load(implicit)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring unreadable conventions.yaml, using defaults")
			return config.Default(), nil
		}
		return cfg, nil
	}
	return config.Default(), nil
}

func applyFlags(cfg *config.Config, cmd *cobra.Command) {
	if flagMaxFiles > 0 {
		cfg.MaxFiles = flagMaxFiles
	}
	if cmd.Flags().Changed("languages") {
		cfg.Languages = flagLanguages
	}
	if len(flagDisable) > 0 {
		cfg.DisabledRules = append(cfg.DisabledRules, flagDisable...)
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newLogger builds a console logger on stderr so stdout stays clean for
// report output.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}
