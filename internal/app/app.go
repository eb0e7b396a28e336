// Package app wires the mlst command: read the alignment table and the
// reference tables, resolve sequence types, write the report and the
// optional run history and metrics.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mlst/internal/blast"
	"mlst/internal/cli"
	"mlst/internal/cmdutil"
	"mlst/internal/config"
	"mlst/internal/metrics"
	"mlst/internal/output"
	"mlst/internal/refdb"
	"mlst/internal/source"
	"mlst/internal/store"
	"mlst/internal/typing"
	"mlst/internal/version"
	"mlst/internal/writers"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitUsage    = 2 // bad flags, unreadable or malformed input, bad config
	ExitOutput   = 3 // report, history or metrics could not be written
	ExitCanceled = 130
)

// exitError carries the process exit code out of a cobra RunE.
type exitError struct {
	code int
	err  error // nil when the code is not a failure, e.g. no ST found
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error { return &exitError{code: code, err: err} }

// RunContext executes one command line and returns the exit code.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(argv)
	err := root.ExecuteContext(parent)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil && ee.code == ExitUsage {
			_, _ = fmt.Fprintln(stderr, "Error:", ee.err)
		}
		return ee.code
	}
	// flag and argument errors raised by cobra itself
	_, _ = fmt.Fprintln(stderr, "Error:", err)
	_, _ = fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.CommandPath())
	return ExitUsage
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts cli.Options
	root := &cobra.Command{
		Use:   "mlst [flags] <alignments.tsv> <locus_schemes.json> <profiles.json>",
		Short: "call MLST sequence types from BLAST allele hits",
		Long: `Call multi-locus sequence types from a BLAST tabular (outfmt 6) search of an
isolate's contigs against an allele database.

The alignment table must carry these ten columns, in order:
  sseqid slen length nident pident qseqid qstart qend qseq sstrand
where sseqid is <locus>_<allele>. Any input may be '-' (stdin, at most once),
an s3://bucket/key object, and gzip-compressed.

Text output marks alleles below 100% identity with '~' and prints ST '-'
when a scheme is not an exact match, '?' when an exact match has no ST in
the profile table, and "###No ST found" when no scheme survives.`,
		Version:       version.Version,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.SetArgs(args); err != nil {
				return fail(ExitUsage, err)
			}
			cfg, err := config.Load(opts.EnvFile, os.Getenv)
			if err != nil {
				return fail(ExitUsage, err)
			}
			opts.Merge(cmd.Flags(), cfg)
			if err := opts.Validate(); err != nil {
				return fail(ExitUsage, err)
			}
			log := cmdutil.NewLogger(stderr, opts.Quiet, opts.Verbose)
			return runTyping(cmd.Context(), opts, cfg, stdout, log)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
	cli.Register(root.Flags(), &opts)
	root.AddCommand(newHistoryCmd(stdout, stderr))
	return root
}

// SampleName derives a sample label from the alignment path.
func SampleName(path string) string {
	if path == source.Stdin {
		return "stdin"
	}
	if source.IsS3(path) {
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			path = path[i+1:]
		}
	}
	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newOpener(ctx context.Context, opts cli.Options, cfg config.Config) (*source.Opener, error) {
	o := &source.Opener{}
	for _, p := range []string{opts.Alignments, opts.LocusSchemes, opts.Profiles} {
		if source.IsS3(p) {
			f, err := source.NewS3Fetcher(ctx, cfg.S3)
			if err != nil {
				return nil, err
			}
			o.S3 = f
			break
		}
	}
	return o, nil
}

func loadAlignments(ctx context.Context, o *source.Opener, path string) ([]blast.Row, error) {
	rc, err := o.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return blast.Read(rc, path)
}

func loadReference(ctx context.Context, o *source.Opener, lociPath, profilesPath string) (*refdb.Tables, error) {
	rc, err := o.Open(ctx, lociPath)
	if err != nil {
		return nil, err
	}
	loci, err := refdb.ReadLocusSchemes(rc, lociPath)
	_ = rc.Close()
	if err != nil {
		return nil, err
	}
	rc, err = o.Open(ctx, profilesPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	schemes, err := refdb.ReadSchemeProfiles(rc, profilesPath)
	if err != nil {
		return nil, err
	}
	return refdb.New(loci, schemes), nil
}

func canceled(ctx context.Context) error {
	if ctx.Err() != nil {
		return fail(ExitCanceled, nil)
	}
	return nil
}

func runTyping(ctx context.Context, opts cli.Options, cfg config.Config, stdout io.Writer, log *slog.Logger) error {
	runID := store.NewRunID()
	sample := opts.Sample
	if sample == "" {
		sample = SampleName(opts.Alignments)
	}
	log = log.With("run", runID)

	opener, err := newOpener(ctx, opts, cfg)
	if err != nil {
		return fail(ExitUsage, err)
	}
	rows, err := loadAlignments(ctx, opener, opts.Alignments)
	if err != nil {
		return fail(ExitUsage, err)
	}
	ref, err := loadReference(ctx, opener, opts.LocusSchemes, opts.Profiles)
	if err != nil {
		return fail(ExitUsage, err)
	}
	log.Debug("reference loaded", "loci", len(ref.LocusSchemes), "schemes", len(ref.Schemes))

	hits, stats, err := blast.SelectBest(rows, opts.SelectOptions())
	if err != nil {
		return fail(ExitUsage, err)
	}
	log.Debug("alignments selected", "rows", stats.Rows, "loci", stats.Loci, "kept", stats.Kept, "below_floor", stats.BelowFloor)
	if err := canceled(ctx); err != nil {
		return err
	}

	start := time.Now()
	rep := typing.Resolve(hits, ref, opts.TypingOptions())
	took := time.Since(start)
	cmdutil.LogDiagnostics(log, rep.Diagnostics)
	log.Debug("typing done", "candidates", len(rep.Ranked), "results", len(rep.Results), "took", took)

	doc := output.Document{RunID: runID, Sample: sample, Report: rep, Header: !opts.NoHeader}
	outw := bufio.NewWriter(stdout)
	werr := writers.WriteReport(opts.Output, outw, doc)
	if werr == nil {
		werr = outw.Flush()
	}
	if err := writers.IgnoreBrokenPipe(werr); err != nil {
		log.Error("write report", "error", err)
		return fail(ExitOutput, err)
	}

	if opts.DB != "" {
		if err := saveRun(ctx, opts.DB, store.Run{ID: runID, Sample: sample, Created: time.Now(), Report: rep}); err != nil {
			log.Error("save run", "db", opts.DB, "error", err)
			return fail(ExitOutput, err)
		}
	}
	if opts.MetricsFile != "" {
		m := metrics.NewRun()
		m.ObserveIngest(stats)
		m.ObserveReport(rep, took)
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			log.Error("write metrics", "path", opts.MetricsFile, "error", err)
			return fail(ExitOutput, err)
		}
	}

	if !rep.Found() && opts.NoMatchExitCode != ExitOK {
		return fail(opts.NoMatchExitCode, nil)
	}
	return nil
}

func saveRun(ctx context.Context, dsn string, run store.Run) error {
	s, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return s.SaveRun(ctx, run)
}
