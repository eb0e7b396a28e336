package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mlst/internal/config"
	"mlst/internal/output"
	"mlst/internal/store"
	"mlst/internal/writers"
)

// HistoryHeader heads the run listing.
const HistoryHeader = "RunID\tSample\tCreated\tFound\tResults\tDiagnostics"

// HistoryResultHeader heads the per-run result listing.
const HistoryResultHeader = "Scheme\tStatus\tST\tClonalComplex\tScore"

func newHistoryCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		dsn     string
		envFile string
		limit   int
		runID   string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "list typing runs recorded with --db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile, os.Getenv)
			if err != nil {
				return fail(ExitUsage, err)
			}
			if !cmd.Flags().Changed("db") {
				dsn = cfg.DB
			}
			if dsn == "" {
				return fail(ExitUsage, errors.New("no history database: pass --db or set "+config.EnvDB))
			}
			s, err := store.Open(cmd.Context(), dsn)
			if err != nil {
				_, _ = fmt.Fprintln(stderr, err)
				return fail(ExitOutput, err)
			}
			defer func() { _ = s.Close() }()

			outw := bufio.NewWriter(stdout)
			if runID != "" {
				err = writeRunResults(cmd, s, outw, runID)
			} else {
				err = writeRuns(cmd, s, outw, limit)
			}
			if err == nil {
				err = outw.Flush()
			}
			if err := writers.IgnoreBrokenPipe(err); err != nil {
				_, _ = fmt.Fprintln(stderr, err)
				return fail(ExitOutput, err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dsn, "db", "", "history database (sqlite path or postgres:// url)")
	f.StringVar(&envFile, "env-file", "", "read defaults from this dotenv file")
	f.IntVarP(&limit, "limit", "n", 20, "show at most this many runs (0 = all)")
	f.StringVar(&runID, "run", "", "show the results of one run")
	return cmd
}

func writeRuns(cmd *cobra.Command, s *store.Store, w io.Writer, limit int) error {
	runs, err := s.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, HistoryHeader); err != nil {
		return err
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%d\n",
			r.ID, r.Sample, r.Created.Format(time.RFC3339), r.Found, r.Results, r.Diagnostics); err != nil {
			return err
		}
	}
	return nil
}

func writeRunResults(cmd *cobra.Command, s *store.Store, w io.Writer, runID string) error {
	res, err := s.Results(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		_, err := fmt.Fprintln(w, output.NoSTLine)
		return err
	}
	if _, err := fmt.Fprintln(w, HistoryResultHeader); err != nil {
		return err
	}
	for _, r := range res {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n", r.Scheme, r.Status, r.ST, r.ClonalComplex, r.Score); err != nil {
			return err
		}
	}
	return nil
}
