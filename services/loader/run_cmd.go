package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/telescope-ops/obsadmin/services/internal/config"
	"github.com/telescope-ops/obsadmin/services/internal/db"
	"github.com/telescope-ops/obsadmin/services/internal/logging"
	"github.com/telescope-ops/obsadmin/services/internal/models"
	"github.com/telescope-ops/obsadmin/services/internal/pipeline"
)

type runOptions struct {
	File   string
	Type   string
	Access string
	Bulk   bool
	DryRun bool
	JSON   bool
}

type runner interface {
	Run(ctx context.Context, req models.UploadRequest) (*pipeline.Report, error)
	Plan(ctx context.Context, req models.UploadRequest) (*pipeline.Report, error)
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run --file <sheet.csv> [--type full|partial] [--access public|private] [--bulk] [--dry-run]",
		Short: "Run one schedule sheet through the ingestion pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := buildRequest(opts)
			if err != nil {
				return withCode(exitUsage, err)
			}

			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid LOG_LEVEL: %w", err))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			ctx = logging.WithLogger(ctx, logrus.NewEntry(log))

			store, err := db.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return withCode(exitDB, err)
			}
			defer store.Close()

			manager, err := pipeline.FromConfig(ctx, cfg, store, nil)
			if err != nil {
				return withCode(exitUsage, err)
			}

			return execRun(ctx, cmd.OutOrStdout(), manager, req, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "schedule sheet (CSV)")
	cmd.Flags().StringVar(&opts.Type, "type", string(models.LoadFull), "load type: full or partial")
	cmd.Flags().StringVar(&opts.Access, "access", string(models.AccessPublic), "access scope: public or private")
	cmd.Flags().BoolVar(&opts.Bulk, "bulk", false, "stage inserts through bulk-load files")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "process the sheet and print the SQL without touching the database")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the report as JSON")
	return cmd
}

func buildRequest(opts runOptions) (models.UploadRequest, error) {
	if strings.TrimSpace(opts.File) == "" {
		return models.UploadRequest{}, fmt.Errorf("--file is required")
	}
	loadType, err := models.ParseLoadType(opts.Type)
	if err != nil {
		return models.UploadRequest{}, err
	}
	access, err := models.ParseAccessScope(opts.Access)
	if err != nil {
		return models.UploadRequest{}, err
	}
	data, err := os.ReadFile(opts.File)
	if err != nil {
		return models.UploadRequest{}, fmt.Errorf("read %s: %w", opts.File, err)
	}
	return models.UploadRequest{
		File:        data,
		FileName:    filepath.Base(opts.File),
		LoadType:    loadType,
		Access:      access,
		UseBulkFile: opts.Bulk,
	}, nil
}

func execRun(ctx context.Context, out io.Writer, r runner, req models.UploadRequest, opts runOptions) error {
	run := r.Run
	if opts.DryRun {
		run = r.Plan
	}
	report, runErr := run(ctx, req)
	if report != nil {
		if err := printReport(out, report, opts); err != nil {
			return err
		}
	}
	if runErr != nil {
		return withCode(runCode(runErr), runErr)
	}
	return nil
}

func printReport(out io.Writer, report *pipeline.Report, opts runOptions) error {
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "run %s: %s\n", report.RunID, report.State)
	if report.Error != "" {
		fmt.Fprintf(out, "  failed in %s: %s\n", report.FailedStage, report.Error)
	}
	if report.Semester != "" {
		fmt.Fprintf(out, "  semester %s (%s load, %d rows)\n", report.Semester, report.LoadType, report.Rows)
	}

	tables := make([]string, 0, len(report.Counts))
	for table := range report.Counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Fprintf(out, "  %-40s %d\n", table, report.Counts[table])
	}
	for _, d := range report.Diagnostics {
		fmt.Fprintf(out, "  %s line %d %s: %s\n", d.Kind, d.Line, d.Table, d.Message)
	}
	if report.ArchivedAt != "" {
		fmt.Fprintf(out, "  archived at %s\n", report.ArchivedAt)
	}

	if opts.DryRun && report.Result != nil {
		for _, stmt := range report.Result.Statements() {
			fmt.Fprintf(out, "dry-run: %s;\n", stmt)
		}
	}
	return nil
}
