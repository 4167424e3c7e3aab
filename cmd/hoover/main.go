// Command hoover cleans tabular files from the command line.
//
//	hoover -preset contact -format csv -zip -out ./cleaned file1.csv file2.xlsx
//
// One file runs a single clean and prints its quality report and activity
// log; several files run as a batch and print one line per file. Settings
// not given as flags come from the configured settings store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/hoover/internal/app"
	"github.com/JonMunkholm/hoover/internal/config"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/logging"
	"github.com/JonMunkholm/hoover/internal/service"
	"github.com/JonMunkholm/hoover/internal/store"
)

var errUsage = errors.New("usage: hoover [flags] file...")

// options are the parsed command-line flags. Pointer fields are nil when
// the flag was not given.
type options struct {
	preset   string
	settings string
	format   string
	zip      *bool
	prefix   *string
	out      string
	bucket   string
	verbose  bool
	files    []string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "hoover:", core.FormatUserError(err))
			slog.Debug("failure detail", "error", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("hoover", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	var zip bool
	var prefix string
	fs.StringVar(&o.preset, "preset", "", "cleaning preset (default basic)")
	fs.StringVar(&o.settings, "settings", "", "cleaning settings as a JSON object, overrides -preset")
	fs.StringVar(&o.format, "format", "", "export format: xlsx, csv or json")
	fs.BoolVar(&zip, "zip", false, "pack each export into a zip archive")
	fs.StringVar(&prefix, "prefix", "", "file name prefix for exports")
	fs.StringVar(&o.out, "out", "", "output directory (default from OUTPUT_DIR)")
	fs.StringVar(&o.bucket, "s3-bucket", "", "store exports in this S3 bucket instead of -out")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "zip":
			o.zip = &zip
		case "prefix":
			o.prefix = &prefix
		}
	})
	o.files = fs.Args()
	if len(o.files) == 0 {
		fs.Usage()
		return nil, errUsage
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(stderr, level, "text"))

	cfg, err := config.LoadFrom(config.Overlay(map[string]string{
		"OUTPUT_DIR": o.out,
		"S3_BUCKET":  o.bucket,
	}, os.Getenv))
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := parseSettings(o.settings)
	if err != nil {
		return err
	}
	export := a.Service.ExportSettings(ctx)
	if o.format != "" {
		export.Format = strings.ToLower(o.format)
	}
	if o.zip != nil {
		export.CompressOutput = *o.zip
	}
	if o.prefix != nil {
		export.FileNamePrefix = *o.prefix
	}

	uploads := make([]service.Upload, 0, len(o.files))
	for _, path := range o.files {
		u, err := service.FileUpload(path)
		if err != nil {
			return err
		}
		uploads = append(uploads, u)
	}

	if len(uploads) == 1 {
		return cleanOne(ctx, a.Service, uploads[0], o.preset, settings, export, stdout)
	}
	return cleanBatch(ctx, a.Service, uploads, o.preset, settings, export, stdout)
}

// parseSettings decodes -settings. Unknown keys are rejected.
func parseSettings(raw string) (*core.Settings, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var s core.Settings
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidSettings, err)
	}
	return &s, nil
}

func cleanOne(ctx context.Context, svc *service.Service, u service.Upload, preset string, settings *core.Settings, es core.ExportSettings, w io.Writer) error {
	resp, err := svc.Clean(ctx, service.CleanRequest{Upload: u, Preset: preset, Settings: settings})
	if err != nil {
		return err
	}
	defer svc.DeleteSession(resp.SessionID)

	a, err := svc.Export(ctx, service.ExportRequest{
		SessionID: resp.SessionID,
		Format:    es.Format,
		Compress:  &es.CompressOutput,
		Prefix:    &es.FileNamePrefix,
	})
	if err != nil {
		return err
	}
	loc, err := svc.Store(ctx, a)
	if err != nil {
		return err
	}

	printReport(w, resp, loc)
	return nil
}

func cleanBatch(ctx context.Context, svc *service.Service, uploads []service.Upload, preset string, settings *core.Settings, es core.ExportSettings, w io.Writer) error {
	resp, err := svc.Batch(ctx, service.BatchRequest{
		Files:    uploads,
		Preset:   preset,
		Settings: settings,
		Export:   &es,
		Store:    true,
	})
	if err != nil {
		return err
	}

	printBatch(w, resp.BatchResult)
	if resp.Failed > 0 {
		return fmt.Errorf("%d of %d files failed: %s", resp.Failed, len(uploads), strings.Join(resp.FailedNames(), ", "))
	}
	return nil
}

func printReport(w io.Writer, resp *service.CleanResponse, location string) {
	m, q := resp.Metrics, resp.Report
	fmt.Fprintf(w, "%s -> %s\n\n", resp.FileName, location)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Quality score\t%d%% (%s)\n", q.DisplayScore(), q.Rating)
	fmt.Fprintf(tw, "Rows\t%d -> %d\n", resp.Preview.OriginalRows, resp.Preview.CleanedRows)
	fmt.Fprintf(tw, "Cells processed\t%d\n", m.CellsProcessed)
	fmt.Fprintf(tw, "Issues fixed\t%d\n", q.IssuesFixed)
	fmt.Fprintf(tw, "Duplicates removed\t%d\n", m.DuplicatesRemoved)
	fmt.Fprintf(tw, "Columns removed\t%d\n", m.ColumnsRemoved)
	fmt.Fprintf(tw, "Time\t%.2fs (%d rows/s)\n", q.DurationSeconds, q.RowsPerSecond)
	_ = tw.Flush()

	fmt.Fprintln(w)
	for _, e := range resp.Log {
		fmt.Fprintf(w, "[%s] %s: %s\n", e.Severity, e.Action, e.Details)
	}
}

func printBatch(w io.Writer, res core.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tROWS\tSCORE\tOUTPUT")
	for _, f := range res.Files {
		score, detail := "-", f.Output
		if f.Report != nil {
			score = fmt.Sprintf("%d%%", f.Report.DisplayScore())
		}
		if f.Status != core.StatusSuccess {
			detail = core.MapError(f.Err).Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", f.Name, f.Status, f.Rows, score, detail)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d files processed, %d failed\n", res.Success, res.Failed)
}
