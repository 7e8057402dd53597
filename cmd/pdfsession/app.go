package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"pdfcore/internal/archive"
	"pdfcore/internal/config"
	"pdfcore/internal/core"
	"pdfcore/plugins/bounds"
)

const defaultSessionFile = "session.json"

// app carries the state shared by every subcommand for one invocation.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	environ map[string]string

	file    string
	metrics bool
	trace   bool

	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	svc      *core.Service
}

func newRootCmd(stdout, stderr io.Writer, environ map[string]string) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, environ: environ}
	root := &cobra.Command{
		Use:           "pdfsession",
		Short:         "Edit, sample, and archive Gaussian PDF sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.dumpMetrics()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&a.file, "file", "f", defaultSessionFile, `session document; "" uses the configured store`)
	root.PersistentFlags().BoolVar(&a.metrics, "metrics", false, "print Prometheus metrics to stderr on exit")
	root.PersistentFlags().BoolVar(&a.trace, "trace", false, "print operation spans as JSON lines to stderr")

	root.AddCommand(
		a.newCmd(),
		a.inspectCmd(),
		a.leafCmd(),
		a.multiplyCmd(),
		a.setCmd(),
		a.deleteCmd(),
		a.settingsCmd(),
		a.sampleCmd(),
		a.archiveCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadFrom(a.environ)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	opts := []core.ServiceOption{
		core.WithLogger(a.logger),
		core.WithResolution(cfg.Resolution),
		core.WithAuditRecorder(core.LogAuditRecorder{Logger: a.logger}),
	}
	if a.metrics {
		a.registry = prometheus.NewRegistry()
		rec, err := core.NewPrometheusMetricsRecorder(a.registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, core.WithMetricsRecorder(rec))
	}
	if a.trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(a.stderr)))
	}

	store, err := core.OpenPersistentStore(cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.svc = core.NewService(store, opts...)
	if _, err := a.svc.InstallPlugin(bounds.New()); err != nil {
		return err
	}
	a.logger.Debug("session store ready", "driver", string(cfg.Storage.Driver), "file", a.file)
	return nil
}

// load reads the session file into the store. A missing file is an error
// unless allowMissing is set.
func (a *app) load(ctx context.Context, allowMissing bool) error {
	if a.file == "" {
		return nil
	}
	data, err := os.ReadFile(a.file)
	if errors.Is(err, fs.ErrNotExist) {
		if allowMissing {
			return nil
		}
		return fmt.Errorf("session file %s does not exist; run pdfsession new", a.file)
	}
	if err != nil {
		return err
	}
	return a.svc.LoadSession(ctx, data, nil)
}

// save writes the committed session back to the file. Durable stores have
// already persisted the change.
func (a *app) save(ctx context.Context) error {
	if a.file == "" {
		return nil
	}
	data, err := a.svc.SaveSession(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.file, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// edit loads the session, applies fn, and saves it when fn succeeds.
func (a *app) edit(ctx context.Context, fn func(context.Context) (core.Result, error)) error {
	if err := a.load(ctx, false); err != nil {
		return err
	}
	res, err := fn(ctx)
	if err != nil {
		return err
	}
	a.printWarnings(res)
	return a.save(ctx)
}

func (a *app) printWarnings(res core.Result) {
	for _, v := range res.BySeverity(core.SeverityWarn) {
		fmt.Fprintf(a.stderr, "warning: %s\n", v.Message)
	}
}

func (a *app) openArchive(ctx context.Context) (*archive.Archive, error) {
	arch, err := archive.Open(ctx, a.cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	core.WithArchive(arch)(a.svc)
	return arch, nil
}

func (a *app) dumpMetrics() error {
	if a.registry == nil {
		return nil
	}
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(a.stderr, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
