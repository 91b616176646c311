package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/aaclust"
	"github.com/hupe1980/aaclust/config"
	"github.com/hupe1980/aaclust/prom"
)

// app holds the settings shared by all commands. Flags are bound directly
// to cfg; a configuration file is applied underneath them.
type app struct {
	cfg        config.Config
	configPath string

	logger  *aaclust.Logger
	metrics aaclust.MetricsCollector
	server  *http.Server
}

func newApp() *app {
	return &app{
		cfg:     config.Default(),
		logger:  aaclust.NoopLogger(),
		metrics: aaclust.NoopMetricsCollector{},
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aaclust",
		Short: "Build k-mer codebooks and rank sequences by cluster signatures",
		Long: `aaclust clusters the k-mers of protein sequences into a codebook,
encodes sequences as the set of clusters their k-mers fall into and ranks
signatures against each other by Jaccard distance.

Inputs and outputs are local paths or s3://, minio:// and file:// URIs.
Files ending in .zst, .lz4 or .gz are compressed.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file; flags override its values")
	pf.StringVar(&a.cfg.Log.Format, "log-format", a.cfg.Log.Format, "log format: text or json")
	pf.StringVar(&a.cfg.Log.Level, "log-level", a.cfg.Log.Level, "log level: debug, info, warn or error")
	pf.StringVar(&a.cfg.Progress, "progress", a.cfg.Progress, "progress reporting: off, log or bar")
	pf.StringVar(&a.cfg.Metrics, "metrics-addr", a.cfg.Metrics, "serve Prometheus metrics on this address")

	cmd.AddCommand(
		newClusterCmd(a),
		newKMedoidsCmd(a),
		newEncodeCmd(a),
		newRankCmd(a),
		newPickCmd(a),
		newLatestCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// setup loads the configuration file, re-applies explicit flags on top of
// it and starts logging and metrics.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.configPath != "" {
		type setFlag struct{ name, value string }
		var explicit []setFlag
		cmd.Flags().Visit(func(f *pflag.Flag) {
			explicit = append(explicit, setFlag{f.Name, f.Value.String()})
		})

		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
		for _, f := range explicit {
			if err := cmd.Flags().Set(f.name, f.value); err != nil {
				return err
			}
		}
	}

	logger, err := aaclust.NewLoggerFor(cmd.ErrOrStderr(), a.cfg.Log.Format, a.cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = logger.WithCommand(cmd.Name())

	if a.cfg.Metrics != "" {
		return a.serveMetrics(a.cfg.Metrics)
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = prom.NewCollector(reg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}

func (a *app) pipeline(cmd *cobra.Command) (*aaclust.Pipeline, error) {
	mode, err := aaclust.ParseProgressMode(a.cfg.Progress)
	if err != nil {
		return nil, &aaclust.ErrConfig{Field: "progress", Reason: err.Error()}
	}
	return aaclust.New(a.cfg,
		aaclust.WithLogger(a.logger),
		aaclust.WithMetricsCollector(a.metrics),
		aaclust.WithProgress(mode, cmd.ErrOrStderr()),
	)
}
