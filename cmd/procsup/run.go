package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"procsup/internal/common/fsutil"
	"procsup/internal/httpapi"
	"procsup/internal/lifecycle"
	"procsup/internal/services"
	"procsup/internal/supervisor"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the user-agent and content services and supervise them until shutdown",
		Example: "  procsup run\n" +
			"  procsup run --attached --status-addr 127.0.0.1:9191\n" +
			"  procsup run --config ~/.config/procsup/procsup.yaml",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}
	cmd.Flags().Bool("attached", false, "Keep services in procsup's process group and share its output")
	cmd.Flags().String("command", "", "Script runtime used to run the services, e.g. node or electron (defaults to the procsup executable, which cannot run them itself)")
	return cmd
}

// run starts both services and blocks until a shutdown signal arrives or ctx
// ends. A launch failure of one service is logged; run fails only when
// neither could be started.
func (a *app) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return a.supervise(ctx, func(sup *supervisor.Supervisor) error {
		cfg := a.cfg
		svcCfg := services.Config{
			UserAgentBin:      cfg.UserAgent.Bin,
			Port:              cfg.UserAgent.Port,
			Host:              cfg.UserAgent.Host,
			Version:           cfg.UserAgent.Version,
			DBPath:            cfg.UserAgent.DBPath,
			ContentEntrypoint: cfg.Content.Entrypoint,
			ContentProtocol:   cfg.Content.Protocol,
		}
		for _, p := range fsutil.Missing(svcCfg.UserAgentBin, svcCfg.ContentEntrypoint) {
			a.log.Warn().Str("path", p).Msg("service path does not exist")
		}

		opts := services.Options{Attached: cfg.Attached, Command: cfg.Command, Logger: &a.log}
		client := services.ConnectorFunc(func(ep services.Endpoint) error {
			a.log.Info().Str("host", ep.Host).Int("port", ep.Port).Str("version", ep.Version).Msg("user agent service endpoint")
			return nil
		})

		var errs []error
		if _, err := services.StartUserAgentService(sup, client, svcCfg, opts); err != nil {
			a.log.Error().Err(err).Msg("failed to start user agent service")
			errs = append(errs, err)
		}
		if _, err := services.StartContentService(sup, svcCfg, opts); err != nil {
			a.log.Error().Err(err).Msg("failed to start content service")
			errs = append(errs, err)
		}
		if len(errs) == 2 {
			return errors.Join(errs...)
		}
		return nil
	})
}

// supervise owns the supervisor and shutdown hooks around start, serving the
// status surface when configured, and waits for shutdown.
func (a *app) supervise(ctx context.Context, start func(*supervisor.Supervisor) error) error {
	sup := supervisor.New(supervisor.Config{
		Logger:       &a.log,
		DrainTimeout: a.cfg.DrainTimeout(),
	})
	defer sup.Close()

	hooks := lifecycle.New(a.signals, a.log)
	sup.InstallShutdownHooks(hooks)
	defer hooks.Exit()

	if err := start(sup); err != nil {
		return err
	}

	if a.cfg.StatusAddr != "" {
		httpapi.SetLogger(a.log)
		httpapi.SetCORSOptions(len(a.cfg.CORSOrigins) > 0, a.cfg.CORSOrigins, nil, nil)
		srv := httpapi.NewServer(a.cfg.StatusAddr, sup)
		go func() {
			a.log.Info().Str("addr", a.cfg.StatusAddr).Msg("status server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.log.Error().Err(err).Msg("status server error")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				a.log.Warn().Err(err).Msg("status server shutdown error")
			}
		}()
	}

	if sig := hooks.Wait(ctx); sig != nil {
		a.log.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
