package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"snow-search/internal/api"
	"snow-search/internal/common/camunda"
	"snow-search/internal/common/config"
	"snow-search/internal/common/observability"
	"snow-search/internal/common/servicenow"
	"snow-search/internal/search"
	searchtickets "snow-search/internal/workers/itsm/search-tickets"
)

func newServeCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API (and the Zeebe worker when camunda.enabled is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				a.cfg.Server.Address = address
			}
			return a.serve()
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	return cmd
}

func (a *app) serve() error {
	cfg := a.cfg
	log := a.log

	log.Info("starting snow-search", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"address":     cfg.Server.Address,
		"instance":    cfg.ServiceNow.Instance,
	})

	obs := observability.New(cfg.App.Name, prometheus.DefaultRegisterer)
	obs.SetGlobal()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), observability.ShutdownTimeout)
		defer cancel()
		obs.Shutdown(ctx)
	}()

	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}

	store, err := servicenow.NewClient(cfg.ServiceNow, log, obs)
	if err != nil {
		return err
	}

	svc := search.NewService(reg, store, a.searchOptions(), log, obs)

	var checks []api.ReadinessCheck
	var worker *camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		client, err := camunda.NewClientFromConfig(cfg.Camunda)
		if err != nil {
			return err
		}
		defer client.Close()
		checks = append(checks, client.HealthCheck)

		if config.IsWorkerEnabled(cfg, searchtickets.TaskType) {
			workerCfg := config.GetWorkerConfig(cfg, searchtickets.TaskType)
			handler := searchtickets.NewHandler(searchtickets.LoadConfig(workerCfg), svc, log)
			worker = camunda.NewWorker(client.GetClient(), searchtickets.TaskType, cfg.App.Name, workerCfg, handler, log)
		}
	}

	router := api.NewRouter(api.NewHandler(svc, log, checks...), cfg.Server, log)
	server := api.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		log.Error("http server failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	if worker != nil {
		worker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	log.Info("snow-search stopped", nil)
	return nil
}
