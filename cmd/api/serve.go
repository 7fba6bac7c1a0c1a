package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-desk/internal/api/http"
	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/lifecycle"
	"github.com/spec-kit/ticket-desk/internal/service"
	"github.com/spec-kit/ticket-desk/internal/sla"
	"github.com/spec-kit/ticket-desk/internal/triage"
	"github.com/spec-kit/ticket-desk/internal/worker"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the SLA breach sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	service.NewNotificationService(rt.dispatcher, rt.sink, logger, rt.metrics).RegisterHandlers()

	var classifier triage.Classifier
	if cfg.Triage.APIKey != "" {
		classifier = triage.NewOpenAIClassifier(cfg.Triage.APIKey, cfg.Triage.BaseURL, cfg.Triage.Model)
	} else {
		logger.Warn("OPENAI_API_KEY not provided; tickets use fallback routing")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      rt.store,
		Machine:    lifecycle.NewMachine(lifecycle.DefaultTransitions(), sla.DueAt),
		Triage:     triage.NewAdapter(classifier, cfg.Triage.Timeout(), logger, rt.metrics),
		Dispatcher: rt.dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		Store:  rt.store,
		Tokens: tokens,
		Logger: logger,
	})
	if len(cfg.Auth.AdminSecretHash) == 0 {
		logger.Warn("AUTH_ADMIN_SECRET not provided; admin routes accept ADMIN tokens only")
	}

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, rt.store, nil, rt.metrics)
	if rt.redis != nil {
		health = handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, rt.store, rt.redis, rt.metrics)
	}
	app := httptransport.NewServer(cfg.App, logger, rt.metrics, httptransport.RouteConfig{
		Health:          health,
		Tickets:         handlers.NewTicketsHandler(ticketService),
		Users:           handlers.NewUsersHandler(userService),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens, rt.store.Repositories().Users),
		AdminSecretHash: cfg.Auth.AdminSecretHash,
	})

	sweeperDone := worker.NewPeriodic("sla-sweeper", sla.SweepInterval, rt.sweeper().Run, logger).Start(ctx)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err = <-listenErr:
		logger.Error("fiber listen", zap.Error(err))
	case <-ctx.Done():
	}

	cancel()
	<-sweeperDone
	if shutdownErr := app.Shutdown(); shutdownErr != nil {
		logger.Warn("http shutdown", zap.Error(shutdownErr))
	}
	return err
}
