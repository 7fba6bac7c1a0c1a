package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/service"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one SLA breach sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close()
			service.NewNotificationService(rt.dispatcher, rt.sink, rt.logger, rt.metrics).RegisterHandlers()

			changed, err := rt.sweeper().Sweep(ctx)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			rt.logger.Info("sweep finished", zap.Int64("breached", changed))
			return nil
		},
	}
}
