package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			authService, err := auth.NewService(a.cfg.Auth)
			if err != nil {
				return err
			}

			srv := server.New(a.cfg, server.Dependencies{
				Auth:         authService,
				Users:        a.store.Users,
				Vehicles:     a.store.Vehicles,
				Maintenances: a.store.Maintenances,
				Costs:        a.store.Costs,
				Interests:    a.store.Interests,
				Wiper:        a.store,
				Reminders:    a.job,
			})
			return srv.Run(ctx)
		},
	}
}
