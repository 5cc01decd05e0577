package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
)

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "sitewatch",
		Short: "Periodically check that websites answer and mail an alert when they do not",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			shutdown := a.serveStatus()
			defer shutdown()

			err = a.sched.Run(ctx)
			a.log.Info("shutdown", zap.Int("cycles", a.sched.Status().Cycles))
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file to seed environment variables from")

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Run a single check cycle, wait for alerts to go out, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			rep := a.sched.RunCycle(cmd.Context())
			a.sched.Close()
			fmt.Fprintln(cmd.OutOrStdout(), summary(rep))
			return nil
		},
	})

	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
