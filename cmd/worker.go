package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the reconciliation worker and retry loop without the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return env.Worker.Run(gctx) })
		g.Go(func() error { return env.Requeuer.Run(gctx) })
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down worker")
			env.Queue.Shutdown()
			return nil
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
