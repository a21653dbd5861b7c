package main

import (
	"time"

	"github.com/mengeric/booklamp-jobs-go/booklamp"
	"github.com/mengeric/booklamp-jobs-go/logging"
	_ "github.com/mengeric/booklamp-jobs-go/processor/example"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job server until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, closeFn, err := openJobStore(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		opts := []booklamp.Option{
			booklamp.WithListenAddr(cfg.Listen),
			booklamp.WithJobRetention(time.Duration(cfg.Jobs.RetentionMinutes) * time.Minute),
			booklamp.WithJanitorEvery(time.Duration(cfg.Jobs.JanitorSeconds) * time.Second),
		}
		if store != nil {
			opts = append(opts, booklamp.WithStore(store))
		}
		srv := booklamp.NewServer(opts...)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		srv.Queue().Wait()
		logging.L().Info(ctx, "job server stopped")
		return nil
	},
}
