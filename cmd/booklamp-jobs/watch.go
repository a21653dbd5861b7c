package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/indicator"
	"github.com/mengeric/booklamp-jobs-go/logging"
	"github.com/mengeric/booklamp-jobs-go/tracker"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [job-id]",
	Short: "Follow a job until it finishes; without an id, resume the active job",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kv, closeFn, err := openKV(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		api := newJobsAPI(cfg)
		page := indicator.NewWriterPage(cmd.OutOrStdout())
		opts := []indicator.Option{
			indicator.WithTrackerOptions(
				tracker.WithInterval(time.Duration(cfg.PollIntervalMS)*time.Millisecond),
				tracker.WithAutoRefresh(*cfg.AutoRefresh),
				tracker.WithReload(func() { logging.L().Info(ctx, "job finished, refresh requested") }),
			),
		}

		var ind *indicator.Indicator
		if len(args) == 1 {
			ind = indicator.New(page, api, kv, args[0], opts...)
		} else {
			ind, err = indicator.Resume(ctx, page, api, kv, opts...)
			if err != nil {
				return err
			}
			if ind == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no active job")
				return nil
			}
		}
		if err := ind.Start(ctx); err != nil {
			return err
		}
		// ctx 取消时保留持久化指针，下次 watch 可恢复
		<-ind.Tracker().Done()
		switch ind.Tracker().State() {
		case tracker.StateFailed:
			return errors.New("job failed")
		case tracker.StateNotFound:
			return client.ErrJobNotFound
		}
		return nil
	},
}
