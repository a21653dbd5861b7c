package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mengeric/booklamp-jobs-go/config"
	"github.com/mengeric/booklamp-jobs-go/logging"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:           "booklamp-jobs",
	Short:         "Book Lamp background job server and tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logging.SetGlobal(logging.New(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format))
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file path")
	rootCmd.AddCommand(serveCmd, submitCmd, watchCmd)

	ctx, stop := signalContext(context.Background())
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.L().Error(ctx, "command failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// signalContext SIGINT/SIGTERM 取消 ctx：serve 优雅关闭，watch 停止轮询并保留活跃任务指针。
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
