package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskdesk/internal/config"
	"github.com/fastygo/taskdesk/internal/storage"
	"github.com/fastygo/taskdesk/pkg/logger"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Administrative tool for taskdesk storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log storage activity to stderr")

	rootCmd.AddCommand(usersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openBackend connects to the storage configured by the environment. The
// returned func releases it.
func openBackend(ctx context.Context) (*storage.Backend, func(), error) {
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:    level,
		Encoding: "console",
		Service:  "taskctl",
		Stderr:   true,
	})
	if err != nil {
		return nil, nil, err
	}

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return backend, func() {
		if err := backend.Close(ctx); err != nil {
			log.Warn("closing storage", zap.Error(err))
		}
		_ = log.Sync()
	}, nil
}
