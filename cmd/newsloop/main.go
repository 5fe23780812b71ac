// Command newsloop runs the news research agent: interactively from
// the terminal, as an HTTP service, or as a report format converter.
package main

import (
	"fmt"
	"os"

	"github.com/kataras/golog"
	"github.com/spf13/cobra"

	"github.com/newsloop/newsloop/config"
	"github.com/newsloop/newsloop/log"
)

func main() {
	root := &cobra.Command{
		Use:           "newsloop",
		Short:         "Autonomous news research agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd(), serveCmd(), convertCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogging installs a golog-backed logger at the configured level
// as the package default.
func setupLogging(cfg *config.Config) log.Logger {
	logger := log.NewGologLogger(golog.New())
	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(log.LogLevelDebug)
	case "warn":
		logger.SetLevel(log.LogLevelWarn)
	case "error":
		logger.SetLevel(log.LogLevelError)
	default:
		logger.SetLevel(log.LogLevelInfo)
	}
	log.SetDefaultLogger(logger)
	return logger
}
