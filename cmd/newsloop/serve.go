package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newsloop/newsloop/agent"
	"github.com/newsloop/newsloop/config"
	"github.com/newsloop/newsloop/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the research agent over HTTP with SSE progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogging(cfg)

			store, closeStore, err := openCheckpointStore(cfg)
			if err != nil {
				return err
			}
			if closeStore != nil {
				defer closeStore()
			}

			// One agent per request so each run streams its own progress.
			factory := func(step func(node string, state map[string]any)) (server.Runner, error) {
				a, err := buildAgent(cfg, logger, store, agent.WithStepHandler(step))
				if err != nil {
					return nil, err
				}
				return a, nil
			}

			srv := server.New(factory, logger)
			fmt.Println(bannerStyle.Render("newsloop"))
			fmt.Println(stepStyle.Render("Listening on ") + addr)
			return srv.Start(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	return cmd
}
