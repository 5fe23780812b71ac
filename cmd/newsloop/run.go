package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/newsloop/newsloop/agent"
	"github.com/newsloop/newsloop/config"
	"github.com/newsloop/newsloop/graph"
	"github.com/newsloop/newsloop/llm"
	"github.com/newsloop/newsloop/log"
	"github.com/newsloop/newsloop/pioneer"
	"github.com/newsloop/newsloop/reka"
	"github.com/newsloop/newsloop/report"
	"github.com/newsloop/newsloop/store/memory"
	pgstore "github.com/newsloop/newsloop/store/postgres"
	redisstore "github.com/newsloop/newsloop/store/redis"
	sqlitestore "github.com/newsloop/newsloop/store/sqlite"
	"github.com/newsloop/newsloop/tavily"
)

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1).Border(lipgloss.RoundedBorder())
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func runCmd() *cobra.Command {
	var (
		objective  string
		startDate  string
		endDate    string
		background string
		formats    []string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a research pass and save the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormats(formats); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogging(cfg)

			if endDate == "" {
				endDate = time.Now().Format("2006-01-02")
			}
			if startDate == "" {
				startDate = time.Now().AddDate(0, 0, -7).Format("2006-01-02")
			}

			fmt.Println(bannerStyle.Render("newsloop"))
			fmt.Println(stepStyle.Render("Objective: ") + objective)
			fmt.Println(stepStyle.Render("Period:    ") + startDate + " to " + endDate)
			fmt.Println()

			store, closeStore, err := openCheckpointStore(cfg)
			if err != nil {
				return err
			}
			if closeStore != nil {
				defer closeStore()
			}

			a, err := buildAgent(cfg, logger, store,
				agent.WithStepHandler(func(node string, state map[string]any) {
					fmt.Println(faintStyle.Render("  · " + node))
				}),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res, err := a.Run(ctx, agent.Request{
				Objective: objective,
				Context:   background,
				StartDate: startDate,
				EndDate:   endDate,
			})
			if err != nil {
				return err
			}

			rep := report.New(res.Digest, objective, startDate, endDate)
			written, err := rep.Save(cfg.ReportsDir, formats...)
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(sectionStyle.Render(fmt.Sprintf("Digest: %d sections, %d search pass(es)",
				len(res.Digest.Sections), res.SearchIterations)))
			for _, section := range res.Digest.Sections {
				fmt.Println("  - " + section.Title + faintStyle.Render(fmt.Sprintf(" (%d sources)", len(section.Sources))))
			}
			fmt.Println(sectionStyle.Render("Saved:"))
			for _, path := range written {
				fmt.Println("  " + path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&objective, "objective", "o", "", "research objective (required)")
	cmd.Flags().StringVar(&startDate, "start", "", "period start, YYYY-MM-DD (default: 7 days ago)")
	cmd.Flags().StringVar(&endDate, "end", "", "period end, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&background, "context", "", "extra background for the planner")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{report.FormatMarkdown}, "report formats: md, txt, html")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "overall run deadline (0 disables)")
	_ = cmd.MarkFlagRequired("objective")

	return cmd
}

// buildAgent wires the collaborators from config. The checkpoint store
// is passed in so the caller owns its lifetime; nil disables checkpointing.
func buildAgent(cfg *config.Config, logger log.Logger, store graph.CheckpointStore, extra ...agent.Option) (*agent.Agent, error) {
	var llmOpts []llm.Option
	if cfg.PlannerModel != "" {
		llmOpts = append(llmOpts, llm.WithPlannerModel(cfg.PlannerModel))
	}
	if cfg.AnalystModel != "" {
		llmOpts = append(llmOpts, llm.WithAnalystModel(cfg.AnalystModel))
	}

	models := llm.NewOpenAI(cfg.OpenAIAPIKey, llmOpts...)
	search := tavily.NewClient(cfg.TavilyAPIKey)
	entities := pioneer.NewClient(cfg.PioneerAPIKey, cfg.PioneerModel)
	videos := reka.NewClient(cfg.RekaAPIKey)

	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithMaxSearchIterations(cfg.MaxSearchIterations),
		agent.WithMaxVideos(cfg.MaxVideos),
		agent.WithMaxVideosPerTopic(cfg.MaxVideosPerTopic),
	}
	if len(cfg.IncludeDomains) > 0 {
		opts = append(opts, agent.WithIncludeDomains(cfg.IncludeDomains))
	}

	if store != nil {
		opts = append(opts, agent.WithCheckpointStore(store))
	}
	opts = append(opts, extra...)

	return agent.New(models, search, entities, videos, opts...)
}

func openCheckpointStore(cfg *config.Config) (graph.CheckpointStore, func(), error) {
	switch cfg.CheckpointBackend {
	case config.BackendNone:
		return nil, nil, nil
	case config.BackendMemory:
		return memory.NewCheckpointStore(), func() {}, nil
	case config.BackendSQLite:
		store, err := sqlitestore.NewCheckpointStore(sqlitestore.Options{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.BackendRedis:
		store := redisstore.NewCheckpointStore(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return store, func() { _ = store.Close() }, nil
	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := pgstore.NewCheckpointStore(ctx, pgstore.Options{ConnString: cfg.PostgresURL})
		if err != nil {
			return nil, nil, err
		}
		if err := store.InitSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown checkpoint backend %q", cfg.CheckpointBackend)
	}
}

func validFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case report.FormatMarkdown, report.FormatText, report.FormatHTML:
		default:
			return fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(report.AllFormats, ", "))
		}
	}
	return nil
}
