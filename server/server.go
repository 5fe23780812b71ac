// Package server exposes the research agent over HTTP: a POST endpoint
// that streams run progress as server-sent events, and download
// endpoints for the most recent report.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/newsloop/newsloop/agent"
	"github.com/newsloop/newsloop/log"
	"github.com/newsloop/newsloop/report"
)

// Runner is the slice of agent.Agent the server needs.
type Runner interface {
	Run(ctx context.Context, req agent.Request) (*agent.Result, error)
}

// AgentFactory builds a Runner wired to the given step callback. The
// server constructs one agent per request so each run streams its own
// progress.
type AgentFactory func(step func(node string, state map[string]any)) (Runner, error)

// Server serves the run-trigger surface.
type Server struct {
	agents AgentFactory
	logger log.Logger
	echo   *echo.Echo

	mu         sync.Mutex
	running    bool
	lastReport *report.Report
}

// New creates a Server with its routes registered.
func New(agents AgentFactory, logger log.Logger) *Server {
	s := &Server{
		agents: agents,
		logger: logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.POST("/research", s.handleResearch)
	e.GET("/report", s.handleReportJSON)
	e.GET("/report/md", s.handleReportMarkdown)
	e.GET("/report/html", s.handleReportHTML)

	s.echo = e
	return s
}

// Handler exposes the underlying handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown or failure.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type runRequest struct {
	Objective string `json:"objective"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Context   string `json:"context"`
}

type event struct {
	Type    string         `json:"type"`
	Node    string         `json:"node,omitempty"`
	Message string         `json:"message,omitempty"`
	Report  *report.Report `json:"report,omitempty"`
}

// handleResearch runs the agent and streams progress as SSE. One run at
// a time; a concurrent request gets an error event instead of a run.
func (s *Server) handleResearch(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Objective == "" || req.StartDate == "" || req.EndDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "objective, start_date and end_date are required")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	if !s.tryAcquire() {
		writeEvent(resp, event{Type: "error", Message: "a research run is already in progress"})
		return nil
	}
	defer s.release()

	events := make(chan event, 16)
	go s.runAgent(c.Request().Context(), req, events)

	for ev := range events {
		writeEvent(resp, ev)
	}
	return nil
}

func (s *Server) runAgent(ctx context.Context, req runRequest, events chan<- event) {
	defer close(events)

	runner, err := s.agents(func(node string, state map[string]any) {
		events <- event{Type: "step", Node: node}
	})
	if err != nil {
		events <- event{Type: "error", Message: err.Error()}
		return
	}

	res, err := runner.Run(ctx, agent.Request{
		Objective: req.Objective,
		Context:   req.Context,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		s.logger.Error("run failed: %v", err)
		events <- event{Type: "error", Message: err.Error()}
		return
	}

	rep := report.New(res.Digest, req.Objective, req.StartDate, req.EndDate)
	s.setLastReport(rep)
	events <- event{Type: "done", Report: rep}
}

func (s *Server) handleReportJSON(c echo.Context) error {
	rep := s.getLastReport()
	if rep == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no report available yet")
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) handleReportMarkdown(c echo.Context) error {
	rep := s.getLastReport()
	if rep == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no report available yet")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.md"`, rep.Basename()))
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(rep.ToMarkdown()))
}

func (s *Server) handleReportHTML(c echo.Context) error {
	rep := s.getLastReport()
	if rep == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no report available yet")
	}
	return c.HTML(http.StatusOK, rep.ToHTML())
}

func (s *Server) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Server) setLastReport(rep *report.Report) {
	s.mu.Lock()
	s.lastReport = rep
	s.mu.Unlock()
}

func (s *Server) getLastReport() *report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

func writeEvent(resp *echo.Response, ev event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(resp, "data: %s\n\n", data)
	resp.Flush()
}
