// Package log provides a small leveled logging interface shared by the agent,
// the graph engine, and the collaborator clients.
//
// Two implementations are included: DefaultLogger on top of the standard
// library, and GologLogger wrapping github.com/kataras/golog for colored
// terminal output. Package-level helpers (Debug/Info/Warn/Error) forward to a
// swappable default logger so callers do not have to thread a logger through
// every layer.
package log
