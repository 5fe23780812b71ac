// Package graph implements the workflow engine that drives a research run.
//
// A StateGraph holds a fixed topology of named nodes connected by static
// edges, at most one conditional edge per node, and optional fan-out/fan-in
// groups. State is a map[string]any merged through a MapSchema: every key has
// a registered reducer (overwrite or append), and updates touching unknown
// keys fail fast.
//
// Execution walks the graph one node at a time. A fan-out group is the only
// source of concurrency: its branches run as independent tasks against a
// snapshot of the state, and their updates are merged back in
// branch-declaration order, which makes accumulated fields deterministic
// regardless of which branch finishes first.
package graph
