package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrRunTimeout is returned when the run-level deadline expires before the
	// graph reaches END. It wraps context.DeadlineExceeded so callers can
	// distinguish a timed-out run from a hard stage failure.
	ErrRunTimeout = errors.New("run deadline exceeded")
)

// Node represents a node in the graph.
type Node struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function maps the current state to a partial update. The state passed in
	// must be treated as read-only; the returned map contains only the keys the
	// node changed.
	Function func(ctx context.Context, state map[string]any) (map[string]any, error)
}

// Edge represents a directed edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}

// NodeError wraps an error produced by a node function so the caller can see
// which node failed.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("error in node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
