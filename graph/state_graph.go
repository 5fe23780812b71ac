package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/newsloop/newsloop/log"
)

// StateGraph represents a state-based workflow graph. Nodes map state to
// partial updates; edges (static, conditional, or a fan-out/fan-in group)
// define the fixed topology the runner walks.
type StateGraph struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges contains a map between "From" node, while "To" node is derived based on the condition
	conditionalEdges map[string]func(ctx context.Context, state map[string]any) string

	// fanOuts maps a node name to the parallel branch group spawned after it
	fanOuts map[string]*FanOut

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// schema defines the state structure and merge logic
	schema *MapSchema
}

// FanOut describes a fan-out/fan-in group: after From completes, every branch
// runs as an independent task against a snapshot of the state. Once all
// branches finish, their updates are merged into the canonical state in
// branch-declaration order, and execution continues at Join. Declaration
// order, not completion order, decides how accumulated fields interleave.
type FanOut struct {
	From     string
	Branches [][]string
	Join     string
}

// NewStateGraph creates a new empty StateGraph.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes:            make(map[string]Node),
		conditionalEdges: make(map[string]func(ctx context.Context, state map[string]any) string),
		fanOuts:          make(map[string]*FanOut),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph) AddNode(name string, description string, fn func(ctx context.Context, state map[string]any) (map[string]any, error)) {
	g.nodes[name] = Node{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime.
func (g *StateGraph) AddConditionalEdge(from string, condition func(ctx context.Context, state map[string]any) string) {
	g.conditionalEdges[from] = condition
}

// AddFanOut registers a fan-out/fan-in group after the given node. Each branch
// is an ordered chain of node names executed sequentially within its own task.
func (g *StateGraph) AddFanOut(from string, branches [][]string, join string) {
	g.fanOuts[from] = &FanOut{
		From:     from,
		Branches: branches,
		Join:     join,
	}
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph) SetSchema(schema *MapSchema) {
	g.schema = schema
}

// Runnable represents a compiled state graph that can be invoked.
type Runnable struct {
	graph       *StateGraph
	checkpoints CheckpointStore
	stepHandler func(node string, state map[string]any)
}

// Compile validates the graph topology and returns a Runnable. Every non-END
// node must have exactly one outgoing route: a static edge, a conditional
// edge, or a fan-out group.
func (g *StateGraph) Compile() (*Runnable, error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}
	if g.schema == nil {
		return nil, errors.New("state schema not set")
	}

	outgoing := make(map[string]int)
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge from unknown node %s", ErrNodeNotFound, e.From)
		}
		if e.To != END {
			if _, ok := g.nodes[e.To]; !ok {
				return nil, fmt.Errorf("%w: edge to unknown node %s", ErrNodeNotFound, e.To)
			}
		}
		outgoing[e.From]++
	}
	for from := range g.conditionalEdges {
		outgoing[from]++
	}
	for from, fo := range g.fanOuts {
		for _, branch := range fo.Branches {
			for _, name := range branch {
				if _, ok := g.nodes[name]; !ok {
					return nil, fmt.Errorf("%w: fan-out branch node %s", ErrNodeNotFound, name)
				}
			}
		}
		if _, ok := g.nodes[fo.Join]; !ok {
			return nil, fmt.Errorf("%w: fan-out join node %s", ErrNodeNotFound, fo.Join)
		}
		outgoing[from]++
	}

	for name := range g.nodes {
		if g.isBranchNode(name) {
			continue
		}
		if n := outgoing[name]; n == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		} else if n > 1 {
			return nil, fmt.Errorf("node %s has %d outgoing routes, want exactly one", name, n)
		}
	}

	return &Runnable{graph: g}, nil
}

// isBranchNode reports whether the node only appears inside a fan-out branch,
// where routing is implied by chain position.
func (g *StateGraph) isBranchNode(name string) bool {
	for _, fo := range g.fanOuts {
		for _, branch := range fo.Branches {
			for _, n := range branch {
				if n == name {
					return true
				}
			}
		}
	}
	return false
}

// SetCheckpointStore enables per-step state snapshots.
func (r *Runnable) SetCheckpointStore(store CheckpointStore) {
	r.checkpoints = store
}

// SetStepHandler registers a callback invoked after every completed step with
// the node name and the merged canonical state.
func (r *Runnable) SetStepHandler(fn func(node string, state map[string]any)) {
	r.stepHandler = fn
}

// Invoke executes the compiled state graph with the given input state and a
// generated run ID.
func (r *Runnable) Invoke(ctx context.Context, initial map[string]any) (map[string]any, error) {
	return r.InvokeWithRunID(ctx, initial, NewRunID())
}

// InvokeWithRunID executes the compiled state graph, tagging checkpoints with
// the given run ID. It walks the topology one node at a time; only a fan-out
// group introduces concurrency.
func (r *Runnable) InvokeWithRunID(ctx context.Context, initial map[string]any, runID string) (map[string]any, error) {
	state, err := r.graph.schema.Update(r.graph.schema.Init(), initial)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state: %w", err)
	}

	current := r.graph.entryPoint
	step := 0

	for current != END {
		if err := runErr(ctx); err != nil {
			return nil, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		log.Debug("graph: executing node %s (run %s, step %d)", current, runID, step)
		state, err = r.runNode(ctx, node, state)
		if err != nil {
			return nil, err
		}
		step++
		r.afterStep(ctx, runID, current, step, state)

		if fo, ok := r.graph.fanOuts[current]; ok {
			state, err = r.runFanOut(ctx, fo, state)
			if err != nil {
				return nil, err
			}
			step++
			r.afterStep(ctx, runID, fo.From+":fan-in", step, state)
			current = fo.Join
			continue
		}

		current, err = r.nextNode(ctx, current, state)
		if err != nil {
			return nil, err
		}
	}

	return state, nil
}

// runNode executes a single node and merges its partial update into the state.
func (r *Runnable) runNode(ctx context.Context, node Node, state map[string]any) (map[string]any, error) {
	update, err := safeCall(ctx, node, state)
	if err != nil {
		if deadlineErr := runErr(ctx); deadlineErr != nil {
			return nil, deadlineErr
		}
		return nil, &NodeError{Node: node.Name, Err: err}
	}

	merged, err := r.graph.schema.Update(state, update)
	if err != nil {
		return nil, &NodeError{Node: node.Name, Err: err}
	}
	return merged, nil
}

// runFanOut spawns one task per branch against a snapshot of the state, waits
// for all of them, then applies their updates in branch-declaration order.
func (r *Runnable) runFanOut(ctx context.Context, fo *FanOut, state map[string]any) (map[string]any, error) {
	type branchResult struct {
		updates []map[string]any
		err     error
	}

	results := make([]branchResult, len(fo.Branches))
	var wg sync.WaitGroup

	for i, branch := range fo.Branches {
		wg.Add(1)
		go func(idx int, chain []string) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					results[idx] = branchResult{err: &NodeError{
						Node: chain[0],
						Err:  fmt.Errorf("panic in fan-out branch: %v", rec),
					}}
				}
			}()

			local := maps.Clone(state)
			var updates []map[string]any

			for _, name := range chain {
				if err := runErr(ctx); err != nil {
					results[idx] = branchResult{err: err}
					return
				}
				node := r.graph.nodes[name]
				update, err := safeCall(ctx, node, local)
				if err != nil {
					results[idx] = branchResult{err: &NodeError{Node: name, Err: err}}
					return
				}
				local, err = r.graph.schema.Update(local, update)
				if err != nil {
					results[idx] = branchResult{err: &NodeError{Node: name, Err: err}}
					return
				}
				updates = append(updates, update)
			}
			results[idx] = branchResult{updates: updates}
		}(i, branch)
	}
	wg.Wait()

	// Surface errors in branch-declaration order so failures are reproducible.
	for _, res := range results {
		if res.err != nil {
			if deadlineErr := runErr(ctx); deadlineErr != nil {
				return nil, deadlineErr
			}
			return nil, res.err
		}
	}

	merged := state
	var err error
	for _, res := range results {
		for _, update := range res.updates {
			merged, err = r.graph.schema.Update(merged, update)
			if err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

// nextNode resolves the successor of a node via its conditional or static edge.
func (r *Runnable) nextNode(ctx context.Context, current string, state map[string]any) (string, error) {
	if condition, ok := r.graph.conditionalEdges[current]; ok {
		next := condition(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", current)
		}
		return next, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == current {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, current)
}

// afterStep saves a checkpoint and notifies the step handler.
func (r *Runnable) afterStep(ctx context.Context, runID, nodeName string, step int, state map[string]any) {
	if r.checkpoints != nil {
		cp := &Checkpoint{
			ID:        NewCheckpointID(),
			RunID:     runID,
			NodeName:  nodeName,
			Step:      step,
			State:     state,
			Timestamp: time.Now(),
		}
		if err := r.checkpoints.Save(ctx, cp); err != nil {
			log.Warn("graph: failed to save checkpoint after %s: %v", nodeName, err)
		}
	}
	if r.stepHandler != nil {
		r.stepHandler(nodeName, state)
	}
}

// safeCall invokes a node function with panic recovery.
func safeCall(ctx context.Context, node Node, state map[string]any) (update map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return node.Function(ctx, state)
}

// runErr classifies a context error: deadline expiry becomes ErrRunTimeout so
// callers can tell a timed-out run from a stage failure.
func runErr(ctx context.Context) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrRunTimeout, ctx.Err())
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return nil
	}
}
