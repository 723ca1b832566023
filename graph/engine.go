package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NishanthN27/Final-Year/graph/emit"
	"github.com/NishanthN27/Final-Year/graph/store"
)

// Status is the externally visible state of a session.
type Status string

const (
	// StatusRunning marks a checkpoint taken between steps. Callers only
	// see it on results returned together with an error.
	StatusRunning Status = "RUNNING"

	// StatusPaused means the session waits for input via Resume.
	StatusPaused Status = "PAUSED"

	// StatusEnded means every branch reached END.
	StatusEnded Status = "ENDED"
)

// Result is returned by Run, Resume and Snapshot. When an error is returned
// alongside it, Result describes the last durable checkpoint.
type Result[S any] struct {
	Status Status
	State  S
	Step   int

	// Next lists the nodes that execute when the session continues.
	Next []string

	// Pending lists nodes whose routing is evaluated on Resume.
	Pending []string
}

// Engine executes a graph of nodes over a shared state S. Nodes return
// patches of type P which the reducer folds into the state.
//
// An Engine is built in two phases. First nodes, edges, routers, entry and
// pause nodes are registered; then Compile validates the wiring and freezes
// it. Run and Resume refuse to execute an engine that did not compile.
//
// Each step executes the active nodes concurrently on private snapshots,
// folds their patches in node registration order, then either pauses
// (checkpoint and return PAUSED) or consults routers and edges for the next
// active set. Duplicate targets collapse so a join node executes once. A
// failed step is discarded entirely: the checkpoint keeps the previous
// step's state.
//
// Example:
//
//	reducers := graph.NewReducerRegistry[State, Patch]()
//	reducers.MustRegister("count", countReducer)
//
//	eng := graph.New[State, Patch](reducers.Reduce, store.NewMemStore[State](), nil)
//	_ = eng.Add("ask", askNode)
//	_ = eng.Add("grade", gradeNode)
//	_ = eng.StartAt("ask")
//	_ = eng.PauseAfter("ask")
//	_ = eng.Connect("ask", "grade")
//	_ = eng.Connect("grade", graph.END)
//	if err := eng.Compile(); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := eng.Run(ctx, "session-1", State{})      // res.Status == PAUSED
//	res, err = eng.Resume(ctx, "session-1", answerPatch) // res.Status == ENDED
type Engine[S, P any] struct {
	mu sync.RWMutex

	reducer Reducer[S, P]

	// nodes in registration order; index gives the merge order.
	nodes    map[string]Node[S, P]
	order    []string
	index    map[string]int
	policies map[string]NodePolicy

	edges     []Edge
	edgesFrom map[string][]Edge
	routers   map[string]*Router[S]
	entries   []string
	pauses    map[string]bool

	store   store.Store[S]
	emitter emit.Emitter
	cfg     engineConfig
	optErr  error

	compiled bool
}

// New creates an Engine. A nil emitter discards events. Option errors are
// reported by Compile.
func New[S, P any](reducer Reducer[S, P], st store.Store[S], emitter emit.Emitter, opts ...Option) *Engine[S, P] {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	cfg := engineConfig{clock: time.Now}
	var optErr error
	for _, opt := range opts {
		if err := opt(&cfg); err != nil && optErr == nil {
			optErr = err
		}
	}
	if cfg.locker == nil {
		cfg.locker = store.NewLocalLocker()
	}
	return &Engine[S, P]{
		reducer:   reducer,
		nodes:     make(map[string]Node[S, P]),
		index:     make(map[string]int),
		policies:  make(map[string]NodePolicy),
		edgesFrom: make(map[string][]Edge),
		routers:   make(map[string]*Router[S]),
		pauses:    make(map[string]bool),
		store:     st,
		emitter:   emitter,
		cfg:       cfg,
		optErr:    optErr,
	}
}

func (e *Engine[S, P]) frozen() error {
	if e.compiled {
		return &ConfigError{Code: CodeFrozen, Message: "graph is compiled and can no longer change"}
	}
	return nil
}

// Add registers a node. Node ids must be unique and non-empty, and must not
// collide with the END and PAUSE pseudo-targets.
func (e *Engine[S, P]) Add(nodeID string, node Node[S, P]) error {
	return e.AddWithPolicy(nodeID, node, NodePolicy{})
}

// AddWithPolicy registers a node with an execution policy.
func (e *Engine[S, P]) AddWithPolicy(nodeID string, node Node[S, P], policy NodePolicy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.frozen(); err != nil {
		return err
	}
	if nodeID == "" || nodeID == END || nodeID == PAUSE {
		return &ConfigError{Code: CodeEmptyNodeID, Subject: nodeID, Message: "invalid node id"}
	}
	if node == nil {
		return &ConfigError{Code: CodeNilNode, Subject: nodeID, Message: "node cannot be nil"}
	}
	if _, exists := e.nodes[nodeID]; exists {
		return &ConfigError{Code: CodeDuplicateNode, Subject: nodeID, Message: "node already registered"}
	}
	if err := policy.validate(); err != nil {
		return &ConfigError{Code: CodeInvalidPolicy, Subject: nodeID, Message: err.Error()}
	}

	e.index[nodeID] = len(e.order)
	e.order = append(e.order, nodeID)
	e.nodes[nodeID] = node
	e.policies[nodeID] = policy
	return nil
}

// StartAt declares the entry nodes. Several entry nodes execute
// concurrently in the first step.
func (e *Engine[S, P]) StartAt(nodeIDs ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.frozen(); err != nil {
		return err
	}
	if len(nodeIDs) == 0 {
		return &ConfigError{Code: CodeNoEntry, Message: "at least one entry node is required"}
	}
	e.entries = append([]string(nil), nodeIDs...)
	return nil
}

// Connect adds an unconditional edge. to may be END.
func (e *Engine[S, P]) Connect(from, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.frozen(); err != nil {
		return err
	}
	for _, existing := range e.edgesFrom[from] {
		if existing.To == to {
			return nil
		}
	}
	edge := Edge{From: from, To: to}
	e.edges = append(e.edges, edge)
	e.edgesFrom[from] = append(e.edgesFrom[from], edge)
	return nil
}

// Route binds a named router to the node from. routes maps every label the
// router may return to a node id, PAUSE or END. A node has at most one
// router and a node with a router has no plain edges.
func (e *Engine[S, P]) Route(name, from string, fn RouterFunc[S], routes map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.frozen(); err != nil {
		return err
	}
	if name == "" || fn == nil {
		return &ConfigError{Code: CodeDuplicateRouter, Subject: from, Message: "router needs a name and a function"}
	}
	if len(routes) == 0 {
		return &ConfigError{Code: CodeEmptyRoutes, Subject: name, Message: "router declares no labels"}
	}
	if existing, ok := e.routers[from]; ok {
		return &ConfigError{Code: CodeDuplicateRouter, Subject: from, Message: "node already has router " + existing.Name}
	}
	for _, r := range e.routers {
		if r.Name == name {
			return &ConfigError{Code: CodeDuplicateRouter, Subject: name, Message: "router name already used"}
		}
	}

	table := make(map[string]string, len(routes))
	for label, target := range routes {
		table[label] = target
	}
	e.routers[from] = &Router[S]{Name: name, From: from, Fn: fn, Routes: table}
	return nil
}

// PauseAfter declares pause nodes. After a step that executed a pause node
// the engine checkpoints and returns PAUSED; routing of that step happens
// on the next Resume.
func (e *Engine[S, P]) PauseAfter(nodeIDs ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.frozen(); err != nil {
		return err
	}
	for _, id := range nodeIDs {
		e.pauses[id] = true
	}
	return nil
}

// Compile validates the graph and freezes it. It reports the first problem
// found as a *ConfigError. Compiling an already compiled engine is a no-op.
func (e *Engine[S, P]) Compile() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.compiled {
		return nil
	}
	if err := e.validate(); err != nil {
		return err
	}
	e.compiled = true
	return nil
}

func (e *Engine[S, P]) validate() error {
	if e.optErr != nil {
		return e.optErr
	}
	if e.reducer == nil {
		return &ConfigError{Code: CodeInvalidOption, Message: "reducer is required"}
	}
	if e.store == nil {
		return &ConfigError{Code: CodeInvalidOption, Message: "checkpoint store is required"}
	}
	if len(e.entries) == 0 {
		return &ConfigError{Code: CodeNoEntry, Message: "no entry node declared"}
	}
	for _, id := range e.entries {
		if !e.known(id) {
			return unknownNode(id, "entry point")
		}
	}
	for _, id := range sortedSet(e.pauses) {
		if !e.known(id) {
			return unknownNode(id, "pause declaration")
		}
	}
	for _, edge := range e.edges {
		if !e.known(edge.From) {
			return unknownNode(edge.From, "edge source")
		}
		if edge.To != END && !e.known(edge.To) {
			return unknownNode(edge.To, "edge target from "+edge.From)
		}
	}
	for _, from := range e.routerSources() {
		r := e.routers[from]
		if !e.known(from) {
			return unknownNode(from, "router "+r.Name+" source")
		}
		for _, label := range r.Labels() {
			target := r.Routes[label]
			if target != END && target != PAUSE && !e.known(target) {
				return unknownNode(target, fmt.Sprintf("router %s label %q", r.Name, label))
			}
		}
	}
	for _, id := range e.order {
		_, hasRouter := e.routers[id]
		hasEdges := len(e.edgesFrom[id]) > 0
		switch {
		case hasRouter && hasEdges:
			return &ConfigError{Code: CodeMixedRouting, Subject: id, Message: "node has both a router and edges"}
		case !hasRouter && !hasEdges:
			return &ConfigError{Code: CodeNoRouting, Subject: id, Message: "node has no outgoing edge or router; connect it to END if it is terminal"}
		}
	}
	return nil
}

func (e *Engine[S, P]) known(id string) bool {
	_, ok := e.nodes[id]
	return ok
}

func unknownNode(id, where string) error {
	return &ConfigError{Code: CodeUnknownNode, Subject: id, Message: "unregistered node referenced by " + where}
}

func (e *Engine[S, P]) ready() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.compiled {
		return &ConfigError{Code: CodeNotCompiled, Message: "Compile must succeed before sessions run"}
	}
	return nil
}

// Run starts a new session at the entry nodes and executes until the
// session pauses or ends. It returns ErrSessionExists if the session id
// already has a checkpoint.
func (e *Engine[S, P]) Run(ctx context.Context, sessionID string, initial S) (Result[S], error) {
	if err := e.ready(); err != nil {
		return Result[S]{State: initial}, err
	}
	if sessionID == "" {
		return Result[S]{State: initial}, &EngineError{Message: "session id cannot be empty", Code: "INVALID_SESSION"}
	}

	unlock, err := e.lock(ctx, sessionID)
	if err != nil {
		return Result[S]{State: initial}, err
	}
	defer unlock()

	if _, err := e.store.Load(ctx, sessionID); err == nil {
		return Result[S]{State: initial}, fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return Result[S]{State: initial}, storeError("failed to load checkpoint", err)
	}

	state, err := deepCopy(initial)
	if err != nil {
		return Result[S]{State: initial}, &EngineError{Message: "initial state is not serializable", Code: "STATE_COPY", Cause: err}
	}

	cp, err := e.save(ctx, sessionID, store.Position{
		Status: string(StatusRunning),
		Next:   e.normalize(e.entries),
	}, state)
	if err != nil {
		return Result[S]{State: initial}, err
	}

	e.emit(sessionID, 0, "", emit.MsgSessionStarted, map[string]interface{}{"entries": e.entries})
	return e.execute(ctx, cp)
}

// Resume continues a session.
//
//   - A PAUSED session with empty input is returned unchanged; nothing
//     executes and nothing is written.
//   - Otherwise input is folded into the state with the reducer, the routing
//     recorded at pause time is evaluated and execution continues.
//   - A session left RUNNING by a failed step retries that step.
//   - An ENDED session returns ENDED for empty input and ErrSessionEnded
//     otherwise.
func (e *Engine[S, P]) Resume(ctx context.Context, sessionID string, input P) (Result[S], error) {
	if err := e.ready(); err != nil {
		return Result[S]{}, err
	}

	unlock, err := e.lock(ctx, sessionID)
	if err != nil {
		return Result[S]{}, err
	}
	defer unlock()

	cp, err := e.load(ctx, sessionID)
	if err != nil {
		return Result[S]{}, err
	}

	empty := isEmptyPatch(input)
	switch Status(cp.Position.Status) {
	case StatusEnded:
		if empty {
			return resultOf(cp), nil
		}
		return resultOf(cp), fmt.Errorf("%w: %s", ErrSessionEnded, sessionID)
	case StatusPaused:
		if empty {
			return resultOf(cp), nil
		}
	}

	state := cp.State
	if !empty {
		state, err = e.reducer(cp.State, input)
		if err != nil {
			e.cfg.metrics.stepFailed("validation")
			e.emit(sessionID, cp.Position.Step, "", emit.MsgStepFailed, map[string]interface{}{"error": err.Error()})
			return resultOf(cp), err
		}
	}
	e.emit(sessionID, cp.Position.Step, "", emit.MsgSessionResumed, map[string]interface{}{"status": cp.Position.Status})

	if Status(cp.Position.Status) != StatusPaused {
		return e.run(ctx, cp, cp.Position.Next, state)
	}

	next, pending, err := e.route(sessionID, cp.Position.Step, cp.Position.Pending, state)
	if err != nil {
		e.cfg.metrics.stepFailed("routing")
		return resultOf(cp), err
	}
	next = e.normalize(append(append([]string(nil), cp.Position.Next...), next...))
	if len(pending) > 0 {
		return e.pause(ctx, cp, cp.Position.Step, next, pending, state)
	}
	return e.run(ctx, cp, next, state)
}

// Snapshot returns the session's last checkpoint without executing anything.
func (e *Engine[S, P]) Snapshot(ctx context.Context, sessionID string) (Result[S], error) {
	cp, err := e.load(ctx, sessionID)
	if err != nil {
		return Result[S]{}, err
	}
	return resultOf(cp), nil
}

// Delete removes the session's checkpoint.
func (e *Engine[S, P]) Delete(ctx context.Context, sessionID string) error {
	unlock, err := e.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := e.load(ctx, sessionID); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, sessionID); err != nil {
		return storeError("failed to delete checkpoint", err)
	}
	return nil
}

func (e *Engine[S, P]) execute(ctx context.Context, cp store.Checkpoint[S]) (Result[S], error) {
	return e.run(ctx, cp, cp.Position.Next, cp.State)
}

// run executes steps starting from active until the session pauses or ends.
// committed is the last durable checkpoint, returned alongside any error.
func (e *Engine[S, P]) run(ctx context.Context, committed store.Checkpoint[S], active []string, state S) (Result[S], error) {
	sessionID := committed.SessionID
	step := committed.Position.Step
	executed := 0

	for len(active) > 0 {
		if e.cfg.maxSteps > 0 && executed >= e.cfg.maxSteps {
			return resultOf(committed), fmt.Errorf("%w: session %s stopped after %d steps", ErrMaxStepsExceeded, sessionID, executed)
		}
		if err := ctx.Err(); err != nil {
			return resultOf(committed), err
		}

		step++
		merged, err := e.runStep(ctx, sessionID, step, active, state)
		if err != nil {
			e.emit(sessionID, step, "", emit.MsgStepFailed, map[string]interface{}{"error": err.Error()})
			return resultOf(committed), err
		}
		executed++
		e.cfg.metrics.stepMerged()
		e.emit(sessionID, step, "", emit.MsgStepMerged, map[string]interface{}{"nodes": active})

		if e.pausesIn(active) {
			return e.pause(ctx, committed, step, nil, active, merged)
		}

		next, pending, err := e.route(sessionID, step, active, merged)
		if err != nil {
			e.cfg.metrics.stepFailed("routing")
			e.emit(sessionID, step, "", emit.MsgStepFailed, map[string]interface{}{"error": err.Error()})
			return resultOf(committed), err
		}
		if len(pending) > 0 {
			return e.pause(ctx, committed, step, next, pending, merged)
		}
		if len(next) == 0 {
			cp, err := e.save(ctx, sessionID, store.Position{Status: string(StatusEnded), Step: step}, merged)
			if err != nil {
				return resultOf(committed), err
			}
			e.cfg.metrics.transition(StatusEnded)
			e.emit(sessionID, step, "", emit.MsgSessionEnded, map[string]interface{}{"status": string(StatusEnded)})
			return resultOf(cp), nil
		}

		cp, err := e.save(ctx, sessionID, store.Position{Status: string(StatusRunning), Step: step, Next: next}, merged)
		if err != nil {
			return resultOf(committed), err
		}
		committed = cp
		state = merged
		active = next
	}

	// Reached only when resuming into an empty active set.
	cp, err := e.save(ctx, sessionID, store.Position{Status: string(StatusEnded), Step: step}, state)
	if err != nil {
		return resultOf(committed), err
	}
	e.cfg.metrics.transition(StatusEnded)
	e.emit(sessionID, step, "", emit.MsgSessionEnded, map[string]interface{}{"status": string(StatusEnded)})
	return resultOf(cp), nil
}

func (e *Engine[S, P]) pause(ctx context.Context, committed store.Checkpoint[S], step int, next, pending []string, state S) (Result[S], error) {
	cp, err := e.save(ctx, committed.SessionID, store.Position{
		Status:  string(StatusPaused),
		Step:    step,
		Next:    next,
		Pending: pending,
	}, state)
	if err != nil {
		return resultOf(committed), err
	}
	e.cfg.metrics.transition(StatusPaused)
	e.emit(committed.SessionID, step, "", emit.MsgSessionPaused, map[string]interface{}{
		"status":  string(StatusPaused),
		"pending": pending,
	})
	return resultOf(cp), nil
}

// runStep executes the active nodes concurrently and folds their patches in
// registration order. On error the step is discarded and state is returned
// unchanged.
func (e *Engine[S, P]) runStep(ctx context.Context, sessionID string, step int, active []string, state S) (S, error) {
	patches := make([]P, len(active))
	errs := make([]error, len(active))

	g, gctx := errgroup.WithContext(ctx)
	for i, nodeID := range active {
		snapshot, err := deepCopy(state)
		if err != nil {
			return state, &EngineError{Message: "failed to snapshot state", Code: "STATE_COPY", Cause: err}
		}
		g.Go(func() error {
			patch, err := e.executeNode(gctx, sessionID, step, nodeID, snapshot)
			if err != nil {
				errs[i] = err
				return err
			}
			patches[i] = patch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.cfg.metrics.stepFailed("node")
		return state, firstCause(errs)
	}

	merged := state
	for i, nodeID := range active {
		next, err := e.reducer(merged, patches[i])
		if err != nil {
			e.cfg.metrics.stepFailed("validation")
			return state, annotate(err, nodeID)
		}
		merged = next
	}
	return merged, nil
}

// firstCause picks the error to report for a failed step: the
// lowest-ordered failure that is not a sibling cancelled by it.
func firstCause(errs []error) error {
	var fallback error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if fallback == nil {
				fallback = err
			}
			continue
		}
		return err
	}
	return fallback
}

func (e *Engine[S, P]) executeNode(ctx context.Context, sessionID string, step int, nodeID string, snapshot S) (P, error) {
	node := e.nodes[nodeID]
	policy := e.policies[nodeID]
	timeout := policy.Timeout
	if timeout == 0 {
		timeout = e.cfg.defaultTimeout
	}

	var (
		patch P
		err   error
	)
	attempts := policy.attempts()
retry:
	for attempt := 0; attempt < attempts; attempt++ {
		e.emit(sessionID, step, nodeID, emit.MsgNodeStart, map[string]interface{}{"attempt": attempt})
		e.cfg.metrics.nodeStarted()
		start := time.Now()

		patch, err = invokeNode(ctx, node, nodeID, snapshot, timeout)
		elapsed := time.Since(start)
		e.cfg.metrics.nodeFinished(nodeID, elapsed, statusOf(err))

		if err == nil {
			e.emit(sessionID, step, nodeID, emit.MsgNodeEnd, map[string]interface{}{
				"attempt":     attempt,
				"duration_ms": elapsed.Milliseconds(),
			})
			return patch, nil
		}

		if attempt+1 >= attempts || !policy.shouldRetry(err) {
			break retry
		}
		delay := computeBackoff(attempt, policy.Retry.BaseDelay, policy.Retry.MaxDelay, nil)
		e.cfg.metrics.nodeRetried(nodeID)
		e.emit(sessionID, step, nodeID, emit.MsgNodeRetry, map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
			"delay":   delay,
		})
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break retry
		case <-time.After(delay):
		}
	}

	nodeErr := asNodeError(err, sessionID, nodeID, step)
	e.emit(sessionID, step, nodeID, emit.MsgNodeError, map[string]interface{}{
		"error": nodeErr.Error(),
		"code":  nodeErr.Code,
	})
	var zero P
	return zero, nodeErr
}

func asNodeError(err error, sessionID, nodeID string, step int) *NodeError {
	var ne *NodeError
	if errors.As(err, &ne) && ne.NodeID == nodeID {
		ne.SessionID = sessionID
		ne.Step = step
		return ne
	}
	return &NodeError{
		Message:   err.Error(),
		Code:      CodeNodeFailed,
		SessionID: sessionID,
		NodeID:    nodeID,
		Step:      step,
		Cause:     err,
	}
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	var ne *NodeError
	if errors.As(err, &ne) {
		switch ne.Code {
		case CodeNodeTimeout:
			return "timeout"
		case CodeNodePanic:
			return "panic"
		}
	}
	return "error"
}

// route evaluates the routing of every source node against state. Router
// labels mapped to PAUSE are returned as pending sources.
func (e *Engine[S, P]) route(sessionID string, step int, sources []string, state S) (next, pending []string, err error) {
	var targets []string
	for _, src := range sources {
		if r, ok := e.routers[src]; ok {
			label, target, err := r.resolve(state)
			if err != nil {
				return nil, nil, err
			}
			e.emit(sessionID, step, src, emit.MsgRouting, map[string]interface{}{
				"router": r.Name,
				"label":  label,
				"target": target,
			})
			switch target {
			case PAUSE:
				pending = append(pending, src)
			case END:
			default:
				targets = append(targets, target)
			}
			continue
		}
		for _, edge := range e.edgesFrom[src] {
			if edge.To != END {
				targets = append(targets, edge.To)
			}
		}
	}
	return e.normalize(targets), pending, nil
}

// normalize removes duplicates and orders node ids by registration.
func (e *Engine[S, P]) normalize(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return e.index[out[i]] < e.index[out[j]]
	})
	return out
}

func (e *Engine[S, P]) pausesIn(active []string) bool {
	for _, id := range active {
		if e.pauses[id] {
			return true
		}
	}
	return false
}

func (e *Engine[S, P]) lock(ctx context.Context, sessionID string) (func(), error) {
	unlock, err := e.cfg.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, &EngineError{Message: "failed to lock session " + sessionID, Code: "LOCK_ERROR", Cause: err}
	}
	return func() {
		_ = unlock(context.WithoutCancel(ctx))
	}, nil
}

func (e *Engine[S, P]) load(ctx context.Context, sessionID string) (store.Checkpoint[S], error) {
	cp, err := e.store.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return cp, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return cp, storeError("failed to load checkpoint", err)
	}
	cp.SessionID = sessionID
	return cp, nil
}

func (e *Engine[S, P]) save(ctx context.Context, sessionID string, pos store.Position, state S) (store.Checkpoint[S], error) {
	cp := store.Checkpoint[S]{
		SessionID: sessionID,
		Position:  pos,
		State:     state,
		UpdatedAt: e.cfg.clock(),
	}
	if err := e.store.Save(ctx, sessionID, cp); err != nil {
		e.cfg.metrics.stepFailed("store")
		return cp, storeError("failed to save checkpoint", err)
	}
	return cp, nil
}

func storeError(msg string, err error) error {
	return &EngineError{Message: msg, Code: "STORE_ERROR", Cause: err}
}

func (e *Engine[S, P]) emit(sessionID string, step int, nodeID, msg string, meta map[string]interface{}) {
	e.emitter.Emit(emit.Event{
		SessionID: sessionID,
		Step:      step,
		NodeID:    nodeID,
		Msg:       msg,
		Time:      e.cfg.clock(),
		Meta:      meta,
	})
}

func resultOf[S any](cp store.Checkpoint[S]) Result[S] {
	return Result[S]{
		Status:  Status(cp.Position.Status),
		State:   cp.State,
		Step:    cp.Position.Step,
		Next:    cp.Position.Next,
		Pending: cp.Position.Pending,
	}
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e *Engine[S, P]) routerSources() []string {
	out := make([]string, 0, len(e.routers))
	for k := range e.routers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
