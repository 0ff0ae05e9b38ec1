// Package expansion implements asynchronous, budgeted knowledge graph
// growth. An Engine owns the job lifecycle: it validates requests, runs
// each job on its own goroutine, checks cancellation and memory admission
// between depth levels, and records terminal outcomes in the job store.
package expansion

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindweave-backend/application/ports"
	"mindweave-backend/domain/core/aggregates"
	"mindweave-backend/domain/core/entities"
	"mindweave-backend/domain/events"
	"mindweave-backend/internal/service/embedding"
	pkgerrors "mindweave-backend/pkg/errors"
	"mindweave-backend/pkg/memory"
	"mindweave-backend/pkg/observability"
)

const (
	// DefaultFanoutFactor is used when a request omits the fanout factor
	DefaultFanoutFactor = 1.5

	// similarityWarnThreshold flags near-duplicate concepts within a level.
	// Matches above it are logged, never rejected; exact-name dedup is the
	// only hard filter.
	similarityWarnThreshold = 0.95

	// awaitPollInterval paces Await when the job handle is already gone
	awaitPollInterval = 50 * time.Millisecond
)

// Limits bounds what a single expansion request may ask for
type Limits struct {
	MaxDepth          int
	MaxTotalNewCap    int
	DefaultFanout     float64
	DefaultProviderID string
}

// DefaultLimits returns the standard engine limits
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:          5,
		MaxTotalNewCap:    500,
		DefaultFanout:     DefaultFanoutFactor,
		DefaultProviderID: "mock",
	}
}

// jobHandle tracks a running job's cancellation flag and completion signal
type jobHandle struct {
	cancelled atomic.Bool
	done      chan struct{}
}

// Engine coordinates expansion jobs end to end
type Engine struct {
	graphStore ports.GraphStore
	jobStore   ports.JobStore
	registry   *Registry
	cache      *embedding.Cache
	governor   *memory.Governor
	eventBus   ports.EventBus
	metrics    *observability.Collector
	logger     *zap.Logger
	limits     Limits

	mu      sync.Mutex
	handles map[string]*jobHandle
}

// NewEngine creates an expansion engine. The event bus and metrics
// collector are optional; everything else is required.
func NewEngine(
	graphStore ports.GraphStore,
	jobStore ports.JobStore,
	registry *Registry,
	cache *embedding.Cache,
	governor *memory.Governor,
	eventBus ports.EventBus,
	metrics *observability.Collector,
	limits Limits,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxDepth <= 0 {
		limits = DefaultLimits()
	}
	if limits.DefaultFanout <= 0 {
		limits.DefaultFanout = DefaultFanoutFactor
	}
	return &Engine{
		graphStore: graphStore,
		jobStore:   jobStore,
		registry:   registry,
		cache:      cache,
		governor:   governor,
		eventBus:   eventBus,
		metrics:    metrics,
		logger:     logger,
		limits:     limits,
		handles:    make(map[string]*jobHandle),
	}
}

// RegisterProvider adds a generation provider under the given id
func (e *Engine) RegisterProvider(id string, provider Provider) error {
	return e.registry.Register(id, provider)
}

// Start validates the request, records a queued job, and launches its
// goroutine. The returned record is a snapshot; poll Status for updates.
func (e *Engine) Start(ctx context.Context, ownerID, contextRef string, opts ports.ExpansionOptions) (*ports.ExpansionJob, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, pkgerrors.NewValidation("owner id cannot be empty")
	}
	if strings.TrimSpace(contextRef) == "" {
		return nil, pkgerrors.NewValidation("context reference cannot be empty")
	}

	normalized, err := e.normalizeOptions(opts)
	if err != nil {
		return nil, err
	}
	if _, err := e.registry.Get(normalized.ProviderID); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &ports.ExpansionJob{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		ContextRef: contextRef,
		Options:    normalized,
		Status:     ports.JobStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.jobStore.Store(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to store expansion job")
	}

	handle := &jobHandle{done: make(chan struct{})}
	e.mu.Lock()
	e.handles[job.ID] = handle
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.JobsStarted.Inc()
	}

	go e.run(job.ID, handle)

	snapshot := *job
	return &snapshot, nil
}

// Status returns a snapshot of the job record
func (e *Engine) Status(ctx context.Context, jobID string) (*ports.ExpansionJob, error) {
	return e.jobStore.Get(ctx, jobID)
}

// Cancel requests cooperative cancellation of a queued or running job.
// The job observes the request at its next depth-level boundary; work
// already completed is kept.
func (e *Engine) Cancel(ctx context.Context, jobID string) error {
	job, err := e.jobStore.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return pkgerrors.NewValidation(fmt.Sprintf("job %s already finished with status %s", jobID, job.Status))
	}
	if job.Status == ports.JobStatusCancelling {
		return nil
	}

	e.mu.Lock()
	handle := e.handles[jobID]
	e.mu.Unlock()
	if handle != nil {
		handle.cancelled.Store(true)
	}

	job.Status = ports.JobStatusCancelling
	job.UpdatedAt = time.Now()
	if err := e.jobStore.Update(ctx, job); err != nil {
		return pkgerrors.Wrap(err, "failed to mark job cancelling")
	}

	e.logger.Info("Expansion job cancellation requested", zap.String("job_id", jobID))
	return nil
}

// Results returns the output of a finished job. Jobs that failed or have
// not yet reached a terminal state have no results.
func (e *Engine) Results(ctx context.Context, jobID string) (*ports.ExpansionResult, error) {
	job, err := e.jobStore.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.IsTerminal() {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("job %s is still %s", jobID, job.Status))
	}
	if job.Status == ports.JobStatusFailed {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("job %s failed: %s", jobID, job.ErrorMessage))
	}
	if job.Result == nil {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("job %s has no results", jobID))
	}
	return job.Result, nil
}

// Await blocks until the job reaches a terminal state, the timeout
// elapses, or ctx is done. On timeout the job keeps running.
func (e *Engine) Await(ctx context.Context, jobID string, timeout time.Duration) (*ports.ExpansionJob, error) {
	deadline := time.Now().Add(timeout)

	e.mu.Lock()
	handle := e.handles[jobID]
	e.mu.Unlock()

	if handle != nil {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-handle.done:
			return e.jobStore.Get(ctx, jobID)
		case <-timer.C:
			return nil, pkgerrors.NewTimeout(fmt.Sprintf("job %s did not finish within %s", jobID, timeout))
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(ctx.Err(), "await interrupted")
		}
	}

	// No live handle: the job either already finished or was recovered
	// from storage after a restart. Poll the store directly.
	for {
		job, err := e.jobStore.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.NewTimeout(fmt.Sprintf("job %s did not finish within %s", jobID, timeout))
		}
		select {
		case <-time.After(awaitPollInterval):
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(ctx.Err(), "await interrupted")
		}
	}
}

// normalizeOptions applies defaults and enforces engine limits
func (e *Engine) normalizeOptions(opts ports.ExpansionOptions) (ports.ExpansionOptions, error) {
	if opts.Depth <= 0 {
		return opts, pkgerrors.NewValidation("depth must be at least 1")
	}
	if opts.Depth > e.limits.MaxDepth {
		return opts, pkgerrors.NewValidation(fmt.Sprintf("depth %d exceeds maximum of %d", opts.Depth, e.limits.MaxDepth))
	}
	if opts.FanoutFactor == 0 {
		opts.FanoutFactor = e.limits.DefaultFanout
	}
	if opts.FanoutFactor < 0 {
		return opts, pkgerrors.NewValidation("fanout factor cannot be negative")
	}
	if opts.MaxNewPerNode <= 0 {
		return opts, pkgerrors.NewValidation("max new per node must be at least 1")
	}
	if opts.MaxTotalNew <= 0 {
		return opts, pkgerrors.NewValidation("max total new must be at least 1")
	}
	if opts.MaxTotalNew > e.limits.MaxTotalNewCap {
		return opts, pkgerrors.NewValidation(fmt.Sprintf("max total new %d exceeds cap of %d", opts.MaxTotalNew, e.limits.MaxTotalNewCap))
	}
	if opts.MemoryAdmissionRatio < 0 || opts.MemoryAdmissionRatio > 1 {
		return opts, pkgerrors.NewValidation("memory admission ratio must be between 0 and 1")
	}
	if opts.ProviderID == "" {
		opts.ProviderID = e.limits.DefaultProviderID
	}
	return opts, nil
}

// run executes one expansion job to a terminal state. It never returns an
// error; failures end the job as failed, and everything else persists the
// partial or full output.
func (e *Engine) run(jobID string, handle *jobHandle) {
	started := time.Now()
	ctx := context.Background()

	defer func() {
		e.mu.Lock()
		delete(e.handles, jobID)
		e.mu.Unlock()
		close(handle.done)
	}()

	job, err := e.jobStore.Get(ctx, jobID)
	if err != nil {
		e.logger.Error("Expansion job vanished before start", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	job.Status = ports.JobStatusRunning
	job.UpdatedAt = time.Now()
	if err := e.jobStore.Update(ctx, job); err != nil {
		e.logger.Error("Failed to mark job running", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	e.publish(ctx, events.NewExpansionStarted(job.ID, job.OwnerID))

	provider, err := e.registry.Get(job.Options.ProviderID)
	if err != nil {
		e.finishFailed(ctx, job, started, fmt.Sprintf("provider %q is not registered", job.Options.ProviderID))
		return
	}

	graph, err := e.graphStore.FetchGraph(ctx, job.OwnerID, job.ContextRef)
	if err != nil {
		e.finishFailed(ctx, job, started, fmt.Sprintf("failed to load graph: %v", err))
		return
	}

	exec := &jobExecution{
		job:      job,
		handle:   handle,
		graph:    graph,
		provider: provider,
		exclude:  graph.ConceptNames(),
		frontier: e.initialFrontier(graph, job.Options),
	}

	for level := 0; level < job.Options.Depth; level++ {
		if handle.cancelled.Load() {
			e.finishCancelled(ctx, exec, started)
			return
		}
		if e.governor != nil && !e.governor.Admit(job.Options.MemoryAdmissionRatio) {
			sample := e.governor.Sample()
			reason := fmt.Sprintf("memory usage at %.1f%% exceeded admission threshold of %.0f%%",
				sample.UsagePercent, job.Options.MemoryAdmissionRatio*100)
			e.finishPartial(ctx, exec, started, reason)
			return
		}

		accepted, err := e.runLevel(ctx, exec, level)
		if err != nil {
			e.finishFailed(ctx, job, started, err.Error())
			return
		}

		job.CurrentDepth = level + 1
		job.ProgressPercent = progressForLevel(level+1, job.Options.Depth)
		job.GeneratedNodeCount = len(exec.newNodes)
		job.GeneratedEdgeCount = len(exec.newEdges)
		job.UpdatedAt = time.Now()
		if err := e.jobStore.Update(ctx, job); err != nil {
			e.logger.Warn("Failed to update job progress", zap.String("job_id", job.ID), zap.Error(err))
		}
		e.publish(ctx, events.NewExpansionProgress(job.ID, job.OwnerID,
			job.CurrentDepth, job.ProgressPercent, job.GeneratedNodeCount, job.GeneratedEdgeCount))

		// A provider with nothing left to offer ends the job early
		if accepted == 0 {
			break
		}
		if len(exec.newNodes) >= job.Options.MaxTotalNew {
			break
		}
	}

	// A cancel accepted while the last level was in flight must still win
	// over normal completion.
	if handle.cancelled.Load() {
		e.finishCancelled(ctx, exec, started)
		return
	}

	e.finishCompleted(ctx, exec, started)
}

// jobExecution accumulates the working state of one running job
type jobExecution struct {
	job      *ports.ExpansionJob
	handle   *jobHandle
	graph    *aggregates.Graph
	provider Provider
	exclude  map[string]bool
	frontier []*entities.Node

	newNodes []*entities.Node
	newEdges []entities.Edge
	insights []ports.Insight
}

// initialFrontier selects the nodes the first level expands from
func (e *Engine) initialFrontier(graph *aggregates.Graph, opts ports.ExpansionOptions) []*entities.Node {
	all := graph.Nodes()
	if len(opts.FocusNodeIDs) == 0 && len(opts.ExcludeNodeIDs) == 0 {
		return all
	}
	frontier := make([]*entities.Node, 0, len(all))
	for _, node := range all {
		if len(opts.FocusNodeIDs) > 0 && !opts.FocusNodeIDs[node.ID()] {
			continue
		}
		if opts.ExcludeNodeIDs[node.ID()] {
			continue
		}
		frontier = append(frontier, node)
	}
	return frontier
}

// runLevel generates one depth level of new concepts. It returns the
// number of accepted nodes; any provider or embedding failure aborts the
// whole job.
func (e *Engine) runLevel(ctx context.Context, exec *jobExecution, level int) (int, error) {
	opts := exec.job.Options
	perNode := perNodeBudget(opts.FanoutFactor, opts.MaxNewPerNode)

	var levelNodes []*entities.Node
	for _, focus := range exec.frontier {
		remaining := opts.MaxTotalNew - len(exec.newNodes)
		if remaining <= 0 {
			break
		}
		count := perNode
		if count > remaining {
			count = remaining
		}

		gen := GenerateContext{
			OwnerID:      exec.job.OwnerID,
			ContextRef:   exec.job.ContextRef,
			Strategy:     opts.Strategy,
			FocusNode:    focus,
			ExcludeNames: exec.exclude,
			Level:        level,
		}
		candidates, err := exec.provider.GenerateConcepts(ctx, exec.graph, count, gen)
		if err != nil {
			return 0, fmt.Errorf("concept generation failed at depth %d: %w", level, err)
		}

		for _, candidate := range candidates {
			name := strings.TrimSpace(candidate.Name)
			if name == "" {
				continue
			}
			folded := strings.ToLower(name)
			if exec.exclude[folded] {
				continue
			}
			if len(exec.newNodes) >= opts.MaxTotalNew {
				break
			}

			node, err := entities.NewNode(uuid.New().String(), name, candidate.Confidence, true, level+1)
			if err != nil {
				e.logger.Warn("Provider returned invalid concept",
					zap.String("job_id", exec.job.ID), zap.String("name", name), zap.Error(err))
				continue
			}
			if err := exec.graph.AddNode(node); err != nil {
				continue
			}
			edge, err := entities.NewEdge(focus.ID(), node.ID(), candidate.Confidence, true)
			if err == nil {
				if addErr := exec.graph.AddEdge(edge); addErr == nil {
					exec.newEdges = append(exec.newEdges, edge)
				}
			}

			exec.exclude[folded] = true
			exec.newNodes = append(exec.newNodes, node)
			levelNodes = append(levelNodes, node)

			if len(exec.newNodes) >= opts.MaxTotalNew {
				break
			}
		}
	}

	if len(levelNodes) > 0 {
		if err := e.embedLevel(ctx, exec, levelNodes); err != nil {
			return 0, err
		}
		e.discoverConnections(ctx, exec, level, len(levelNodes))
		e.collectInsights(ctx, exec, level)
	}

	exec.frontier = levelNodes
	return len(levelNodes), nil
}

// embedLevel attaches embeddings to freshly accepted nodes and logs
// near-duplicate pairs within the level. Similarity matches are advisory;
// only exact names are rejected.
func (e *Engine) embedLevel(ctx context.Context, exec *jobExecution, levelNodes []*entities.Node) error {
	if e.cache == nil {
		return nil
	}

	texts := make([]string, len(levelNodes))
	for i, node := range levelNodes {
		texts[i] = node.Name()
	}
	vectors, err := e.cache.Embed(ctx, texts, true)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	for i, node := range levelNodes {
		node.AttachEmbedding(vectors[i])
	}

	for i := 1; i < len(levelNodes); i++ {
		for j := 0; j < i; j++ {
			similarity, err := e.cache.Similarity(vectors[i], vectors[j], embedding.MetricCosine)
			if err != nil {
				continue
			}
			if similarity >= similarityWarnThreshold {
				e.logger.Warn("Generated concepts are near-duplicates",
					zap.String("job_id", exec.job.ID),
					zap.String("concept", levelNodes[i].Name()),
					zap.String("similar_to", levelNodes[j].Name()),
					zap.Float64("similarity", similarity))
			}
		}
	}
	return nil
}

// discoverConnections asks the provider for cross-links between existing
// concepts. Connection failures degrade the level, never the job.
func (e *Engine) discoverConnections(ctx context.Context, exec *jobExecution, level, budget int) {
	gen := GenerateContext{
		OwnerID:    exec.job.OwnerID,
		ContextRef: exec.job.ContextRef,
		Strategy:   exec.job.Options.Strategy,
		Level:      level,
	}
	connections, err := exec.provider.GenerateConnections(ctx, exec.graph, budget, gen)
	if err != nil {
		e.logger.Warn("Connection discovery failed",
			zap.String("job_id", exec.job.ID), zap.Int("depth", level), zap.Error(err))
		return
	}
	for _, conn := range connections {
		edge, err := entities.NewEdge(conn.SourceID, conn.TargetID, conn.Weight, true)
		if err != nil {
			continue
		}
		if err := exec.graph.AddEdge(edge); err != nil {
			continue
		}
		exec.newEdges = append(exec.newEdges, edge)
	}
}

// collectInsights gathers level summaries when the provider supports them
func (e *Engine) collectInsights(ctx context.Context, exec *jobExecution, level int) {
	generator, ok := exec.provider.(InsightGenerator)
	if !ok {
		return
	}
	gen := GenerateContext{
		OwnerID:    exec.job.OwnerID,
		ContextRef: exec.job.ContextRef,
		Strategy:   exec.job.Options.Strategy,
		Level:      level + 1,
	}
	insights, err := generator.GenerateInsights(ctx, exec.graph, gen)
	if err != nil {
		e.logger.Warn("Insight generation failed",
			zap.String("job_id", exec.job.ID), zap.Int("depth", level), zap.Error(err))
		return
	}
	exec.insights = append(exec.insights, insights...)
}

// finishCompleted persists the output and marks the job completed
func (e *Engine) finishCompleted(ctx context.Context, exec *jobExecution, started time.Time) {
	job := exec.job
	if err := e.persistResults(ctx, exec); err != nil {
		e.finishFailed(ctx, job, started, fmt.Sprintf("failed to persist results: %v", err))
		return
	}

	job.Status = ports.JobStatusCompleted
	job.ProgressPercent = 100
	job.Result = exec.result()
	job.GeneratedNodeCount = len(exec.newNodes)
	job.GeneratedEdgeCount = len(exec.newEdges)
	job.UpdatedAt = time.Now()
	if err := e.jobStore.Update(ctx, job); err != nil {
		e.logger.Error("Failed to record completed job", zap.String("job_id", job.ID), zap.Error(err))
	}

	e.publish(ctx, events.NewExpansionCompleted(job.ID, job.OwnerID, job.GeneratedNodeCount, job.GeneratedEdgeCount))
	e.recordFinish(job, started)
	e.logger.Info("Expansion job completed",
		zap.String("job_id", job.ID),
		zap.Int("nodes", job.GeneratedNodeCount),
		zap.Int("edges", job.GeneratedEdgeCount))
}

// finishPartial keeps the work done so far and records why the job stopped
func (e *Engine) finishPartial(ctx context.Context, exec *jobExecution, started time.Time, reason string) {
	job := exec.job
	if err := e.persistResults(ctx, exec); err != nil {
		e.finishFailed(ctx, job, started, fmt.Sprintf("failed to persist partial results: %v", err))
		return
	}

	job.Status = ports.JobStatusPartiallyCompleted
	job.Result = exec.result()
	job.GeneratedNodeCount = len(exec.newNodes)
	job.GeneratedEdgeCount = len(exec.newEdges)
	job.ErrorMessage = reason
	job.UpdatedAt = time.Now()
	if err := e.jobStore.Update(ctx, job); err != nil {
		e.logger.Error("Failed to record partial job", zap.String("job_id", job.ID), zap.Error(err))
	}

	e.publish(ctx, events.NewExpansionPartiallyCompleted(job.ID, job.OwnerID, reason))
	e.recordFinish(job, started)
	e.logger.Warn("Expansion job stopped early",
		zap.String("job_id", job.ID),
		zap.Int("depth_reached", job.CurrentDepth),
		zap.String("reason", reason))
}

// finishCancelled keeps completed levels and marks the job cancelled
func (e *Engine) finishCancelled(ctx context.Context, exec *jobExecution, started time.Time) {
	job := exec.job
	if err := e.persistResults(ctx, exec); err != nil {
		e.finishFailed(ctx, job, started, fmt.Sprintf("failed to persist results after cancellation: %v", err))
		return
	}

	job.Status = ports.JobStatusCancelled
	job.Result = exec.result()
	job.GeneratedNodeCount = len(exec.newNodes)
	job.GeneratedEdgeCount = len(exec.newEdges)
	job.UpdatedAt = time.Now()
	if err := e.jobStore.Update(ctx, job); err != nil {
		e.logger.Error("Failed to record cancelled job", zap.String("job_id", job.ID), zap.Error(err))
	}

	e.publish(ctx, events.NewExpansionCancelled(job.ID, job.OwnerID))
	e.recordFinish(job, started)
	e.logger.Info("Expansion job cancelled",
		zap.String("job_id", job.ID),
		zap.Int("depth_reached", job.CurrentDepth))
}

// finishFailed discards any generated output and records the failure
func (e *Engine) finishFailed(ctx context.Context, job *ports.ExpansionJob, started time.Time, message string) {
	job.Status = ports.JobStatusFailed
	job.Result = nil
	job.ErrorMessage = message
	job.UpdatedAt = time.Now()
	if err := e.jobStore.Update(ctx, job); err != nil {
		e.logger.Error("Failed to record failed job", zap.String("job_id", job.ID), zap.Error(err))
	}

	e.publish(ctx, events.NewExpansionFailed(job.ID, job.OwnerID, message))
	e.recordFinish(job, started)
	e.logger.Error("Expansion job failed",
		zap.String("job_id", job.ID),
		zap.String("error", message))
}

// persistResults appends generated nodes and edges to the stored graph
func (e *Engine) persistResults(ctx context.Context, exec *jobExecution) error {
	if len(exec.newNodes) == 0 && len(exec.newEdges) == 0 {
		return nil
	}
	return e.graphStore.Persist(ctx, exec.job.OwnerID, exec.job.ContextRef, exec.newNodes, exec.newEdges)
}

func (exec *jobExecution) result() *ports.ExpansionResult {
	return &ports.ExpansionResult{
		Nodes:    exec.newNodes,
		Edges:    exec.newEdges,
		Insights: exec.insights,
	}
}

func (e *Engine) recordFinish(job *ports.ExpansionJob, started time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordJobFinished(string(job.Status), time.Since(started), job.CurrentDepth)
	e.metrics.RecordGraphGrowth(job.GeneratedNodeCount, job.GeneratedEdgeCount)
}

func (e *Engine) publish(ctx context.Context, event events.DomainEvent) {
	if e.eventBus == nil {
		return
	}
	if err := e.eventBus.Publish(ctx, event); err != nil {
		e.logger.Warn("Failed to publish event",
			zap.String("event_type", event.EventType()), zap.Error(err))
	}
}

// perNodeBudget derives how many concepts to request per frontier node
func perNodeBudget(fanout float64, maxNewPerNode int) int {
	budget := int(math.Ceil(fanout))
	if budget < 1 {
		budget = 1
	}
	if budget > maxNewPerNode {
		budget = maxNewPerNode
	}
	return budget
}

// progressForLevel maps completed levels to a percentage, held below 100
// until the job actually reaches a terminal state
func progressForLevel(completed, depth int) int {
	if depth <= 0 {
		return 0
	}
	progress := completed * 100 / depth
	if progress > 95 {
		progress = 95
	}
	return progress
}
