package runtime

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/gg/gptr"
	"github.com/google/uuid"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/repo"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service/runtime/payload"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/logger"
	"github.com/mverel/guildmaster/pkg/utils/safego"
)

const (
	// defaultBlockingTimeout bounds how long a blocking dispatch may hold
	// its caller.
	defaultBlockingTimeout = 10 * time.Minute

	// defaultHeartbeatInterval is how often background workers refresh
	// their registry entry.
	defaultHeartbeatInterval = 5 * time.Second

	// memoryRecallLimit caps how many memories are injected per dispatch.
	memoryRecallLimit = 5

	// noteMaxLen truncates the registry note derived from the prompt.
	noteMaxLen = 80
)

// Dispatcher turns dispatch requests into host executions.
//
// Blocking dispatches hold the calling goroutine until the host settles or
// the blocking timeout fires; the rest of the process keeps running.
// Background dispatches register with the task registry, hand the host call
// to a worker goroutine that heartbeats while it waits, and return the
// handle immediately.
type Dispatcher struct {
	catalog    CatalogResolver
	host       ExecutionHost
	registry   repo.Registry
	executions repo.ExecutionRepository
	memory     MemoryFinder
	ledger     TaskLedger
	pipeline   *payload.Pipeline

	blockingTimeout   time.Duration
	heartbeatInterval time.Duration
	now               func() time.Time
}

// DispatcherOption mutates dispatcher defaults.
type DispatcherOption func(*Dispatcher)

// WithBlockingTimeout bounds blocking dispatches.
func WithBlockingTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.blockingTimeout = d }
}

// WithHeartbeatInterval sets the background worker heartbeat cadence.
func WithHeartbeatInterval(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.heartbeatInterval = d }
}

// WithMemoryFinder plugs in long-term memory recall for payload priming.
func WithMemoryFinder(m MemoryFinder) DispatcherOption {
	return func(dp *Dispatcher) { dp.memory = m }
}

// WithResultLedger ties dispatches to their owning ledger tasks: the task is
// gated and marked running at dispatch time and settled when the execution
// reaches a terminal state.
func WithResultLedger(l TaskLedger) DispatcherOption {
	return func(dp *Dispatcher) { dp.ledger = l }
}

// WithDispatcherClock injects a clock for tests.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(dp *Dispatcher) { dp.now = now }
}

// NewDispatcher wires a dispatcher over the catalog, host and stores.
func NewDispatcher(
	catalog CatalogResolver,
	host ExecutionHost,
	registry repo.Registry,
	executions repo.ExecutionRepository,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		catalog:           catalog,
		host:              host,
		registry:          registry,
		executions:        executions,
		pipeline:          payload.NewDefaultPipeline(),
		blockingTimeout:   defaultBlockingTimeout,
		heartbeatInterval: defaultHeartbeatInterval,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves the agent, assembles the payload and runs the request.
//
// Validation failures (unknown agent, malformed request) come back as
// errors. Once the request is accepted, transport failures are structured
// results on the returned execution, never errors: blocking callers always
// get a terminal execution, background callers always get a tracked handle.
func (d *Dispatcher) Dispatch(ctx context.Context, req *entity.DispatchRequest) (*entity.Execution, error) {
	if req == nil || req.AgentName == "" {
		return nil, errno.Newf(errno.ErrInvalidArgument, "dispatch needs an agent name")
	}
	if req.Prompt == "" {
		return nil, errno.Newf(errno.ErrInvalidArgument, "dispatch needs a prompt")
	}
	mode := req.Mode
	if mode == "" {
		mode = entity.ModeBlocking
	}
	if mode != entity.ModeBlocking && mode != entity.ModeBackground {
		return nil, errno.Newf(errno.ErrInvalidArgument, "unknown dispatch mode %q", req.Mode)
	}

	agent, err := d.catalog.Resolve(ctx, req.AgentName)
	if err != nil {
		return nil, err
	}

	exec := &entity.Execution{
		ID:        uuid.New().String(),
		ParentID:  req.ParentID,
		AgentName: req.AgentName,
		Mode:      mode,
		Status:    entity.ExecutionStatusPending,
		TaskRef:   req.TaskRef,
		CreatedAt: d.now(),
	}
	if req.Dialogue {
		exec.Dialogue = entity.NewDialogue()
	}

	exec.Payload, err = d.assemblePayload(ctx, req, exec.Dialogue)
	if err != nil {
		return nil, err
	}

	// The dependency gate runs before anything is persisted or sent: a task
	// whose dependencies are open must never reach the host.
	if err := d.markTaskRunning(ctx, exec); err != nil {
		return nil, err
	}

	if err := d.executions.Save(ctx, exec); err != nil {
		return nil, err
	}

	logger.InfoX(pkg.ModuleName, "dispatching %s to agent %s (%s)", exec.ID, agent.Qualified(), mode)

	if mode == entity.ModeBlocking {
		return d.runBlocking(ctx, agent, exec)
	}
	return d.runBackground(ctx, agent, exec, req.Prompt)
}

// Redispatch replays a registry entry's spec on a fresh worker. The entry
// keeps its handle so callers polling it observe the retry transparently.
func (d *Dispatcher) Redispatch(ctx context.Context, entry *entity.RegistryEntry) error {
	agent, err := d.catalog.Resolve(ctx, entry.Spec.AgentName)
	if err != nil {
		return err
	}
	d.spawnWorker(ctx, agent, entry.ID, entry.Spec.Payload)
	return nil
}

// assemblePayload renders the outbound text: dialogue instructions, then
// dialogue history, then structured context, then the literal prompt.
func (d *Dispatcher) assemblePayload(ctx context.Context, req *entity.DispatchRequest, dialogue *entity.Dialogue) (string, error) {
	pc := &payload.PayloadContext{
		AgentName: req.AgentName,
		Dialogue:  dialogue,
		Context:   req.Context,
		Prompt:    req.Prompt,
	}

	if d.memory != nil {
		memories, err := d.memory.Find(ctx, req.Prompt, memoryRecallLimit)
		if err != nil {
			logger.WarnX(pkg.ModuleName, "memory recall failed, dispatching without: %v", err)
		} else {
			pc.Memories = memories
		}
	}

	return d.pipeline.Assemble(ctx, pc)
}

// runBlocking holds the caller until the host settles or the blocking
// timeout fires. The returned execution is always terminal.
func (d *Dispatcher) runBlocking(ctx context.Context, agent *entity.AgentDescriptor, exec *entity.Execution) (*entity.Execution, error) {
	exec.Status = entity.ExecutionStatusRunning
	exec.StartedAt = gptr.Of(d.now())
	if err := d.executions.Save(ctx, exec); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, d.blockingTimeout)
	defer cancel()

	output, hostErr := d.host.CreateChildExecution(callCtx, agent, exec.Payload)

	exec.CompletedAt = gptr.Of(d.now())
	switch {
	case hostErr == nil:
		exec.Status = entity.ExecutionStatusCompleted
		exec.Output = output
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		exec.Status = entity.ExecutionStatusTimedOut
		exec.Error = &entity.ExecutionError{
			Code:    "TIMED_OUT",
			Message: "blocking dispatch exceeded " + d.blockingTimeout.String(),
		}
	default:
		exec.Status = entity.ExecutionStatusFailed
		exec.Error = &entity.ExecutionError{Code: errno.ErrSpawnFailed.Code, Message: hostErr.Error()}
	}
	if err := d.executions.Save(ctx, exec); err != nil {
		return nil, err
	}

	if exec.Error != nil {
		logger.WarnX(pkg.ModuleName, "execution %s ended %s: %s", exec.ID, exec.Status, exec.Error.Message)
	}
	d.propagateResult(ctx, exec.ID, exec.TaskRef, exec.Status, exec.Error)
	return exec, nil
}

// runBackground registers the handle with the task registry, then hands the
// host call to a worker goroutine and returns immediately. The entry is
// registered before the worker starts so there is no window in which a live
// execution is untracked.
func (d *Dispatcher) runBackground(ctx context.Context, agent *entity.AgentDescriptor, exec *entity.Execution, prompt string) (*entity.Execution, error) {
	started := d.now()
	exec.Status = entity.ExecutionStatusRunning
	exec.StartedAt = gptr.Of(started)
	if err := d.executions.Save(ctx, exec); err != nil {
		return nil, err
	}

	entry := &entity.RegistryEntry{
		ID:        exec.ID,
		AgentName: exec.AgentName,
		Note:      noteFromPrompt(prompt),
		Spec: entity.DispatchSpec{
			AgentName: exec.AgentName,
			Payload:   exec.Payload,
			TaskRef:   exec.TaskRef,
		},
		Status:        entity.ExecutionStatusRunning,
		StartedAt:     started,
		LastHeartbeat: started,
		UpdatedAt:     started,
	}
	if err := d.registry.Register(ctx, entry); err != nil {
		return nil, err
	}

	d.spawnWorker(ctx, agent, entry.ID, entry.Spec.Payload)
	return exec, nil
}

type hostResult struct {
	output string
	err    error
}

// spawnWorker runs the host call on a detached goroutine that outlives the
// dispatching request.
func (d *Dispatcher) spawnWorker(ctx context.Context, agent *entity.AgentDescriptor, id, payloadText string) {
	wctx := context.WithoutCancel(ctx)
	safego.Go(wctx, func() {
		d.runWorker(wctx, agent, id, payloadText)
	})
}

// runWorker performs one host call while heartbeating the registry entry,
// then records the terminal outcome.
func (d *Dispatcher) runWorker(ctx context.Context, agent *entity.AgentDescriptor, id, payloadText string) {
	resCh := make(chan hostResult, 1)
	safego.Go(ctx, func() {
		output, err := d.host.CreateChildExecution(ctx, agent, payloadText)
		resCh <- hostResult{output: output, err: err}
	})

	ticker := time.NewTicker(d.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case res := <-resCh:
			d.settle(ctx, id, res)
			return
		case <-ticker.C:
			_ = d.registry.Heartbeat(ctx, id, "", d.now())
		case <-ctx.Done():
			return
		}
	}
}

// settle records the worker's outcome. Terminal registry writes are
// idempotent, so when the supervisor already failed the entry the late
// result is logged and dropped, never applied.
func (d *Dispatcher) settle(ctx context.Context, id string, res hostResult) {
	now := d.now()

	var stored *entity.RegistryEntry
	var err error
	if res.err != nil {
		execErr := &entity.ExecutionError{Code: errno.ErrSpawnFailed.Code, Message: res.err.Error()}
		stored, err = d.registry.Fail(ctx, id, execErr, now)
	} else {
		stored, err = d.registry.Complete(ctx, id, res.output, now)
	}
	if err != nil {
		logger.ErrorX(pkg.ModuleName, "worker %s could not record its outcome: %v", id, err)
		return
	}

	applied := (res.err == nil && stored.Status == entity.ExecutionStatusCompleted && stored.Result == res.output) ||
		(res.err != nil && stored.Status == entity.ExecutionStatusFailed && stored.Error != nil && stored.Error.Message == res.err.Error())
	if !applied {
		logger.InfoX(pkg.ModuleName, "late result for %s ignored (entry already %s)", id, stored.Status)
	}

	d.syncExecution(ctx, id, stored)
	if applied {
		d.propagateResult(ctx, id, stored.Spec.TaskRef, stored.Status, stored.Error)
	}
}

// markTaskRunning gates a task-bound dispatch through the ledger: the
// transition to running fails while dependencies are open, which aborts the
// dispatch before any work starts.
func (d *Dispatcher) markTaskRunning(ctx context.Context, exec *entity.Execution) error {
	if d.ledger == nil || exec.TaskRef == nil {
		return nil
	}
	ref := exec.TaskRef
	if _, err := d.ledger.UpdateTaskStatus(ctx, ref.EpicID, ref.TaskID, entity.TaskStatusRunning, nil); err != nil {
		return err
	}
	d.traceDispatch(ctx, exec.ID, ref, entity.EventDispatchStarted, nil)
	return nil
}

// propagateResult settles the owning ledger task from a terminal execution
// state. Failures to propagate are logged, never raised: the registry and
// execution record already hold the authoritative outcome.
func (d *Dispatcher) propagateResult(ctx context.Context, id string, ref *entity.TaskRef, status entity.ExecutionStatus, execErr *entity.ExecutionError) {
	if d.ledger == nil || ref == nil || !status.IsTerminal() {
		return
	}

	taskStatus := entity.TaskStatusCompleted
	eventType := entity.EventDispatchCompleted
	var detail map[string]string
	if status != entity.ExecutionStatusCompleted {
		taskStatus = entity.TaskStatusFailed
		eventType = entity.EventDispatchFailed
		if execErr == nil {
			execErr = &entity.ExecutionError{Code: errno.ErrSpawnFailed.Code, Message: "execution ended " + string(status)}
		}
		detail = map[string]string{"reason": execErr.Message}
	}

	if _, err := d.ledger.UpdateTaskStatus(ctx, ref.EpicID, ref.TaskID, taskStatus, execErr); err != nil {
		logger.WarnX(pkg.ModuleName, "could not settle task %s from execution %s: %v", ref.TaskID, id, err)
		return
	}
	d.traceDispatch(ctx, id, ref, eventType, detail)
}

// traceDispatch appends a dispatch event to the owning epic's log.
func (d *Dispatcher) traceDispatch(ctx context.Context, id string, ref *entity.TaskRef, eventType entity.EventType, detail map[string]string) {
	if detail == nil {
		detail = map[string]string{}
	}
	detail["execution"] = id
	event := &entity.Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		EpicID: ref.EpicID,
		TaskID: ref.TaskID,
		At:     d.now(),
		Detail: detail,
	}
	if err := d.ledger.AppendEvent(ctx, event); err != nil {
		logger.WarnX(pkg.ModuleName, "could not trace %s for execution %s: %v", eventType, id, err)
	}
}

// syncExecution mirrors the registry entry's terminal state onto the
// execution handle.
func (d *Dispatcher) syncExecution(ctx context.Context, id string, entry *entity.RegistryEntry) {
	exec, err := d.executions.Get(ctx, id)
	if err != nil {
		logger.DebugX(pkg.ModuleName, "no execution record for %s: %v", id, err)
		return
	}
	exec.Status = entry.Status
	exec.Output = entry.Result
	exec.Error = entry.Error
	exec.CompletedAt = entry.CompletedAt
	if err := d.executions.Save(ctx, exec); err != nil {
		logger.WarnX(pkg.ModuleName, "could not sync execution %s: %v", id, err)
	}
}

// noteFromPrompt derives the registry note from the prompt's first line.
func noteFromPrompt(prompt string) string {
	note := prompt
	if i := strings.IndexByte(note, '\n'); i >= 0 {
		note = note[:i]
	}
	note = strings.TrimSpace(note)
	if len(note) > noteMaxLen {
		note = note[:noteMaxLen]
	}
	return note
}
