package installer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studiod/internal/console"
	"studiod/pkg/types"
)

// Result summarises a finished run.
type Result struct {
	Success bool
	// Failed is the component whose step failed, empty on success.
	Failed types.Component
}

// Run is one accepted installation request.
type Run struct {
	ID        string
	Request   types.InstallRequest
	StartedAt time.Time

	done   chan struct{}
	mu     sync.Mutex
	result Result
}

// Done is closed once the run has released the in-progress gate.
func (r *Run) Done() <-chan struct{} { return r.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (r *Run) Result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Orchestrator executes at most one installation run at a time.
type Orchestrator struct {
	cfg Config
	out *console.Channel
	log zerolog.Logger

	mu      sync.Mutex
	current *Run
	last    *Run
	closed  bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// Output returns the channel progress lines are pushed to.
func (o *Orchestrator) Output() *console.Channel { return o.out }

// Begin validates req and, if no run is active, starts it in the background.
// It returns without waiting for any install work.
func (o *Orchestrator) Begin(req types.InstallRequest) (*Run, error) {
	if req.Empty() {
		return nil, noComponentsSelectedError{}
	}
	o.mu.Lock()
	if o.current != nil || o.closed {
		o.mu.Unlock()
		return nil, alreadyInProgressError{}
	}
	run := &Run{ID: uuid.NewString(), Request: req, StartedAt: time.Now(), done: make(chan struct{})}
	o.current = run
	o.wg.Add(1)
	ctx := o.ctx
	o.mu.Unlock()

	installInProgress.Set(1)
	o.log.Info().Str("event", "install_start").Str("run_id", run.ID).Interface("components", req.Selected()).Msg("installer event=install_start")
	o.cfg.Publisher.Publish(Event{Name: "install_start", RunID: run.ID, Fields: map[string]any{"components": req.Selected()}})
	go o.execute(ctx, run)
	return run, nil
}

// InProgress reports whether a run holds the gate.
func (o *Orchestrator) InProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil
}

// Last returns the most recently finished run, or nil.
func (o *Orchestrator) Last() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Wait blocks until no run is in flight.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// Close cancels any active run, waits for it to release the gate and rejects
// further runs.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	o.wg.Wait()
}

func (o *Orchestrator) execute(ctx context.Context, run *Run) {
	var (
		res    Result
		active types.Component
	)
	defer o.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			o.log.Error().Str("event", "install_panic").Str("run_id", run.ID).Interface("panic", p).Msg("installer event=install_panic")
			o.out.Errorf("Installation failed: %v", p)
			if active != "" {
				o.writeStatus(active, false, false)
			}
			res = Result{Success: false, Failed: active}
		}
		o.finish(run, res)
	}()

	res.Success = true
	for _, c := range run.Request.Selected() {
		active = c
		if !o.runStep(ctx, run, c) {
			o.out.Pushf("%s installation failed", c.Title())
			res = Result{Success: false, Failed: c}
			break
		}
		active = ""
	}
	if res.Success {
		o.out.Push("Installation completed successfully!")
	}
}

func (o *Orchestrator) finish(run *Run, res Result) {
	run.mu.Lock()
	run.result = res
	run.mu.Unlock()

	o.mu.Lock()
	o.current = nil
	o.last = run
	o.mu.Unlock()

	installInProgress.Set(0)
	installRunsTotal.WithLabelValues(resultLabel(res.Success)).Inc()
	o.log.Info().Str("event", "install_done").Str("run_id", run.ID).Bool("success", res.Success).
		Dur("elapsed", time.Since(run.StartedAt)).Msg("installer event=install_done")
	o.cfg.Publisher.Publish(Event{Name: "install_done", RunID: run.ID, Component: string(res.Failed), Fields: map[string]any{"success": res.Success}})
	close(run.done)
}

// runStep installs one component and records its status.
func (o *Orchestrator) runStep(ctx context.Context, run *Run, c types.Component) bool {
	ids := run.Request.IndividualNodes
	if c == types.ComponentModels {
		ids = run.Request.IndividualModels
	}
	filtered := c != types.ComponentComfyApp && len(ids) > 0

	prev := o.readStatus(c)
	o.writeStatus(c, filtered && prev.Installed, true)
	o.log.Info().Str("event", "step_start").Str("run_id", run.ID).Str("step", string(c)).Bool("filtered", filtered).Msg("installer event=step_start")
	o.cfg.Publisher.Publish(Event{Name: "step_start", RunID: run.ID, Component: string(c), Fields: map[string]any{"filtered": filtered}})

	var ok bool
	if filtered {
		ok = o.runFiltered(ctx, run, c, ids)
	} else {
		ok = o.runScript(ctx, c)
	}

	o.writeStatus(c, ok, false)
	installStepsTotal.WithLabelValues(string(c), resultLabel(ok)).Inc()
	o.log.Info().Str("event", "step_done").Str("run_id", run.ID).Str("step", string(c)).Bool("success", ok).Msg("installer event=step_done")
	o.cfg.Publisher.Publish(Event{Name: "step_done", RunID: run.ID, Component: string(c), Fields: map[string]any{"success": ok}})
	return ok
}

func (o *Orchestrator) readStatus(c types.Component) types.ComponentStatus {
	if o.cfg.Store == nil {
		return types.ComponentStatus{}
	}
	return o.cfg.Store.Read(c)
}

func (o *Orchestrator) writeStatus(c types.Component, installed, installing bool) {
	if o.cfg.Store == nil {
		return
	}
	if _, err := o.cfg.Store.Write(c, installed, installing); err != nil {
		o.log.Warn().Err(err).Str("step", string(c)).Msg("installer event=status_write_failed")
	}
}
