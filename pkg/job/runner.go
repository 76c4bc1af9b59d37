package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/draftloom/draftloom/pkg/backend"
	"github.com/draftloom/draftloom/pkg/canvas"
	"github.com/draftloom/draftloom/pkg/chat"
	"github.com/draftloom/draftloom/pkg/draftcache"
	"github.com/draftloom/draftloom/pkg/notify"
	"github.com/draftloom/draftloom/pkg/wire"
)

// Config wires a Runner's collaborators. Backend is required; the rest
// default to no-ops.
type Config struct {
	Backend  *backend.Client
	Store    *chat.Store
	Bridge   *canvas.Bridge
	Cache    *draftcache.Cache
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// Runner owns the I/O side of jobs: registration, the event connection,
// and the decision surface. At most one job is active per chat.
type Runner struct {
	backend *backend.Client
	store   *chat.Store
	bridge  *canvas.Bridge
	cache   *draftcache.Cache
	notify  notify.Notifier
	log     *slog.Logger

	mu     sync.Mutex
	active map[string]*Job // chat ID -> job
}

// NewRunner creates a Runner from cfg.
func NewRunner(cfg Config) *Runner {
	r := &Runner{
		backend: cfg.Backend,
		store:   cfg.Store,
		bridge:  cfg.Bridge,
		cache:   cfg.Cache,
		notify:  cfg.Notifier,
		log:     cfg.Logger,
		active:  make(map[string]*Job),
	}
	if r.notify == nil {
		r.notify = notify.Nop()
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Start registers a job with the backend for one chat. A chat with an
// active job cannot start another until the first reaches a terminal
// state.
func (r *Runner) Start(ctx context.Context, chatID string, req *backend.GenerationRequest) (*Job, error) {
	r.mu.Lock()
	if cur, ok := r.active[chatID]; ok && !cur.State().Terminal() {
		r.mu.Unlock()
		return nil, fmt.Errorf("job: chat %s already has an active job %s", chatID, cur.ID())
	}
	r.mu.Unlock()

	sreq := *req
	sreq.ChatID = chatID
	id, err := r.backend.Jobs.Create(ctx, &sreq)
	if err != nil {
		return nil, err
	}

	j := New(id, chatID)
	r.mu.Lock()
	r.active[chatID] = j
	r.mu.Unlock()
	return j, nil
}

// Active returns the chat's current job, if any.
func (r *Runner) Active(chatID string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.active[chatID]
	return j, ok
}

// Run opens the job's event connection and consumes it until the job
// reaches a terminal state or the transport fails. It blocks; the decision
// surface (SubmitDecision) is expected to be driven from elsewhere while
// the job is paused.
//
// A transport error moves the job to Failed and is returned; there is no
// reconnection and no event replay.
func (r *Runner) Run(ctx context.Context, j *Job) error {
	defer r.release(j)

	for ev, err := range r.backend.Jobs.Events(ctx, j.ID()) {
		if err != nil {
			j.Fail(err.Error())
			r.notify.Notify(notify.LevelError, notify.Truncate(err.Error()))
			return err
		}
		eff := j.Apply(ev)
		r.applyEffects(ctx, j, eff)
		if eff.Terminal {
			return nil
		}
	}

	// The backend closed the stream without a terminal event.
	if !j.State().Terminal() {
		j.Fail("event stream closed before completion")
		return fmt.Errorf("job %s: event stream closed before completion", j.ID())
	}
	return nil
}

// SubmitDecision sends a human review decision for a paused job. Only a
// job awaiting review accepts one; the pending record is cleared and the
// job returns to Running.
func (r *Runner) SubmitDecision(ctx context.Context, j *Job, decision *backend.Decision) error {
	if j.State() != StateAwaitingReview {
		return fmt.Errorf("job %s: no pending review", j.ID())
	}
	if err := r.backend.Jobs.Resume(ctx, j.ID(), decision); err != nil {
		return err
	}
	return j.Resume()
}

// applyEffects carries out the I/O an applied event asked for.
func (r *Runner) applyEffects(ctx context.Context, j *Job, eff Effects) {
	if eff.Notice != "" {
		r.notify.Notify(notify.LevelInfo, notify.Truncate(eff.Notice))
	}

	if eff.Section != nil {
		if r.bridge != nil {
			r.bridge.MergeSection(*eff.Section)
		}
		r.persistSection(ctx, j, eff.Section)
	}

	if eff.ReviewRequired {
		if rec := j.Review(); rec != nil {
			r.notify.Notify(notify.LevelWarn, "review required: "+rec.Checkpoint)
		}
	}

	if eff.Finalize {
		r.finalize(ctx, j)
	}
}

// finalize performs the terminal projection: one guarded canvas write, one
// summary chat message, and the metadata snapshot.
func (r *Runner) finalize(ctx context.Context, j *Job) {
	final := j.FinalText()
	if r.bridge != nil && final != "" {
		r.bridge.Finalize(j.ID(), final, canvas.FinalizeReplace)
	}

	if r.store != nil {
		summary := "Draft complete."
		if rat := j.Rationale(); rat != "" {
			summary += "\n\n" + rat
		}
		msg := chat.NewMessage(chat.RoleAssistant, summary)
		msg.Meta.TurnID = j.ID()
		if err := r.store.AppendMessage(j.ChatID(), msg); err != nil {
			r.log.Warn("job: append summary message", "err", err)
		}
	}

	r.persistFinal(ctx, j, final)
}

// persistSection records section-level progress in the draft cache.
// Best-effort: failures are logged and swallowed.
func (r *Runner) persistSection(ctx context.Context, j *Job, sec *wire.SectionRecord) {
	if r.cache == nil {
		return
	}
	meta, err := r.cache.Get(ctx, j.ChatID())
	if err != nil {
		meta = &draftcache.DraftMetadata{}
	}
	meta.MergeSection(draftcache.SectionMeta{
		Title:            sec.Title,
		Diverged:         sec.Diverged,
		SupportingDrafts: sec.SupportingDrafts,
		Risks:            sec.Risks,
	})
	if sec.Diverged {
		meta.Diverged = true
	}
	if r.bridge != nil {
		meta.Preview = r.bridge.Preview()
	}
	if err := r.cache.Put(ctx, j.ChatID(), meta); err != nil {
		r.log.Warn("job: draft cache write failed", "err", err)
	}
}

// persistFinal records the terminal snapshot in the draft cache.
func (r *Runner) persistFinal(ctx context.Context, j *Job, final string) {
	if r.cache == nil {
		return
	}
	meta, err := r.cache.Get(ctx, j.ChatID())
	if err != nil {
		meta = &draftcache.DraftMetadata{}
	}
	meta.Preview = final
	meta.Rationale = j.Rationale()
	meta.Audit = j.Audit()
	meta.CommitteeReport = j.CommitteeReport()
	if err := r.cache.Put(ctx, j.ChatID(), meta); err != nil {
		r.log.Warn("job: draft cache write failed", "err", err)
	}
}

// release drops a terminal job from the active set.
func (r *Runner) release(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[j.ChatID()] == j {
		delete(r.active, j.ChatID())
	}
}
