// Package session coordinates multi-model turns: it fans one user prompt
// out to one or more generation targets over a single streaming
// connection, keeps one accumulation buffer per target, and optionally
// triggers a consolidation step once the streams complete.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/draftloom/draftloom/pkg/backend"
	"github.com/draftloom/draftloom/pkg/canvas"
	"github.com/draftloom/draftloom/pkg/chat"
	"github.com/draftloom/draftloom/pkg/draftcache"
	"github.com/draftloom/draftloom/pkg/notify"
	"github.com/draftloom/draftloom/pkg/wire"
)

// failedText marks a placeholder whose stream never opened.
const failedText = "Generation failed."

// Config wires a Manager's collaborators. Backend and Store are required;
// the rest default to no-ops.
type Config struct {
	Backend  *backend.Client
	Store    *chat.Store
	Bridge   *canvas.Bridge
	Cache    *draftcache.Cache
	Notifier notify.Notifier
	Logger   *slog.Logger

	// Consolidate enables the synthesis step after multi-model turns.
	Consolidate bool
}

// Manager runs multi-model turns against one chat store.
type Manager struct {
	backend     *backend.Client
	store       *chat.Store
	bridge      *canvas.Bridge
	cache       *draftcache.Cache
	notify      notify.Notifier
	log         *slog.Logger
	consolidate bool

	// mu serializes the consolidation guard check.
	mu sync.Mutex
}

// NewManager creates a Manager from cfg.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		backend:     cfg.Backend,
		store:       cfg.Store,
		bridge:      cfg.Bridge,
		cache:       cfg.Cache,
		notify:      cfg.Notifier,
		log:         cfg.Logger,
		consolidate: cfg.Consolidate,
	}
	if m.notify == nil {
		m.notify = notify.Nop()
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// TurnOptions adjusts how one turn projects its result.
type TurnOptions struct {
	// Excerpt marks the narrower "improve this excerpt" intent. The result
	// becomes a suggestion on the response message metadata; the canvas is
	// left untouched.
	Excerpt string

	// FinalizeMode selects the terminal canvas write semantics.
	FinalizeMode canvas.FinalizeMode
}

// TurnResult reports what one turn produced.
type TurnResult struct {
	TurnID         string
	UserMessageID  string
	ModelMessages  map[string]string // model -> message ID
	ConsolidatedID string
}

// RunTurn executes one turn: routing shortcut, optional outline call, one
// streaming request with a placeholder assistant message per target model,
// then the optional consolidation step.
//
// Only a failure to open the stream is returned as an error; everything
// else degrades to notifications and diagnostics.
func (m *Manager) RunTurn(ctx context.Context, chatID string, req *backend.GenerationRequest, opts *TurnOptions) (*TurnResult, error) {
	if opts == nil {
		opts = &TurnOptions{}
	}

	// An inline routing shortcut in the prompt overrides the target set.
	prompt, models := parseRouting(req.Prompt, req.Models)
	if len(models) == 0 {
		return nil, fmt.Errorf("session: no target models for turn")
	}

	turnID := uuid.NewString()
	sreq := *req
	sreq.Prompt = prompt
	sreq.Models = models
	sreq.ChatID = chatID
	sreq.TurnID = turnID

	// Outline is an optional enhancement: a failure is logged and the turn
	// proceeds directly to the main stream.
	if sreq.PageRange != nil {
		outline, err := m.backend.Turns.Outline(ctx, &backend.OutlineRequest{
			Prompt:    prompt,
			PageRange: sreq.PageRange,
		})
		if err != nil {
			m.log.Warn("session: outline request failed, proceeding without", "err", err)
		} else {
			sreq.Outline = outline.Sections
		}
	}

	userMsg := chat.NewMessage(chat.RoleUser, prompt)
	userMsg.Meta.TurnID = turnID
	if err := m.store.AppendMessage(chatID, userMsg); err != nil {
		return nil, err
	}

	result := &TurnResult{
		TurnID:        turnID,
		UserMessageID: userMsg.ID,
		ModelMessages: make(map[string]string, len(models)),
	}
	for _, model := range models {
		ph := chat.NewMessage(chat.RoleAssistant, "")
		ph.Meta.Model = model
		ph.Meta.TurnID = turnID
		if err := m.store.AppendMessage(chatID, ph); err != nil {
			return nil, err
		}
		result.ModelMessages[model] = ph.ID
	}

	buffers := make(map[string]*StreamBuffer, len(models))
	for _, model := range models {
		buffers[model] = &StreamBuffer{}
	}

	if err := m.consume(ctx, chatID, &sreq, result, buffers); err != nil {
		return result, err
	}

	m.finishTurn(ctx, chatID, prompt, models, result, buffers, opts)
	return result, nil
}

// consume feeds decoded turn events into the store and buffers. It
// returns an error only for transport failures; the caller's placeholders
// are then marked failed.
func (m *Manager) consume(ctx context.Context, chatID string, req *backend.GenerationRequest, result *TurnResult, buffers map[string]*StreamBuffer) error {
	var sawEvent bool
	for ev, err := range m.backend.Turns.Stream(ctx, req) {
		if err != nil {
			if !sawEvent {
				m.markFailed(chatID, result)
			}
			m.notify.Notify(notify.LevelError, notify.Truncate(err.Error()))
			return err
		}
		sawEvent = true
		m.dispatch(chatID, result, buffers, ev)
	}
	return nil
}

// dispatch applies one decoded event. The switch is exhaustive over the
// closed wire.TurnEvent variants.
func (m *Manager) dispatch(chatID string, result *TurnResult, buffers map[string]*StreamBuffer, ev wire.TurnEvent) {
	switch e := ev.(type) {
	case *wire.Token:
		buf, msgID, ok := m.target(result, buffers, e.Model)
		if !ok {
			return
		}
		// Deltas after the authoritative text are ignored.
		if !buf.AppendDelta(e.Text) {
			return
		}
		if err := m.store.AppendContent(chatID, msgID, e.Text); err != nil {
			m.log.Warn("session: append delta", "err", err)
		}

	case *wire.Thinking:
		_, msgID, ok := m.target(result, buffers, e.Model)
		if !ok {
			return
		}
		if err := m.store.AppendThinking(chatID, msgID, e.Text); err != nil {
			m.log.Warn("session: append thinking", "err", err)
		}

	case *wire.UsageUpdate:
		buf, msgID, ok := m.target(result, buffers, e.Model)
		if !ok {
			return
		}
		buf.Usage.Add(e.Usage)
		if err := m.store.MergeUsage(chatID, msgID, e.Usage); err != nil {
			m.log.Warn("session: merge usage", "err", err)
		}

	case *wire.Done:
		buf, msgID, ok := m.target(result, buffers, e.Model)
		if !ok {
			return
		}
		// The authoritative text supersedes accumulated deltas and
		// reconciles any delta loss from transport hiccups.
		buf.SetAuthoritative(e.Text)
		if err := m.store.SetContent(chatID, msgID, e.Text); err != nil {
			m.log.Warn("session: set authoritative content", "err", err)
		}
		if e.Thinking != "" {
			if err := m.store.SetThinking(chatID, msgID, e.Thinking); err != nil {
				m.log.Warn("session: set thinking", "err", err)
			}
		}
		if e.Usage != nil {
			buf.Usage.Add(*e.Usage)
			if err := m.store.MergeUsage(chatID, msgID, *e.Usage); err != nil {
				m.log.Warn("session: merge usage", "err", err)
			}
		}

	case *wire.StreamError:
		// Surfaced as an ephemeral notification scoped to the model;
		// partial content already received is preserved.
		m.notify.Notify(notify.LevelWarn, notify.Truncate(fmt.Sprintf("%s: %s", e.Model, e.Message)))

	case *wire.SearchStarted:
		m.notify.Notify(notify.LevelInfo, "searching: "+e.Query)

	case *wire.SearchDone:
		m.notify.Notify(notify.LevelInfo, fmt.Sprintf("search finished (%d results)", e.Results))

	case *wire.UnknownTurnEvent:
		m.log.Debug("session: ignoring unknown event kind", "type", e.Type)
	}
}

// target resolves the buffer and message for a model. Events for models
// outside the turn's target set are dropped with a diagnostic.
func (m *Manager) target(result *TurnResult, buffers map[string]*StreamBuffer, model string) (*StreamBuffer, string, bool) {
	buf, ok := buffers[model]
	if !ok {
		m.log.Warn("session: event for unknown model", "model", model)
		return nil, "", false
	}
	return buf, result.ModelMessages[model], true
}

// markFailed tags all placeholder messages of the turn with a generic
// failure text.
func (m *Manager) markFailed(chatID string, result *TurnResult) {
	for _, msgID := range result.ModelMessages {
		if err := m.store.SetContent(chatID, msgID, failedText); err != nil {
			continue
		}
		_ = m.store.UpdateMeta(chatID, msgID, func(meta *chat.Metadata) {
			meta.Failed = true
		})
	}
}

// finishTurn runs the consolidation step and projects the result into the
// canvas or, for the excerpt intent, into a suggestion.
func (m *Manager) finishTurn(ctx context.Context, chatID, prompt string, models []string, result *TurnResult, buffers map[string]*StreamBuffer, opts *TurnOptions) {
	var candidates []backend.Candidate
	for _, model := range models {
		if buf := buffers[model]; buf != nil && buf.Authoritative && buf.Text != "" {
			candidates = append(candidates, backend.Candidate{Model: model, Text: buf.Text})
		}
	}

	var finalText string
	if len(candidates) > 0 {
		finalText = candidates[0].Text
	}

	consolidated := false
	if m.consolidate && len(candidates) >= 2 {
		if msgID, ok := m.ConsolidateTurn(ctx, chatID, result.TurnID, prompt, candidates); ok {
			result.ConsolidatedID = msgID
			if msg, err := m.store.Message(chatID, msgID); err == nil {
				finalText = msg.Content
			}
			consolidated = true
		}
	}

	if finalText == "" {
		return
	}

	if opts.Excerpt != "" {
		// Suggestion mode: propose a replacement fragment instead of
		// touching the canvas.
		suggestion := canvas.ExtractSuggestion(finalText)
		msgID := result.ConsolidatedID
		if msgID == "" && len(models) > 0 {
			msgID = result.ModelMessages[models[0]]
		}
		if err := m.store.UpdateMeta(chatID, msgID, func(meta *chat.Metadata) {
			meta.Suggestion = suggestion
		}); err != nil {
			m.log.Warn("session: attach suggestion", "err", err)
		}
	} else if m.bridge != nil {
		m.bridge.Finalize(result.TurnID, finalText, opts.FinalizeMode)
	}

	m.persistMeta(ctx, chatID, finalText, models, consolidated)
}

// ConsolidateTurn issues the consolidation request for a turn, guarded so
// it cannot run twice for the same turn regardless of the call site. It
// returns the consolidation message ID and whether one now exists because
// of this call.
//
// A consolidation failure is logged and skipped: no message is added and
// no caller-visible error is produced.
func (m *Manager) ConsolidateTurn(ctx context.Context, chatID, turnID, prompt string, candidates []backend.Candidate) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.HasConsolidated(chatID, turnID) {
		return "", false
	}

	resp, err := m.backend.Turns.Consolidate(ctx, &backend.ConsolidationRequest{
		TurnID:     turnID,
		Prompt:     prompt,
		Candidates: candidates,
	})
	if err != nil {
		m.log.Warn("session: consolidation failed, skipping", "turn", turnID, "err", err)
		return "", false
	}

	msg := chat.NewMessage(chat.RoleAssistant, resp.Text)
	msg.Meta.TurnID = turnID
	msg.Meta.Consolidated = true
	if err := m.store.AppendMessage(chatID, msg); err != nil {
		m.log.Warn("session: append consolidated message", "err", err)
		return "", false
	}
	return msg.ID, true
}

// DeleteChat removes a chat and its cached draft metadata. The cache
// delete is best-effort.
func (m *Manager) DeleteChat(ctx context.Context, chatID string) {
	m.store.DeleteChat(chatID)
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, chatID); err != nil {
		m.log.Warn("session: draft cache delete failed", "err", err)
	}
}

// persistMeta writes the draft metadata snapshot. Best-effort: failures
// are logged and swallowed.
func (m *Manager) persistMeta(ctx context.Context, chatID, preview string, models []string, consolidated bool) {
	if m.cache == nil {
		return
	}
	meta, err := m.cache.Get(ctx, chatID)
	if err != nil {
		meta = &draftcache.DraftMetadata{}
	}
	meta.Preview = preview
	meta.Models = models
	meta.Consolidated = consolidated
	if err := m.cache.Put(ctx, chatID, meta); err != nil {
		m.log.Warn("session: draft cache write failed", "err", err)
	}
}

// parseRouting recognizes a leading "@model" token in the prompt as an
// inline routing shortcut overriding the target models.
func parseRouting(prompt string, models []string) (string, []string) {
	trimmed := strings.TrimSpace(prompt)
	if !strings.HasPrefix(trimmed, "@") {
		return prompt, models
	}
	token, rest, _ := strings.Cut(trimmed, " ")
	model := strings.TrimPrefix(token, "@")
	if model == "" {
		return prompt, models
	}
	return strings.TrimSpace(rest), []string{model}
}
