package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/petlog/healthrag/ai"
	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/index"
)

const (
	// DefaultMaxAttempts bounds retries for a single event.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the fixed delay between attempts.
	DefaultRetryDelay = 500 * time.Millisecond
	// DefaultSnippetRunes bounds the content snippet stored with each entry.
	DefaultSnippetRunes = 400
)

// Handler applies a single change event to the vector index. It owns the
// retry/skip policy: transient embedding or index failures are retried a
// bounded number of times with fixed delay, then the event is skipped so the
// stream stays live. Skipping trades completeness for liveness.
type Handler struct {
	embedder     ai.Embedder
	index        index.Index
	maxAttempts  int
	retryDelay   time.Duration
	snippetRunes int
	logger       *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler) error

// WithMaxAttempts sets the maximum number of attempts per event.
func WithMaxAttempts(attempts int) HandlerOption {
	return func(h *Handler) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		h.maxAttempts = attempts
		return nil
	}
}

// WithRetryDelay sets the fixed delay between retry attempts.
func WithRetryDelay(delay time.Duration) HandlerOption {
	return func(h *Handler) error {
		if delay > 0 {
			h.retryDelay = delay
		}
		return nil
	}
}

// WithSnippetRunes sets the maximum snippet length stored per entry.
func WithSnippetRunes(runes int) HandlerOption {
	return func(h *Handler) error {
		if runes > 0 {
			h.snippetRunes = runes
		}
		return nil
	}
}

// WithHandlerLogger sets a custom logger.
// Default is slog.Default().
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) error {
		if logger != nil {
			h.logger = logger
		}
		return nil
	}
}

// NewHandler creates a new event handler.
func NewHandler(embedder ai.Embedder, idx index.Index, opts ...HandlerOption) (*Handler, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	h := &Handler{
		embedder:     embedder,
		index:        idx,
		maxAttempts:  DefaultMaxAttempts,
		retryDelay:   DefaultRetryDelay,
		snippetRunes: DefaultSnippetRunes,
		logger:       slog.Default().With("component", "syncer"),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Handle processes one change event through to a terminal state. It never
// returns an error for the event itself: malformed events are dropped and
// exhausted retries end in SKIPPED. When ctx is canceled mid-event the
// Result is left in a non-terminal state, signaling the caller to abort the
// batch so the event is redelivered.
func (h *Handler) Handle(ctx context.Context, event *core.ChangeEvent) *Result {
	result := &Result{State: StateReceived}
	if event != nil {
		result.EventID = event.EventID
		result.RecordID = event.RecordID
	}

	if err := core.ValidateChangeEvent(event); err != nil {
		result.State = StateDropped
		result.Err = err
		h.logger.Warn("dropping malformed event", "eventID", result.EventID, "err", err)
		return result
	}

	switch event.Type {
	case core.EventCreated:
		h.applyUpsert(ctx, event, result, false)
	case core.EventUpdated:
		// UPDATE is delete-then-upsert. Delete of an absent entry is a
		// no-op, so a first-write-wins race degrades to plain CREATE.
		h.applyUpsert(ctx, event, result, true)
	case core.EventDeleted:
		h.applyDelete(ctx, event, result)
	}

	return result
}

func (h *Handler) applyUpsert(ctx context.Context, event *core.ChangeEvent, result *Result, deleteFirst bool) {
	attempts, err := RetryFixed(ctx, func() error {
		result.State = StateEmbedding
		vector, err := h.embedder.EmbedText(ctx, event.Text)
		if err != nil {
			return err
		}

		result.State = StateIndexMutating
		if deleteFirst {
			if err := h.index.Delete(ctx, event.RecordID); err != nil {
				return err
			}
		}
		return h.index.Upsert(ctx, &core.VectorEntry{
			RecordID:   event.RecordID,
			OwnerID:    event.OwnerID,
			SubjectID:  event.SubjectID,
			Embedding:  vector,
			Snippet:    core.Snippet(event.Text, h.snippetRunes),
			InsertedAt: time.Now().UTC(),
		})
	}, h.maxAttempts, h.retryDelay)

	result.Attempts = attempts
	if err != nil {
		h.failEvent(ctx, event, result, err)
		return
	}

	result.State = StateAcked
	h.logger.Debug("event applied", "eventID", event.EventID, "recordID", event.RecordID, "type", event.Type)
}

// failEvent resolves a retry failure. Cancellation of the consumer's context
// is not a source failure: the event stays in a non-terminal state so the
// batch aborts without committing and the event is redelivered. Only genuine
// exhausted retries reach SKIPPED.
func (h *Handler) failEvent(ctx context.Context, event *core.ChangeEvent, result *Result, err error) {
	result.Err = err
	if ctx.Err() != nil {
		h.logger.Info("event interrupted by shutdown, leaving uncommitted",
			"eventID", event.EventID, "recordID", event.RecordID, "type", event.Type)
		return
	}

	result.State = StateSkipped
	h.logger.Error("skipping event after exhausted retries",
		"eventID", event.EventID, "recordID", event.RecordID, "type", event.Type,
		"attempts", result.Attempts, "err", err)
}

func (h *Handler) applyDelete(ctx context.Context, event *core.ChangeEvent, result *Result) {
	attempts, err := RetryFixed(ctx, func() error {
		result.State = StateIndexMutating
		return h.index.Delete(ctx, event.RecordID)
	}, h.maxAttempts, h.retryDelay)

	result.Attempts = attempts
	if err != nil {
		h.failEvent(ctx, event, result, err)
		return
	}

	result.State = StateAcked
	h.logger.Debug("event applied", "eventID", event.EventID, "recordID", event.RecordID, "type", event.Type)
}
