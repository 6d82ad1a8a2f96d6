package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletlink/walletlink-go/pkg/log"
	"github.com/walletlink/walletlink-go/pkg/wire"
)

// Default polling parameters.
const (
	// DefaultMaxIterations bounds a listen call to DefaultMaxIterations+1 enumerations.
	DefaultMaxIterations = 60

	// DefaultDelay is the pause between two enumerations.
	DefaultDelay = 500 * time.Millisecond
)

// ErrEnumeration wraps any failure returned by an Enumerator.
var ErrEnumeration = errors.New("device enumeration failed")

// Enumerator produces the list of currently attached devices.
type Enumerator[T any] interface {
	Enumerate(ctx context.Context) ([]T, error)
}

// EnumeratorFunc adapts a function to the Enumerator interface.
type EnumeratorFunc[T any] func(ctx context.Context) ([]T, error)

// Enumerate calls f(ctx).
func (f EnumeratorFunc[T]) Enumerate(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// State is the watcher loop state.
type State uint8

const (
	// StatePolling indicates the loop is still enumerating.
	StatePolling State = iota

	// StateSettled indicates a result has been produced.
	StateSettled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePolling:
		return "POLLING"
	case StateSettled:
		return "SETTLED"
	default:
		return "UNKNOWN"
	}
}

// Reason explains why a loop settled.
type Reason uint8

const (
	// ReasonChanged means the last snapshot differed from the one before it.
	ReasonChanged Reason = iota + 1

	// ReasonExhausted means the iteration limit was reached.
	ReasonExhausted
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonChanged:
		return "changed"
	case ReasonExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Config holds watcher parameters.
type Config struct {
	// MaxIterations is the iteration index at which the loop stops
	// regardless of change. Negative values are treated as zero.
	MaxIterations int

	// Delay between enumerations. Negative values are treated as zero.
	Delay time.Duration

	// Logger receives state change and error events. Nil disables logging.
	Logger log.Logger
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		Delay:         DefaultDelay,
	}
}

// Result is the settled output of one listen call.
type Result[T any] struct {
	// Devices is the snapshot of the final enumeration.
	Devices []T

	// Reason the loop settled.
	Reason Reason

	// Iteration is the index of the final enumeration (zero-based).
	Iteration int

	// Fingerprint identifies the snapshot contents.
	Fingerprint string
}

// Outcome is delivered by Start: exactly one of Result or Err is meaningful.
type Outcome[T any] struct {
	Result Result[T]
	Err    error
}

// Watcher runs the polling state machine over an Enumerator.
// A Watcher holds no per-call state and may be used concurrently.
type Watcher[T any] struct {
	enum   Enumerator[T]
	cfg    Config
	logger log.Logger
}

// New creates a watcher for the given enumerator.
func New[T any](enum Enumerator[T], cfg Config) *Watcher[T] {
	if cfg.MaxIterations < 0 {
		cfg.MaxIterations = 0
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Watcher[T]{
		enum:   enum,
		cfg:    cfg,
		logger: log.OrNoop(cfg.Logger),
	}
}

// Config returns the effective configuration.
func (w *Watcher[T]) Config() Config {
	return w.cfg
}

// pollState is private to one Listen call.
type pollState struct {
	iteration int
	last      wire.Snapshot
	hasLast   bool
}

// Listen polls until the device list changes or the iteration limit is hit.
// At most MaxIterations+1 enumerations are performed. Enumeration failures
// abort with ErrEnumeration; cancelling ctx aborts with ctx.Err().
func (w *Watcher[T]) Listen(ctx context.Context) (Result[T], error) {
	session := uuid.NewString()
	w.logState(session, StatePolling, nil, 0, 0, "")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	st := pollState{}
	for {
		if err := ctx.Err(); err != nil {
			w.logError(session, err, "cancelled")
			return Result[T]{}, err
		}

		devices, err := w.enum.Enumerate(ctx)
		if err != nil {
			err = fmt.Errorf("%w: iteration %d: %w", ErrEnumeration, st.iteration, err)
			w.logError(session, err, "enumerate")
			return Result[T]{}, err
		}

		encoded, err := wire.Encode(devices)
		if err != nil {
			err = fmt.Errorf("%w: encode snapshot: %w", ErrEnumeration, err)
			w.logError(session, err, "encode")
			return Result[T]{}, err
		}

		var reason Reason
		switch {
		case st.hasLast && !st.last.Equal(encoded):
			reason = ReasonChanged
		case st.iteration >= w.cfg.MaxIterations:
			reason = ReasonExhausted
		}

		if reason != 0 {
			res := Result[T]{
				Devices:     devices,
				Reason:      reason,
				Iteration:   st.iteration,
				Fingerprint: encoded.Fingerprint(),
			}
			w.logState(session, StateSettled, &reason, st.iteration, len(devices), res.Fingerprint)
			return res, nil
		}

		st = pollState{iteration: st.iteration + 1, last: encoded, hasLast: true}

		if timer == nil {
			timer = time.NewTimer(w.cfg.Delay)
		} else {
			timer.Reset(w.cfg.Delay)
		}
		select {
		case <-ctx.Done():
			w.logError(session, ctx.Err(), "wait")
			return Result[T]{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// Start runs Listen in its own goroutine. The returned channel receives
// exactly one Outcome and is then closed.
func (w *Watcher[T]) Start(ctx context.Context) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	go func() {
		defer close(ch)
		res, err := w.Listen(ctx)
		ch <- Outcome[T]{Result: res, Err: err}
	}()
	return ch
}

// Listen is a convenience for New(enum, cfg).Listen(ctx).
func Listen[T any](ctx context.Context, enum Enumerator[T], cfg Config) (Result[T], error) {
	return New(enum, cfg).Listen(ctx)
}

func (w *Watcher[T]) logState(session string, to State, reason *Reason, iteration, devices int, fingerprint string) {
	if _, ok := w.logger.(log.NoopLogger); ok {
		return
	}
	ev := &log.StateChangeEvent{
		Entity:      log.StateEntityWatcher,
		NewState:    to.String(),
		Iteration:   iteration,
		Devices:     devices,
		Fingerprint: fingerprint,
	}
	if to == StateSettled {
		ev.OldState = StatePolling.String()
	}
	if reason != nil {
		ev.Reason = reason.String()
	}
	w.logger.Log(log.Event{
		Timestamp:   time.Now(),
		SessionID:   session,
		Layer:       log.LayerDiscovery,
		Category:    log.CategoryState,
		StateChange: ev,
	})
}

func (w *Watcher[T]) logError(session string, err error, op string) {
	if _, ok := w.logger.(log.NoopLogger); ok {
		return
	}
	w.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: session,
		Layer:     log.LayerDiscovery,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerDiscovery,
			Message: err.Error(),
			Context: op,
		},
	})
}
