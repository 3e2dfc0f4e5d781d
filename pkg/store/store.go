// Package store keeps an in-memory copy of the users collection in step with the
// remote users resource.
//
// Every operation is a three-phase transition: pending, then fulfilled or
// rejected. Network calls run without holding the store lock; each phase is
// applied atomically through a single entry point, so concurrent operations
// apply their effects in the order they resolve. Two racing updates to the same
// user can therefore overwrite each other; the last response to arrive wins.
//
// Failures never escape as panics. A rejected transition records a normalized
// *ErrorValue in State.Error (replacing any previous one) and the same value is
// returned to the caller.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/userdesk/userdesk/pkg/logging"
	"github.com/userdesk/userdesk/pkg/notify"
	"github.com/userdesk/userdesk/pkg/user"
)

// Op identifies a store operation.
type Op string

// Store operations.
const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Phase is the stage of a transition.
type Phase string

// Transition phases.
const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

// Client is the transport the store synchronizes through.
// *userclient.Client satisfies it.
type Client interface {
	List(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, draft user.Fields) (user.User, error)
	Update(ctx context.Context, id string, patch user.Fields) (user.User, error)
	Delete(ctx context.Context, id string) (string, error)
}

// State is a snapshot of the store.
type State struct {
	Users   []user.User `json:"users"`
	Loading bool        `json:"loading"`
	Error   *ErrorValue `json:"error,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Users = make([]user.User, len(s.Users))
	copy(out.Users, s.Users)
	return out
}

// Store is the shared users collection. It is safe for concurrent use.
type Store struct {
	client         Client
	notifier       notify.Sink
	logger         *slog.Logger
	observer       Observer
	failureNotices bool

	mu    sync.Mutex
	state State

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the sink that receives operation notices.
func WithNotifier(sink notify.Sink) Option {
	return func(s *Store) {
		if sink != nil {
			s.notifier = sink
		}
	}
}

// WithLogger sets the logger used for transition logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the transition observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithFailureNotices makes rejected transitions notify the sink as well.
func WithFailureNotices(enabled bool) Option {
	return func(s *Store) {
		s.failureNotices = enabled
	}
}

// New creates an empty store backed by client.
func New(client Client, opts ...Option) *Store {
	s := &Store{
		client:   client,
		notifier: notify.Nop(),
		logger:   logging.Nop(),
		observer: NoopObserver{},
		state:    State{Users: []user.User{}},
		subs:     make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Users returns a copy of the collection in store order.
func (s *Store) Users() []user.User {
	return s.State().Users
}

// Find returns the locally known user with the given id.
func (s *Store) Find(id string) (user.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.state.Users {
		if u.ID == id {
			return u, true
		}
	}
	return user.User{}, false
}

// Subscribe registers fn to receive a snapshot after every applied transition.
// fn runs on the goroutine that applied the transition, after the lock is released.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// FetchAll replaces the collection with the server's list.
// On failure the collection is left as it was.
func (s *Store) FetchAll(ctx context.Context) error {
	start := time.Now()
	s.apply(OpFetch, PhasePending, start, setLoading)

	users, err := s.client.List(ctx)
	if err != nil {
		return s.reject(ctx, OpFetch, normalize(OpFetch, err), start)
	}

	s.apply(OpFetch, PhaseFulfilled, start, func(st *State) {
		st.Loading = false
		st.Users = make([]user.User, len(users))
		copy(st.Users, users)
	})
	return nil
}

// Create persists draft and appends the stored user to the collection.
// Nothing is inserted before the server confirms.
func (s *Store) Create(ctx context.Context, draft user.Fields) error {
	start := time.Now()
	s.apply(OpCreate, PhasePending, start, setLoading)

	created, err := s.client.Create(ctx, draft)
	if err != nil {
		return s.reject(ctx, OpCreate, normalize(OpCreate, err), start)
	}

	s.apply(OpCreate, PhaseFulfilled, start, func(st *State) {
		st.Loading = false
		st.Users = append(st.Users, created)
	})
	s.notify(ctx, notify.Notification{
		Level:       notify.LevelSuccess,
		Title:       "User added successfully",
		Description: fmt.Sprintf("Added user %s to database.", created.Name),
		Op:          string(OpCreate),
	})
	return nil
}

// Update replaces the user identified by id with patch.
//
// An empty id is rejected without contacting the server. When the server's
// response names a user that is not in the local collection, the result is
// dropped silently: nothing is inserted and no error is recorded.
func (s *Store) Update(ctx context.Context, id string, patch user.Fields) error {
	start := time.Now()
	s.apply(OpUpdate, PhasePending, start, setLoading)

	if id == "" {
		return s.reject(ctx, OpUpdate, missingID(), start)
	}

	updated, err := s.client.Update(ctx, id, patch)
	if err != nil {
		return s.reject(ctx, OpUpdate, normalize(OpUpdate, err), start)
	}

	replaced := false
	s.apply(OpUpdate, PhaseFulfilled, start, func(st *State) {
		st.Loading = false
		for i := range st.Users {
			if st.Users[i].ID == updated.ID {
				st.Users[i] = updated
				replaced = true
				return
			}
		}
	})
	if !replaced {
		s.logger.Debug("update dropped: user not in local collection", "id", updated.ID)
		return nil
	}
	s.notify(ctx, notify.Notification{
		Level:       notify.LevelSuccess,
		Title:       "User information updated",
		Description: fmt.Sprintf("%s has successfully updated its data.", updated.Name),
		Op:          string(OpUpdate),
	})
	return nil
}

// Delete removes the user identified by id. Deleting an id that is not held
// locally still succeeds when the server accepts it.
func (s *Store) Delete(ctx context.Context, id string) error {
	start := time.Now()
	s.apply(OpDelete, PhasePending, start, setLoading)

	deleted, err := s.client.Delete(ctx, id)
	if err != nil {
		return s.reject(ctx, OpDelete, normalize(OpDelete, err), start)
	}

	s.apply(OpDelete, PhaseFulfilled, start, func(st *State) {
		st.Loading = false
		kept := st.Users[:0:0]
		for _, u := range st.Users {
			if u.ID != deleted {
				kept = append(kept, u)
			}
		}
		st.Users = kept
	})
	s.notify(ctx, notify.Notification{
		Level:       notify.LevelSuccess,
		Title:       "User deleted",
		Description: "The user has been successfully removed from the system.",
		Op:          string(OpDelete),
	})
	return nil
}

func setLoading(st *State) {
	st.Loading = true
}

func (s *Store) reject(ctx context.Context, op Op, ev *ErrorValue, start time.Time) error {
	s.apply(op, PhaseRejected, start, func(st *State) {
		st.Loading = false
		st.Error = ev
	})
	s.logger.Warn("store operation failed",
		"op", op,
		"source", ev.Source,
		"message", ev.Message,
		"error", ev.Unwrap(),
	)
	if s.failureNotices {
		n := notify.Notification{
			Level: notify.LevelError,
			Title: FallbackMessage(op),
			Op:    string(op),
		}
		if ev.Message != n.Title {
			n.Description = ev.Message
		}
		s.notify(ctx, n)
	}
	return ev
}

// apply is the single entry point for state changes. fn runs under the store
// lock; observers, logs and subscribers see the result after it is released.
func (s *Store) apply(op Op, phase Phase, start time.Time, fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.clone()
	s.mu.Unlock()

	var elapsed time.Duration
	if phase != PhasePending {
		elapsed = time.Since(start)
	}
	s.logger.Debug("store transition", "op", op, "phase", phase, "users", len(snapshot.Users), "duration", elapsed)
	s.observer.OnTransition(Transition{Op: op, Phase: phase, Duration: elapsed, Users: len(snapshot.Users)})

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) notify(ctx context.Context, n notify.Notification) {
	s.notifier.Notify(ctx, n)
}
