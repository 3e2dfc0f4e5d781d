// Package form implements the add/edit user form: it binds to an existing user
// or to a new one, validates the field values, and hands valid input to the
// store.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/userdesk/userdesk/pkg/logging"
	"github.com/userdesk/userdesk/pkg/user"
	"github.com/userdesk/userdesk/pkg/validation"
)

var (
	// ErrInvalid is returned by Submit when at least one field fails validation.
	// The returned error also wraps the *validation.Result.
	ErrInvalid = errors.New("form has invalid fields")

	// ErrClosed is returned when the form is used before Open or after Close.
	ErrClosed = errors.New("form is not open")
)

// DefaultPhone is the phone value a create form starts with.
const DefaultPhone = "+"

// Mode tells whether a submit creates or updates.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Dispatcher is the part of the store the form talks to.
type Dispatcher interface {
	Create(ctx context.Context, draft user.Fields) error
	Update(ctx context.Context, id string, patch user.Fields) error
	Find(id string) (user.User, bool)
}

// Controller holds the form's open/closed state, bound id and field values.
// It is safe for concurrent use.
type Controller struct {
	dispatcher Dispatcher
	logger     *slog.Logger

	mu     sync.Mutex
	open   bool
	mode   Mode
	id     string
	values user.Fields
	errs   []*validation.FieldError
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a closed form bound to d.
func New(d Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		dispatcher: d,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens the form. An empty id starts a create form with blank fields and
// the phone set to DefaultPhone. A non-empty id starts an edit form populated
// from the store; a user the store does not know leaves the fields blank.
func (c *Controller) Open(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = true
	c.id = id
	c.errs = nil
	if id == "" {
		c.mode = ModeCreate
		c.values = user.Fields{Phone: DefaultPhone}
		return
	}
	c.mode = ModeEdit
	c.values = user.Fields{}
	if u, ok := c.dispatcher.Find(id); ok {
		c.values = u.Fields
	} else {
		c.logger.Debug("edit form opened for unknown user", "id", id)
	}
}

// Close closes the form and drops the binding and the field values.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.open = false
	c.mode = ModeCreate
	c.id = ""
	c.values = user.Fields{}
	c.errs = nil
}

// IsOpen reports whether the form is open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ID returns the bound user id, empty in create mode.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Values returns the current field values.
func (c *Controller) Values() user.Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// Errors returns the field errors from the last failed Submit, kept up to date
// as the offending fields are changed.
func (c *Controller) Errors() []*validation.FieldError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*validation.FieldError, len(c.errs))
	copy(out, c.errs)
	return out
}

// Set assigns a field value. If the field currently has an error it is
// re-checked against the new value.
func (c *Controller) Set(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return ErrClosed
	}
	if err := c.values.Set(field, value); err != nil {
		return err
	}
	for i, fe := range c.errs {
		if fe.Field != field {
			continue
		}
		if next := validation.ValidateField(field, value); next != nil {
			c.errs[i] = next
		} else {
			c.errs = append(c.errs[:i], c.errs[i+1:]...)
		}
		break
	}
	return nil
}

// Pending is the in-flight store operation started by Submit.
type Pending struct {
	Mode Mode
	ID   string
	done chan struct{}
	err  error
}

// Wait blocks until the operation resolves and returns its error.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// Done is closed when the operation resolves.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Submit validates the form. Invalid input returns an error wrapping both
// ErrInvalid and the *validation.Result, and the form stays open. Valid input
// is trimmed and dispatched as a create or an update in the background; the
// form is then cleared and closed without waiting for the outcome.
func (c *Controller) Submit(ctx context.Context) (*Pending, error) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	result := validation.ValidateUser(c.values)
	if result.HasErrors() {
		c.errs = result.Errors
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrInvalid, result)
	}

	p := &Pending{Mode: c.mode, ID: c.id, done: make(chan struct{})}
	values := c.values.Trimmed()
	c.reset()
	c.mu.Unlock()

	c.logger.Debug("form submitted", "mode", p.Mode.String(), "id", p.ID)
	go func() {
		defer close(p.done)
		if p.Mode == ModeEdit {
			p.err = c.dispatcher.Update(ctx, p.ID, values)
			return
		}
		p.err = c.dispatcher.Create(ctx, values)
	}()
	return p, nil
}
