package usersapi

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/userdesk/userdesk/pkg/user"
)

// NotFoundError is returned when no user has the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.ID)
}

// ConflictError is returned when seeding a user whose id is already taken.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("user %q already exists", e.ID)
}

// Resource is the in-memory users collection. List preserves insertion order.
type Resource struct {
	mu    sync.RWMutex
	order []string
	items map[string]user.User
	newID func() string
}

// NewResource creates an empty resource that assigns UUIDs to new users.
func NewResource() *Resource {
	return &Resource{
		items: make(map[string]user.User),
		newID: uuid.NewString,
	}
}

// Seed replaces the collection with users. Users without an id get one.
func (r *Resource) Seed(users []user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := make([]string, 0, len(users))
	items := make(map[string]user.User, len(users))
	for i, u := range users {
		if u.ID == "" {
			u.ID = r.newID()
		}
		if _, exists := items[u.ID]; exists {
			return fmt.Errorf("seed index %d: %w", i, &ConflictError{ID: u.ID})
		}
		items[u.ID] = u
		order = append(order, u.ID)
	}
	r.order = order
	r.items = items
	return nil
}

// List returns every user in insertion order.
func (r *Resource) List() []user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// Get returns the user with the given id.
func (r *Resource) Get(id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, &NotFoundError{ID: id}
	}
	return u, nil
}

// Create stores fields under a fresh id and returns the new record.
func (r *Resource) Create(fields user.Fields) user.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := user.User{ID: r.newID(), Fields: fields}
	r.items[u.ID] = u
	r.order = append(r.order, u.ID)
	return u
}

// Update replaces the fields of an existing user, keeping its position.
func (r *Resource) Update(id string, fields user.Fields) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.User{}, &NotFoundError{ID: id}
	}
	u := user.User{ID: id, Fields: fields}
	r.items[id] = u
	return u, nil
}

// Delete removes a user and returns the removed record.
func (r *Resource) Delete(id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, &NotFoundError{ID: id}
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return u, nil
}

// Len returns the number of users.
func (r *Resource) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
