package form

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/userdesk/pkg/user"
	"github.com/userdesk/userdesk/pkg/validation"
)

type call struct {
	op     string
	id     string
	fields user.Fields
}

type fakeDispatcher struct {
	mu    sync.Mutex
	users map[string]user.User
	calls []call
	err   error
	block chan struct{}
}

func (f *fakeDispatcher) record(c call) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeDispatcher) Create(_ context.Context, draft user.Fields) error {
	return f.record(call{op: "create", fields: draft})
}

func (f *fakeDispatcher) Update(_ context.Context, id string, patch user.Fields) error {
	return f.record(call{op: "update", id: id, fields: patch})
}

func (f *fakeDispatcher) Find(id string) (user.User, bool) {
	u, ok := f.users[id]
	return u, ok
}

func (f *fakeDispatcher) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

func validFields() user.Fields {
	return user.Fields{
		Name:     "Bo",
		LastName: "Li",
		Avatar:   "https://example.com/bo.png",
		School:   "BDU",
		Phone:    "+994556666666",
		Email:    "bo@li.co",
		Role:     user.RoleUser,
	}
}

func fill(t *testing.T, c *Controller, f user.Fields) {
	t.Helper()
	for _, key := range user.FieldKeys() {
		v, _ := f.Get(key)
		require.NoError(t, c.Set(key, v))
	}
}

func TestOpen_CreateMode(t *testing.T) {
	c := New(&fakeDispatcher{})
	assert.False(t, c.IsOpen())

	c.Open("")

	assert.True(t, c.IsOpen())
	assert.Equal(t, ModeCreate, c.Mode())
	assert.Empty(t, c.ID())
	assert.Equal(t, user.Fields{Phone: "+"}, c.Values())
}

func TestOpen_EditMode(t *testing.T) {
	known := user.User{ID: "7", Fields: validFields()}
	d := &fakeDispatcher{users: map[string]user.User{"7": known}}
	c := New(d)

	c.Open("7")
	assert.Equal(t, ModeEdit, c.Mode())
	assert.Equal(t, "7", c.ID())
	assert.Equal(t, known.Fields, c.Values())

	c.Open("unknown")
	assert.Equal(t, ModeEdit, c.Mode())
	assert.Equal(t, user.Fields{}, c.Values())
}

func TestSet(t *testing.T) {
	c := New(&fakeDispatcher{})
	assert.ErrorIs(t, c.Set(user.FieldName, "x"), ErrClosed)

	c.Open("")
	require.NoError(t, c.Set(user.FieldName, "Ann"))
	assert.Equal(t, "Ann", c.Values().Name)
	assert.Error(t, c.Set("nickname", "x"))
}

func TestSubmit_Invalid(t *testing.T) {
	d := &fakeDispatcher{}
	c := New(d)
	c.Open("")
	require.NoError(t, c.Set(user.FieldName, "Ann"))

	p, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInvalid)

	var result *validation.Result
	require.True(t, errors.As(err, &result))
	assert.False(t, result.Valid)

	assert.True(t, c.IsOpen())
	assert.Equal(t, "Ann", c.Values().Name)
	assert.Empty(t, d.recorded())

	byField := make(map[string]string)
	for _, fe := range c.Errors() {
		byField[fe.Field] = fe.Message
	}
	assert.NotContains(t, byField, user.FieldName)
	assert.Contains(t, byField, user.FieldLastName)
	assert.Equal(t, "phone may contain only '+' and digits", byField[user.FieldPhone])
}

func TestSet_RechecksFieldWithError(t *testing.T) {
	c := New(&fakeDispatcher{})
	c.Open("")
	fill(t, c, validFields())
	require.NoError(t, c.Set(user.FieldEmail, "a@b"))

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, user.FieldEmail, c.Errors()[0].Field)

	require.NoError(t, c.Set(user.FieldEmail, ""))
	require.Len(t, c.Errors(), 1)
	assert.Equal(t, validation.ErrCodeRequired, c.Errors()[0].Code)

	require.NoError(t, c.Set(user.FieldEmail, "a@b.co"))
	assert.Empty(t, c.Errors())
}

func TestSubmit_Create(t *testing.T) {
	d := &fakeDispatcher{}
	c := New(d)
	c.Open("")
	fill(t, c, validFields())

	p, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Wait())

	assert.False(t, c.IsOpen())
	assert.Equal(t, user.Fields{}, c.Values())

	calls := d.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "create", calls[0].op)
	assert.Equal(t, validFields(), calls[0].fields)
}

func TestSubmit_DispatchesTrimmedValues(t *testing.T) {
	d := &fakeDispatcher{}
	c := New(d)
	c.Open("")
	padded := validFields()
	padded.Phone = " +994556666666"
	padded.Email = "x@lee.co "
	padded.Role = " Admin"
	fill(t, c, padded)

	p, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Wait())

	calls := d.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "+994556666666", calls[0].fields.Phone)
	assert.Len(t, calls[0].fields.Phone, 13)
	assert.Equal(t, "x@lee.co", calls[0].fields.Email)
	assert.Equal(t, user.RoleAdmin, calls[0].fields.Role)
}

func TestSubmit_Edit(t *testing.T) {
	known := user.User{ID: "7", Fields: validFields()}
	d := &fakeDispatcher{users: map[string]user.User{"7": known}}
	c := New(d)
	c.Open("7")
	require.NoError(t, c.Set(user.FieldSchool, "MIT"))

	p, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeEdit, p.Mode)
	require.NoError(t, p.Wait())

	calls := d.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "update", calls[0].op)
	assert.Equal(t, "7", calls[0].id)
	assert.Equal(t, "MIT", calls[0].fields.School)
}

func TestSubmit_ClosesBeforeResult(t *testing.T) {
	d := &fakeDispatcher{block: make(chan struct{}), err: errors.New("Failed to add user")}
	c := New(d)
	c.Open("")
	fill(t, c, validFields())

	p, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, c.IsOpen())

	select {
	case <-p.Done():
		t.Fatal("operation resolved before the dispatcher returned")
	default:
	}

	close(d.block)
	assert.EqualError(t, p.Wait(), "Failed to add user")
	assert.False(t, c.IsOpen())
}

func TestSubmit_Closed(t *testing.T) {
	c := New(&fakeDispatcher{})
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClose(t *testing.T) {
	d := &fakeDispatcher{users: map[string]user.User{"7": {ID: "7", Fields: validFields()}}}
	c := New(d)
	c.Open("7")
	c.Close()

	assert.False(t, c.IsOpen())
	assert.Empty(t, c.ID())
	assert.Equal(t, ModeCreate, c.Mode())
	assert.Equal(t, user.Fields{}, c.Values())
}
