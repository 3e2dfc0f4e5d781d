package listview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/userdesk/pkg/store"
	"github.com/userdesk/userdesk/pkg/user"
)

type fakeSource struct {
	mu      sync.Mutex
	state   store.State
	fetches int
	deleted []string
}

func (f *fakeSource) FetchAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return nil
}

func (f *fakeSource) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSource) State() store.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type fakeOpener struct {
	opened []string
}

func (f *fakeOpener) Open(id string) {
	f.opened = append(f.opened, id)
}

// users returns n users with ids "1".."n" in insertion order.
func users(n int) []user.User {
	out := make([]user.User, n)
	for i := range out {
		id := fmt.Sprint(i + 1)
		role := user.RoleUser
		if i%3 == 0 {
			role = user.RoleAdmin
		}
		out[i] = user.User{ID: id, Fields: user.Fields{
			Name:     "User" + id,
			LastName: "Doe",
			School:   "BDU",
			Phone:    "+994556666666",
			Email:    "u" + id + "@x.co",
			Role:     role,
		}}
	}
	return out
}

func rowIDs(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestMount_FetchesOnce(t *testing.T) {
	src := &fakeSource{}
	v := New(src)
	for i := 0; i < 3; i++ {
		require.NoError(t, v.Mount(context.Background()))
	}
	assert.Equal(t, 1, src.fetches)
}

func TestRows_ReversedAndPaged(t *testing.T) {
	src := &fakeSource{state: store.State{Users: users(12)}}
	v := New(src)

	assert.Equal(t, 5, v.PageSize())
	assert.Equal(t, 3, v.PageCount())

	rows := v.Rows()
	assert.Equal(t, []string{"12", "11", "10", "9", "8"}, rowIDs(rows))
	assert.Equal(t, 1, rows[0].Number)

	v.SetPage(2)
	rows = v.Rows()
	assert.Equal(t, []string{"2", "1"}, rowIDs(rows))
	assert.Equal(t, 11, rows[0].Number)
	assert.Equal(t, 12, rows[1].Number)
}

func TestSetPage_Clamps(t *testing.T) {
	src := &fakeSource{state: store.State{Users: users(12)}}
	v := New(src)

	v.SetPage(99)
	assert.Equal(t, 2, v.Page())
	v.SetPage(-3)
	assert.Equal(t, 0, v.Page())
}

func TestSetPageSize(t *testing.T) {
	src := &fakeSource{state: store.State{Users: users(12)}}
	v := New(src)
	v.SetPage(1)

	require.NoError(t, v.SetPageSize(10))
	assert.Equal(t, 0, v.Page())
	assert.Equal(t, 2, v.PageCount())
	assert.Len(t, v.Rows(), 10)

	err := v.SetPageSize(7)
	assert.ErrorIs(t, err, ErrPageSize)
	assert.Equal(t, 10, v.PageSize())
}

func TestRows_PageShrinksAfterDelete(t *testing.T) {
	src := &fakeSource{state: store.State{Users: users(6)}}
	v := New(src)
	v.SetPage(1)
	require.Equal(t, []string{"1"}, rowIDs(v.Rows()))

	src.mu.Lock()
	src.state.Users = users(5)
	src.mu.Unlock()

	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, rowIDs(v.Rows()))
}

func TestFilter(t *testing.T) {
	src := &fakeSource{state: store.State{Users: users(7)}}
	v := New(src)

	require.NoError(t, v.SetFilter(`role == "Admin"`))
	assert.Equal(t, []string{"7", "4", "1"}, rowIDs(v.Rows()))
	assert.Equal(t, 3, v.Total())

	require.NoError(t, v.SetFilter(`email contains "u2@"`))
	assert.Equal(t, []string{"2"}, rowIDs(v.Rows()))

	require.NoError(t, v.SetFilter(""))
	assert.Equal(t, 7, v.Total())
}

func TestFilter_Invalid(t *testing.T) {
	v := New(&fakeSource{})
	assert.Error(t, v.SetFilter(`role ==`))
	assert.Error(t, v.SetFilter(`name`), "non-bool expression")
	assert.Error(t, v.SetFilter(`age > 3`), "unknown variable")
}

func TestEditAndDelete(t *testing.T) {
	src := &fakeSource{state: store.State{Users: users(2)}}
	opener := &fakeOpener{}
	v := New(src, WithForm(opener))

	require.NoError(t, v.Edit("2"))
	assert.Equal(t, []string{"2"}, opener.opened)

	require.NoError(t, v.Delete(context.Background(), "1"))
	assert.Equal(t, []string{"1"}, src.deleted)

	assert.Error(t, New(src).Edit("1"))
}

func TestRender(t *testing.T) {
	t.Run("loading", func(t *testing.T) {
		v := New(&fakeSource{state: store.State{Loading: true, Users: users(3)}})
		var buf bytes.Buffer
		require.NoError(t, v.Render(&buf))
		assert.Equal(t, "Loading...\n", buf.String())
	})

	t.Run("empty", func(t *testing.T) {
		v := New(&fakeSource{state: store.State{Users: []user.User{}}})
		var buf bytes.Buffer
		require.NoError(t, v.Render(&buf))
		assert.Equal(t, "No users found.\n", buf.String())
	})

	t.Run("table", func(t *testing.T) {
		v := New(&fakeSource{state: store.State{Users: users(7)}})
		v.SetPage(1)
		var buf bytes.Buffer
		require.NoError(t, v.Render(&buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, []string{"#", "NAME", "EMAIL", "PHONE", "SCHOOL", "ROLE", "ID"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"6", "User2", "Doe", "u2@x.co", "+994556666666", "BDU", "User", "2"}, strings.Fields(lines[1]))
		assert.Equal(t, "Rows per page: 5  6-7 of 7", lines[4])
	})
}

func TestRow_JSONKeepsNumber(t *testing.T) {
	in := Row{Number: 6, User: user.User{ID: "7", Fields: user.Fields{Name: "Ann"}}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"number":6`)

	var out Row
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
