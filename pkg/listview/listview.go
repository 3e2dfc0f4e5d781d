// Package listview is the paginated users table: newest users first, a page
// size of 5 or 10, and row actions that open the edit form or delete directly.
package listview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"text/tabwriter"

	"github.com/userdesk/userdesk/pkg/logging"
	"github.com/userdesk/userdesk/pkg/store"
	"github.com/userdesk/userdesk/pkg/user"
)

// DefaultPageSize is the page size a new view starts with.
const DefaultPageSize = 5

// ErrPageSize is returned by SetPageSize for sizes outside PageSizes.
var ErrPageSize = errors.New("unsupported page size")

// PageSizes returns the selectable page sizes.
func PageSizes() []int {
	return []int{5, 10}
}

func validPageSize(n int) bool {
	for _, s := range PageSizes() {
		if s == n {
			return true
		}
	}
	return false
}

// Source is the store surface the view reads and acts on.
type Source interface {
	FetchAll(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	State() store.State
}

// Opener opens the edit form for a user.
type Opener interface {
	Open(id string)
}

// Row is one rendered table row. Number is 1-based across pages.
type Row struct {
	Number int `json:"number"`
	user.User
}

// UnmarshalJSON decodes the row number next to the user fields. Without it the
// embedded user's decoder would swallow the whole object.
func (r *Row) UnmarshalJSON(data []byte) error {
	var n struct {
		Number int `json:"number"`
	}
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	r.Number = n.Number
	return r.User.UnmarshalJSON(data)
}

// View holds the page index, page size and filter of one users table.
type View struct {
	source Source
	form   Opener
	logger *slog.Logger

	mountOnce sync.Once
	mountErr  error

	mu     sync.Mutex
	page   int
	size   int
	filter *Filter
}

// Option configures a View.
type Option func(*View)

// WithForm binds the form that Edit opens.
func WithForm(f Opener) Option {
	return func(v *View) {
		v.form = f
	}
}

// WithLogger sets the view's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a view over source on page 0 with DefaultPageSize.
func New(source Source, opts ...Option) *View {
	v := &View{
		source: source,
		logger: logging.Nop(),
		size:   DefaultPageSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount loads the collection. Only the first call fetches; later calls return
// the first call's result.
func (v *View) Mount(ctx context.Context) error {
	v.mountOnce.Do(func() {
		v.mountErr = v.source.FetchAll(ctx)
	})
	return v.mountErr
}

// SetFilter compiles and applies expression. An empty expression clears the
// filter. The page is reset to 0.
func (v *View) SetFilter(expression string) error {
	var f *Filter
	if expression != "" {
		var err error
		if f, err = CompileFilter(expression); err != nil {
			return err
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
	v.page = 0
	return nil
}

// Page returns the current page index.
func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// PageSize returns the current page size.
func (v *View) PageSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// SetPage moves to page n, clamped to the available pages.
func (v *View) SetPage(n int) {
	total := len(v.visible())
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = clamp(n, pageCount(total, v.size))
}

// SetPageSize changes the page size and returns to page 0.
func (v *View) SetPageSize(n int) error {
	if !validPageSize(n) {
		return fmt.Errorf("%w: %d (choose %v)", ErrPageSize, n, PageSizes())
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = n
	v.page = 0
	return nil
}

// PageCount returns the number of pages, at least 1.
func (v *View) PageCount() int {
	total := len(v.visible())
	v.mu.Lock()
	defer v.mu.Unlock()
	return pageCount(total, v.size)
}

// Total returns the number of users after filtering.
func (v *View) Total() int {
	return len(v.visible())
}

// Rows returns the current page, newest user first.
func (v *View) Rows() []Row {
	users := v.visible()
	v.mu.Lock()
	page, size := clamp(v.page, pageCount(len(users), v.size)), v.size
	v.mu.Unlock()
	return slice(users, page, size)
}

// Edit opens the bound form for id.
func (v *View) Edit(id string) error {
	if v.form == nil {
		return errors.New("no form bound to view")
	}
	v.form.Open(id)
	return nil
}

// Delete removes id through the store, without confirmation.
func (v *View) Delete(ctx context.Context, id string) error {
	return v.source.Delete(ctx, id)
}

// Render writes the loading indicator, the empty state, or the current page
// followed by the pagination footer.
func (v *View) Render(w io.Writer) error {
	st := v.source.State()
	if st.Loading {
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}

	users := v.apply(st.Users)
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users found.")
		return err
	}

	v.mu.Lock()
	size := v.size
	page := clamp(v.page, pageCount(len(users), size))
	v.mu.Unlock()
	rows := slice(users, page, size)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tEMAIL\tPHONE\tSCHOOL\tROLE\tID")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Number, r.FullName(), r.Email, r.Phone, r.School, r.Role, r.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	first := page*size + 1
	last := first + len(rows) - 1
	_, err := fmt.Fprintf(w, "\nRows per page: %d  %d-%d of %d\n", size, first, last, len(users))
	return err
}

// visible returns the filtered collection, newest first.
func (v *View) visible() []user.User {
	return v.apply(v.source.State().Users)
}

func (v *View) apply(users []user.User) []user.User {
	v.mu.Lock()
	f := v.filter
	v.mu.Unlock()

	out := make([]user.User, 0, len(users))
	for i := len(users) - 1; i >= 0; i-- {
		u := users[i]
		if f != nil {
			ok, err := f.Match(u)
			if err != nil {
				v.logger.Warn("filter evaluation failed", "filter", f.String(), "id", u.ID, "error", err)
				continue
			}
			if !ok {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

func pageCount(total, size int) int {
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

func clamp(page, count int) int {
	if page < 0 {
		return 0
	}
	if page > count-1 {
		return count - 1
	}
	return page
}

func slice(users []user.User, page, size int) []Row {
	start := page * size
	if start >= len(users) {
		return []Row{}
	}
	end := start + size
	if end > len(users) {
		end = len(users)
	}
	rows := make([]Row, 0, end-start)
	for i, u := range users[start:end] {
		rows = append(rows, Row{Number: start + i + 1, User: u})
	}
	return rows
}
