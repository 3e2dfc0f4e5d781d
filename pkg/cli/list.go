package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/userdesk/userdesk/pkg/cli/internal/output"
	"github.com/userdesk/userdesk/pkg/listview"
	"github.com/userdesk/userdesk/pkg/metrics"
	"github.com/userdesk/userdesk/pkg/notify"
	"github.com/userdesk/userdesk/pkg/store"
)

// ListOutput is the JSON form of one list page.
type ListOutput struct {
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
	PageCount int            `json:"pageCount"`
	Total     int            `json:"total"`
	Rows      []listview.Row `json:"rows"`
}

type listOptions struct {
	page        int
	size        int
	filter      string
	watch       time.Duration
	metricsAddr string
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, newest first",
		Long: `List users, newest first, one page at a time.

Examples:
  # First page, 5 rows
  userdesk list

  # Second page of 10
  userdesk list --page 2 --size 10

  # Only admins from one school
  userdesk list --filter 'role == "Admin" && school contains "BDU"'

  # Refresh every 5 seconds
  userdesk list --watch 5s

  # Refresh and expose store metrics for Prometheus
  userdesk list --watch 5s --metrics-addr localhost:9400`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runList(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&opts.size, "size", 0, "Rows per page: 5 or 10 (default from config)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter expression, e.g. role == \"Admin\"")
	cmd.Flags().DurationVar(&opts.watch, "watch", 0, "Refetch and redraw at this interval until interrupted")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve store metrics on this address at /metrics")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, opts listOptions) error {
	ctx := commandContext(cmd)

	// In text watch mode notices travel on a bus so the loop can print them
	// between frames. A nil channel never delivers, which suits JSON mode.
	var sessionOpts []sessionOption
	var notices notify.Subscriber
	if opts.watch > 0 && !a.jsonOutput() {
		bus := notify.NewBus()
		var unsubscribe func()
		notices, unsubscribe = bus.Subscribe()
		defer unsubscribe()
		sessionOpts = append(sessionOpts, withSink(bus))
	}
	if opts.metricsAddr != "" {
		reg := metrics.NewStoreRegistry()
		addr, stop, err := a.serveMetrics(opts.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
		a.logger.Info("serving store metrics", "addr", addr)
		fmt.Fprintf(cmd.ErrOrStderr(), "Store metrics: http://%s/metrics\n", addr)
		sessionOpts = append(sessionOpts, withObserver(reg.StoreObserver()))
	}
	s := a.newSession(cmd, sessionOpts...)

	size := opts.size
	if size == 0 {
		size = a.cfg.PageSize
	}
	if err := s.view.SetPageSize(size); err != nil {
		return err
	}
	if err := s.view.SetFilter(opts.filter); err != nil {
		return err
	}

	if err := s.view.Mount(ctx); err != nil {
		printPending(cmd.OutOrStdout(), notices)
		return a.storeError(err)
	}
	s.view.SetPage(opts.page - 1)

	if opts.watch > 0 {
		return a.watchList(ctx, cmd.OutOrStdout(), s, notices, opts)
	}
	if opts.filter != "" && s.view.Total() == 0 {
		if held := len(s.store.State().Users); held > 0 {
			output.Warn(cmd.ErrOrStderr(), "filter %q matches none of the %d users", opts.filter, held)
		}
	}
	return a.renderList(cmd.OutOrStdout(), s.view)
}

// serveMetrics exposes reg on addr until stop is called. It returns the bound
// address, which differs from addr when addr asks for port 0.
func (a *app) serveMetrics(addr string, reg *metrics.Registry) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	r := chi.NewRouter()
	r.Handle("/metrics", reg.Handler())
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return ln.Addr().String(), stop, nil
}

func (a *app) renderList(w io.Writer, v *listview.View) error {
	if a.jsonOutput() {
		return output.JSON(w, ListOutput{
			Page:      v.Page() + 1,
			PageSize:  v.PageSize(),
			PageCount: v.PageCount(),
			Total:     v.Total(),
			Rows:      v.Rows(),
		})
	}
	return v.Render(w)
}

// printPending writes the notices already queued on sub.
func printPending(w io.Writer, sub notify.Subscriber) {
	sink := notify.WriterSink(w)
	for {
		select {
		case n, ok := <-sub:
			if !ok {
				return
			}
			sink.Notify(context.Background(), n)
		default:
			return
		}
	}
}

// watchList refetches every interval and redraws whenever the rendered page
// changes. Notices are printed under the current frame as they arrive, so a
// failing refetch shows up even though the page itself did not change.
func (a *app) watchList(ctx context.Context, w io.Writer, s *session, notices notify.Subscriber, opts listOptions) error {
	printNotice := notify.WriterSink(w)

	changed := make(chan struct{}, 1)
	stopWatching := s.store.Subscribe(func(st store.State) {
		if st.Loading {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer stopWatching()

	ticker := time.NewTicker(opts.watch)
	defer ticker.Stop()

	var last []byte
	draw := func() error {
		var buf bytes.Buffer
		if err := a.renderList(&buf, s.view); err != nil {
			return err
		}
		if bytes.Equal(buf.Bytes(), last) {
			return nil
		}
		last = buf.Bytes()
		if !a.jsonOutput() {
			fmt.Fprintf(w, "--- %s ---\n", time.Now().Format(time.TimeOnly))
		}
		_, err := w.Write(last)
		return err
	}

	if err := draw(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// A failure is recorded in the store state and noticed on the bus.
			_ = s.store.FetchAll(ctx)
		case <-changed:
			if err := draw(); err != nil {
				return err
			}
		case n, ok := <-notices:
			if !ok {
				return nil
			}
			printNotice.Notify(ctx, n)
		}
	}
}
