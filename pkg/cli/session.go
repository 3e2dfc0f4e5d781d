package cli

import (
	"github.com/spf13/cobra"

	"github.com/userdesk/userdesk/pkg/form"
	"github.com/userdesk/userdesk/pkg/listview"
	"github.com/userdesk/userdesk/pkg/notify"
	"github.com/userdesk/userdesk/pkg/store"
	"github.com/userdesk/userdesk/pkg/userclient"
)

// session is the client-side stack for one command: the resource client, the
// shared store, and the form and list bound to it.
type session struct {
	client *userclient.Client
	store  *store.Store
	form   *form.Controller
	view   *listview.View
}

type sessionConfig struct {
	sink     notify.Sink
	observer store.Observer
}

type sessionOption func(*sessionConfig)

// withSink replaces the default notification sink.
func withSink(s notify.Sink) sessionOption {
	return func(c *sessionConfig) { c.sink = s }
}

// withObserver records store transitions, e.g. into a metrics registry.
func withObserver(o store.Observer) sessionOption {
	return func(c *sessionConfig) { c.observer = o }
}

// newSession wires a session from the resolved configuration. Notifications
// are printed to stdout, or logged when JSON output keeps stdout for data.
func (a *app) newSession(cmd *cobra.Command, opts ...sessionOption) *session {
	var cfg sessionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sink == nil {
		if a.jsonOutput() {
			cfg.sink = notify.LogSink(a.logger)
		} else {
			cfg.sink = notify.WriterSink(cmd.OutOrStdout())
		}
	}

	client := userclient.New(a.cfg.APIServer,
		userclient.WithTimeout(a.cfg.Timeout),
		userclient.WithUserAgent("userdesk/"+Version),
	)
	st := store.New(client,
		store.WithNotifier(cfg.sink),
		store.WithObserver(cfg.observer),
		store.WithLogger(a.logger),
		store.WithFailureNotices(true),
	)
	f := form.New(st, form.WithLogger(a.logger))
	view := listview.New(st, listview.WithForm(f), listview.WithLogger(a.logger))

	return &session{client: client, store: st, form: f, view: view}
}
