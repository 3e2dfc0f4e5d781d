package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/userdesk/userdesk/pkg/validation"
)

// errReported marks an error whose message has already been shown to the
// user, through a notification or a field error list.
var errReported = errors.New("already reported")

// Common CLI errors
var (
	ErrNoFields = errors.New("no user fields given: pass field flags (--name, --email, ...) or run in a terminal")
)

func reported(err error) error {
	return fmt.Errorf("%w: %w", errReported, err)
}

// storeError returns a rejected store operation's error. In text mode the
// failure notice has already been printed, so only the exit status remains.
func (a *app) storeError(err error) error {
	if a.jsonOutput() {
		return err
	}
	return reported(err)
}

// printFieldErrors lists validation failures one per line, e.g.
//
//	phone: '+' must be the first character
func printFieldErrors(w io.Writer, errs []*validation.FieldError) {
	for _, fe := range errs {
		fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
	}
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
