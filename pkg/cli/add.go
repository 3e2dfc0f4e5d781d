package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/userdesk/userdesk/pkg/cli/internal/output"
	"github.com/userdesk/userdesk/pkg/form"
	"github.com/userdesk/userdesk/pkg/user"
)

// fieldFlags maps user field keys to their flag names, in form order.
var fieldFlags = []struct {
	key, flag, usage string
}{
	{user.FieldName, "name", "First name"},
	{user.FieldLastName, "last-name", "Last name"},
	{user.FieldAvatar, "avatar", "Avatar image URL"},
	{user.FieldSchool, "school", "School"},
	{user.FieldPhone, "phone", "Phone, '+' followed by 12 digits"},
	{user.FieldEmail, "email", "Email address"},
	{user.FieldRole, "role", "Role: Admin, User or Moderator"},
}

// fieldValues holds the flag targets for one add or edit command.
type fieldValues map[string]*string

func bindFieldFlags(flags *pflag.FlagSet) fieldValues {
	values := make(fieldValues, len(fieldFlags))
	for _, f := range fieldFlags {
		values[f.key] = flags.String(f.flag, "", f.usage)
	}
	return values
}

// apply copies every flag the user set into the open form and reports
// whether any was set. Role values are normalized when they name a known role.
func (v fieldValues) apply(flags *pflag.FlagSet, c *form.Controller) (bool, error) {
	set := false
	for _, f := range fieldFlags {
		if !flags.Changed(f.flag) {
			continue
		}
		set = true
		value := *v[f.key]
		if f.key == user.FieldRole {
			if r, err := user.ParseRole(value); err == nil {
				value = string(r)
			}
		}
		if err := c.Set(f.key, value); err != nil {
			return set, err
		}
	}
	return set, nil
}

func newAddCmd(a *app) *cobra.Command {
	var values fieldValues

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new user",
		Long: `Add a new user. Without field flags an interactive form is shown.

Examples:
  # Interactive
  userdesk add

  # Non-interactive
  userdesk add --name Ada --last-name Lovelace --avatar https://example.com/ada.png \
    --school BDU --phone +994556666666 --email ada@example.com --role admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.newSession(cmd)
			s.form.Open("")
			if err := a.fillForm(cmd, s.form, values); err != nil {
				return err
			}
			return a.submitForm(cmd, s)
		},
	}
	values = bindFieldFlags(cmd.Flags())
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var values fieldValues

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an existing user",
		Long: `Edit an existing user. Only the fields passed as flags change.
Without field flags an interactive form prefilled with the current values is shown.

Examples:
  userdesk edit 3 --school MIT
  userdesk edit 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			s := a.newSession(cmd)
			if err := s.view.Mount(commandContext(cmd)); err != nil {
				return a.storeError(err)
			}
			if _, ok := s.store.Find(id); !ok {
				return fmt.Errorf("user %q not found", id)
			}
			if err := s.view.Edit(id); err != nil {
				return err
			}
			if err := a.fillForm(cmd, s.form, values); err != nil {
				return err
			}
			return a.submitForm(cmd, s)
		},
	}
	values = bindFieldFlags(cmd.Flags())
	return cmd
}

// fillForm applies the field flags, or prompts for every field when none
// was given and stdin is a terminal.
func (a *app) fillForm(cmd *cobra.Command, c *form.Controller, values fieldValues) error {
	changed, err := values.apply(cmd.Flags(), c)
	if err != nil {
		return err
	}
	if changed {
		return nil
	}
	if !a.interactive() {
		return ErrNoFields
	}
	return promptFields(c)
}

// submitForm submits the open form and waits for the store to settle.
func (a *app) submitForm(cmd *cobra.Command, s *session) error {
	ctx := commandContext(cmd)
	p, err := s.form.Submit(ctx)
	if errors.Is(err, form.ErrInvalid) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Invalid user:")
		printFieldErrors(cmd.ErrOrStderr(), s.form.Errors())
		return reported(err)
	}
	if err != nil {
		return err
	}
	if err := p.Wait(); err != nil {
		return a.storeError(err)
	}

	if !a.jsonOutput() {
		return nil
	}
	if p.Mode == form.ModeEdit {
		u, _ := s.store.Find(p.ID)
		return output.JSON(cmd.OutOrStdout(), u)
	}
	// A create is appended, so the newest user is last.
	users := s.store.Users()
	if len(users) == 0 {
		return output.JSON(cmd.OutOrStdout(), nil)
	}
	return output.JSON(cmd.OutOrStdout(), users[len(users)-1])
}
