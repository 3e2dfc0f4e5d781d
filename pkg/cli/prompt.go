package cli

import (
	"github.com/charmbracelet/huh"

	"github.com/userdesk/userdesk/pkg/form"
	"github.com/userdesk/userdesk/pkg/user"
	"github.com/userdesk/userdesk/pkg/validation"
)

// promptFields shows an interactive form prefilled with the controller's
// current values and copies the answers back into it.
func promptFields(c *form.Controller) error {
	current := c.Values()

	answers := make(map[string]*string, len(fieldFlags))
	var inputs []huh.Field
	for _, f := range fieldFlags {
		if f.key == user.FieldRole {
			continue
		}
		v, _ := current.Get(f.key)
		answers[f.key] = &v
		inputs = append(inputs, huh.NewInput().
			Title(validation.Label(f.key)).
			Description(f.usage).
			Value(answers[f.key]).
			Validate(validation.Func(f.key)))
	}

	role := string(current.Role)
	if role == "" {
		role = string(user.RoleUser)
	}
	answers[user.FieldRole] = &role
	options := make([]huh.Option[string], 0, len(user.Roles()))
	for _, r := range user.Roles() {
		options = append(options, huh.NewOption(string(r), string(r)))
	}
	inputs = append(inputs, huh.NewSelect[string]().
		Title(validation.Label(user.FieldRole)).
		Options(options...).
		Value(&role))

	if err := huh.NewForm(huh.NewGroup(inputs...)).Run(); err != nil {
		return err
	}

	for _, f := range fieldFlags {
		if err := c.Set(f.key, *answers[f.key]); err != nil {
			return err
		}
	}
	return nil
}
