package cli

import (
	"github.com/spf13/cobra"

	"github.com/userdesk/userdesk/pkg/cli/internal/output"
)

// DeleteOutput is the JSON result of a delete.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a user",
		Long: `Delete a user by id. There is no confirmation prompt.

Examples:
  userdesk delete 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			s := a.newSession(cmd)
			if err := s.view.Delete(commandContext(cmd), id); err != nil {
				return a.storeError(err)
			}
			if a.jsonOutput() {
				return output.JSON(cmd.OutOrStdout(), DeleteOutput{ID: id, Deleted: true})
			}
			return nil
		},
	}
}
