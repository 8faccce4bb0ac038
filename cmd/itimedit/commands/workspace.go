package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace [personal|team]",
	Short: "Show or switch the active workspace",
	Long: `Show the active workspace, or switch between the personal workspace and
the team workspace. Switching while a session runs stops the session
first so its time is recorded in the workspace it was started in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWorkspace,
}

var workspaceOrgCmd = &cobra.Command{
	Use:   "org <orgID>",
	Short: "Switch to a specific organization in the team workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		if err := app.workspace.SwitchOrganization(cmd.Context(), args[0]); err != nil {
			return err
		}
		scope := app.workspace.Scope()
		if scope.IsTeam() {
			fmt.Printf("Switched to organization %s\n", scope.OrgID)
		} else {
			// Permission fallback landed us in the personal workspace.
			fmt.Println("Not a member of that organization, using personal workspace.")
		}
		return nil
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceOrgCmd)
}

func runWorkspace(cmd *cobra.Command, args []string) error {
	app, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.teardown()

	if len(args) == 0 {
		scope := app.workspace.Scope()
		if scope.IsTeam() {
			fmt.Printf("Active workspace: team (%s)\n", scope.OrgID)
		} else {
			fmt.Println("Active workspace: personal")
		}
		for _, m := range app.workspace.Memberships() {
			fmt.Printf("  member of %s (%s) as %s\n", m.Organization.Name, m.Organization.ID, m.Role)
		}
		return nil
	}

	var target types.ScopeKind
	switch args[0] {
	case "personal":
		target = types.ScopePersonal
	case "team":
		target = types.ScopeTeam
	default:
		return fmt.Errorf("unknown workspace %q (want personal or team)", args[0])
	}

	if err := app.workspace.SwitchWorkspace(cmd.Context(), target); err != nil {
		return err
	}
	fmt.Printf("Switched to %s workspace\n", target)
	return nil
}
