package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session and workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		scope := app.workspace.Scope()
		if scope.IsTeam() {
			fmt.Printf("Workspace: team (%s)\n", scope.OrgID)
		} else {
			fmt.Println("Workspace: personal")
		}

		cur := app.controller.Current()
		if cur == nil {
			fmt.Println("Session:   none")
			return nil
		}

		fmt.Printf("Session:   %s on %s (%s)\n",
			app.controller.State(), cur.ProjectID, formatElapsed(app.controller.Elapsed()))
		if cur.Pomodoro && cur.PomodoroPhase != "" {
			fmt.Printf("Pomodoro:  %s phase\n", cur.PomodoroPhase)
		}
		if app.controller.NetworkError() {
			fmt.Println("Warning:   last heartbeat failed")
		}
		return nil
	},
}
