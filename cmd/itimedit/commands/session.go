package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running session and record its time",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		cur := app.controller.Current()
		if cur == nil {
			fmt.Println("No session running.")
			return nil
		}
		if err := app.controller.StopTimer(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Stopped session on %s\n", cur.ProjectID)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the running session without recording time",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		cur := app.controller.Current()
		if cur == nil {
			fmt.Println("No session running.")
			return nil
		}
		if err := app.controller.ResetTimer(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Discarded session on %s\n", cur.ProjectID)
		return nil
	},
}

var ackStop bool

var ackCmd = &cobra.Command{
	Use:   "ack",
	Short: "Answer a pending still-working prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		if err := app.controller.AcknowledgeInterrupt(cmd.Context(), !ackStop); err != nil {
			return err
		}
		if ackStop {
			fmt.Println("Session stopped.")
		} else {
			fmt.Println("Still working, session continues.")
		}
		return nil
	},
}

func init() {
	ackCmd.Flags().BoolVar(&ackStop, "stop", false, "Stop the session instead of continuing")
}
