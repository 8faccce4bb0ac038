package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		favs, err := app.prefs.Favorites(cmd.Context())
		if err != nil {
			return err
		}
		if len(favs) == 0 {
			fmt.Println("No favorite projects.")
			return nil
		}
		for _, id := range favs {
			fmt.Println(id)
		}
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <projectID>",
	Short: "Add a project to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		if err := app.prefs.AddFavorite(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Added %s to favorites\n", args[0])
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <projectID>",
	Short: "Remove a project from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.teardown()

		if err := app.prefs.RemoveFavorite(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s from favorites\n", args[0])
		return nil
	},
}

func init() {
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
}
