package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"courier/internal/app"
)

// version: print the broker version.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the broker version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(app.Version)
		},
	}
}
