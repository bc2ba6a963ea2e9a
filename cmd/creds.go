package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tuxkal/drainpipe/internal/creds"
	"github.com/tuxkal/drainpipe/internal/output"
)

func newCredsCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Show or clear stored upload credentials",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			path, err := creds.DefaultPath()
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to resolve credential store: %v", err))
				os.Exit(1)
			}
			if clear {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					output.PrintError(fmt.Sprintf("Failed to clear credentials: %v", err))
					os.Exit(1)
				}
				output.PrintSuccess("Stored credentials cleared")
				return
			}
			output.PrintDetail(fmt.Sprintf("Credential store: %s", path))
			c, err := creds.Load(path)
			if err != nil || !c.Complete() {
				output.PrintWarning("No stored credentials")
				return
			}
			output.PrintInfo(fmt.Sprintf("Stored credentials for %s", c.Username))
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Remove stored credentials")
	return cmd
}
