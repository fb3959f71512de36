package chain

import "github.com/spf13/cobra"

// Cmd is the parent command for chain definition operations.
var Cmd = &cobra.Command{
	Use:   "chain",
	Short: "Manage chain definitions",
}

func init() {
	Cmd.AddCommand(diffCmd)
}
