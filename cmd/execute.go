package cmd

import (
	"github.com/spf13/cobra"
	"github.com/verdant-cloud/verdant/cmd/chain"
	"github.com/verdant-cloud/verdant/cmd/start"
)

var cmds = []*cobra.Command{
	start.Cmd,
	chain.Cmd,
}

// Execute builds the command tree and executes commands.
func Execute() error {
	command := &cobra.Command{
		Use: "verdant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}

	for _, c := range cmds {
		command.AddCommand(c)
	}

	return command.Execute()
}
