package chain

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lintPaths []string

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate chain definition manifests",
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := collectDefinitions(lintPaths)
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No chain definitions found.")
			return nil
		}

		for _, def := range defs {
			if err := def.Validate(); err != nil {
				return fmt.Errorf("definition %s: %w", def.Metadata.Name, err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Validated %d chain definition(s)\n", len(defs))
		return nil
	},
}

func init() {
	lintCmd.Flags().StringSliceVarP(&lintPaths, "path", "p", nil, "Paths to chain definition files or directories (default: current directory)")
	Cmd.AddCommand(lintCmd)
}
