package chain

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	chaindiff "github.com/verdant-cloud/verdant/internal/chaindef/diff"
	"github.com/verdant-cloud/verdant/pkg/db"
)

var diffPaths []string

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show changes between chain definitions and the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		desired, err := chaindiff.LoadDefinitions(diffPaths)
		if err != nil {
			return err
		}

		specs, err := chaindiff.LoadDatabaseSpecs(ctx, db.Connection())
		if err != nil {
			return err
		}

		result := chaindiff.Compare(desired, specs)
		printDiff(cmd, result)
		return nil
	},
}

func init() {
	diffCmd.Flags().StringSliceVarP(&diffPaths, "path", "p", nil, "Glob patterns matching chain definition files")
}

func printDiff(cmd *cobra.Command, diff chaindiff.Diff) {
	out := cmd.OutOrStdout()

	if diff.Empty() {
		writeLine(cmd, out, "No changes detected.\n")
		return
	}

	if len(diff.Creates) > 0 {
		writeLine(cmd, out, "Creates:\n")
		sort.Slice(diff.Creates, func(i, j int) bool { return diff.Creates[i].Name < diff.Creates[j].Name })
		for _, spec := range diff.Creates {
			writeLine(cmd, out, "  - %s\n", spec.Name)
		}
		writeLine(cmd, out, "\n")
	}

	if len(diff.Updates) > 0 {
		writeLine(cmd, out, "Updates:\n")
		sort.Slice(diff.Updates, func(i, j int) bool { return diff.Updates[i].Name < diff.Updates[j].Name })
		for _, upd := range diff.Updates {
			writeLine(cmd, out, "  - %s\n", upd.Name)
			diffText := indent(upd.Diff, "    ")
			writeLine(cmd, out, "%s\n", diffText)
		}
		writeLine(cmd, out, "\n")
	}

	if len(diff.Deletes) > 0 {
		writeLine(cmd, out, "Deletes:\n")
		sort.Slice(diff.Deletes, func(i, j int) bool { return diff.Deletes[i].Name < diff.Deletes[j].Name })
		for _, spec := range diff.Deletes {
			writeLine(cmd, out, "  - %s\n", spec.Name)
		}
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

func writeLine(cmd *cobra.Command, w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		cmd.PrintErrf("write output: %v\n", err)
	}
}
