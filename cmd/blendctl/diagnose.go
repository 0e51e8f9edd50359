package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDiagnoseCmd())
}

func newDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose <file>",
		Short: "Report fields, chunks and pointers the parse had to drop",
		Long: `The diagnose command parses a file and prints every degraded event:
misaligned structs, fields without a counterpart, dropped chunks and
pointers that resolved to nothing.

Example:
  blendctl diagnose scene.blend
  blendctl diagnose scene.blend --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(args)
		},
	}
}

func runDiagnose(args []string) error {
	f, err := openFile(args[0], parseOptions())
	if err != nil {
		return err
	}
	report := f.Diagnostics()
	if jsonOut {
		out, err := report.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	printInfo("%s", report.FormatText())
	return nil
}
