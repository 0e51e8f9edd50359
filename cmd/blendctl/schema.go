package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/blendkit/pkg/blend"
)

var (
	schemaStruct string
	schemaFlat   bool
	schemaMemory bool
)

func init() {
	cmd := newSchemaCmd()
	cmd.Flags().StringVar(&schemaStruct, "struct", "", "Only show this struct")
	cmd.Flags().BoolVar(&schemaFlat, "names", false, "Only list struct names and sizes")
	cmd.Flags().BoolVar(&schemaMemory, "memory", false, "Show the schema blocks were migrated into")
	rootCmd.AddCommand(cmd)
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file>",
		Short: "Print the schema embedded in a file",
		Long: `The schema command prints every struct of the file's embedded schema
with its flattened fields, their offsets, lengths and flags.

Example:
  blendctl schema scene.blend --struct Object
  blendctl schema scene.blend --names
  blendctl schema scene.blend --memory --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(args)
		},
	}
}

func runSchema(args []string) error {
	f, err := openFile(args[0], parseOptions())
	if err != nil {
		return err
	}
	all := f.FileStructs()
	if schemaMemory {
		all = f.MemoryStructs()
	}
	var structs []blend.StructInfo
	for _, s := range all {
		if schemaStruct == "" || s.Name == schemaStruct {
			structs = append(structs, s)
		}
	}
	if schemaStruct != "" && len(structs) == 0 {
		return fmt.Errorf("struct %q not found", schemaStruct)
	}

	if jsonOut {
		return printJSON(structs)
	}
	for _, s := range structs {
		printInfo("%s (%d bytes", s.Name, s.Length)
		if s.Size != s.Length {
			printInfo(", fields sum to %d", s.Size)
		}
		printInfo(")")
		if s.Flags != "-" {
			printInfo(" [%s]", s.Flags)
		}
		printInfo("\n")
		if schemaFlat {
			continue
		}
		for _, fl := range s.Fields {
			printInfo("  %6d %6d  %-12s %-28s %s", fl.Offset, fl.Length, fl.Type, fl.Path, fl.Flags)
			if fl.Linked != "" && fl.Linked != fl.Path {
				printInfo("  -> %s", fl.Linked)
			}
			printInfo("\n")
		}
	}
	return nil
}
