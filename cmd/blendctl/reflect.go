package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/blendkit/pkg/blend"
)

var (
	reflectCompress string
	reflectVersion  int
)

func init() {
	cmd := newReflectCmd()
	cmd.Flags().StringVar(&reflectCompress, "compress", "none", "Output compression: none, gzip, zstd")
	cmd.Flags().IntVar(&reflectVersion, "file-version", 0, "Version written to the header (default: input version)")
	rootCmd.AddCommand(cmd)
}

func newReflectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reflect <input> <output>",
		Short: "Re-write a file in this machine's byte order and pointer width",
		Long: `The reflect command parses a file, migrates every block into the
host layout and writes the blocks back out with the migrated schema.

Example:
  blendctl reflect old-ppc.blend native.blend
  blendctl reflect scene.blend scene.blend.zst --compress zstd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReflect(args)
		},
	}
}

func runReflect(args []string) error {
	in, out := args[0], args[1]
	c, err := blend.ParseCompression(reflectCompress)
	if err != nil {
		return err
	}
	opts := parseOptions()
	opts.Compression = c
	opts.Version = reflectVersion

	f, err := openFile(in, opts)
	if err != nil {
		return err
	}
	printVerbose("Writing: %s (%s)\n", out, c)
	if err := f.Reflect(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"input":  in,
			"output": out,
			"blocks": len(f.Blocks()),
		})
	}
	size := int64(0)
	if st, err := os.Stat(out); err == nil {
		size = st.Size()
	}
	printInfo("Wrote %d block(s) to %s (%s)\n", len(f.Blocks()), out, formatSize(size))
	return nil
}
