package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/blendkit/pkg/blend"
)

var chunksCode string

// Chunks whose type id does not name a struct.
var (
	codeDNA1 = blend.MakeCode("DNA1")
	codeENDB = blend.MakeCode("ENDB")
)

func init() {
	cmd := newChunksCmd()
	cmd.Flags().StringVar(&chunksCode, "code", "", "Only list chunks with this code (e.g. OB, DATA)")
	rootCmd.AddCommand(cmd)
}

func newChunksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chunks <file>",
		Short: "List the chunks of a file",
		Long: `The chunks command lists every chunk in file order with its code,
struct type, record count, payload length and old address.

Example:
  blendctl chunks scene.blend
  blendctl chunks scene.blend --code OB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunks(args)
		},
	}
}

type chunkRow struct {
	Offset     int64  `json:"offset"`
	Code       string `json:"code"`
	Type       string `json:"type"`
	Count      uint32 `json:"count"`
	Length     uint32 `json:"length"`
	OldAddress string `json:"old_address"`
}

func runChunks(args []string) error {
	f, err := openFile(args[0], parseOptions())
	if err != nil {
		return err
	}
	structs := f.FileStructs()
	filter := blend.MakeCode(chunksCode)

	var rows []chunkRow
	for _, c := range f.Chunks() {
		if chunksCode != "" && c.Code != filter {
			continue
		}
		row := chunkRow{
			Offset:     c.Offset,
			Code:       c.Code.String(),
			Count:      c.Count,
			Length:     c.Length,
			OldAddress: fmt.Sprintf("%#x", c.OldAddress),
		}
		if c.Code != codeDNA1 && c.Code != codeENDB && int(c.TypeID) < len(structs) {
			row.Type = structs[c.TypeID].Name
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}
	printInfo("%-10s %-6s %-24s %8s %10s  %s\n", "OFFSET", "CODE", "TYPE", "COUNT", "LENGTH", "ADDRESS")
	for _, r := range rows {
		printInfo("%-10d %-6s %-24s %8d %10d  %s\n", r.Offset, r.Code, r.Type, r.Count, r.Length, r.OldAddress)
	}
	printVerbose("%d chunk(s)\n", len(rows))
	return nil
}
