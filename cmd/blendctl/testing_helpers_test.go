package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/sdna"
)

// danglingParent is an address no chunk claims.
const danglingParent = 0xdead0

// writeScene writes a native file with one Material and one Object whose
// parent pointer dangles, and returns its path.
func writeScene(t *testing.T) string {
	t.Helper()
	ptr := strconv.IntSize / 8
	e := buf.NativeEndian()
	order := e.Order()

	schema := sdna.NewBuilder(ptr).
		Struct("ID", "void *next", "char name[24]", "int us", "int pad").
		Struct("Material", "ID id", "float r", "float g", "float b").
		Struct("Object", "ID id", "float loc[3]", "Material *mat", "Object *parent")
	tab, err := schema.Table(sdna.Options{Endian: e, PointerSize: ptr})
	require.NoError(t, err)
	blob, err := schema.Bytes(e)
	require.NoError(t, err)

	putPtr := func(b []byte, v uint64) {
		if ptr == 8 {
			order.PutUint64(b, v)
		} else {
			order.PutUint32(b, uint32(v))
		}
	}

	ma := tab.StructByName("Material")
	maData := make([]byte, ma.Length)
	copy(maData[ptr:], "MAsteel")

	ob := tab.StructByName("Object")
	obData := make([]byte, ob.Length)
	copy(obData[ptr:], "OBcube")
	putPtr(obData[ob.Field("mat").Offset:], 0x2000)
	putPtr(obData[ob.Field("parent").Offset:], danglingParent)

	var out bytes.Buffer
	w, err := chunk.NewWriter(&out, chunk.FileHeader{
		Magic: chunk.DefaultMagic, PointerSize: ptr, Endian: e, Version: 280,
	})
	require.NoError(t, err)
	require.NoError(t, w.Write(chunk.Header{Code: chunk.MakeCode("MA"), OldAddress: 0x2000, TypeID: uint32(ma.ID), Count: 1}, maData))
	require.NoError(t, w.Write(chunk.Header{Code: chunk.MakeCode("OB"), OldAddress: 0x1000, TypeID: uint32(ob.ID), Count: 1}, obData))
	require.NoError(t, w.Write(chunk.Header{Code: chunk.CodeDNA1, Count: 1}, blob))
	require.NoError(t, w.End())

	path := filepath.Join(t.TempDir(), "scene.blend")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
	return path
}

// resetFlags restores every package-level flag to its default.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		verbose, quiet, jsonOut = false, false, false
		magic = chunk.DefaultMagic
		chunksCode = ""
		schemaStruct, schemaFlat, schemaMemory = "", false, false
		reflectCompress, reflectVersion = "none", 0
	}
	reset()
	t.Cleanup(reset)
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var b bytes.Buffer
	_, err = b.ReadFrom(r)
	require.NoError(t, err)
	return b.String(), fnErr
}

// assertJSON checks that output is valid JSON and decodes it into v.
func assertJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "output: %s", output)
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected ...string) {
	t.Helper()
	for _, want := range expected {
		require.True(t, strings.Contains(output, want), "output missing %q\nGot: %s", want, output)
	}
}

