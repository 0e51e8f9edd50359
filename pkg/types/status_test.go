package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	require.Equal(t, StatusOK, StatusOf(nil))
	require.Equal(t, StatusFailed, StatusOf(errors.New("plain")))
	require.Equal(t, StatusInvalidRead, StatusOf(ErrInvalidRead))

	wrapped := fmt.Errorf("reading chunk 3: %w", NewError(StatusInvalidLength, "chunk", nil))
	require.Equal(t, StatusInvalidLength, StatusOf(wrapped))
	require.ErrorIs(t, wrapped, ErrInvalidLength)
	require.NotErrorIs(t, wrapped, ErrInvalidRead)
}

func TestErrorMessage(t *testing.T) {
	e := NewError(StatusBadAlloc, "blend: allocation refused", errors.New("size 10 exceeds limit 5"))
	assert.Equal(t, "blend: allocation refused: size 10 exceeds limit 5", e.Error())
	assert.Equal(t, "bad alloc", e.Status.String())

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
}

func TestLimitsOrDefault(t *testing.T) {
	var nilLimits *Limits
	require.Equal(t, DefaultLimits(), nilLimits.OrDefault())

	l := &Limits{MaxTableEntries: 8}
	got := l.OrDefault()
	require.Equal(t, 8, got.MaxTableEntries)
	require.Equal(t, DefaultMaxEmbedDepth, got.MaxEmbedDepth)
}

func TestReport(t *testing.T) {
	r := NewReport()
	require.Equal(t, "no issues\n", r.FormatText())

	r.Add(Diagnostic{Severity: SevWarning, Category: DiagLink, Structure: "Foo", Field: "c", Issue: "missing in file"})
	r.Add(Diagnostic{Severity: SevError, Category: DiagSchema, Structure: "Bar", Issue: "misaligned", Expected: 8, Actual: 12})

	require.Equal(t, 2, r.Len())
	require.True(t, r.HasErrors())
	require.Len(t, r.Filter(DiagLink), 1)
	require.Equal(t, "[error/schema] Bar: misaligned (expected 8, got 12)", r.Filter(DiagSchema)[0].String())

	text := r.FormatText()
	require.Contains(t, text, "Foo.c: missing in file")

	js, err := r.FormatJSON()
	require.NoError(t, err)
	require.Contains(t, js, `"warnings": 1`)
}
