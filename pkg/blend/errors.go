package blend

import (
	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/link"
	"github.com/joshuapare/blendkit/internal/migrate"
	"github.com/joshuapare/blendkit/internal/sdna"
	"github.com/joshuapare/blendkit/internal/stream"
	"github.com/joshuapare/blendkit/pkg/types"
)

var statusOf = []struct {
	err    error
	status types.Status
}{
	{chunk.ErrInvalidHeader, types.StatusInvalidHeader},
	{chunk.ErrInvalidLength, types.StatusInvalidLength},
	{chunk.ErrInvalidRead, types.StatusInvalidRead},
	{chunk.ErrTooLarge, types.StatusBadAlloc},
	{stream.ErrTooLarge, types.StatusBadAlloc},
	{migrate.ErrBadAlloc, types.StatusBadAlloc},
	{migrate.ErrDuplicateAddress, types.StatusInsertionFailed},
	{migrate.ErrUnlinked, types.StatusLinkFailed},
	{link.ErrConflict, types.StatusLinkFailed},
	{sdna.ErrMissingTag, types.StatusInvalidSchema},
	{sdna.ErrTruncated, types.StatusInvalidSchema},
	{sdna.ErrTableFull, types.StatusInvalidSchema},
	{sdna.ErrBadIndex, types.StatusInvalidSchema},
	{sdna.ErrDuplicate, types.StatusInvalidSchema},
}

// wrap attaches a public status to an internal error.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if te := (*types.Error)(nil); errors.As(err, &te) {
		return err
	}
	for _, m := range statusOf {
		if errors.Is(err, m.err) {
			return types.NewError(m.status, msg, err)
		}
	}
	return types.NewError(types.StatusFailed, msg, err)
}
