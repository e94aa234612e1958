package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmatc13/ledgerflow/pkg/errors"
)

func TestMemoryJournalRecordAndGet(t *testing.T) {
	j := NewMemoryJournal()
	defer j.Close()
	ctx := context.Background()

	_, err := j.Get(ctx, "addr-1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	entry := Entry{
		SubmissionID: "sub-1",
		Address:      "addr-1",
		State:        "SIGNED",
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, j.Record(ctx, entry))

	got, err := j.Get(ctx, "addr-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", got.SubmissionID)
	assert.Equal(t, "SIGNED", got.State)
}

func TestMemoryJournalUpsertsByAddress(t *testing.T) {
	j := NewMemoryJournal()
	defer j.Close()
	ctx := context.Background()

	states := []string{"SIGNED", "BROADCAST", "EXECUTED"}
	for _, state := range states {
		require.NoError(t, j.Record(ctx, Entry{
			SubmissionID: "sub-1",
			Address:      "addr-1",
			State:        state,
			UpdatedAt:    time.Now(),
		}))
	}

	got, err := j.Get(ctx, "addr-1")
	require.NoError(t, err)
	assert.Equal(t, "EXECUTED", got.State)
}
