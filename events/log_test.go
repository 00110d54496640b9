package events_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisdao/polis-node/events"
)

func block(height uint64, eventType string) events.BlockEvents {
	return events.BlockEvents{
		Height: height,
		Time:   time.Unix(int64(height), 0).UTC(),
		Events: []abcitypes.Event{{Type: eventType}},
	}
}

func TestLogAppendAndReadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	l, err := events.OpenLog(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append(block(0, "created")))
	require.NoError(t, l.Append(block(1, "transfer")))
	require.NoError(t, l.Append(block(2, "voted")))

	all, err := l.ReadFrom(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(0), all[0].Height)
	assert.Equal(t, "created", all[0].Events[0].Type)

	tail, err := l.ReadFrom(2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, uint64(2), tail[0].Height)
}

// A reader opened before the writer appends must still see the new lines:
// the indexer polls a log the node keeps extending.
func TestReaderSeesLaterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	r := events.NewReader(path)

	got, err := r.ReadFrom(0)
	require.NoError(t, err)
	assert.Nil(t, got, "missing file reads as empty")

	l, err := events.OpenLog(path)
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.Append(block(0, "created")))

	got, err = r.ReadFrom(0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, l.Append(block(1, "voted")))
	got, err = r.ReadFrom(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "voted", got[0].Events[0].Type)
}

func TestReaderCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0o644))
	_, err := events.NewReader(path).ReadFrom(0)
	assert.ErrorContains(t, err, "corrupt event log")
}
