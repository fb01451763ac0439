package jobs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertOverwritesEveryMutableColumn(t *testing.T) {
	for _, col := range strings.Split(jobColumns, ",") {
		if col == "id" || col == "created_at" {
			assert.NotContains(t, upsertSQL, col+"=EXCLUDED."+col)
			continue
		}
		assert.Contains(t, upsertSQL, col+"=EXCLUDED."+col, col)
	}
	assert.Contains(t, upsertSQL, "$12)")
	assert.NotContains(t, upsertSQL, "$13")
}

func TestUpsertArgsFollowColumns(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	target := time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC)
	j := Job{ID: "job-1", UserID: "u", VenueID: "1505", Date: "2026-02-14", Hour: 20, Minute: 15, PartySize: 4, Status: StatusPending, TargetTimestamp: target}

	args := upsertArgs(j, now)
	require.Len(t, args, len(strings.Split(jobColumns, ",")))
	assert.Equal(t, "1505", args[2])
	assert.Equal(t, 20, args[4])
	assert.Equal(t, 4, args[6])
	assert.Equal(t, &target, args[10])
	assert.Equal(t, now, args[11])

	args = upsertArgs(Job{ID: "job-2"}, now)
	assert.Nil(t, args[10])
}
