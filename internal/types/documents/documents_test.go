package documents

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/types"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Study")
	require.NoError(t, err)
	assert.Equal(t, KindStudy, k)
	assert.Equal(t, "study_materials", k.Table())

	k, err = ParseKind("class")
	require.NoError(t, err)
	assert.Equal(t, "class_materials", k.Table())

	_, err = ParseKind("lecture")
	assert.ErrorIs(t, err, types.ErrInvalidKind)
}

func TestTransitions(t *testing.T) {
	all := []Status{StatusDraft, StatusPending, StatusPublished, StatusRejected}
	for _, from := range all {
		for _, to := range all {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition(StatusDraft, Status("archived")))
	assert.False(t, CanTransition(Status("archived"), StatusDraft))

	err := CheckTransition(StatusPublished, Status("archived"))
	var invalid *types.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "published", invalid.From)
	assert.Equal(t, "archived", invalid.To)
}

func TestBulkActionTargets(t *testing.T) {
	s, ok := BulkApprove.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusPublished, s)

	s, ok = BulkUnpublish.TargetStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusDraft, s)

	_, ok = BulkDelete.TargetStatus()
	assert.False(t, ok)
	assert.False(t, BulkAction("archive").Valid())
}
