package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunPurgeDeletionAudits(t *testing.T) {
	ctx := context.Background()

	t.Run("purges expired records", func(t *testing.T) {
		uc := &mockRetentionPurgeUseCase{}
		uc.On("Run", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil).Once()

		var out bytes.Buffer
		err := RunPurgeDeletionAudits(ctx, uc, testLogger(), &out, false, "text")
		require.NoError(t, err)

		assert.Equal(t, "Deleted 3 expired deletion audit record(s)\n", out.String())
		uc.AssertExpectations(t)
		uc.AssertNotCalled(t, "DryRun", mock.Anything, mock.Anything)
	})

	t.Run("dry run only counts", func(t *testing.T) {
		uc := &mockRetentionPurgeUseCase{}
		uc.On("DryRun", ctx, mock.AnythingOfType("time.Time")).Return(int64(7), nil).Once()

		var out bytes.Buffer
		err := RunPurgeDeletionAudits(ctx, uc, testLogger(), &out, true, "json")
		require.NoError(t, err)

		var result PurgeResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Equal(t, int64(7), result.Count)
		assert.True(t, result.DryRun)
		assert.WithinDuration(t, time.Now().UTC(), result.AsOf, time.Minute)
		uc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("use case error", func(t *testing.T) {
		uc := &mockRetentionPurgeUseCase{}
		uc.On("Run", ctx, mock.Anything).Return(int64(0), errors.New("db down")).Once()

		err := RunPurgeDeletionAudits(ctx, uc, testLogger(), &bytes.Buffer{}, false, "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("invalid format", func(t *testing.T) {
		err := RunPurgeDeletionAudits(ctx, &mockRetentionPurgeUseCase{}, testLogger(), &bytes.Buffer{}, false, "yaml")
		require.Error(t, err)
	})
}
