package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepost/internal/models"
)

func TestInviteRepository_GetByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.InviteCode{Code: "ABCD1234"}).Error)

	invite, err := repo.GetByCode(ctx, "ABCD1234")
	require.NoError(t, err)
	require.NotNil(t, invite)
	assert.False(t, invite.IsUsed)

	invite, err = repo.GetByCode(ctx, "ZZZZ9999")
	require.NoError(t, err)
	assert.Nil(t, invite)
}

func TestInviteRepository_Consume(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "consumer")

	require.NoError(t, db.Create(&models.InviteCode{Code: "FRESH001"}).Error)

	require.NoError(t, repo.Consume(ctx, "FRESH001", user.ID))

	invite, err := repo.GetByCode(ctx, "FRESH001")
	require.NoError(t, err)
	require.NotNil(t, invite)
	assert.True(t, invite.IsUsed)
	require.NotNil(t, invite.UsedByUserID)
	assert.Equal(t, user.ID, *invite.UsedByUserID)
	assert.NotNil(t, invite.UsedAt)
}

func TestInviteRepository_Consume_AlreadyUsed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()
	first := createTestUser(t, db, "first")
	second := createTestUser(t, db, "second")

	require.NoError(t, db.Create(&models.InviteCode{Code: "ONCE0001"}).Error)
	require.NoError(t, repo.Consume(ctx, "ONCE0001", first.ID))

	err := repo.Consume(ctx, "ONCE0001", second.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ReasonInviteAlreadyUsed, appErr.Reason)

	// The winner's attribution is untouched.
	invite, err := repo.GetByCode(ctx, "ONCE0001")
	require.NoError(t, err)
	assert.Equal(t, first.ID, *invite.UsedByUserID)
}

func TestInviteRepository_Consume_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInviteRepository(db)
	user := createTestUser(t, db, "seeker")

	err := repo.Consume(context.Background(), "MISSING1", user.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ReasonInviteNotFound, appErr.Reason)
}

func TestInviteRepository_CreateBatchAndCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	codes := []models.InviteCode{
		{Code: "BULK0001"},
		{Code: "BULK0002"},
		{Code: "BULK0003"},
	}
	require.NoError(t, repo.CreateBatch(ctx, codes, 2))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	user := createTestUser(t, db, "batcher")
	require.NoError(t, repo.Consume(ctx, "BULK0002", user.ID))

	unused, err := repo.CountUnused(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unused)
}

func TestInviteRepository_CreateBatch_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInviteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateBatch(ctx, []models.InviteCode{{Code: "DUP00001"}}, 10))
	err := repo.CreateBatch(ctx, []models.InviteCode{{Code: "DUP00001"}}, 10)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}
