package repository

import (
	"context"
	"errors"
	"time"

	"gatepost/internal/models"

	"gorm.io/gorm"
)

// InviteRepository defines persistence operations for invite codes.
type InviteRepository interface {
	GetByCode(ctx context.Context, code string) (*models.InviteCode, error)
	// Consume marks the code used by the given user. It fails with an
	// InviteAlreadyUsed validation error if another registration won the
	// race, and InviteNotFound if the code does not exist.
	Consume(ctx context.Context, code string, userID uint) error
	CreateBatch(ctx context.Context, codes []models.InviteCode, batchSize int) error
	CountUnused(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) InviteRepository
}

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository returns a new InviteRepository implementation.
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) WithTx(tx *gorm.DB) InviteRepository {
	return &inviteRepository{db: tx}
}

// GetByCode returns (nil, nil) when no invite carries the given code.
func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*models.InviteCode, error) {
	var invite models.InviteCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &invite, nil
}

func (r *inviteRepository) Consume(ctx context.Context, code string, userID uint) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.InviteCode{}).
		Where("code = ? AND is_used = ?", code, false).
		Updates(map[string]interface{}{
			"is_used":         true,
			"used_by_user_id": userID,
			"used_at":         now,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		// The guarded update matched nothing: either the code never
		// existed or another registration consumed it first.
		invite, err := r.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if invite == nil {
			return models.NewFieldValidationError(models.ReasonInviteNotFound, "Invalid invite code")
		}
		return models.NewFieldValidationError(models.ReasonInviteAlreadyUsed, "Invite code already used")
	}
	return nil
}

func (r *inviteRepository) CreateBatch(ctx context.Context, codes []models.InviteCode, batchSize int) error {
	if len(codes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(codes, batchSize).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Invite code already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *inviteRepository) CountUnused(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InviteCode{}).
		Where("is_used = ?", false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *inviteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InviteCode{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
