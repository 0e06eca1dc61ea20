package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/types"
)

type QuestionnaireResponseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, responses []*types.QuestionnaireResponse) ([]*types.QuestionnaireResponse, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.QuestionnaireResponse, error)
}

type questionnaireResponseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionnaireResponseRepo(db *gorm.DB, baseLog *logger.Logger) QuestionnaireResponseRepo {
	repoLog := baseLog.With("repo", "QuestionnaireResponseRepo")
	return &questionnaireResponseRepo{db: db, log: repoLog}
}

func (qr *questionnaireResponseRepo) Create(ctx context.Context, tx *gorm.DB, responses []*types.QuestionnaireResponse) ([]*types.QuestionnaireResponse, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}
	if len(responses) == 0 {
		return []*types.QuestionnaireResponse{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (qr *questionnaireResponseRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.QuestionnaireResponse, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}
	var results []*types.QuestionnaireResponse
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
