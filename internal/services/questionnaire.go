package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/smart-advisor-backend/internal/clients/openai"
	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/repos"
	"github.com/yungbote/smart-advisor-backend/internal/types"
)

//go:embed questions.yaml
var defaultQuestionBank []byte

type questionBank struct {
	Shared []types.Question `yaml:"shared"`
	Movie  []types.Question `yaml:"movie"`
	Book   []types.Question `yaml:"book"`
}

type QuestionnaireService interface {
	// Questions returns AI-generated questions, or the embedded fallback
	// bank when the generator fails. The bool reports fallback use.
	Questions(ctx context.Context, contentType string, userAge int) ([]types.Question, bool, error)
	RecordResponse(ctx context.Context, userID uuid.UUID, contentType string, answers types.AnswerSet) (*types.QuestionnaireResponse, error)
}

type questionnaireService struct {
	db        *gorm.DB
	log       *logger.Logger
	generator openai.Client
	qrRepo    repos.QuestionnaireResponseRepo
	bank      questionBank
}

func NewQuestionnaireService(db *gorm.DB, log *logger.Logger, generator openai.Client, qrRepo repos.QuestionnaireResponseRepo) (QuestionnaireService, error) {
	serviceLog := log.With("service", "QuestionnaireService")
	var bank questionBank
	if err := yaml.Unmarshal(defaultQuestionBank, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse embedded question bank: %w", err)
	}
	return &questionnaireService{
		db:        db,
		log:       serviceLog,
		generator: generator,
		qrRepo:    qrRepo,
		bank:      bank,
	}, nil
}

func (qs *questionnaireService) Questions(ctx context.Context, contentType string, userAge int) ([]types.Question, bool, error) {
	questions, err := qs.generator.GenerateQuestions(ctx, contentType, userAge)
	if err == nil {
		return questions, false, nil
	}
	qs.log.Warn("Question generation failed, serving fallback bank", "content_type", contentType, "error", err)
	return qs.fallbackQuestions(contentType), true, nil
}

func (qs *questionnaireService) fallbackQuestions(contentType string) []types.Question {
	out := append([]types.Question{}, qs.bank.Shared...)
	switch contentType {
	case types.ContentTypeMovie:
		out = append(out, qs.bank.Movie...)
	case types.ContentTypeBook:
		out = append(out, qs.bank.Book...)
	default:
		out = append(out, qs.bank.Movie...)
		out = append(out, qs.bank.Book...)
	}
	return out
}

func (qs *questionnaireService) RecordResponse(ctx context.Context, userID uuid.UUID, contentType string, answers types.AnswerSet) (*types.QuestionnaireResponse, error) {
	serialized, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize answers: %w", err)
	}
	row := &types.QuestionnaireResponse{
		ID:          uuid.New(),
		UserID:      userID,
		ContentType: contentType,
		Answers:     datatypes.JSON(serialized),
	}
	created, err := qs.qrRepo.Create(ctx, nil, []*types.QuestionnaireResponse{row})
	if err != nil {
		return nil, fmt.Errorf("failed to record questionnaire response: %w", err)
	}
	return created[0], nil
}
