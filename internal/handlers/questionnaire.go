package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/smart-advisor-backend/internal/services"
)

type QuestionnaireHandler struct {
	questionnaireService services.QuestionnaireService
}

func NewQuestionnaireHandler(questionnaireService services.QuestionnaireService) *QuestionnaireHandler {
	return &QuestionnaireHandler{questionnaireService: questionnaireService}
}

// POST /api/questionnaire/questions
func (qh *QuestionnaireHandler) GetQuestions(c *gin.Context) {
	var req struct {
		ContentType string `json:"content_type" binding:"required,oneof=movie book both"`
		UserAge     int    `json:"user_age"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	questions, fallback, err := qh.questionnaireService.Questions(c.Request.Context(), req.ContentType, req.UserAge)
	if err != nil {
		RespondError(c, http.StatusBadGateway, "question_generation_failed", err)
		return
	}
	RespondOK(c, gin.H{"questions": questions, "fallback": fallback})
}
