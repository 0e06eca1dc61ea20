package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/smart-advisor-backend/internal/logger"
	"github.com/yungbote/smart-advisor-backend/internal/requestdata"
	"github.com/yungbote/smart-advisor-backend/internal/services"
	"github.com/yungbote/smart-advisor-backend/internal/types"
)

type RecommendationHandler struct {
	log                  *logger.Logger
	recService           services.RecommendationService
	questionnaireService services.QuestionnaireService
	userService          services.UserService
	sessionGuard         *services.SessionGuard
}

func NewRecommendationHandler(
	log *logger.Logger,
	recService services.RecommendationService,
	questionnaireService services.QuestionnaireService,
	userService services.UserService,
	sessionGuard *services.SessionGuard,
) *RecommendationHandler {
	return &RecommendationHandler{
		log:                  log.With("handler", "RecommendationHandler"),
		recService:           recService,
		questionnaireService: questionnaireService,
		userService:          userService,
		sessionGuard:         sessionGuard,
	}
}

// POST /api/recommendations/generate
// The session guard is advisory: a repeated answer set is rejected with 409
// unless force is set, and the pipeline itself never consults the guard.
func (rh *RecommendationHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	var req struct {
		Answers     types.AnswerSet `json:"answers" binding:"required"`
		ContentType string          `json:"content_type" binding:"required,oneof=movie book both"`
		UserAge     int             `json:"user_age"`
		Force       bool            `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	sessionKey := services.SessionKey(rd.UserID, req.ContentType, req.Answers)
	if !req.Force && rh.sessionGuard.Seen(sessionKey) {
		RespondError(c, http.StatusConflict, "already_generated", services.ErrDuplicateSession)
		return
	}

	userAge := req.UserAge
	if userAge == 0 {
		if user, err := rh.userService.GetByID(c.Request.Context(), rd.UserID); err == nil {
			userAge = user.Age
		}
	}

	if _, err := rh.questionnaireService.RecordResponse(c.Request.Context(), rd.UserID, req.ContentType, req.Answers); err != nil {
		// Best effort: losing the submission record never blocks generation.
		rh.log.Warn("Failed to record questionnaire response", "user_id", rd.UserID, "error", err)
	}

	results, err := rh.recService.Generate(c.Request.Context(), rd.UserID, req.Answers, req.ContentType, userAge)
	if err != nil {
		// Terminal: the retry budget is spent. The client offers an explicit
		// retry and a retake-the-questionnaire escape hatch on top of this.
		RespondError(c, http.StatusBadGateway, "generation_failed", err)
		return
	}

	rh.sessionGuard.CheckAndRecord(sessionKey)
	RespondOK(c, gin.H{"recommendations": results})
}

// GET /api/recommendations
func (rh *RecommendationHandler) GetHistory(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	recs, err := rh.recService.History(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

// PATCH /api/recommendations/:id/favorite
func (rh *RecommendationHandler) ToggleFavorite(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	recID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	rec, err := rh.recService.ToggleFavorite(c.Request.Context(), rd.UserID, recID)
	if err != nil {
		rh.respondOwnershipError(c, err)
		return
	}
	RespondOK(c, rec)
}

// DELETE /api/recommendations/:id
func (rh *RecommendationHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	recID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := rh.recService.Delete(c.Request.Context(), rd.UserID, recID); err != nil {
		rh.respondOwnershipError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (rh *RecommendationHandler) respondOwnershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
