package http

import (
	"net/http"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	service *app.AttemptService
}

func NewAttemptHandler(service *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{service: service}
}

// Submit grades the caller's answers and records the single attempt.
func (h *AttemptHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), identity(c), c.Param("quizId"), req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *AttemptHandler) Mine(c *gin.Context) {
	attempt, results, err := h.service.MyAttempt(c.Request.Context(), identity(c), c.Param("quizId"))
	if err != nil {
		writeError(c, err)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	c.JSON(http.StatusOK, attemptDetailResponse{Attempt: attempt, Results: results})
}

func (h *AttemptHandler) List(c *gin.Context) {
	page := parsePage(c)
	attempts, total, err := h.service.ListAttempts(c.Request.Context(), identity(c), c.Param("quizId"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	if attempts == nil {
		attempts = []domain.Attempt{}
	}
	c.JSON(http.StatusOK, attemptListResponse{Data: attempts, Meta: buildMeta(total, page)})
}
