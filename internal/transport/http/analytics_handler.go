package http

import (
	"net/http"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service *app.AnalyticsService
}

func NewAnalyticsHandler(service *app.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) TagAccuracy(c *gin.Context) {
	studentID, ok := h.student(c)
	if !ok {
		return
	}
	rows, err := h.service.TagAccuracy(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagRows(rows))
}

func (h *AnalyticsHandler) TopicAccuracy(c *gin.Context) {
	studentID, ok := h.student(c)
	if !ok {
		return
	}
	rows, err := h.service.TopicAccuracy(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, topicRows(rows))
}

func (h *AnalyticsHandler) StudentOverview(c *gin.Context) {
	studentID, ok := h.student(c)
	if !ok {
		return
	}
	overview, err := h.service.StudentOverview(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AnalyticsHandler) SystemOverview(c *gin.Context) {
	overview, err := h.service.SystemOverview(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AnalyticsHandler) student(c *gin.Context) (string, bool) {
	studentID, err := h.service.ResolveStudent(identity(c), c.Query("student_id"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return studentID, true
}
