package http

import (
	"net/http"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) Create(c *gin.Context) {
	var req createQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		writeError(c, err)
		return
	}
	quiz, err := h.service.Create(c.Request.Context(), identity(c), spec)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.service.List(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := newQuizListResponse(quizzes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.service.Get(c.Request.Context(), identity(c), c.Param("quizId"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, quiz)
}

func (h *QuizHandler) Update(c *gin.Context) {
	var req updateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	quiz, err := h.service.Update(c.Request.Context(), identity(c), c.Param("quizId"), req.toUpdate())
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), identity(c), c.Param("quizId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuizHandler) AddQuestion(c *gin.Context) {
	spec, ok := bindQuestion(c)
	if !ok {
		return
	}
	question, err := h.service.AddQuestion(c.Request.Context(), identity(c), c.Param("quizId"), spec)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondQuestion(c, http.StatusCreated, question)
}

func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	spec, ok := bindQuestion(c)
	if !ok {
		return
	}
	question, err := h.service.UpdateQuestion(c.Request.Context(), identity(c), c.Param("quizId"), c.Param("questionId"), spec)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondQuestion(c, http.StatusOK, question)
}

func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	if err := h.service.DeleteQuestion(c.Request.Context(), identity(c), c.Param("quizId"), c.Param("questionId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindQuestion(c *gin.Context) (app.QuestionSpec, bool) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return app.QuestionSpec{}, false
	}
	spec, err := req.toSpec()
	if err != nil {
		writeError(c, err)
		return app.QuestionSpec{}, false
	}
	return spec, true
}

func (h *QuizHandler) respond(c *gin.Context, status int, quiz domain.Quiz) {
	resp, err := newQuizResponse(quiz)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, resp)
}

func (h *QuizHandler) respondQuestion(c *gin.Context, status int, question domain.Question) {
	resp, err := newQuestionResponse(question)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, resp)
}
