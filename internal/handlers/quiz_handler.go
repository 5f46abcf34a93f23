package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/services"
	"github.com/quizdeck/assessment-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	quizzes, total, err := h.quizService.GetByTeacher(c.Request.Context(), teacherID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quizzes": quizzes,
		"total":   total,
	})
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), quizID, teacherID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz deleted"})
}

func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizService.AddQuestion(c.Request.Context(), quizID, question, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	index, ok := ParseUintParam(c, "index")
	if !ok {
		return
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizService.UpdateQuestion(c.Request.Context(), quizID, int(index), question, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	index, ok := ParseUintParam(c, "index")
	if !ok {
		return
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.DeleteQuestion(c.Request.Context(), quizID, int(index), teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}
