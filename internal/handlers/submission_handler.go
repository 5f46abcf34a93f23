package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/cache"
	"github.com/quizdeck/assessment-service/internal/services"
	"github.com/quizdeck/assessment-service/internal/utils"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, ok := requireUser(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	submissionID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	requesterID, ok := requireUser(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), submissionID, requesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

func (h *SubmissionHandler) GetByAssignment(c *gin.Context) {
	assignmentID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	requesterID, ok := requireUser(c)
	if !ok {
		return
	}

	submissions, err := h.submissionService.GetByAssignment(c.Request.Context(), assignmentID, requesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

func (h *SubmissionHandler) SaveDraft(c *gin.Context) {
	var req services.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.submissionService.SaveDraft(c.Request.Context(), &req, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Draft saved"})
}

func (h *SubmissionHandler) LoadDraft(c *gin.Context) {
	assignmentID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	studentID, ok := requireUser(c)
	if !ok {
		return
	}

	draft, err := h.submissionService.LoadDraft(c.Request.Context(), assignmentID, studentID)
	if err != nil {
		if errors.Is(err, cache.ErrDraftNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "No draft saved"})
			return
		}
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
