package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/services"
	"github.com/quizdeck/assessment-service/internal/utils"
)

type AssignmentHandler struct {
	BaseHandler
	distributionService services.DistributionService
	exportService       services.ExportService
}

func NewAssignmentHandler(distributionService services.DistributionService, exportService services.ExportService, logger utils.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:         NewBaseHandler(logger),
		distributionService: distributionService,
		exportService:       exportService,
	}
}

// Distribute assigns a quiz to a class. Requires "replace": true to replace
// an existing live assignment; without it an existing batch answers 409.
func (h *AssignmentHandler) Distribute(c *gin.Context) {
	var req services.DistributeRequest
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

	result, err := h.distributionService.Distribute(c.Request.Context(), &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type grantRetakeBody struct {
	Deadline time.Time `json:"deadline" binding:"required"`
}

func (h *AssignmentHandler) GrantRetake(c *gin.Context) {
	submissionID, ok := ParseUintParam(c, "submission_id")
	if !ok {
		return
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	var body grantRetakeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assignment, err := h.distributionService.GrantRetake(c.Request.Context(), &services.GrantRetakeRequest{
		SubmissionID: submissionID,
		Deadline:     body.Deadline,
	}, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

type extendDeadlineBody struct {
	Deadline time.Time `json:"deadline" binding:"required"`
}

func (h *AssignmentHandler) ExtendDeadline(c *gin.Context) {
	assignmentID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	var body extendDeadlineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assignment, err := h.distributionService.ExtendDeadline(c.Request.Context(), assignmentID, body.Deadline, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// JoinByCode resolves a 6-character session code for the calling student.
func (h *AssignmentHandler) JoinByCode(c *gin.Context) {
	studentID, ok := requireUser(c)
	if !ok {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))

	assignment, quiz, err := h.distributionService.LookupByCode(c.Request.Context(), code, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignment": assignment,
		"quiz":       quiz,
	})
}

func (h *AssignmentHandler) ListMyAssignments(c *gin.Context) {
	studentID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	assignments, total, err := h.distributionService.ListForStudent(c.Request.Context(), studentID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"total":       total,
	})
}

// ExportResults streams the class results workbook.
func (h *AssignmentHandler) ExportResults(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}
	classID, ok := ParseUintParam(c, "class_id")
	if !ok {
		return
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return
	}

	data, err := h.exportService.ExportClassResults(c.Request.Context(), quizID, classID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := "quiz_" + strconv.FormatUint(uint64(quizID), 10) + "_results.xlsx"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
