package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/services"
	"github.com/quizdeck/assessment-service/internal/utils"
)

type AnalysisHandler struct {
	BaseHandler
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService, logger utils.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:     NewBaseHandler(logger),
		analysisService: analysisService,
	}
}

func (h *AnalysisHandler) GetItemAnalysis(c *gin.Context) {
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

	report, err := h.analysisService.GetItemAnalysis(c.Request.Context(), quizID, classID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AnalysisHandler) GetClassResults(c *gin.Context) {
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

	results, err := h.analysisService.GetClassResults(c.Request.Context(), quizID, classID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
