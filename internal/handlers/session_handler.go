package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/services"
	"github.com/quizdeck/assessment-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	quizID, classID, teacherID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	state, err := h.sessionService.Start(c.Request.Context(), quizID, classID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) EndSession(c *gin.Context) {
	quizID, classID, teacherID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	state, err := h.sessionService.End(c.Request.Context(), quizID, classID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) GetSessionState(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}
	classID, ok := ParseUintParam(c, "class_id")
	if !ok {
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), quizID, classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SubscribeSession streams session transitions as server-sent events until
// the client disconnects.
func (h *SessionHandler) SubscribeSession(c *gin.Context) {
	quizID, ok := ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}
	classID, ok := ParseUintParam(c, "class_id")
	if !ok {
		return
	}
	if _, ok := requireUser(c); !ok {
		return
	}

	updates, err := h.sessionService.Subscribe(c.Request.Context(), quizID, classID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case update, open := <-updates:
			if !open {
				return false
			}
			c.SSEvent("session", update)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *SessionHandler) sessionParams(c *gin.Context) (uint, uint, string, bool) {
	quizID, ok := ParseUintParam(c, "quiz_id")
	if !ok {
		return 0, 0, "", false
	}
	classID, ok := ParseUintParam(c, "class_id")
	if !ok {
		return 0, 0, "", false
	}
	teacherID, ok := requireUser(c)
	if !ok {
		return 0, 0, "", false
	}
	return quizID, classID, teacherID, true
}
