package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/directory"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/services"
	"github.com/quizdeck/assessment-service/internal/utils"
)

type HandlerManager struct {
	quizHandler       *QuizHandler
	assignmentHandler *AssignmentHandler
	sessionHandler    *SessionHandler
	submissionHandler *SubmissionHandler
	analysisHandler   *AnalysisHandler

	directory directory.Directory
	logger    utils.Logger
}

type Services struct {
	Quiz         services.QuizService
	Distribution services.DistributionService
	Session      services.SessionService
	Submission   services.SubmissionService
	Analysis     services.AnalysisService
	Export       services.ExportService
}

func NewHandlerManager(svcs Services, dir directory.Directory, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		quizHandler:       NewQuizHandler(svcs.Quiz, logger),
		assignmentHandler: NewAssignmentHandler(svcs.Distribution, svcs.Export, logger),
		sessionHandler:    NewSessionHandler(svcs.Session, logger),
		submissionHandler: NewSubmissionHandler(svcs.Submission, logger),
		analysisHandler:   NewAnalysisHandler(svcs.Analysis, logger),
		directory:         dir,
		logger:            logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.directory, hm.logger))

	teacherOnly := RequireRole(models.RoleTeacher)

	// Quiz routes
	quizzes := v1.Group("/quizzes")
	{
		quizzes.POST("", teacherOnly, hm.quizHandler.CreateQuiz)
		quizzes.GET("", teacherOnly, hm.quizHandler.ListQuizzes)
		quizzes.GET("/:id", hm.quizHandler.GetQuiz)
		quizzes.DELETE("/:id", teacherOnly, hm.quizHandler.DeleteQuiz)

		// Question mutations trigger retroactive regrading
		quizzes.POST("/:id/questions", teacherOnly, hm.quizHandler.AddQuestion)
		quizzes.PUT("/:id/questions/:index", teacherOnly, hm.quizHandler.UpdateQuestion)
		quizzes.DELETE("/:id/questions/:index", teacherOnly, hm.quizHandler.DeleteQuestion)
	}

	// Assignment routes
	assignments := v1.Group("/assignments")
	{
		assignments.POST("", teacherOnly, hm.assignmentHandler.Distribute)
		assignments.GET("/mine", hm.assignmentHandler.ListMyAssignments)
		assignments.PUT("/:id/deadline", teacherOnly, hm.assignmentHandler.ExtendDeadline)
		assignments.GET("/:id/submissions", hm.submissionHandler.GetByAssignment)
		assignments.GET("/:id/draft", hm.submissionHandler.LoadDraft)
		assignments.GET("/code/:code", hm.assignmentHandler.JoinByCode)
	}

	// Session routes
	sessions := v1.Group("/sessions/:quiz_id/:class_id")
	{
		sessions.POST("/start", teacherOnly, hm.sessionHandler.StartSession)
		sessions.POST("/end", teacherOnly, hm.sessionHandler.EndSession)
		sessions.GET("", hm.sessionHandler.GetSessionState)
		sessions.GET("/events", hm.sessionHandler.SubscribeSession)
	}

	// Submission routes
	submissions := v1.Group("/submissions")
	{
		submissions.POST("", hm.submissionHandler.Submit)
		submissions.POST("/draft", hm.submissionHandler.SaveDraft)
		submissions.GET("/:id", hm.submissionHandler.GetSubmission)
		submissions.POST("/:submission_id/retake", teacherOnly, hm.assignmentHandler.GrantRetake)
	}

	// Results routes
	results := v1.Group("/results")
	{
		results.GET("/:quiz_id/:class_id", teacherOnly, hm.analysisHandler.GetClassResults)
		results.GET("/:quiz_id/:class_id/analysis", teacherOnly, hm.analysisHandler.GetItemAnalysis)
		results.GET("/:quiz_id/:class_id/export", teacherOnly, hm.assignmentHandler.ExportResults)
	}
}
