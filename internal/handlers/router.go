package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/placement-prep/learning-service/internal/services"
	"github.com/placement-prep/learning-service/internal/utils"
)

type HandlerManager struct {
	analysisHandler  *AnalysisHandler
	practiceHandler  *PracticeHandler
	progressHandler  *ProgressHandler
	attemptHandler   *AttemptHandler
	placementHandler *PlacementHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		analysisHandler:  NewAnalysisHandler(serviceManager.Analysis(), logger),
		practiceHandler:  NewPracticeHandler(serviceManager.Generation(), logger),
		progressHandler:  NewProgressHandler(serviceManager.Progress(), serviceManager.Export(), logger),
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), logger),
		placementHandler: NewPlacementHandler(serviceManager.Placement(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answer", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/student/:student_id", hm.attemptHandler.GetAttemptsByStudent)
		}

		// Analysis routes
		analyses := v1.Group("/analyses")
		{
			analyses.POST("/attempts/:attempt_id", hm.analysisHandler.AnalyzeAttempt)
			analyses.POST("/practice/:attempt_id", hm.analysisHandler.RecordPracticeResult)
			analyses.GET("/student/:student_id", hm.analysisHandler.ListAnalyses)
			analyses.GET("/student/:student_id/latest", hm.analysisHandler.GetLatestAnalysis)
		}

		// Targeted practice routes
		practice := v1.Group("/practice")
		{
			practice.POST("/generate", hm.practiceHandler.GenerateAssessment)
			practice.GET("/recommendations/:student_id", hm.practiceHandler.GetRecommendations)
			practice.GET("/assessments/:student_id", hm.practiceHandler.GetTargetedAssessments)
		}

		// Progress routes
		progress := v1.Group("/progress")
		{
			progress.GET("/:student_id", hm.progressHandler.GetProgress)
			progress.GET("/:student_id/export", hm.progressHandler.ExportProgress)
		}

		// Placement exam routes
		placements := v1.Group("/placements")
		{
			placements.POST("/start", hm.placementHandler.StartPlacementExam)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "learning-service",
		})
	})
}
