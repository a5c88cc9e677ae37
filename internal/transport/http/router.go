package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Quizzes       *QuizHandler
	Attempts      *AttemptHandler
	Analytics     *AnalyticsHandler
	Notifications *NotificationHandler
}

var registerValidations sync.Once

// NewRouter builds the gin engine serving /api/v1.
func NewRouter(h Handlers, auth *Authenticator) *gin.Engine {
	registerValidations.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
				return domain.Difficulty(fl.Field().String()).Valid()
			})
		}
	})

	r := gin.New()
	r.Use(requestLogger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", healthz)

	api := r.Group("/api/v1")
	api.GET("/healthz", healthz)

	secured := api.Group("", auth.Middleware())
	{
		quizzes := secured.Group("/quizzes")
		quizzes.POST("", h.Quizzes.Create)
		quizzes.GET("", h.Quizzes.List)
		quizzes.GET("/:quizId", h.Quizzes.Get)
		quizzes.PATCH("/:quizId", h.Quizzes.Update)
		quizzes.DELETE("/:quizId", h.Quizzes.Delete)

		quizzes.POST("/:quizId/questions", h.Quizzes.AddQuestion)
		quizzes.PUT("/:quizId/questions/:questionId", h.Quizzes.UpdateQuestion)
		quizzes.DELETE("/:quizId/questions/:questionId", h.Quizzes.DeleteQuestion)

		quizzes.POST("/:quizId/attempts", h.Attempts.Submit)
		quizzes.GET("/:quizId/my-attempt", h.Attempts.Mine)
		quizzes.GET("/:quizId/attempts", h.Attempts.List)
	}
	{
		analytics := secured.Group("/analytics")
		analytics.GET("/student/slo-accuracy", h.Analytics.TagAccuracy)
		analytics.GET("/student/topic-accuracy", h.Analytics.TopicAccuracy)
		analytics.GET("/student/overview", h.Analytics.StudentOverview)
		analytics.GET("/overview", h.Analytics.SystemOverview)
	}
	{
		secured.GET("/notifications", h.Notifications.Feed)
		secured.GET("/notifications/ws", h.Notifications.ServeWS)
	}
	return r
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	})
}
