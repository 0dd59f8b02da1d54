package router

import (
	"net/http"
	"time"

	"neuroscreen/internal/config"
	"neuroscreen/internal/handlers"
	"neuroscreen/internal/repository"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const cookieName = "neuroscreen"

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error": "Too many requests. Try again after " + time.Until(info.ResetTime).Round(time.Second).String(),
	})
}

func Setup(log *zap.Logger, store *repository.Store, cfg *config.Config) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	cookieStore := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cfg.Server.SessionTTL / time.Second),
	})
	router.Use(sessions.Sessions(cookieName, cookieStore))

	// --- Now that sessions are initialized, other middleware can use them ---
	router.Use(NonceMiddleware())
	router.Use(CSRFProtection())
	router.Use(SessionLoader(log, store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "same-origin",
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	assessmentHandler := handlers.NewAssessmentHandler(log, store)
	metricsHandler := handlers.NewMetricsHandler(log, store)
	resultsHandler := handlers.NewResultsHandler(log, store)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: cfg.Server.RateLimit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/results", SessionRequired(), resultsHandler.ShowResults)

	api := router.Group("/api")
	{
		api.GET("/questions", assessmentHandler.GetQuestions)
		api.POST("/sessions", limiter, assessmentHandler.CreateSession)

		current := api.Group("/session")
		current.Use(SessionRequired())
		{
			current.GET("", assessmentHandler.GetSession)
			current.POST("/begin", assessmentHandler.Begin)
			current.POST("/answers", assessmentHandler.Answer)
			current.POST("/tasks/:task", metricsHandler.SaveTaskTrace)
			current.POST("/analyze", resultsHandler.Analyze)
			current.POST("/reset", assessmentHandler.Reset)
			current.GET("/chart", resultsHandler.ShowChart)
			current.GET("/report.pdf", resultsHandler.DownloadReport)
		}
	}

	return router
}
