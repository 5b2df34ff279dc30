package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ltkhang/quizcore/config"
	"github.com/ltkhang/quizcore/database"
	"github.com/ltkhang/quizcore/internal/cache"
	adminctrl "github.com/ltkhang/quizcore/internal/controller/admin"
	userctrl "github.com/ltkhang/quizcore/internal/controller/user"
	"github.com/ltkhang/quizcore/internal/logger"
	"github.com/ltkhang/quizcore/internal/messaging"
	"github.com/ltkhang/quizcore/internal/model"
	"github.com/ltkhang/quizcore/internal/repository"
	"github.com/ltkhang/quizcore/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Quiz Attempt Engine API
// @version 1.0
// @description Timed, scored quiz attempts with attempt limits, idempotent submission and server-authoritative expiry.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewRedisClient,
			NewActivityNotifier,
			NewGinEngine, // Provides *gin.Engine
		),

		// Repositories Layer
		fx.Provide(
			repository.NewQuizRepository,
			repository.NewAttemptRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewAnswerScorer,
			func() service.TimerPolicy { return service.NewTimerPolicy(nil) },
			func(quizRepo repository.QuizRepository, redis *cache.RedisClient, cfg *config.Config) service.QuizService {
				ttl := time.Duration(cfg.Redis.QuizCacheTTLSeconds) * time.Second
				return service.NewQuizService(quizRepo, redis, ttl)
			},
			service.NewAttemptService,
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewAdminQuizController,
			userctrl.NewQuizAttemptController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(StartExpirySweep),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

// NewRedisClient is optional infrastructure: with no REDIS_HOST configured the
// quiz cache is simply skipped.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config) *cache.RedisClient {
	if cfg.Redis.Host == "" {
		log.Info().Msg("Redis not configured, quiz definition cache disabled")
		return nil
	}
	client, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, quiz definition cache disabled")
		return nil
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return client.Close() },
	})
	return client
}

// NewActivityNotifier wires the RabbitMQ publisher when a broker is
// configured; activity events are best-effort either way.
func NewActivityNotifier(lc fx.Lifecycle, cfg *config.Config) service.ActivityNotifier {
	if cfg.RabbitMQ.Host == "" {
		log.Info().Msg("RabbitMQ not configured, activity events disabled")
		return service.NopActivityNotifier{}
	}
	client, err := messaging.NewRabbitMQClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, activity events disabled")
		return service.NopActivityNotifier{}
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return client.Close() },
	})
	return service.NewRabbitActivityNotifier(client, cfg.RabbitMQ.Queue)
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
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
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminQuizCtrl *adminctrl.AdminQuizController,
	quizAttemptCtrl *userctrl.QuizAttemptController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		adminAPIGroup.POST("/quizzes", adminQuizCtrl.CreateQuiz)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/quizzes", quizAttemptCtrl.GetAllQuizzes)
		userAPIGroup.GET("/quizzes/:quiz_id", quizAttemptCtrl.GetQuizDetails)

		userAPIGroup.POST("/quizzes/:quiz_id/attempts", quizAttemptCtrl.StartOrResumeAttempt)
		userAPIGroup.GET("/quizzes/:quiz_id/my-attempts", quizAttemptCtrl.GetMyAttempts)
		userAPIGroup.PUT("/attempts/:attempt_id/answers", quizAttemptCtrl.RecordAnswers)
		userAPIGroup.POST("/attempts/:attempt_id/submit", quizAttemptCtrl.SubmitAttempt)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Quiz attempt engine starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}

	// At most one in_progress attempt per (student, quiz). The repository's
	// create path handles the collision by returning the winning row.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_one_in_progress
		ON attempts (student_id, quiz_id)
		WHERE status = 'in_progress' AND deleted_at IS NULL`).Error
	if err != nil {
		log.Error().Err(err).Msg("Failed to create in_progress uniqueness index")
		return err
	}

	log.Info().Msg("Database migration completed successfully.")
	return nil
}

// StartExpirySweep proactively finalizes long-idle expired attempts. Lazy
// expiry on access already guarantees correctness; the sweep just keeps the
// attempts table tidy for reporting consumers.
func StartExpirySweep(lc fx.Lifecycle, attemptService service.AttemptService) {
	ticker := time.NewTicker(time.Minute)
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				for {
					select {
					case <-ticker.C:
						expired, err := attemptService.SweepExpired()
						if err != nil {
							log.Warn().Err(err).Msg("Expiry sweep failed")
							continue
						}
						if expired > 0 {
							log.Info().Int("expired", expired).Msg("Expiry sweep finalized attempts")
						}
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ticker.Stop()
			close(done)
			return nil
		},
	})
}
