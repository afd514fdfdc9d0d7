package main

import (
	"log"
	"os"
	"time"

	"exam-service/internal/auth"
	"exam-service/internal/db"
	"exam-service/internal/event"
	"exam-service/internal/handlers"
	"exam-service/internal/repository"
	"exam-service/internal/service"
	"exam-service/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	logger.Init(os.Getenv("LOG_MODE"))
	defer logger.Log.Sync()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI is required")
	}
	if err := db.InitMongo(mongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// RabbitMQ event publisher
	rabbitURL := os.Getenv("RABBITMQ_URI")
	eventExchange := os.Getenv("RABBITMQ_EXCHANGE")
	var publisher *event.EventPublisher
	if rabbitURL != "" && eventExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(rabbitURL, eventExchange, logger.Log)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, attempt events will not be published")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	database := db.Client.Database("exam_service")

	examRepo := repository.NewExamRepository(database)
	resultRepo := repository.NewResultRepository(database)
	liveStatusRepo := repository.NewLiveStatusRepository(database)

	examService := service.NewExamService(examRepo)
	attemptService := service.NewAttemptService(examRepo, resultRepo, liveStatusRepo, logger.Log)
	analysisService := service.NewAnalysisService(examRepo, resultRepo)

	examHandler := handlers.NewExamHandler(examService)
	attemptHandler := handlers.NewAttemptHandler(attemptService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// Public routes - dashboard and exam-wide analysis
	publicExam := r.Group("/public/exam")
	{
		publicExam.GET("/", examHandler.ListExams)
		publicExam.GET("/:id", examHandler.GetExam)
		publicExam.GET("/:id/analysis", analysisHandler.ExamAnalysis)
	}

	// Protected routes - attempts are always tied to an authenticated user
	protected := r.Group("/protected", auth.Middleware(jwtSecret))

	protectedExam := protected.Group("/exam")
	{
		protectedExam.POST("/:id/attempt", func(c *gin.Context) {
			attemptHandler.StartAttempt(c)
			if publisher != nil && c.Writer.Status() < 300 {
				publisher.Publish("exam.attempt.started", gin.H{"examId": c.Param("id")})
			}
		})
		protectedExam.GET("/:id/my-analysis", analysisHandler.MyStanding)
	}

	protectedAttempt := protected.Group("/attempt")
	{
		protectedAttempt.GET("/:id", attemptHandler.GetAttempt)
		protectedAttempt.POST("/:id/goto", attemptHandler.GoTo)
		protectedAttempt.POST("/:id/answer", attemptHandler.Answer)
		protectedAttempt.POST("/:id/commit", attemptHandler.Commit)
		protectedAttempt.POST("/:id/clear", attemptHandler.Clear)
		protectedAttempt.POST("/:id/submit", func(c *gin.Context) {
			attemptHandler.Submit(c)
			if publisher != nil && c.Writer.Status() < 300 {
				publisher.Publish("exam.attempt.submitted", gin.H{"attemptId": c.Param("id")})
			}
		})
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "6660"
	}
	r.Run(":" + port)
}
