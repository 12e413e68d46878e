package main

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/fadilmartias/mentor-match/internal/cache"
	"github.com/fadilmartias/mentor-match/internal/config"
	"github.com/fadilmartias/mentor-match/internal/domain/fiber/handler"
	applogger "github.com/fadilmartias/mentor-match/internal/logger"
	"github.com/fadilmartias/mentor-match/internal/middleware"
	"github.com/fadilmartias/mentor-match/internal/model"
	"github.com/fadilmartias/mentor-match/internal/repository"
	"github.com/fadilmartias/mentor-match/internal/service"
	"github.com/fadilmartias/mentor-match/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	log := applogger.NewStructured(appConfig.LogLevel, appConfig.LogFormat)

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return config.LoadAppConfig().Env != "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB(log)

	scoringConfig := config.LoadScoringConfig()
	cacheConfig := config.LoadCacheConfig()

	requestRepo := repository.NewMatchRequestRepository(db)
	mentorRepo := repository.NewMentorRepository(db)
	scoring := service.NewScoringService(scoringConfig, log)
	matchCache := cache.NewMatchCache(cacheConfig.TTL, log)
	uc := usecase.NewMatchingUsecase(requestRepo, mentorRepo, scoring, matchCache, scoringConfig.Timeout, log)
	matchHandler := handler.NewMatchHandler(uc, mentorRepo)

	matchHandler.RegisterRoutes(app)

	// Monitor goroutine count, the matching workflow spawns one per request.
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			log.Debug("goroutine count", map[string]interface{}{
				"count": runtime.NumGoroutine(),
			})
		}
	}()

	log.Info("server starting", map[string]interface{}{"port": appConfig.Port})
	if err := app.Listen(appConfig.Port); err != nil {
		log.WithError(err).Error("server stopped", nil)
	}
}

func ConnectDB(log applogger.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
	if err != nil {
		log.WithError(err).Error("could not connect to database", nil)
		panic(err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("could not get database instance", nil)
		panic(err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&model.MatchRequest{}, &model.Mentor{}); err != nil {
		log.WithError(err).Error("migration failed", nil)
		panic(err)
	}
	return db
}
