package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/HeZaoCha/ParkingManagement/internal/cache"
	"github.com/HeZaoCha/ParkingManagement/internal/config"
	"github.com/HeZaoCha/ParkingManagement/internal/database"
	"github.com/HeZaoCha/ParkingManagement/internal/handler"
	"github.com/HeZaoCha/ParkingManagement/internal/middleware"
	"github.com/HeZaoCha/ParkingManagement/internal/queue"
	"github.com/HeZaoCha/ParkingManagement/internal/repository"
	"github.com/HeZaoCha/ParkingManagement/internal/router"
	"github.com/HeZaoCha/ParkingManagement/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables the dashboard cache,
	// response caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, running without cache and rate limiting")
	}

	// Repositories.
	facilities := repository.NewFacilityRepo(db)
	spaces := repository.NewSpaceRepo(db)
	records := repository.NewRecordRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	schedules := repository.NewScheduleRepo(db)
	wanted := repository.NewWantedRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Coordinator with its post-commit collaborators.
	dashboard := cache.NewDashboard(rdb, cfg.DashboardTTL)
	parking := service.NewParking(
		repository.NewStore(db),
		repository.NewWatchList(wanted),
		dashboard,
		queue.PublishEntryAlert,
	)

	// Alert consumer; reconnects on its own until the process exits.
	go func() {
		if err := queue.StartAlertConsumer(); err != nil {
			log.Printf("alert consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(parking, facilities, spaces))
	router.RegisterOperator(e,
		handler.NewOperatorHandler(parking, records),
		handler.NewDashboardHandler(spaces, records, dashboard),
		cfg.JWTSecret)
	router.RegisterAdmin(e,
		handler.NewAdminHandler(facilities, spaces),
		handler.NewScheduleHandler(facilities, schedules),
		handler.NewRegistryHandler(vehicles, wanted),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
