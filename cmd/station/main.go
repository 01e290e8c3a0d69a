package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"gatepass/internal/config"
	"gatepass/internal/events"
	gredis "gatepass/internal/redis"
	"gatepass/internal/repository"
	"gatepass/internal/server"
	"gatepass/internal/services"
	"gatepass/internal/station"
	"gatepass/pkg/database"
	"gatepass/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Station.EventID == "" {
		log.Fatal("STATION_EVENT_ID is required")
	}
	eventID, err := uuid.Parse(cfg.Station.EventID)
	if err != nil {
		log.Fatalf("Invalid STATION_EVENT_ID: %v", err)
	}

	mode := logger.DevelopmentMode
	if cfg.Server.Environment == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		l.Errorf("Failed to connect to database: %v", err)
		return
	}
	defer db.Close()

	gredis.Initialize(gredis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	guestRepo := repository.NewGuestRepository(db)
	printRepo := repository.NewPrintJobRepository(db)
	printLock := gredis.NewPrintLock(gredis.GetClient(), gredis.DefaultPrintLockTTL)
	printSvc := services.NewPrintService(printRepo, guestRepo, printLock, l)

	activity := events.NewRedisPublisher(gredis.GetClient(), l)
	runner := station.NewRunner(printSvc, guestRepo,
		station.NewTemplateBadgeRenderer(),
		station.NewSpoolPrinter(l),
		activity, l, eventID, cfg.Station.ID, cfg.Station.PollInterval)
	runner.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	runner.Stop()
	l.Infof("station %s stopped", cfg.Station.ID)
}
