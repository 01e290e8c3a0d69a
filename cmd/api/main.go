package main

import (
	"context"
	"log"

	"gatepass/internal/config"
	"gatepass/internal/dispatch"
	"gatepass/internal/events"
	"gatepass/internal/handler"
	"gatepass/internal/provider/email"
	"gatepass/internal/provider/sms"
	"gatepass/internal/provider/whatsapp"
	gredis "gatepass/internal/redis"
	"gatepass/internal/repository"
	"gatepass/internal/server"
	"gatepass/internal/services"
	"gatepass/internal/storage"
	"gatepass/pkg/database"
	"gatepass/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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

	if err := repository.InitSchema(context.Background(), db); err != nil {
		l.Errorf("Failed to apply schema: %v", err)
		return
	}

	gredis.Initialize(gredis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	outboxRepo := repository.NewOutboxRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	guestRepo := repository.NewGuestRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	printRepo := repository.NewPrintJobRepository(db)
	configRepo := repository.NewProviderConfigRepository(db)
	eventRepo := repository.NewEventRepository(db)

	var s3Client *storage.Client
	if cfg.S3.Region != "" {
		s3Client, err = storage.NewClient(context.Background(), storage.S3Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
		})
		if err != nil {
			l.Errorf("Failed to create s3 client: %v", err)
			return
		}
	}
	attachments := storage.NewAttachmentFetcher(s3Client)

	deps := dispatch.Deps{
		Outbox: outboxRepo,
		Guests: guestRepo,
		Audit:  auditRepo,
		Config: configRepo,
		Logger: l,
	}
	worker := dispatch.NewWorker(outboxRepo, l, cfg.Worker.PollInterval, cfg.Worker.BatchSize,
		dispatch.NewEmailDispatcher(deps, email.NewSMTPSender(), email.NewAPISender(), attachments),
		dispatch.NewSMSDispatcher(deps, sms.NewGatewaySender()),
		dispatch.NewWhatsAppDispatcher(deps, whatsapp.NewCloudAPISender()),
	)
	worker.Start()
	defer worker.Stop()

	printLock := gredis.NewPrintLock(gredis.GetClient(), gredis.DefaultPrintLockTTL)
	activity := events.NewRedisPublisher(gredis.GetClient(), l)

	authSvc := services.NewAuthService(cfg.Auth.JWTSecret)
	outboxSvc := services.NewOutboxService(outboxRepo, guestRepo, auditRepo, l)
	statsSvc := services.NewStatsService(statsRepo, l)
	printSvc := services.NewPrintService(printRepo, guestRepo, printLock, l)
	guestSvc := services.NewGuestService(guestRepo, eventRepo, statsSvc, printSvc, activity, l)

	srv := server.New(cfg, l, db)
	srv.SetupRoutes(&server.Handlers{
		Notify:   handler.NewNotifyHandler(outboxSvc, auditRepo, eventRepo),
		Provider: handler.NewProviderHandler(configRepo),
		Guest:    handler.NewGuestHandler(guestSvc),
		Event:    handler.NewEventHandler(eventRepo, statsSvc),
		Print:    handler.NewPrintHandler(printSvc),
	}, authSvc)

	if err := srv.Start(); err != nil {
		l.Errorf("Server exited with error: %v", err)
	}
}
