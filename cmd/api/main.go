package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"github.com/cpg716/SuitSync-sub003/internal/audit"
	"github.com/cpg716/SuitSync-sub003/internal/config"
	dbpkg "github.com/cpg716/SuitSync-sub003/internal/db"
	"github.com/cpg716/SuitSync-sub003/internal/infra/archive"
	"github.com/cpg716/SuitSync-sub003/internal/infra/lock"
	infraRepo "github.com/cpg716/SuitSync-sub003/internal/infra/repository"
	"github.com/cpg716/SuitSync-sub003/internal/jobs"
	"github.com/cpg716/SuitSync-sub003/internal/notify"
	"github.com/cpg716/SuitSync-sub003/internal/routes"
	"github.com/cpg716/SuitSync-sub003/internal/timezone"
	ucAppointment "github.com/cpg716/SuitSync-sub003/internal/usecase/appointment"
	ucNotification "github.com/cpg716/SuitSync-sub003/internal/usecase/notification"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/progress"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/workflow"
)

func main() {

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db := dbpkg.NewDB(cfg)
	loc := timezone.Location(cfg.ShopTimezone)

	// ======================================================
	// INFRA
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	notificationRepo := infraRepo.NewNotificationGormRepository(db)

	auditDispatcher := audit.NewDispatcher(audit.New(db), logger)

	var archiver ucNotification.Archiver
	if cfg.ArchiveEnabled() {
		a, err := archive.NewS3Archiver(archive.Config{
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			Endpoint:  cfg.ArchiveEndpoint,
			AccessKey: cfg.AWSAccessKeyID,
			SecretKey: cfg.AWSSecretKey,
		})
		if err != nil {
			log.Fatalf("failed to configure archive: %v", err)
		}
		archiver = a
	}

	var locker jobs.Locker
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		l, err := lock.NewRedisLocker(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect job lock: %v", err)
		}
		defer l.Close()
		locker = l
	}

	// ======================================================
	// SERVICES
	// ======================================================
	tokens := ucNotification.NewActionTokens(cfg.ActionTokenSecret, cfg.ActionTokenTTL, nil)

	scheduler := ucNotification.NewScheduler(
		appointmentRepo,
		notificationRepo,
		notify.NewLogTransport(logger),
		ucNotification.Options{
			ShopName:    cfg.ShopName,
			BaseURL:     cfg.AppBaseURL,
			Location:    loc,
			BatchSize:   cfg.NotificationBatchSize,
			SendTimeout: cfg.SendTimeout,
			Tokens:      tokens,
			Archiver:    archiver,
			Logger:      logger,
		},
	)

	engine := workflow.NewEngine(appointmentRepo, scheduler, workflow.Options{
		Location: loc,
		Logger:   logger,
	})

	completeUC := ucAppointment.NewCompleteAppointment(engine, auditDispatcher)
	cancelUC := ucAppointment.NewCancelAppointment(appointmentRepo, scheduler, auditDispatcher, nil, logger)
	overdueUC := ucAppointment.NewCheckOverdueAppointments(appointmentRepo, auditDispatcher, nil, logger)

	// ======================================================
	// JOBS
	// ======================================================
	runner := jobs.NewRunner(jobs.Options{Locker: locker, Logger: logger})
	standard := jobs.StandardJobs(scheduler, overdueUC, cfg.NotificationRetention)
	if cfg.JobsEnabled {
		if err := runner.Initialize(standard...); err != nil {
			log.Fatalf("failed to start jobs: %v", err)
		}
	} else {
		// registered so operators can still run them by hand
		for _, j := range standard {
			if err := runner.Register(j); err != nil {
				log.Fatalf("failed to register job %s: %v", j.Name, err)
			}
		}
	}

	// ======================================================
	// HTTP
	// ======================================================
	r := gin.Default()

	routes.RegisterRoutes(r, db, cfg, routes.Services{
		Appointments: appointmentRepo,
		Scheduler:    scheduler,
		Tokens:       tokens,
		Engine:       engine,
		Progress:     progress.NewDeriver(appointmentRepo, logger),
		Complete:     completeUC,
		Cancel:       cancelUC,
		Runner:       runner,
		Audit:        auditDispatcher,
		Location:     loc,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	runner.Close()
	auditDispatcher.Close()
}
