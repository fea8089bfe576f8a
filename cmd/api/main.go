package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stay-on-one/internal/app"
	"stay-on-one/internal/config"
	"stay-on-one/internal/email"
	apihttp "stay-on-one/internal/http"
	"stay-on-one/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	loc, _ := cfg.Location()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	redisClient := app.NewRedisClient(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	repo, closeRepo, err := app.OpenDocumentRepository(ctx, cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("document store", zap.Error(err))
	}
	defer closeRepo()

	coach, err := app.NewCoachClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("coach client", zap.Error(err))
	}

	store := service.NewAccountStore(repo, coach, logger,
		service.WithAccountKey(cfg.AccountKey),
		service.WithClock(time.Now, loc),
	)
	if err := store.Init(ctx); err != nil {
		logger.Fatal("account store init", zap.Error(err))
	}

	var (
		sessions service.SessionStore
		limiter  service.AttemptLimiter
	)
	if redisClient != nil {
		sessions = service.NewRedisSessionStore(redisClient)
		limiter = service.NewRedisAttemptLimiter(redisClient, 10*time.Minute, 5)
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL(), cfg.JWTRefreshTTL(), sessions)
	if !jwtSvc.Enabled() {
		logger.Warn("jwt secret not configured; api is unauthenticated")
	}
	authSvc := service.NewAuthService(logger, cfg.AccessPassphraseHash, jwtSvc, limiter)

	var sender email.Sender = email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		smtpSender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			sender = smtpSender
		}
	}
	reminders := service.NewReminderService(store, sender, cfg.ReminderEmail, logger)
	scheduler := service.NewScheduler(loc, logger)
	if reminders.Enabled() {
		if err := scheduler.ScheduleReminder(cfg.ReminderCron, reminders); err != nil {
			logger.Fatal("schedule reminder", zap.Error(err))
		}
	}

	coachSvc := service.NewCoachService(store, coach, logger)
	visionSvc := service.NewVisionService(store, coach, logger)
	router := apihttp.NewRouter(
		logger,
		jwtSvc,
		apihttp.NewAuthHandler(logger, authSvc),
		apihttp.NewAccountHandler(logger, store),
		apihttp.NewCoachHandler(logger, store, coachSvc, visionSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler stop", zap.Error(err))
		}
		return store.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
