package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fanuel08/Medicine-project/common/database"
	"github.com/fanuel08/Medicine-project/common/logger"
	commonmqtt "github.com/fanuel08/Medicine-project/common/mqtt"
	commonredis "github.com/fanuel08/Medicine-project/common/redis"
	"github.com/fanuel08/Medicine-project/internal/auth"
	"github.com/fanuel08/Medicine-project/internal/config"
	"github.com/fanuel08/Medicine-project/internal/events"
	httpapi "github.com/fanuel08/Medicine-project/internal/http"
	"github.com/fanuel08/Medicine-project/internal/repository"
	"github.com/fanuel08/Medicine-project/internal/service"
	"github.com/fanuel08/Medicine-project/internal/store"
	"github.com/fanuel08/Medicine-project/internal/ussd"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "afyalink")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	// DB is optional in dev: without it the server runs on memory repos.
	var db *sql.DB
	repos := repository.NewMemoryRepositories()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			repos = repository.NewPostgresRepositories(db)
			log.Info("DB enabled for afyalink")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}

	var (
		redisClient *redis.Client
		kv          store.KV
		sinks       []events.Publisher
	)
	if cfg.RedisEnabled {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		c, err := commonredis.Connect(pingCtx, &cfg.Redis)
		cancel()
		if err == nil {
			redisClient = c
			kv = store.NewRedisKV(c)
			sinks = append(sinks, events.NewStreamPublisher(c, cfg.Events.Stream, cfg.Events.MaxLen))
			log.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
		} else {
			log.Warn("Redis unavailable, token cache and OTP throttle disabled", zap.Error(err))
		}
	}

	var mqttClient *commonmqtt.Client
	if cfg.MQTT.Enabled {
		if c, err := commonmqtt.NewClient(&cfg.MQTT.Broker, log); err == nil {
			mqttClient = c
			sinks = append(sinks, events.NewMQTTPublisher(c, cfg.MQTT.TopicPrefix))
		} else {
			log.Warn("MQTT enabled but connection failed, agent notifications disabled", zap.Error(err))
		}
	}
	publisher := events.NewFanout(log, sinks...)

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	authService := service.NewAuthService(repos, tokens, log)
	if cfg.Admin.Enabled {
		seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := authService.EnsureAdmin(seedCtx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			log.Warn("Admin seed failed", zap.Error(err))
		}
		cancel()
	}

	cases := service.NewCaseService(repos, publisher, log)

	daraja := service.NewDarajaClient(service.DarajaConfig{
		BaseURL:        cfg.Daraja.BaseURL,
		ConsumerKey:    cfg.Daraja.ConsumerKey,
		ConsumerSecret: cfg.Daraja.ConsumerSecret,
		ShortCode:      cfg.Daraja.ShortCode,
		PassKey:        cfg.Daraja.PassKey,
		CallbackURL:    cfg.Daraja.CallbackURL,
		Timeout:        cfg.Daraja.Timeout,
	}, kv, log)
	payments := service.NewPaymentService(repos, daraja, service.PaymentOptions{
		AccountPrefix: cfg.Daraja.AccountPrefix,
		Amount:        cfg.Daraja.Amount,
		Location:      cfg.Location(),
	}, publisher, log)

	var sms service.SMSSender = service.LogSMSSender{Logger: log}
	if cfg.SMS.Enabled {
		sms = service.NewAfricasTalkingClient(service.SMSConfig{
			BaseURL:  cfg.SMS.BaseURL,
			Username: cfg.SMS.Username,
			APIKey:   cfg.SMS.APIKey,
			SenderID: cfg.SMS.SenderID,
		}, log)
	}
	login := service.NewPatientLoginService(repos, sms, kv, tokens, service.OTPOptions{
		TTL:         cfg.OTP.TTL,
		MaxRequests: cfg.OTP.MaxRequests,
		Window:      cfg.OTP.Window,
	}, log)

	menus := ussd.NewMenuLookup(repos.MenuTexts, cfg.USSD.DefaultLanguage, cfg.USSD.MenuFallback, log)
	session := ussd.NewSession(repos.Patients, cases, menus, log)

	router := httpapi.NewRouter(cfg.HTTP.APIPrefix, authService, log)
	router.RegisterUSSDRoutes(httpapi.NewUSSDHandler(session, log))
	router.RegisterCaseRoutes(httpapi.NewCasesHandler(cases, log))
	router.RegisterAccountRoutes(httpapi.NewAccountsHandler(authService, log))
	router.RegisterPatientLoginRoutes(httpapi.NewPatientLoginHandler(login, log))
	router.RegisterPaymentRoutes(httpapi.NewPaymentsHandler(payments, cfg.Location(), log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = commonredis.Close(redisClient)
	if db != nil {
		_ = database.Close(db)
	}
}
