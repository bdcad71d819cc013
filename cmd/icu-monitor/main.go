package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"icu-monitor/internal/config"
	"icu-monitor/internal/consumer"
	"icu-monitor/internal/database"
	httpapi "icu-monitor/internal/http"
	"icu-monitor/internal/logger"
	"icu-monitor/internal/metrics"
	mqttcommon "icu-monitor/internal/mqtt"
	"icu-monitor/internal/playback"
	"icu-monitor/internal/prediction"
	rediscommon "icu-monitor/internal/redis"
	"icu-monitor/internal/repository"
	"icu-monitor/internal/service"
	"icu-monitor/internal/store"
	"icu-monitor/internal/vitals"
)

// repositories 一组仓储实现（Postgres 或内存）
type repositories struct {
	users        repository.UsersRepository
	hospitals    repository.HospitalsRepository
	departments  repository.DepartmentsRepository
	patients     repository.PatientsRepository
	appointments repository.AppointmentsRepository
	devices      repository.DevicesRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "icu-monitor")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("icu-monitor exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 数据库不可用时退回内存仓储
	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for icu-monitor")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}
	if db != nil && cfg.Database.SchemaFile != "" {
		if err := database.ApplySchema(ctx, db, cfg.Database.SchemaFile); err != nil {
			_ = database.Close(db)
			return err
		}
		log.Info("Database schema applied", zap.String("file", cfg.Database.SchemaFile))
	}
	repos := newRepositories(db)

	var (
		kv          store.KV = store.NewMemoryKV()
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		if rc, err := rediscommon.Connect(ctx, &cfg.Redis); err == nil {
			redisClient = rc
			kv = store.NewRedisKV(rc)
			log.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
		} else {
			log.Warn("Redis unavailable, using in-memory KV", zap.Error(err))
		}
	}

	m := metrics.New()
	evaluator := vitals.NewEvaluator(vitals.NewLogisticScorer(), cfg.Feed.RiskThreshold)

	hospSvc := service.NewHospitalService(repos.hospitals, repos.departments, log)
	patientSvc := service.NewPatientService(repos.patients, log)
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := service.NewAuthService(repos.users, hospSvc, tokens, store.NewTokenRevoker(kv), log)
	monitorSvc := service.NewMonitorService(repos.devices, repos.patients, store.NewVitalsStore(kv), evaluator, m, log)

	hub := httpapi.NewWSHub(m, log)
	defer hub.Close()

	// 病症模型启动时预加载，创面模型首次请求时加载
	disease := prediction.NewDiseasePredictor(cfg.Predict.DiseaseModel, log)
	disease.Load()
	wound := prediction.NewWoundPredictor(cfg.Predict.WoundModel, log)

	handler := httpapi.NewAPI(httpapi.APIDeps{
		Auth:         authSvc,
		Users:        service.NewUserService(repos.users, repos.departments, log),
		Hospitals:    hospSvc,
		Patients:     patientSvc,
		Appointments: service.NewAppointmentService(repos.appointments, repos.patients, log),
		Admin:        service.NewAdminService(repos.devices, patientSvc, repos.patients, repos.departments, cfg.Feed.MonitorCapacity, log),
		Monitors:     monitorSvc,
		Hub:          hub,
		Metrics:      m,
		Disease:      disease,
		Wound:        wound,
		Bypass:       cfg.Auth.Bypass,
		Logger:       log,
	})
	if cfg.Auth.Bypass {
		log.Warn("Auth bypass enabled: unauthenticated requests run as the bypass doctor")
	}

	g, gctx := errgroup.WithContext(ctx)

	var source service.RosterSource = monitorSvc
	if !cfg.Feed.UseRealMonitor {
		source = service.PlaybackSource{Player: playback.NewPlayer(loadDataset(cfg.Feed.PlaybackCSV, log), evaluator)}
	}
	broadcaster := service.NewBroadcaster(source, hub, cfg.Feed.Interval, m, log)
	g.Go(func() error { return broadcaster.Run(gctx) })

	// MQTT -> Redis Stream -> MonitorService，需要 Redis
	var mqttConsumer *consumer.MQTTConsumer
	if cfg.MQTT.Enabled && redisClient != nil {
		mc, err := mqttcommon.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Warn("MQTT unavailable, monitor ingestion via HTTP only", zap.Error(err))
		} else {
			defer mc.Disconnect()
			mqttConsumer = consumer.NewMQTTConsumer(mc, redisClient, cfg.MQTT, cfg.Ingest, log)
			g.Go(func() error { return mqttConsumer.Start(gctx) })
		}
	} else if cfg.MQTT.Enabled {
		log.Warn("MQTT enabled but Redis is unavailable, skipping monitor ingestion")
	}
	if redisClient != nil {
		streamConsumer := consumer.NewStreamConsumer(redisClient, monitorSvc, cfg.Ingest, log)
		g.Go(func() error { return streamConsumer.Start(gctx) })
	}

	srv := service.NewServer(cfg.HTTP.Addr, handler, 30*time.Second, log)
	g.Go(func() error { return srv.Run(gctx) })

	// 收到信号或任一组件失败
	<-gctx.Done()
	log.Info("Shutting down icu-monitor")
	if mqttConsumer != nil {
		mqttConsumer.Stop()
	}
	err := g.Wait()

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = database.Close(db)
	}
	return err
}

func newRepositories(db *sql.DB) repositories {
	if db != nil {
		hospitals := repository.NewPostgresHospitalsRepository(db)
		return repositories{
			users:        repository.NewPostgresUsersRepository(db),
			hospitals:    hospitals,
			departments:  hospitals,
			patients:     repository.NewPostgresPatientsRepository(db),
			appointments: repository.NewPostgresAppointmentsRepository(db),
			devices:      repository.NewPostgresDevicesRepository(db),
		}
	}
	hospitals := repository.NewMemoryHospitalsRepository()
	patients := repository.NewMemoryPatientsRepository()
	return repositories{
		users:        repository.NewMemoryUsersRepository(),
		hospitals:    hospitals,
		departments:  hospitals,
		patients:     patients,
		appointments: patients,
		devices:      repository.NewMemoryDevicesRepository(),
	}
}

// loadDataset 回放文件缺失时推送为空
func loadDataset(path string, log *zap.Logger) *playback.Dataset {
	data, err := playback.LoadFile(path)
	if err != nil {
		log.Warn("Playback data unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	log.Info("Playback data loaded",
		zap.String("path", path),
		zap.Int("rows", data.Rows()),
		zap.Int("max_window", data.MaxWindow()),
	)
	return data
}
