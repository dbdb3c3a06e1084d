package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"inspection_server/server/api"
	commonauth "inspection_server/server/common/auth"
	"inspection_server/server/common/infra/cache"
	"inspection_server/server/common/infra/db"
	"inspection_server/server/common/infra/mq"
	"inspection_server/server/common/infra/object"
	"inspection_server/server/repository"
	"inspection_server/server/service"
	"inspection_server/server/storage"
)

type Server struct {
	HTTPServer *http.Server
	DB         *pgxpool.Pool
	Redis      *redis.Client
	AMQPConn   *amqp.Connection
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres: %w", err)
	}
	if err := repository.EnsureSchema(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisEnabled {
		rdb = cache.NewClient(cfg.RedisAddr)
	}

	var amqpConn *amqp.Connection
	var amqpChannel *amqp.Channel
	if cfg.EventsEnabled {
		amqpConn, err = mq.NewConnection(cfg.AMQPURL)
		if err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		amqpChannel, err = mq.DeclareTopicExchange(amqpConn, service.EventsExchange)
		if err != nil {
			_ = amqpConn.Close()
			dbPool.Close()
			return nil, fmt.Errorf("declare events exchange: %w", err)
		}
	}

	events := service.NewEvents(amqpChannel, rdb)
	statsCache := service.NewStatsCache(rdb, time.Duration(cfg.StatsTTLSecs)*time.Second)

	companyRepo := repository.NewCompanyRepository(dbPool)
	taskRepo := repository.NewTaskRepository(dbPool)
	checklistRepo := repository.NewChecklistRepository(dbPool)

	maxBytes := int64(cfg.MaxUploadMB) * 1024 * 1024
	attachmentSvc := service.NewAttachmentService(store, maxBytes, events)
	inspectionSvc := service.NewInspectionService(companyRepo, taskRepo, checklistRepo, events, statsCache)
	dashboardSvc := service.NewDashboardService(taskRepo, checklistRepo, statsCache)
	reportSvc := service.NewReportService(companyRepo, taskRepo, checklistRepo)
	realtimeSvc := service.NewRealtimeService(rdb)
	authSvc := commonauth.NewService(cfg.JWTSecret, cfg.JWTTTLMinutes)

	readyCheck := func(ctx context.Context) error {
		if err := dbPool.Ping(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return cache.Ping(ctx, rdb)
		}
		return nil
	}

	h := api.NewHandler(attachmentSvc, inspectionSvc, dashboardSvc, reportSvc, realtimeSvc, authSvc, api.AuthConfig{
		Enabled:           cfg.AuthEnabled,
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPasswordHash,
	}, readyCheck)

	r := gin.Default()
	r.MaxMultipartMemory = maxBytes
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{HTTPServer: httpServer, DB: dbPool, Redis: rdb, AMQPConn: amqpConn}, nil
}

func newBlobStore(ctx context.Context, cfg Config) (storage.BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "", "disk":
		store, err := storage.NewDiskStore(cfg.AttachmentsDir)
		if err != nil {
			return nil, fmt.Errorf("initialize attachment storage: %w", err)
		}
		return store, nil
	case "minio":
		client, err := object.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("initialize minio: %w", err)
		}
		store, err := storage.NewMinIOStore(ctx, client, cfg.MinioBucket)
		if err != nil {
			return nil, fmt.Errorf("initialize minio storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.AMQPConn != nil {
		_ = s.AMQPConn.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return s.HTTPServer.Shutdown(ctx)
}
