// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"business-workers/internal/business/activation"
	"business-workers/internal/business/directory"
	"business-workers/internal/business/store"
	"business-workers/internal/business/templates"
	"business-workers/internal/common/auth"
	awsclient "business-workers/internal/common/aws"
	"business-workers/internal/common/backoff"
	"business-workers/internal/common/camunda"
	"business-workers/internal/common/config"
	"business-workers/internal/common/database"
	"business-workers/internal/common/logger"
	"business-workers/internal/common/observability"
	"business-workers/pkg/registry"

	ab "business-workers/internal/workers/business/activate-business"
	ca "business-workers/internal/workers/business/check-activation"
	qr "business-workers/internal/workers/business/resolve-qr"
	rt "business-workers/internal/workers/business/resolve-template"
	san "business-workers/internal/workers/business/send-activation-notice"
	tr "business-workers/internal/workers/business/transition-request"
)

// connectWithRetry retries a start-up dependency with doubling delays,
// logging every failed attempt.
func connectWithRetry(ctx context.Context, log *zap.Logger, name string, attempts int, delay time.Duration, connect func(context.Context) error) error {
	err := backoff.Do(ctx, backoff.Policy{
		Attempts: attempts,
		Delay:    delay,
		MaxDelay: 30 * time.Second,
		Notify: func(err error, attempt int) {
			log.Warn(fmt.Sprintf("%s attempt failed", name),
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", attempts),
			)
		},
	}, connect)
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
	}
	return nil
}

type registration struct {
	taskType string
	handler  camunda.JobHandler
}

func main() {
	bootLog := logger.New("info", "json")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("business-workers", log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.CheckSchemas(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = connectWithRetry(ctx, zapLog, "PostgreSQL connection", 15, 2*time.Second, func(ctx context.Context) error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		return nil
	})
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Business number source ---
	var numbers activation.NumberGenerator
	switch cfg.Activation.NumberStrategy {
	case config.NumberStrategyRedis:
		rdb := database.NewRedis(cfg.Database.Redis)
		err = connectWithRetry(ctx, zapLog, "Redis connection", 10, 2*time.Second, rdb.Ping)
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		numbers = activation.NewRedisSequenceGenerator(rdb.Client, cfg.Activation.SequenceKey)
		zapLog.Info("Redis connected successfully")
	default:
		numbers = activation.NewRandomNumberGenerator(time.Now().UnixNano())
	}

	// --- Public directory ---
	var dir *directory.Directory
	if cfg.Directory.Enabled {
		var esClient *database.ElasticsearchClient
		err = connectWithRetry(ctx, zapLog, "Elasticsearch connection", 15, 2*time.Second, func(ctx context.Context) error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		})
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		dir = directory.New(esClient.Client, cfg.Directory.Index)
		if err := dir.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("directory index setup failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Directory.Index))
	}

	// --- Identity provider ---
	if cfg.Auth.Keycloak.URL == "" {
		zapLog.Fatal("auth.keycloak.url is required")
	}
	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)
	mapper, err := auth.NewRoleMapper(cfg.Auth.RoleMappings)
	if err != nil {
		zapLog.Fatal("role mapping invalid", zap.Error(err))
	}
	authz := auth.NewAuthorizer(keycloak, mapper)

	// --- Notification channels ---
	var emailSender san.EmailSender
	if cfg.Notifications.Email.Enabled {
		ses, err := awsclient.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		emailSender = ses
	}
	var smsSender san.SMSSender
	if cfg.Notifications.SMS.Enabled {
		sns, err := awsclient.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SMS.SenderID)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		smsSender = sns
	}

	zapLog.Info("All external service clients initialized")

	// --- Business services ---
	resolver := templates.NewResolver(templates.DefaultRegistry())
	service := activation.NewService(
		resolver,
		numbers,
		activation.NewLogAuditSink(log),
		log,
		activation.WithProvisionalCurrency(cfg.Activation.DefaultCurrency),
	)
	requests := store.NewServiceRequestStore(pg.DB)
	activations := store.NewActivationStore(pg.DB)

	timeoutFor := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	var regs []registration
	add := func(taskType string, build func() camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		regs = append(regs, registration{taskType: taskType, handler: build()})
	}

	add(rt.TaskType, func() camunda.JobHandler {
		return rt.NewHandler(&rt.Config{Timeout: timeoutFor(rt.TaskType)}, resolver, log)
	})
	add(tr.TaskType, func() camunda.JobHandler {
		return tr.NewHandler(&tr.Config{Timeout: timeoutFor(tr.TaskType)}, requests, authz, log)
	})
	add(ca.TaskType, func() camunda.JobHandler {
		return ca.NewHandler(&ca.Config{Timeout: timeoutFor(ca.TaskType)}, requests, service, log)
	})
	add(ab.TaskType, func() camunda.JobHandler {
		var indexer ab.ProfileIndexer
		if dir != nil {
			indexer = dir
		}
		return ab.NewHandler(
			&ab.Config{
				Timeout:       timeoutFor(ab.TaskType),
				NumberRetries: cfg.Activation.NumberRetries,
			},
			requests, activations, service, authz, indexer, obs, log,
		)
	})
	add(san.TaskType, func() camunda.JobHandler {
		return san.NewHandler(
			&san.Config{
				Timeout:          timeoutFor(san.TaskType),
				EmailEnabled:     cfg.Notifications.Email.Enabled,
				SMSEnabled:       cfg.Notifications.SMS.Enabled,
				DirectoryBaseURL: cfg.Directory.PublicBaseURL,
			},
			emailSender, smsSender, log,
		)
	})
	if dir != nil {
		add(qr.TaskType, func() camunda.JobHandler {
			return qr.NewHandler(&qr.Config{Timeout: timeoutFor(qr.TaskType)}, dir, log)
		})
	} else {
		zapLog.Warn("directory disabled, QR resolution worker not started", zap.String("taskType", qr.TaskType))
	}

	// A worker the registry does not list as implemented is never started.
	taskTypes := make([]string, 0, len(regs))
	for _, r := range regs {
		taskTypes = append(taskTypes, r.taskType)
	}
	if missing := reg.Unregistered(taskTypes); len(missing) > 0 {
		zapLog.Fatal("workers missing from activity registry", zap.Strings("taskTypes", missing))
	}

	// --- Init Zeebe Client ---
	zb, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Insecure,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	workers := make([]*camunda.Worker, 0, len(regs))
	for _, r := range regs {
		wcfg := config.GetWorkerConfig(cfg, r.taskType)
		workers = append(workers, camunda.OpenWorker(zb.GetClient(), r.taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, r.handler, log))
	}
	zapLog.Info("workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           newHTTPHandler(pg, zb),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zb.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type pinger interface {
	Ping(ctx context.Context) error
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func newHTTPHandler(db pinger, broker healthChecker) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "zeebe": "ok"}
		ready := true
		if err := db.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		}
		if err := broker.HealthCheck(ctx); err != nil {
			checks["zeebe"] = err.Error()
			ready = false
		}

		if !ready {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", checks)
			return
		}
		writeStatus(w, http.StatusOK, "ready", checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	_ = json.NewEncoder(w).Encode(body)
}
