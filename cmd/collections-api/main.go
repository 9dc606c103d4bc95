// cmd/collections-api/main.go
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

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"collections-dashboard/internal/api"
	commonaws "collections-dashboard/internal/common/aws"
	"collections-dashboard/internal/common/config"
	"collections-dashboard/internal/common/database"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/observability"
	"collections-dashboard/internal/fetcher"
	"collections-dashboard/internal/handlers"
	"collections-dashboard/internal/jobs"
	"collections-dashboard/internal/notify"
	"collections-dashboard/internal/preferences"
	"collections-dashboard/internal/search"
	"collections-dashboard/internal/store"

	ra "collections-dashboard/internal/handlers/activity/recent-activity"
	fo "collections-dashboard/internal/handlers/applications/filter-options"
	la "collections-dashboard/internal/handlers/applications/list-applications"
	sa "collections-dashboard/internal/handlers/applications/search-applications"
	ap "collections-dashboard/internal/handlers/collections/approve-payment"
	cs "collections-dashboard/internal/handlers/collections/collection-summary"
	lcc "collections-dashboard/internal/handlers/collections/log-contact-call"
	rpd "collections-dashboard/internal/handlers/collections/record-ptp-date"
	ufs "collections-dashboard/internal/handlers/collections/update-field-status"
	ac "collections-dashboard/internal/handlers/comments/add-comment"
	lc "collections-dashboard/internal/handlers/comments/list-comments"
	sf "collections-dashboard/internal/handlers/preferences/saved-filters"
	ec "collections-dashboard/internal/handlers/reports/export-collections"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// handlerTimeout reads handlers.<operation>.timeout_ms, keeping def when unset.
func handlerTimeout(cfg *config.Config, operation string, def time.Duration) time.Duration {
	if hc, ok := cfg.Handlers[operation]; ok && hc.Timeout > 0 {
		return millis(hc.Timeout)
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting collections API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		zapLog.Fatal("invalid jobs.timezone", zap.String("timezone", cfg.Jobs.Timezone), zap.Error(err))
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (search only) ---
	var (
		esClient *database.ElasticsearchClient
		index    *search.Index
	)
	if cfg.Search.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index = search.NewIndex(esClient.Client, cfg.Search.Index, log)
		if err := index.EnsureIndex(ctx); err != nil {
			zapLog.Warn("search index check failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", index.Name()))
	}

	// --- Data access ---
	st := store.New(pg.DB)

	var cache *fetcher.Cache
	if cfg.Fetcher.CacheEnabled {
		cache = fetcher.NewCache(redis.Client, millis(cfg.Fetcher.CacheTTL), log)
	}
	loader := fetcher.New(&fetcher.Config{
		CacheTTL:            millis(cfg.Fetcher.CacheTTL),
		SequentialThreshold: cfg.Fetcher.SequentialThreshold,
		CommentLimit:        cfg.Fetcher.CommentLimit,
		LookupTimeout:       millis(cfg.Fetcher.LookupTimeout),
	}, st, st, cache, obs, log)
	sessions := fetcher.NewSessions(loader, millis(cfg.Fetcher.CacheTTL), cfg.Server.MaxSessions)
	defer sessions.Close()
	invalidate := handlers.Invalidators{cache, sessions}

	filterStore := preferences.NewStore(redis.Client, millis(cfg.Preferences.TTL), log)

	// --- Handlers ---
	listCfg := la.LoadConfig()
	listCfg.Timeout = handlerTimeout(cfg, la.Operation, listCfg.Timeout)
	listCfg.Location = loc
	if cfg.Server.DefaultPageLimit > 0 {
		listCfg.DefaultLimit = cfg.Server.DefaultPageLimit
	}
	if cfg.Server.MaximumPageLimit > 0 {
		listCfg.MaxLimit = cfg.Server.MaximumPageLimit
	}

	optionsCfg := fo.LoadConfig()
	optionsCfg.Timeout = handlerTimeout(cfg, fo.Operation, optionsCfg.Timeout)

	searchCfg := sa.LoadConfig()
	searchCfg.Timeout = handlerTimeout(cfg, sa.Operation, searchCfg.Timeout)
	searchCfg.Index = cfg.Search.Index
	var searcher sa.Searcher
	if index != nil {
		searcher = index
	}

	summaryCfg := cs.LoadConfig()
	summaryCfg.Timeout = handlerTimeout(cfg, cs.Operation, summaryCfg.Timeout)

	statusCfg := ufs.LoadConfig()
	statusCfg.Timeout = handlerTimeout(cfg, ufs.Operation, statusCfg.Timeout)

	approveCfg := ap.LoadConfig()
	approveCfg.Timeout = handlerTimeout(cfg, ap.Operation, approveCfg.Timeout)

	ptpCfg := rpd.LoadConfig()
	ptpCfg.Timeout = handlerTimeout(cfg, rpd.Operation, ptpCfg.Timeout)
	ptpCfg.Location = loc

	callCfg := lcc.LoadConfig()
	callCfg.Timeout = handlerTimeout(cfg, lcc.Operation, callCfg.Timeout)

	listCommentsCfg := lc.LoadConfig()
	listCommentsCfg.Timeout = handlerTimeout(cfg, lc.Operation, listCommentsCfg.Timeout)

	addCommentCfg := ac.LoadConfig()
	addCommentCfg.Timeout = handlerTimeout(cfg, ac.Operation, addCommentCfg.Timeout)

	exportCfg := ec.LoadConfig()
	exportCfg.Timeout = handlerTimeout(cfg, ec.Operation, exportCfg.Timeout)
	exportCfg.Location = loc

	activityCfg := ra.LoadConfig()
	activityCfg.Timeout = handlerTimeout(cfg, ra.Operation, activityCfg.Timeout)

	filtersCfg := sf.LoadConfig()
	filtersCfg.Timeout = handlerTimeout(cfg, sf.Operation, filtersCfg.Timeout)

	router, err := api.NewRouter(api.Handlers{
		ListApplications:   la.NewHandler(listCfg, st, sessions, obs, log),
		FilterOptions:      fo.NewHandler(optionsCfg, st, loader, obs, log),
		SearchApplications: sa.NewHandler(searchCfg, searcher, obs, log),
		CollectionSummary:  cs.NewHandler(summaryCfg, st, obs, log),
		UpdateFieldStatus:  ufs.NewHandler(statusCfg, st, invalidate, obs, log),
		ApprovePayment:     ap.NewHandler(approveCfg, st, invalidate, obs, log),
		RecordPtpDate:      rpd.NewHandler(ptpCfg, st, invalidate, obs, log),
		LogContactCall:     lcc.NewHandler(callCfg, st, invalidate, obs, log),
		ListComments:       lc.NewHandler(listCommentsCfg, st, obs, log),
		AddComment:         ac.NewHandler(addCommentCfg, st, invalidate, obs, log),
		ExportCollections:  ec.NewHandler(exportCfg, st, loader, obs, log),
		SavedFilters:       sf.NewHandler(filtersCfg, filterStore, obs, log),
		RecentActivity:     ra.NewHandler(activityCfg, st, obs, log),
	}, api.Options{RateLimit: cfg.Server.RateLimit}, log)
	if err != nil {
		zapLog.Fatal("router setup failed", zap.Error(err))
	}
	zapLog.Info("All API handlers registered successfully")

	// --- Scheduled jobs ---
	scheduler := jobs.NewScheduler(loc, 10*time.Minute, log)
	if cfg.Jobs.PtpDigest.Enabled {
		notifier, err := newNotifier(ctx, cfg, log)
		if err != nil {
			zapLog.Fatal("notifier setup failed", zap.Error(err))
		}
		digest := jobs.NewPtpDigestJob(&jobs.PtpDigestConfig{
			Recipients:  cfg.Jobs.PtpDigest.Recipients,
			SMSTopicARN: cfg.Jobs.PtpDigest.SMSTopicARN,
			Location:    loc,
		}, st, loader, notifier, log)
		if err := scheduler.Add(cfg.Jobs.PtpDigest.Schedule, digest); err != nil {
			zapLog.Fatal("ptp digest schedule failed", zap.Error(err))
		}
	}
	if cfg.Jobs.SearchReindex.Enabled && index != nil {
		reindex := jobs.NewSearchReindexJob(st, index, loc, log)
		if err := scheduler.Add(cfg.Jobs.SearchReindex.Schedule, reindex); err != nil {
			zapLog.Fatal("search reindex schedule failed", zap.Error(err))
		}
	}
	scheduler.Start()

	// --- Health, readiness & metrics ---
	deps := []database.Pinger{pg, redis}
	if esClient != nil {
		deps = append(deps, esClient)
	}
	registerOps(router, deps)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  millis(cfg.Server.ReadTimeout),
		WriteTimeout: millis(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), millis(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		zapLog.Warn("Scheduled jobs still running at shutdown")
	}

	zapLog.Info("Collections API stopped gracefully")
}

// newNotifier builds the SES/SNS notifier. Disabled channels get no client.
func newNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Notifier, error) {
	awsCfg := cfg.Integrations.AWS
	ncfg := &notify.Config{
		EmailEnabled: awsCfg.SES.Enabled,
		SMSEnabled:   awsCfg.SNS.Enabled,
		FromEmail:    awsCfg.SES.FromEmail,
	}
	if !ncfg.EmailEnabled && !ncfg.SMSEnabled {
		return notify.New(ncfg, nil, nil, log), nil
	}

	sdkCfg, err := commonaws.LoadConfig(ctx, awsCfg.Region)
	if err != nil {
		return nil, err
	}
	var (
		sesClient notify.SESService
		snsClient notify.SNSService
	)
	if ncfg.EmailEnabled {
		sesClient = commonaws.NewSESClient(sdkCfg)
	}
	if ncfg.SMSEnabled {
		snsClient = commonaws.NewSNSClient(sdkCfg)
	}
	return notify.New(ncfg, sesClient, snsClient, log), nil
}

func registerOps(router *mux.Router, deps []database.Pinger) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, code := "ready", http.StatusOK
		checks := map[string]string{}
		for name, err := range database.CheckAll(ctx, deps...) {
			checks[name] = err.Error()
			status, code = "not ready", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}
