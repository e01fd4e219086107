// Package app はcareerconsultの起動処理を提供する。
// サブコマンドごとに依存関係をワイヤリングし、APIサーバー・ワーカー・マイグレーションを実行する。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/careerconsult/internal/approval"
	"github.com/hitoshi/careerconsult/internal/auth"
	"github.com/hitoshi/careerconsult/internal/config"
	"github.com/hitoshi/careerconsult/internal/database"
	"github.com/hitoshi/careerconsult/internal/handler"
	"github.com/hitoshi/careerconsult/internal/logger"
	"github.com/hitoshi/careerconsult/internal/metrics"
	"github.com/hitoshi/careerconsult/internal/mfa"
	"github.com/hitoshi/careerconsult/internal/middleware"
	"github.com/hitoshi/careerconsult/internal/model"
	"github.com/hitoshi/careerconsult/internal/notification"
	"github.com/hitoshi/careerconsult/internal/payment"
	"github.com/hitoshi/careerconsult/internal/repository"
	"github.com/hitoshi/careerconsult/internal/security"
	"github.com/hitoshi/careerconsult/internal/session"
	"github.com/hitoshi/careerconsult/internal/settlement"
	"github.com/hitoshi/careerconsult/internal/storage"
	"github.com/hitoshi/careerconsult/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// connectDB は設定に従ってDB接続プールを開き、疎通を確認する。
func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	}
	db, err := database.Connect(ctx, cfg.DatabaseURL, pool, cfg.DBConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// DB・Redisに接続し、全依存関係をワイヤリングし、HTTPサーバーとメトリクスサーバーを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := connectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. セッションストア（Redis）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	sessionStore := session.NewRedisStore(redisClient, session.DefaultKeyPrefix)
	if err := sessionStore.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	sessions := session.NewGateway(sessionStore)

	slog.Info("redis connection established")

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "careerconsult"),
	)
	collector := metrics.NewCollector(registry)

	// 4. リポジトリの初期化
	tx := repository.NewTransactor(db)
	userAccounts := repository.NewPostgresUserAccountRepo(db)
	adminAccounts := repository.NewPostgresAdminAccountRepo(db)
	userMfaInfos := repository.NewPostgresUserMfaInfoRepo(db)
	adminMfaInfos := repository.NewPostgresAdminMfaInfoRepo(db)

	// 5. 外部サービス
	reasons := security.NewReasonValidator()
	paymentClient := payment.NewClient(payment.ClientConfig{
		BaseURL:   cfg.PaymentAPIBaseURL,
		SecretKey: cfg.PaymentAPISecretKey,
		Timeout:   cfg.PaymentAPITimeout,
	})
	images := storage.NewLocalImageStore(cfg.ImageDir)
	notifier := notification.NewLogNotifier(slog.Default())

	// 6. ドメインサービスの初期化
	approvalService := approval.NewService(approval.Deps{
		Tx:               tx,
		Accounts:         userAccounts,
		IdentityRequests: repository.NewPostgresIdentityRequestRepo(db),
		Identities:       repository.NewPostgresIdentityRepo(db),
		CareerRequests:   repository.NewPostgresCareerRequestRepo(db),
		Careers:          repository.NewPostgresCareerRepo(db),
		Images:           images,
		Reasons:          reasons,
		Metrics:          collector,
	})

	settlementService := settlement.NewService(settlement.Deps{
		Tx:                  tx,
		BankAccounts:        repository.NewPostgresBankAccountRepo(db),
		AwaitingWithdrawals: repository.NewPostgresAwaitingWithdrawalRepo(db),
		AwaitingPayments:    repository.NewPostgresAwaitingPaymentRepo(db),
		Outcomes:            repository.NewPostgresSettlementOutcomeRepo(db),
		Payment:             paymentClient,
		Reasons:             reasons,
		Metrics:             collector,
		Config: settlement.Config{
			RefundableDuration: cfg.RefundableDuration,
			TransferFeeInYen:   int32(cfg.TransferFeeInYen),
		},
	})

	authConfig := auth.ServiceConfig{
		SessionTTL:      cfg.SessionTTL,
		LoginSessionTTL: cfg.LoginSessionTTL,
	}
	userAuth := auth.NewService(model.AccountKindUser, userAccounts, sessions, authConfig)
	adminAuth := auth.NewService(model.AccountKindAdmin, adminAccounts, sessions, authConfig)

	userMfa := mfa.NewService(
		mfa.NewAuthenticator(model.AccountKindUser, tx, userAccounts, userMfaInfos, collector),
		sessions, cfg.SessionTTL,
	)
	adminMfa := mfa.NewService(
		mfa.NewAuthenticator(model.AccountKindAdmin, tx, adminAccounts, adminMfaInfos, collector),
		sessions, cfg.SessionTTL,
	)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitMFA))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:          slog.Default(),
		Metrics:         collector,
		SessionLoader:   sessions,
		RateLimiter:     rateLimiter,
		SessionTTL:      cfg.SessionTTL,
		LoginSessionTTL: cfg.LoginSessionTTL,
		Cookie: handler.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		},
		HealthTargets: map[string]handler.Pinger{
			"database": db,
			"redis":    sessionStore,
		},
		UserAuth:   userAuth,
		AdminAuth:  adminAuth,
		UserMfa:    userMfa,
		AdminMfa:   adminMfa,
		Admins:     adminAccounts,
		Approval:   approvalService,
		Settlement: settlementService,
		Notifier:   notifier,
		Templates: notification.Templates{
			From:                    cfg.SystemEmailAddress,
			IdentityApprovalSubject: cfg.MailSubjectApproval,
			IdentityRejectSubject:   cfg.MailSubjectRejection,
			CareerApprovalSubject:   cfg.MailSubjectCareerApproval,
			CareerRejectSubject:     cfg.MailSubjectCareerRejection,
			BaseURL:                 cfg.BaseURL,
		},
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.SetupMetricsRoute(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	for _, srv := range []*http.Server{server, metricsServer} {
		go func(srv *http.Server) {
			slog.Info("server starting", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server listen error on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown failed", slog.String("error", err.Error()))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、拒否履歴のクリーンアップジョブを定期実行する。
// ctxがキャンセルされるまでブロックする。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := connectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.RetentionDays = cfg.RejectedRequestRetentionDays

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
		slog.Int("retention_days", cfg.RejectedRequestRetentionDays),
	)

	cleanupJob.Start(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
