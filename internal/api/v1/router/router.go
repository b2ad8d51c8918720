package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/imaging"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled for
	// local testing. In production, the connection string should be provided
	// with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Initialize S3 client for generated artifacts
	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})
	store := storage.NewS3ArtifactStore(s3Client, cfg.S3Bucket)

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Resolve managed secrets when enabled
	if cfg.UseSecretManager {
		if err := resolveSecrets(context.Background(), cfg, logger); err != nil {
			logger.Error().Err(err).Msg("Failed to resolve managed secrets")
			return nil, nil, err
		}
	}

	// 5. Optional Pub/Sub publisher for email-queue notifications
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" && cfg.EmailQueuedTopic != "" {
		p, err := pubsub.NewPublisher(context.Background(), cfg.GCPProjectID)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			return nil, nil, err
		}
		publisher = p
	}

	// 6. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(db)
	outfitRepo := repository.NewOutfitRequestRepo(db)
	queueRepo := repository.NewEmailQueueRepo(db)

	watermarker := imaging.NewWatermarker(cfg.WatermarkAssetPath, cfg.WatermarkWidthRatio, logger)
	generator := service.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, time.Duration(cfg.GeminiTimeoutSec)*time.Second, logger)

	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour, cfg.DefaultCredits, logger)
	deliverySvc := service.NewDeliveryService(
		service.EmailChannelsFromConfig(cfg),
		time.Duration(cfg.SMTPTimeoutSec)*time.Second,
		queueRepo,
		store,
		publisher,
		cfg.EmailQueuedTopic,
		logger,
	)
	generationSvc := service.NewGenerationService(userRepo, outfitRepo, generator, watermarker, store, deliverySvc, logger)
	adminSvc := service.NewAdminService(userRepo, outfitRepo, queueRepo, store, logger)

	// The bootstrap admin account is created on startup when configured.
	if err := authSvc.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error().Err(err).Msg("Failed to ensure admin account")
		return nil, nil, err
	}

	authHandler := handler.NewAuthHandler(authSvc, validate, logger)
	optionsHandler := handler.NewOptionsHandler()
	generateHandler := handler.NewGenerateHandler(generationSvc, deliverySvc, store, validate, logger)
	adminHandler := handler.NewAdminHandler(adminSvc, validate, logger)

	// 7. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	adminMiddleware := func(next http.Handler) http.Handler {
		return authMiddleware(middleware.AdminMiddleware(next))
	}

	// 8. Create ServeMux router
	apiMux := http.NewServeMux()
	authHandler.RegisterRoutes(apiMux, authMiddleware)
	optionsHandler.RegisterRoutes(apiMux)
	generateHandler.RegisterRoutes(apiMux, authMiddleware)
	adminHandler.RegisterRoutes(apiMux, adminMiddleware)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiMux))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), db, nil
}

// resolveSecrets replaces selected config values with their Secret Manager
// counterparts. A missing individual secret keeps the environment value.
func resolveSecrets(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	sm, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
	if err != nil {
		return err
	}

	targets := []struct {
		name   string
		target *string
	}{
		{"gemini-api-key", &cfg.GeminiAPIKey},
		{"smtp1-password", &cfg.SMTP1Password},
		{"smtp2-password", &cfg.SMTP2Password},
		{"smtp3-password", &cfg.SMTP3Password},
	}
	for _, t := range targets {
		value, err := sm.GetSecret(ctx, t.name)
		if err != nil {
			logger.Warn().Err(err).Str("secret", t.name).Msg("Secret not resolved, keeping environment value")
			continue
		}
		if value != "" {
			*t.target = value
		}
	}
	return nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
