package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/projecthub-backend/api"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/config"
	"github.com/rpupo63/projecthub-backend/database"
	"github.com/rpupo63/projecthub-backend/functions"
	"github.com/rpupo63/projecthub-backend/models"
	"github.com/rpupo63/projecthub-backend/services"
	"github.com/rpupo63/projecthub-backend/storage"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.GetString(c, "AWS_REGION", "us-east-1")))
	if err != nil {
		log.Fatal().Err(err).Msg("error loading AWS config")
	}

	// Secrets not present in the environment come from SSM
	err = config.LoadSecrets(ctx, c, ssm.NewFromConfig(awsCfg), map[string]string{
		"JWT_SECRET":           "SSM_JWT_SECRET_PARAM",
		"GOOGLE_CLIENT_SECRET": "SSM_GOOGLE_CLIENT_SECRET_PARAM",
		"RESEND_API_KEY":       "SSM_RESEND_API_KEY_PARAM",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("error loading secrets")
	}

	// Build connection string based on DB_TYPE
	dbType := config.GetString(c, "DB_TYPE", "")
	var connStr string
	fmt.Printf("DB_TYPE: %s\n", dbType)
	switch dbType {
	case "supa":
		connStr = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			getEnv(c, "SUPABASE_DB_HOST", ""),
			getEnv(c, "SUPABASE_DB_USER", ""),
			getEnv(c, "SUPABASE_DB_PASSWORD", ""),
			getEnv(c, "SUPABASE_DB_NAME", ""),
			getEnv(c, "SUPABASE_DB_PORT", "5432"),
		)
		fmt.Println("Connecting to Supabase database...")
	case "postgres":
		connStr = getEnv(c, "DATABASE_URL", "")
		fmt.Println("Connecting to Postgres database...")
	default:
		fmt.Println("Unsupported DB_TYPE. Exiting...")
		os.Exit(1)
	}

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	// Reads go to the replica when one is configured
	if replica := getEnv(c, "DB_REPLICA_DSN", ""); replica != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{DSN: replica, PreferSimpleProtocol: true})},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			fmt.Printf("Error registering read replica: %v\n", err)
			os.Exit(1)
		}
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		fmt.Printf("Error testing database connection: %v\n", err)
		os.Exit(1)
	}

	if config.GetBool(c, "RUN_MIGRATIONS", false) {
		fmt.Println("Running migrations...")
		if err := database.Migrate(db); err != nil {
			fmt.Printf("Error running migrations: %v\n", err)
			os.Exit(1)
		}
	}

	// If generating models, run generation and exit
	if strings.ToLower(getEnv(c, "GENERATE_MODELS", "")) == "true" {
		fmt.Println("Generating models and query helpers...")
		if err := models.GenerateModels(db, getEnv(c, "GENERATE_MODELS_PATH", "./query")); err != nil {
			fmt.Printf("Error generating models: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if getEnv(c, "GENERATE_COLUMN_REPORT", "") == "true" {
		fmt.Println("Generating column mismatch report...")
		if mismatches := models.GenerateColumnMismatchReport(db); mismatches > 0 {
			os.Exit(1)
		}
		return
	}

	listener := database.NewListener(connStr)
	go func() {
		if err := listener.Run(ctx); err != nil {
			log.Error().Err(err).Msg("notification listener stopped")
		}
	}()
	currentDB := database.New(db, listener)

	blobs := storage.NewS3Store(awsCfg, storage.S3Options{
		Bucket:        getEnv(c, "S3_BUCKET", ""),
		Region:        awsCfg.Region,
		PublicBaseURL: getEnv(c, "S3_PUBLIC_BASE_URL", ""),
		Endpoint:      getEnv(c, "S3_ENDPOINT", ""),
	})

	var (
		dedupe      functions.Deduper
		revocations auth.RevocationList
	)
	if addr := getEnv(c, "REDIS_ADDR", ""); addr != "" {
		client, err := functions.NewRedisClient(ctx, addr, getEnv(c, "REDIS_PASSWORD", ""))
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, view deduplication disabled and sign-outs kept in memory")
		} else {
			defer client.Close()
			dedupe = functions.NewRedisDeduper(client, config.GetSeconds(c, "VIEW_DEDUPE_TTL_SECONDS", 600))
			revocations = auth.NewRedisRevocations(client)
		}
	}

	secret := getEnv(c, "JWT_SECRET", "")
	if secret == "" {
		fmt.Println("JWT_SECRET is required. Exiting...")
		os.Exit(1)
	}
	tokens := auth.NewTokenIssuer(secret, time.Duration(config.GetInt(c, "JWT_TTL_MINUTES", 60*24))*time.Minute)

	var google *auth.GoogleProvider
	if id := getEnv(c, "GOOGLE_CLIENT_ID", ""); id != "" {
		google = auth.NewGoogleProvider(id, getEnv(c, "GOOGLE_CLIENT_SECRET", ""), getEnv(c, "GOOGLE_REDIRECT_URL", ""))
	}
	authService := auth.NewService(currentDB.CredentialRepo(), tokens, google)
	authService.OnIdentityCreated(functions.OnUserCreated(currentDB.UserRepo()))
	if revocations != nil {
		authService.UseRevocations(revocations)
	}

	var mailer functions.Mailer
	if m := services.NewResendMailer(c); m != nil {
		mailer = m
	}
	engagement := functions.NewEngagement(currentDB.NotificationRepo(), currentDB.UserRepo(), mailer)
	views := functions.NewViews(currentDB.ProjectRepo(), dedupe)

	workspaces := api.NewWorkspaces(api.WorkspaceDeps{
		Projects:      currentDB.ProjectRepo(),
		Comments:      currentDB.CommentRepo(),
		Profiles:      currentDB.UserRepo(),
		Bookmarks:     currentDB.BookmarkRepo(),
		Notifications: currentDB.NotificationRepo(),
		Blobs:         blobs,
		Views:         views,
		Notifier:      engagement,
		PageSize:      config.GetInt(c, "NOTIFICATION_PAGE_SIZE", services.DefaultNotificationPageSize),
		IdleTimeout:   config.GetSeconds(c, "WORKSPACE_IDLE_SECONDS", 1800),
	})

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(api.Deps{Auth: authService, Views: views, Workspaces: workspaces}, c)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}

// getEnv returns the config value of key or a fallback value.
func getEnv(c map[string]string, key, fallback string) string {
	return config.GetString(c, key, fallback)
}
