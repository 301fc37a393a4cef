package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sushihentaime/postline/internal/commentservice"
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/mailservice"
	"github.com/sushihentaime/postline/internal/mediaservice"
	"github.com/sushihentaime/postline/internal/postservice"
	"github.com/sushihentaime/postline/internal/storage"
	"github.com/sushihentaime/postline/internal/taxonomyservice"
	"github.com/sushihentaime/postline/internal/userservice"
)

type application struct {
	config          *Config
	logger          *slog.Logger
	cache           *common.Cache
	userService     *userservice.UserService
	postService     *postservice.PostService
	commentService  *commentservice.CommentService
	taxonomyService *taxonomyservice.TaxonomyService
	mediaService    *mediaservice.MediaService
	mailService     *mailservice.MailService
	broker          *common.MessageBroker
}

func main() {
	configPath := flag.String("config", ".env", "path to the env file")
	migrate := flag.Bool("migrate", false, "apply database migrations before starting")
	flag.Parse()

	// Initialize the logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.Environment == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	if *migrate {
		_, err := common.MigrateUp("file://migrations", cfg.dbConfig().DSN())
		if err != nil {
			logger.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	// Initialize the database
	db, err := common.NewDB(cfg.dbConfig())
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	// Initialize the message broker
	broker, err := common.NewMessageBroker(cfg.amqpURI())
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	contentQueue, err := common.SetupContentExchange(broker)
	if err != nil {
		logger.Error("failed to setup the content exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = common.SetupCommentExchange(broker)
	if err != nil {
		logger.Error("failed to setup the comment exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the object store; uploads answer 503 without one
	var store mediaservice.ObjectStore
	s3Client, err := storage.New(cfg.storageConfig())
	if err != nil {
		logger.Error("failed to configure object storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if s3Client != nil {
		store = s3Client
	} else {
		logger.Warn("object storage is not configured, uploads are disabled")
	}

	cache := common.NewCache(cfg.CacheTTL, 2*cfg.CacheTTL)
	mode := cfg.aggregationMode()

	// Initialize the services
	app := &application{
		config:          cfg,
		logger:          logger,
		cache:           cache,
		userService:     userservice.NewUserService(db, broker, logger),
		postService:     postservice.NewPostService(db, cache, broker, logger, mode),
		commentService:  commentservice.NewCommentService(db, cache, broker, logger, mode, cfg.CommentFanoutLimit),
		taxonomyService: taxonomyservice.NewTaxonomyService(db, cache, broker, logger),
		mediaService:    mediaservice.NewMediaService(store, logger),
		mailService:     mailservice.NewMailService(broker, cfg.mailConfig(), cfg.SiteURL, logger),
		broker:          broker,
	}
	defer app.mailService.Close()

	// Initialize the consumers
	app.mailService.SendCommentNotifications()
	app.watchContentChanges(broker, contentQueue)

	// Start the HTTP server
	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
