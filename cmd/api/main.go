package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/todo-list-api/internal/aws"
	"github.com/imrishuroy/todo-list-api/internal/config"
	"github.com/imrishuroy/todo-list-api/internal/handlers"
	"github.com/imrishuroy/todo-list-api/internal/idempotency"
	"github.com/imrishuroy/todo-list-api/internal/todos"
)

func setupRouter(cfg config.Config, hc handlers.HandlerConfig) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.HTTP.MaxUploadMemory()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(hc.Logger))
	r.Use(handlers.CORS(cfg.HTTP.CORSOrigins))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the todo list API"})
	})

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "env": cfg.App.Env})
	})

	handlers.RegisterTodoRoutes(r, hc)

	return r
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.App.Env == "dev" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, aws.Settings{
		Region:           cfg.AWS.Region,
		EndpointOverride: cfg.AWS.EndpointOverride,
	})
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	store := todos.NewDynamoStore(clients.DynamoDB, cfg.AWS.RecordsTable)
	if err := store.Ping(ctx); err != nil {
		log.Fatalf("records table %s unreachable: %v", cfg.AWS.RecordsTable, err)
	}
	logger.Info("records table ready", "table", cfg.AWS.RecordsTable, "region", cfg.AWS.Region)

	var sink todos.EventSink
	if cfg.Events.Enabled() {
		sink = aws.NewPublisher(clients.SQS, cfg.Events.QueueURL)
		logger.Info("record events enabled", "queue_url", cfg.Events.QueueURL)
	}

	hc := handlers.HandlerConfig{
		Service: todos.NewService(store, sink, logger),
		Logger:  logger,
	}
	if cfg.Idempotency.Enabled() {
		hc.Idempotency = idempotency.NewStore(clients.DynamoDB, cfg.Idempotency.Table, cfg.Idempotency.TTL())
		logger.Info("idempotent create enabled", "table", cfg.Idempotency.Table, "ttl", cfg.Idempotency.TTL().String())
	}

	r := setupRouter(cfg, hc)

	// if RUN_LOCAL is set, run a local HTTP server for development.
	if cfg.App.RunLocal {
		runLocal(cfg, r, logger)
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

func runLocal(cfg config.Config, r *gin.Engine, logger *slog.Logger) {
	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: r,
	}

	go func() {
		logger.Info("running local server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to run local server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}
