package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"chat-sync/internal/config"
	"chat-sync/internal/db"
	"chat-sync/internal/handlers"
	"chat-sync/internal/middleware"
	"chat-sync/internal/observability"
	"chat-sync/internal/rabbitmq"
	"chat-sync/internal/repositories"
	"chat-sync/internal/telemetry"
	"chat-sync/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracer, err := initTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	var roomRepo repositories.RoomRepository
	var messageRepo repositories.MessageRepository
	if cfg.DBDSN != "" {
		database, err := db.Connect(cfg.DBDSN)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		roomRepo = repositories.NewRoomRepo(database)
		messageRepo = repositories.NewMessageRepo(database)
	} else {
		log.Println("no DB_DSN configured, using in-memory store")
		memory := repositories.NewMemoryStore()
		roomRepo = memory
		messageRepo = memory
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)

	emitter := telemetry.NewEmitter(publisher, "sync_events.rooms", "chat-sync", cfg.Environment)

	hub := ws.NewHub()
	roomHandler := handlers.NewRoomHandler(roomRepo, messageRepo, hub, emitter)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxUploadBytes)
	roomWS := ws.NewRoomWebSocketHandler(hub, roomRepo, cfg.JWTSecret)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chat-sync"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	router.GET("/rooms", authMiddleware, roomHandler.ListRooms)
	router.GET("/rooms/:room_id", authMiddleware, roomHandler.GetRoom)
	router.GET("/rooms/:room_id/messages", authMiddleware, roomHandler.GetMessages)
	router.GET("/rooms/:room_id/messages/new", authMiddleware, roomHandler.CheckNew)
	router.POST("/rooms/:room_id/messages", authMiddleware, roomHandler.PostMessage)
	router.POST("/rooms/:room_id/images", authMiddleware, roomHandler.PostImageMessage)
	router.POST("/rooms/:room_id/read", authMiddleware, roomHandler.MarkRead)
	router.POST("/rooms/:room_id/close", authMiddleware, roomHandler.CloseRoom)
	router.PUT("/rooms/:room_id/wallpaper", authMiddleware, roomHandler.SetWallpaper)
	router.POST("/uploads", authMiddleware, uploadHandler.Upload)

	router.GET("/ws/rooms/:room_id", roomWS.Handle)

	router.Static("/uploads", cfg.UploadDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, roomRepo, emitter, cfg.JWTSecret, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func initTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
