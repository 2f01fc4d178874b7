package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"

	"github.com/example/realtime-chat-demo/modules/api"
	"github.com/example/realtime-chat-demo/modules/broadcast"
	"github.com/example/realtime-chat-demo/modules/chat"
	"github.com/example/realtime-chat-demo/modules/fileservice"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	port := getEnv("PORT", "3000")
	maxUploadSize := getEnvInt64("MAX_UPLOAD_SIZE", fileservice.DefaultMaxFileSize)
	storagePath := getEnv("STORAGE_PATH", "/tmp/realtime-chat-demo")

	log.Println("=== Realtime Chat Demo ===")
	log.Printf("HTTP Port: %s", port)
	log.Printf("Max Upload Size: %d bytes", maxUploadSize)
	log.Printf("Storage Path: %s", storagePath)

	// Create mono application with embedded NATS JetStream
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(storagePath),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// Create fs-jetstream plugin for file attachments.
	// Uses the embedded NATS server - no external NATS required.
	storagePlugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        "uploads",
				Description: "Chat file attachments",
				MaxBytes:    1024 * 1024 * 1024, // 1GB max storage
				Storage:     fsjetstream.FileStorage,
				Compression: true,
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create storage plugin: %v", err)
	}

	// The framework calls SetPlugin("storage", storagePlugin) on modules
	// that implement UsePluginModule
	if err := app.RegisterPlugin(storagePlugin, "storage"); err != nil {
		log.Fatalf("Failed to register storage plugin: %v", err)
	}

	// Create modules
	chatModule := chat.NewModule(app.Logger())
	broadcastModule := broadcast.NewModule()
	fileModule := fileservice.NewModule(maxUploadSize, app.Logger())
	apiModule := api.NewModule(chatModule, fileModule)

	// Inject broadcast hub into API module
	// (done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - chat: Core engine (EventEmitterModule)
	// - broadcast: Event consumer (EventConsumerModule for WebSocket delivery)
	// - fileservice: Upload collaborator (UsePluginModule for storage)
	// - api: Driving adapter (Fiber HTTP/WebSocket server)
	app.Register(chatModule)
	app.Register(broadcastModule)
	app.Register(fileModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(port)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port string) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Println("  - File Storage: embedded JetStream object store")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                     - Health check")
	log.Println("  GET    /api/v1/rooms               - List all rooms")
	log.Println("  GET    /api/v1/rooms/:id           - Get room details")
	log.Println("  GET    /api/v1/rooms/:id/history   - Get message history")
	log.Println("  GET    /api/v1/messages/search     - Search messages")
	log.Println("  GET    /api/v1/users               - List online users")
	log.Println("  GET    /api/v1/users/:id/unread    - Get unread counts")
	log.Println("  POST   /api/v1/files               - Upload a file")
	log.Println("  GET    /api/v1/files/:id           - Download a file")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Message types: user_join, join_room, send_message, send_private_message,")
	log.Println("                 typing_start, typing_stop, add_reaction, send_file,")
	log.Println("                 create_room, status_change, mark_message_read, disconnect")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 returns environment variable as int64 or default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int64 value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}
