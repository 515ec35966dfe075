// Command walkie runs the perception subsystem: the background object
// detection loop plus the HTTP status server.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/walkielabs/go-walkie/internal/config"
	"github.com/walkielabs/go-walkie/internal/log"
	"github.com/walkielabs/go-walkie/pkg/detector"
	"github.com/walkielabs/go-walkie/pkg/perception/clip"
	"github.com/walkielabs/go-walkie/pkg/perception/yolo"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/vecstore"
	"github.com/walkielabs/go-walkie/pkg/web"
)

func main() {
	// .env is optional; env vars win either way.
	_ = godotenv.Load()

	modelPath := flag.String("model", "models/yolov8n.onnx", "YOLOv8 ONNX model path")
	deviceID := flag.Int("camera", 0, "Video device index")
	dbPath := flag.String("db", config.Get("WALKIE_DB", config.DefaultDBPath), "SQLite database path")
	webPort := flag.String("port", config.Get("WEB_PORT", config.DefaultWebPort), "Status server port")
	flag.Parse()

	log.Init(config.LogLevel())
	logger := log.With("cmd", "walkie")

	store, err := vecstore.OpenSQLite(*dbPath)
	if err != nil {
		logger.Error("failed to open object store", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	camera, err := robot.OpenWebcam(*deviceID)
	if err != nil {
		logger.Error("failed to open camera", "device", *deviceID, "error", err)
		os.Exit(1)
	}
	defer camera.Close()

	yoloCfg := yolo.DefaultDetectorConfig()
	yoloCfg.ModelPath = *modelPath
	objDetector, err := yolo.NewDetector(yoloCfg)
	if err != nil {
		logger.Error("failed to load detection model", "path", *modelPath, "error", err)
		os.Exit(1)
	}
	defer objDetector.Close()

	embedder := clip.New(config.Get("EMBED_URL", config.DefaultEmbedURL))
	daemon := robot.NewHTTPClient(config.DaemonAddr())

	cfg := detector.DefaultConfig()
	cfg.Interval = config.GetDuration("DETECT_INTERVAL", cfg.Interval)
	cfg.SceneID = config.Get("SCENE_ID", "")

	bgDetector := detector.New(camera, objDetector, embedder, daemon, daemon, store, cfg, log.L())
	bgDetector.Start()
	defer bgDetector.Stop()

	server := web.NewServer(*webPort, bgDetector, store)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("web server stopped", "error", err)
		}
	}()
	logger.Info("walkie perception running",
		"web_port", *webPort,
		"daemon", config.DaemonAddr(),
		"interval", cfg.Interval,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nshutting down...")
	if err := server.Shutdown(); err != nil {
		logger.Warn("web server shutdown failed", "error", err)
	}
}
