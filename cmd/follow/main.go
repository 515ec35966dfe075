// Command follow runs either navigation loop against the live robot:
// follow-person (with voice stop) or approach-raised-hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/walkielabs/go-walkie/internal/config"
	"github.com/walkielabs/go-walkie/internal/log"
	"github.com/walkielabs/go-walkie/pkg/nav"
	"github.com/walkielabs/go-walkie/pkg/perception/yolo"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/speech"
)

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "follow", "Loop to run: follow | approach")
	modelPath := flag.String("model", "models/yolov8n.onnx", "YOLOv8 ONNX model path")
	poseModelPath := flag.String("pose-model", "models/yolov8n-pose.onnx", "YOLOv8 pose ONNX model path")
	deviceID := flag.Int("camera", 0, "Video device index")
	flag.Parse()

	log.Init(config.LogLevel())
	logger := log.With("cmd", "follow")

	camera, err := robot.OpenWebcam(*deviceID)
	if err != nil {
		logger.Error("failed to open camera", "device", *deviceID, "error", err)
		os.Exit(1)
	}
	defer camera.Close()

	daemon := robot.NewHTTPClient(config.DaemonAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nshutting down...")
		cancel()
	}()

	var status string
	switch *mode {
	case "follow":
		yoloCfg := yolo.DefaultDetectorConfig()
		yoloCfg.ModelPath = *modelPath
		det, err := yolo.NewDetector(yoloCfg)
		if err != nil {
			logger.Error("failed to load detection model", "error", err)
			os.Exit(1)
		}
		defer det.Close()

		listener := speech.NewWSTranscriber(config.Get("STT_URL", config.DefaultSTTURL), log.L())
		follower := nav.NewFollower(camera, det, daemon, daemon, listener, log.L())
		status = follower.Follow(ctx)

	case "approach":
		poseCfg := yolo.DefaultPoseConfig()
		poseCfg.ModelPath = *poseModelPath
		estimator, err := yolo.NewPoseModel(poseCfg)
		if err != nil {
			logger.Error("failed to load pose model", "error", err)
			os.Exit(1)
		}
		defer estimator.Close()

		approacher := nav.NewApproacher(camera, estimator, daemon, daemon, log.L())
		status = approacher.GoToRaisedHand(ctx)

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want follow or approach)\n", *mode)
		os.Exit(2)
	}

	logger.Info("loop finished", "status", status)
	fmt.Println(status)
}
