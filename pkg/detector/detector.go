// Package detector runs the background object detection loop: it
// periodically captures a frame, detects objects, localizes them in the
// world, deduplicates them against the spatial store, and publishes a
// visible-objects snapshot for readers.
package detector

import (
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walkielabs/go-walkie/pkg/perception"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/vecstore"
)

// Defaults for the detection loop.
const (
	DefaultInterval            = 3 * time.Second
	DefaultConfidenceThreshold = 0.4
	DefaultDedupRadius         = 1.0 // meters

	// stopJoinGrace is added to the cycle interval when waiting for the
	// loop goroutine to exit on Stop.
	stopJoinGrace = 2 * time.Second
)

// VisibleObject is one entry of the published snapshot. Position is nil
// when localization timed out for the cycle that produced the snapshot.
type VisibleObject struct {
	ObjectID   string         `json:"object_id"`
	ClassID    *int           `json:"class_id"`
	ClassName  string         `json:"class_name"`
	Confidence float32        `json:"confidence"`
	BBox       perception.BBox `json:"bbox"`
	Position   *[3]float64    `json:"position"`
}

// Snapshot is an immutable copy of what the detector saw in its most
// recent cycle.
type Snapshot struct {
	Taken   time.Time       `json:"taken"`
	Objects []VisibleObject `json:"objects"`
}

// Config holds the loop parameters.
type Config struct {
	Interval            time.Duration
	ConfidenceThreshold float32
	DedupRadius         float64
	SceneID             string
}

// DefaultConfig returns the standard loop parameters.
func DefaultConfig() Config {
	return Config{
		Interval:            DefaultInterval,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		DedupRadius:         DefaultDedupRadius,
	}
}

// BackgroundObjectDetector owns the detection loop. All collaborators are
// injected; the detector never constructs hardware or model handles itself.
type BackgroundObjectDetector struct {
	camera    robot.Camera
	detector  perception.ObjectDetector
	embedder  perception.Embedder
	localizer robot.Localizer
	navigator robot.Navigator
	store     vecstore.Store
	cfg       Config
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// snapMu guards the snapshot independently of the lifecycle mutex so
	// readers never contend with Start/Stop.
	snapMu   sync.Mutex
	snapshot Snapshot
}

// New creates a detector. The navigator is used only to read the robot's
// current pose (heading stored with each object).
func New(
	camera robot.Camera,
	det perception.ObjectDetector,
	embedder perception.Embedder,
	localizer robot.Localizer,
	navigator robot.Navigator,
	store vecstore.Store,
	cfg Config,
	logger *slog.Logger,
) *BackgroundObjectDetector {
	return &BackgroundObjectDetector{
		camera:    camera,
		detector:  det,
		embedder:  embedder,
		localizer: localizer,
		navigator: navigator,
		store:     store,
		cfg:       cfg,
		logger:    logger.With("component", "detector"),
	}
}

// Start launches the detection loop. Calling Start while running is a no-op.
func (d *BackgroundObjectDetector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})

	go d.loop(d.stopCh, d.doneCh)
	d.logger.Info("background detector started", "interval", d.cfg.Interval)
}

// Stop signals the loop and waits for it to exit, bounded by
// interval + 2s. A loop stuck in inference past the bound is abandoned
// (logged); it will observe the stop signal when it next reaches the top
// of its cycle. Calling Stop while stopped is a no-op.
func (d *BackgroundObjectDetector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	done := d.doneCh
	d.mu.Unlock()

	select {
	case <-done:
		d.logger.Info("background detector stopped")
	case <-time.After(d.cfg.Interval + stopJoinGrace):
		d.logger.Warn("background detector did not stop in time, abandoning",
			"timeout", d.cfg.Interval+stopJoinGrace)
	}
}

// Running reports whether the loop is active.
func (d *BackgroundObjectDetector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// VisibleObjects returns a copy of the most recent snapshot.
func (d *BackgroundObjectDetector) VisibleObjects() Snapshot {
	d.snapMu.Lock()
	defer d.snapMu.Unlock()

	out := Snapshot{Taken: d.snapshot.Taken}
	out.Objects = make([]VisibleObject, len(d.snapshot.Objects))
	copy(out.Objects, d.snapshot.Objects)
	return out
}

func (d *BackgroundObjectDetector) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	// Cycle first, wait after: readers get a snapshot right away instead
	// of a full interval late.
	for {
		if err := d.runCycle(); err != nil {
			d.logger.Warn("detection cycle failed", "error", err)
		}

		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}
	}
}

// runCycle performs one capture→detect→localize→persist→publish pass.
func (d *BackgroundObjectDetector) runCycle() error {
	frame, err := d.camera.Capture()
	if err != nil {
		return err
	}

	detections, err := d.detector.DetectObjects(frame)
	if err != nil {
		return err
	}
	detections = perception.FilterConfidence(detections, d.cfg.ConfidenceThreshold)

	if len(detections) == 0 {
		d.publish(nil)
		return nil
	}

	boxes := make([]perception.BBox, len(detections))
	for i, det := range detections {
		boxes[i] = det.BBox
	}

	positions, err := d.localizer.BBoxesToPositions(boxes)
	if errors.Is(err, robot.ErrLocalizationTimeout) {
		// No positions this cycle: publish what we saw, persist nothing.
		d.logger.Warn("localization timed out, skipping persistence")
		d.publish(d.positionless(detections))
		return nil
	}
	if err != nil {
		return err
	}

	heading := d.currentHeading()

	// Duplicate detections of one real object resolve to the same record
	// under last-writer-wins; processing in ascending confidence order
	// makes the highest-confidence sighting the one whose position sticks.
	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return confidence(detections[order[a]]) < confidence(detections[order[b]])
	})

	visible := make([]VisibleObject, len(detections))
	for _, i := range order {
		det := detections[i]
		pos := positions[i]

		// The detection is visible whether or not persistence succeeds;
		// only the id and position claims depend on the store.
		visible[i] = VisibleObject{
			ClassID:    det.ClassID,
			ClassName:  det.ClassName,
			Confidence: confidence(det),
			BBox:       det.BBox,
		}

		objectID, err := d.persist(det, pos, heading)
		if err != nil {
			d.logger.Warn("failed to persist detection",
				"class", det.ClassName, "error", err)
			continue
		}

		p := pos
		visible[i].ObjectID = objectID
		visible[i].Position = &p
	}

	// Snapshot goes out only after every upsert above has completed, so
	// readers never see an object_id that is not yet persisted.
	d.publish(visible)
	return nil
}

// persist embeds the detection crop, resolves it against nearby records of
// the same class, and upserts. Returns the object id used.
func (d *BackgroundObjectDetector) persist(det perception.Detection, pos [3]float64, heading float64) (string, error) {
	var embedding []float32
	if det.Crop != nil {
		var err error
		embedding, err = d.embedder.EmbedImage(det.Crop)
		if err != nil {
			return "", err
		}
	}

	// Dedup is keyed by class: a detection without one can never match an
	// existing record and always gets a fresh id.
	objectID := ""
	if det.ClassID != nil {
		var found bool
		var err error
		objectID, found, err = d.store.FindNearby(*det.ClassID, pos, d.cfg.DedupRadius)
		if err != nil {
			return "", err
		}
		if !found {
			objectID = ""
		}
	}
	if objectID == "" {
		objectID = newObjectID()
	}

	rec := vecstore.ObjectRecord{
		ObjectID:  objectID,
		Position:  pos,
		Embedding: embedding,
		Heading:   heading,
		SceneID:   d.cfg.SceneID,
		ClassID:   det.ClassID,
		ClassName: det.ClassName,
	}
	if err := d.store.Upsert(rec); err != nil {
		return "", err
	}
	return objectID, nil
}

// positionless builds snapshot entries for a cycle whose localization
// timed out. No object ids: nothing was persisted.
func (d *BackgroundObjectDetector) positionless(detections []perception.Detection) []VisibleObject {
	out := make([]VisibleObject, len(detections))
	for i, det := range detections {
		out[i] = VisibleObject{
			ClassID:    det.ClassID,
			ClassName:  det.ClassName,
			Confidence: confidence(det),
			BBox:       det.BBox,
		}
	}
	return out
}

// publish atomically replaces the snapshot.
func (d *BackgroundObjectDetector) publish(objects []VisibleObject) {
	d.snapMu.Lock()
	d.snapshot = Snapshot{Taken: time.Now(), Objects: objects}
	d.snapMu.Unlock()
}

// currentHeading reads the robot's heading; pose failures degrade to 0.
func (d *BackgroundObjectDetector) currentHeading() float64 {
	pose, err := d.navigator.Pose()
	if err != nil {
		d.logger.Warn("failed to read robot pose", "error", err)
		return 0
	}
	return pose.Heading
}

func confidence(det perception.Detection) float32 {
	if det.Confidence == nil {
		return 0
	}
	return *det.Confidence
}

func newObjectID() string {
	id := uuid.New()
	return "obj_" + hex.EncodeToString(id[:])[:12]
}
