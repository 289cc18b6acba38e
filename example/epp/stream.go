package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/ViceAguilera/go-epptrack"
	"github.com/ViceAguilera/go-epptrack/compliance"
	"github.com/ViceAguilera/go-epptrack/detector/onnx"
	"github.com/ViceAguilera/go-epptrack/postprocess"
	"github.com/ViceAguilera/go-epptrack/render"
	"github.com/ViceAguilera/go-epptrack/tracker"
)

// streamOptions are the flags of the stream command
type streamOptions struct {
	modelFile  string
	labelFile  string
	video      string
	httpAddr   string
	inputSize  int
	panelWidth int
	trailSize  int
	loop       bool
}

// itemReport is the JSON form of a compliance.CategoryStatus
type itemReport struct {
	Category   string  `json:"category"`
	Status     string  `json:"status"`
	Label      string  `json:"label,omitempty"`
	Confidence float32 `json:"conf,omitempty"`
}

// personReport is the JSON form of a compliance.PersonRecord
type personReport struct {
	TrackID    int          `json:"track_id"`
	Violations int          `json:"violations"`
	Items      []itemReport `json:"items"`
}

// frameReport is pushed to websocket viewers after every frame
type frameReport struct {
	Frame   int            `json:"frame"`
	Paused  bool           `json:"paused"`
	Persons []personReport `json:"persons"`
	Lines   []string       `json:"lines"`
}

func newFrameReport(index int, paused bool, records []compliance.PersonRecord) frameReport {

	rep := frameReport{
		Frame:   index,
		Paused:  paused,
		Persons: make([]personReport, 0, len(records)),
		Lines:   compliance.ReportLines(records),
	}

	for _, rec := range records {
		pr := personReport{TrackID: rec.TrackID, Violations: rec.Violations()}

		for _, item := range rec.Items {
			ir := itemReport{
				Category:   item.Pair.Category,
				Status:     item.Status.String(),
				Confidence: item.Confidence,
			}

			if item.Status != compliance.Unknown {
				ir.Label = item.Label().String()
			}

			pr.Items = append(pr.Items, ir)
		}

		rep.Persons = append(rep.Persons, pr)
	}

	return rep
}

// Streamer owns the video capture, detector and engine.  A single goroutine
// runs Run while HTTP handlers only read the last encoded frame.
type Streamer struct {
	opts     streamOptions
	engine   *epptrack.Engine
	detector *onnx.Detector
	capture  *gocv.VideoCapture
	trail    *tracker.Trail
	hub      *Hub
	logger   *zap.Logger
	interval time.Duration

	paused atomic.Bool

	// mu guards the last encoded frame
	mu    sync.RWMutex
	jpeg  []byte
	seq   uint64
	frame int
	lines []string
}

// openCapture opens a video file, or a camera when the source is a device
// number
func openCapture(source string) (*gocv.VideoCapture, error) {

	if id, err := strconv.Atoi(source); err == nil {
		return gocv.OpenVideoCapture(id)
	}

	return gocv.VideoCaptureFile(source)
}

// Run reads, processes and publishes frames until the video ends or ctx is
// done
func (s *Streamer) Run(ctx context.Context) error {

	img := gocv.NewMat()
	defer img.Close()

	annotated := gocv.NewMat()
	defer annotated.Close()

	font := render.DefaultFont()
	style := render.DefaultTrailStyle()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	wasPaused := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if s.paused.Load() {
			// redraw the last frame once with the pause marker
			if !wasPaused && !annotated.Empty() {
				s.publish(annotated, true)
			}
			wasPaused = true
			continue
		}

		wasPaused = false

		if ok := s.capture.Read(&img); !ok || img.Empty() {
			if !s.opts.loop {
				s.logger.Info("end of video")
				return nil
			}

			// last frame reached so loop back to start of video
			s.capture.Set(gocv.VideoCapturePosFrames, 0)
			s.engine.Reset()
			s.trail.Reset()
			continue
		}

		dets, err := s.detector.Detect(img)

		if err != nil {
			s.logger.Warn("error detecting objects", zap.Error(err))
			continue
		}

		frame, err := s.engine.Process(dets)

		if err != nil {
			s.logger.Warn("skipping frame", zap.Error(err))
			continue
		}

		for _, p := range frame.Persons {
			s.trail.Add(p)
		}

		if live := s.engine.LiveTrackIDs(); live != nil {
			s.trail.Prune(live)
		}

		img.CopyTo(&annotated)
		render.Trail(&annotated, frame.Persons, s.trail, style)
		render.TrackedBoxes(&annotated, frame.Tracked, font, 2)

		s.mu.Lock()
		s.frame = frame.Index
		s.lines = compliance.ReportLines(frame.Records)
		s.mu.Unlock()

		s.publish(annotated, false)

		msg, err := json.Marshal(newFrameReport(frame.Index, false, frame.Records))

		if err != nil {
			s.logger.Warn("error encoding report", zap.Error(err))
			continue
		}

		s.hub.Broadcast(msg)
	}
}

// publish joins the report panel to the annotated frame and stores it as
// the JPEG served to browsers
func (s *Streamer) publish(annotated gocv.Mat, paused bool) {

	s.mu.RLock()
	lines := s.lines
	s.mu.RUnlock()

	panel, err := render.ReportPanel(lines, s.opts.panelWidth, annotated.Rows(), paused)

	if err != nil {
		s.logger.Warn("error drawing report panel", zap.Error(err))
		return
	}

	defer panel.Close()

	out := gocv.NewMat()
	defer out.Close()

	if err := render.AppendPanel(annotated, panel, &out); err != nil {
		s.logger.Warn("error joining report panel", zap.Error(err))
		return
	}

	buf, err := gocv.IMEncode(".jpg", out)

	if err != nil {
		s.logger.Warn("error encoding frame", zap.Error(err))
		return
	}

	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	s.mu.Lock()
	s.jpeg = data
	s.seq++
	s.mu.Unlock()
}

// latest returns the last encoded frame and its sequence number
func (s *Streamer) latest() ([]byte, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jpeg, s.seq
}

// Stream is the HTTP handler function used to stream video frames to browser
func (s *Streamer) Stream(w http.ResponseWriter, r *http.Request) {

	s.logger.Info("stream client connected", zap.String("remote", r.RemoteAddr))

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var sent uint64

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("stream client disconnected", zap.String("remote", r.RemoteAddr))
			return

		case <-ticker.C:
			data, seq := s.latest()

			if data == nil || seq == sent {
				continue
			}

			sent = seq

			// Write the image to the response writer
			w.Write([]byte("--frame\r\n"))
			w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			w.Write(data)
			w.Write([]byte("\r\n"))

			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// Pause toggles processing on and off, like the pause button of a viewer
func (s *Streamer) Pause(w http.ResponseWriter, r *http.Request) {

	paused := !s.paused.Load()
	s.paused.Store(paused)

	s.logger.Info("pause toggled", zap.Bool("paused", paused))

	s.mu.RLock()
	frame := s.frame
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"paused": paused, "frame": frame})
}

// newServer returns the HTTP server for the stream endpoints.  Request
// contexts derive from ctx so long running handlers such as Stream end when
// ctx is done rather than holding up Shutdown.
func (s *Streamer) newServer(ctx context.Context, addr string) *http.Server {

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.Stream)
	mux.HandleFunc("/pause", s.Pause)
	mux.Handle("/report", s.hub)

	return &http.Server{
		Addr:    addr,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

func newStreamCommand(ctx *commandContext) *cobra.Command {

	opts := streamOptions{}

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Run a YOLO PPE model over a video and serve the annotated stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(cmd.Context(), ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.modelFile, "model", "m", "../data/epp-yolov8n.onnx", "ONNX exported YOLO model file")
	cmd.Flags().StringVarP(&opts.labelFile, "labels", "l", "../data/epp_labels_list.txt", "Text file containing model labels")
	cmd.Flags().StringVarP(&opts.video, "video", "v", "0", "Video file or camera device number")
	cmd.Flags().StringVarP(&opts.httpAddr, "addr", "a", "localhost:8080", "HTTP Address to run server on, format address:port")
	cmd.Flags().IntVar(&opts.inputSize, "input-size", 640, "Model input resolution")
	cmd.Flags().IntVar(&opts.panelWidth, "panel-width", 260, "Width of the report panel in pixels")
	cmd.Flags().IntVar(&opts.trailSize, "trail", 60, "Number of positions kept for person trails")
	cmd.Flags().BoolVar(&opts.loop, "loop", false, "Restart a video file when it ends")

	return cmd
}

func runStream(ctx context.Context, cc *commandContext, opts streamOptions) error {

	engine, cfg, err := cc.newEngine()

	if err != nil {
		return err
	}

	names, err := postprocess.LoadLabels(opts.labelFile)

	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}

	det, err := onnx.New(onnx.Options{
		ModelPath:       opts.modelFile,
		Classes:         postprocess.ClassLabels(names),
		InputSize:       opts.inputSize,
		ConfidenceFloor: cfg.Detection.ConfidenceFloor,
		NMSThresh:       cfg.Detection.NMSThresh,
	})

	if err != nil {
		return err
	}

	defer det.Close()

	capture, err := openCapture(opts.video)

	if err != nil {
		return fmt.Errorf("open video %s: %w", opts.video, err)
	}

	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)

	if fps <= 0 {
		fps = 30
	}

	s := &Streamer{
		opts:     opts,
		engine:   engine,
		detector: det,
		capture:  capture,
		trail:    tracker.NewTrail(opts.trailSize),
		hub:      NewHub(cc.logger.Named("hub")),
		logger:   cc.logger.Named("stream"),
		interval: time.Duration(float64(time.Second) / fps),
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := s.newServer(gctx, opts.httpAddr)

	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		err := s.Run(gctx)

		if err == nil {
			// the video ended, stop serving
			err = errVideoEnded
		}

		return err
	})

	g.Go(func() error {
		s.logger.Info("open browser and view video",
			zap.String("url", fmt.Sprintf("http://%s/stream", opts.httpAddr)))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	if errors.Is(err, errVideoEnded) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// errVideoEnded stops the server once the video source is exhausted
var errVideoEnded = errors.New("video ended")
