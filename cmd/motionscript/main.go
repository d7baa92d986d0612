package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/loopwave/motionscript/internal/admin"
	"github.com/loopwave/motionscript/internal/config"
	"github.com/loopwave/motionscript/internal/fsutil"
	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/media/consoleui"
	"github.com/loopwave/motionscript/internal/media/ffmpegsrc"
	"github.com/loopwave/motionscript/internal/media/ncctrack"
	"github.com/loopwave/motionscript/internal/media/projector"
	"github.com/loopwave/motionscript/internal/motion/bbox"
	"github.com/loopwave/motionscript/internal/pipeline"
	"github.com/loopwave/motionscript/internal/scriptstore"
	"github.com/loopwave/motionscript/internal/telemetry"
	"github.com/loopwave/motionscript/internal/version"
)

var (
	videoPath      = flag.String("video", "", "Path to the source video")
	configFile     = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file")
	dbPath         = flag.String("db-path", "motionscript.db", "Path to sqlite action store")
	startFrame     = flag.Int("start-frame", 0, "Frame number to begin tracking from")
	endFrame       = flag.Int("end-frame", -1, "Frame number to stop tracking at (-1 for end of video)")
	trackSecondary = flag.Bool("track-secondary", false, "Track a second region and subtract its motion from the primary")
	searchMargin   = flag.Int("search-margin", 40, "Pixel margin searched around the last known box each frame")
	headless       = flag.Bool("headless", false, "Run without interactive prompts, confirming every picker immediately")
	adminListen    = flag.String("admin-listen", "", "If set, serve debug/admin routes on this address (e.g. :8090)")
	verbose        = flag.Bool("verbose", false, "Enable run-level diagnostic logging")
	trace          = flag.Bool("trace", false, "Enable per-frame trace logging (very noisy)")
	versionFlag    = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	var diagW, traceW io.Writer
	if *verbose {
		diagW = os.Stderr
	}
	if *trace {
		traceW = os.Stderr
	}
	telemetry.SetLogWriters(os.Stderr, diagW, traceW)

	if *versionFlag {
		fmt.Printf("motionscript %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	if *videoPath == "" {
		log.Fatal("-video is required")
	}

	cfg, err := config.LoadTuningConfig(fsutil.OSFileSystem{}, *configFile)
	if err != nil {
		log.Fatalf("failed to load tuning config from %s: %v", *configFile, err)
	}

	store, err := scriptstore.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open action store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *adminListen != "" {
		mux := http.NewServeMux()
		if err := admin.AttachRoutes(mux, store, *dbPath); err != nil {
			log.Fatalf("failed to attach admin routes: %v", err)
		}
		go func() {
			telemetry.Opsf("admin routes listening on %s", *adminListen)
			if err := http.ListenAndServe(*adminListen, mux); err != nil {
				telemetry.Opsf("admin listener stopped: %v", err)
			}
		}()
	}

	if err := run(ctx, cfg, store); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.TuningConfig, store *scriptstore.Store) error {
	getter := ffmpegsrc.Getter{}
	info, err := getter.GetVideoInfo(*videoPath)
	if err != nil {
		return fmt.Errorf("read video info: %w", err)
	}

	var ui media.UI
	if *headless {
		ui = &consoleui.Headless{}
	} else {
		ui = consoleui.NewStdio()
	}

	proj, err := projector.New(cfg.GetProjection())
	if err != nil {
		return fmt.Errorf("configure projector: %w", err)
	}

	firstFrame, err := getter.GetFrame(*videoPath, *startFrame)
	if err != nil {
		return fmt.Errorf("read first frame: %w", err)
	}

	projCfg := media.ProjectionConfig{Width: -1, Height: -1}
	if proj.Kind == projector.Equirectangular {
		projCfg, err = proj.ConfigureVR(ctx, firstFrame, projCfg, ui)
		if err != nil {
			return fmt.Errorf("configure VR tilt: %w", err)
		}
	}

	flatFirst, err := proj.Project(firstFrame, projCfg)
	if err != nil {
		return fmt.Errorf("project first frame: %w", err)
	}

	seedPrimary, err := ui.SelectROI(ctx, flatFirst, "Select the primary region to track")
	if err != nil {
		return fmt.Errorf("select primary region: %w", err)
	}

	var seedSecondary bbox.Bbox
	if *trackSecondary {
		seedSecondary, err = ui.SelectROI(ctx, flatFirst, "Select the secondary region to track")
		if err != nil {
			return fmt.Errorf("select secondary region: %w", err)
		}
	}

	src, err := ffmpegsrc.Open(ctx, *videoPath, *startFrame, info)
	if err != nil {
		return fmt.Errorf("open video stream: %w", err)
	}
	defer src.Stop()

	primaryTracker := ncctrack.New(flatFirst, seedPrimary, *searchMargin)
	defer primaryTracker.Stop()

	var secondaryTracker media.FeatureTracker
	if *trackSecondary {
		secondaryTracker = ncctrack.New(flatFirst, seedSecondary, *searchMargin)
		defer secondaryTracker.(*ncctrack.Tracker).Stop()
	}

	runID := uuid.NewString()
	sink := store.RunSink(runID)
	result, err := pipeline.Run(ctx, cfg, pipeline.Params{
		VideoPath:      *videoPath,
		StartFrame:     *startFrame,
		EndFrame:       *endFrame,
		TrackSecondary: *trackSecondary,
		RunID:          runID,
	}, src, getter, primaryTracker, secondaryTracker, ui, sink, seedPrimary, seedSecondary, info.FPS)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("run %s did not emit a script: %s", result.RunID, result.Status)
	}

	fmt.Printf("run %s: %s, %d actions emitted\n", result.RunID, result.Status, result.ActionCount)
	return nil
}
