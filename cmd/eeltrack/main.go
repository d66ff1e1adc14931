package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/LdDl/eeltrack/internal/api"
	"github.com/LdDl/eeltrack/internal/artifacts"
	"github.com/LdDl/eeltrack/internal/config"
	"github.com/LdDl/eeltrack/internal/cv"
	"github.com/LdDl/eeltrack/internal/pipeline"
	"github.com/LdDl/eeltrack/internal/sink"
	"github.com/LdDl/eeltrack/internal/summary"
	"github.com/LdDl/eeltrack/mot"
)

func main() {
	parser := argparse.NewParser("eeltrack", "Detect, track and count eels swimming through a fixed camera view")
	input := parser.String("i", "input", &argparse.Options{Help: "Input video file", Default: ""})
	configFile := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file", Default: ""})
	output := parser.String("o", "output", &argparse.Options{Help: "Annotated output video", Default: ""})
	csvPath := parser.String("", "csv", &argparse.Options{Help: "CSV report file", Default: ""})
	sqlitePath := parser.String("", "sqlite", &argparse.Options{Help: "SQLite database for reports and run summaries", Default: ""})
	noWindow := parser.Flag("", "no-window", &argparse.Options{Help: "Do not show the preview window", Default: false})
	listen := parser.String("", "listen", &argparse.Options{Help: "Address of the status API, e.g. :8080", Default: ""})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Can't create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Criticalf("Can't load configuration: %v", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Video.Input = *input
	}
	if *output != "" {
		cfg.Video.Output = *output
	}
	if *csvPath != "" {
		cfg.Sinks.CSVPath = *csvPath
	}
	if *sqlitePath != "" {
		cfg.Sinks.SQLitePath = *sqlitePath
	}
	if *noWindow {
		cfg.Video.ShowWindow = false
	}
	if *listen != "" {
		cfg.API.Listen = *listen
	}
	if cfg.Video.Input == "" {
		fmt.Print(parser.Usage("input video is required"))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := sink.NewRunInfo(cfg.Video.Input)
	files, err := process(ctx, logger, cfg, run)
	if err != nil {
		logger.Criticalf("Run %v failed: %v", run.ID, err)
		os.Exit(1)
	}

	if cfg.Artifacts.Enabled() {
		if err := upload(logger, cfg.Artifacts, run, files); err != nil {
			logger.Errorf("Can't upload artifacts: %v", err)
			os.Exit(1)
		}
	}
}

// process runs the whole video through the pipeline and returns paths of produced files.
// Every output is closed when it returns.
func process(ctx context.Context, logger logs.Log, cfg *config.Config, run sink.RunInfo) ([]string, error) {
	capture, err := cv.OpenCapture(cfg.Video.Input)
	if err != nil {
		return nil, err
	}
	defer capture.Close()

	width, height, fps := capture.FrameWidth(), capture.FrameHeight(), capture.FPS()
	logger.Infof("Run %v: %s, %dx%d@%.2f, %d frames", run.ID, cfg.Video.Input, width, height, fps, capture.FrameCount())

	writer, err := cv.OpenWriter(cfg.Video.Output, cfg.Video.Codec, fps, width, height)
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	sinks, files, err := openSinks(ctx, logger, cfg.Sinks, run)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Errorf("%v", err)
		}
	}()

	source := cv.NewFrameSource(capture)
	defer source.Close()
	detector := cv.NewMOG2Detector(cfg.Detector)
	defer detector.Close()

	tracker := mot.NewEelTracker(
		cfg.Tracker.GateDistance(width),
		cfg.Tracker.MinMotionDistance,
		cfg.Tracker.MinFramesEel,
		cfg.Tracker.MaxFramesMissed,
	)
	collector := summary.NewCollector(fps)
	store := api.NewStore(run.ID.String(), cfg.Video.Input)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.API.Listen != "" {
		go func() {
			if err := api.Serve(runCtx, logger, cfg.API.Listen, api.NewRouter(store)); err != nil {
				logger.Errorf("%v", err)
			}
		}()
	}

	runner := &pipeline.Runner[gocv.Mat]{
		Log:           logger,
		Source:        source,
		Detector:      detector,
		Tracker:       tracker,
		Sink:          sinks,
		Output:        cv.VideoOutput{Writer: writer},
		Measure:       cv.MeasureText,
		Summary:       collector,
		Store:         store,
		ProgressEvery: cfg.Logging.ProgressEvery,
	}
	if cfg.Video.ShowWindow {
		window := cv.NewWindow(cfg.Video.WindowName)
		defer window.Close()
		runner.Display = window
	}

	stats, err := runner.Run(runCtx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Stopped (%v) after %d frames: %d tracks, %d eels, %d reports",
		stats.Stopped, stats.Frames, stats.TracksCreated, stats.Confirmed, stats.Reports)

	summaries := collector.Summaries()
	for _, s := range summaries {
		logger.Infof("Eel %d: frames %d-%d, %d reports, avg speed %.1f px/s, peak %.1f px/s, path %.1f px",
			s.TrackID, s.FirstFrame, s.LastFrame, s.Reports, s.AvgSpeed, s.PeakSpeed, s.PathLength)
	}
	store.PublishSummaries(summaries)
	store.Finish()

	// The run context may already be canceled by a signal, bookkeeping still has to be written
	finishCtx, finishCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer finishCancel()
	if err := sinks.WriteSummaries(finishCtx, summaries); err != nil {
		return nil, errors.Wrap(err, "Can't write summaries")
	}
	err = sinks.FinishRun(finishCtx, sink.RunStats{
		Frames:     stats.Frames,
		Tracks:     stats.TracksCreated,
		Confirmed:  stats.Confirmed,
		Reports:    stats.Reports,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't finish run")
	}

	return append([]string{writer.Path()}, files...), nil
}

// openSinks creates every configured sink. Returned paths are local files worth uploading.
func openSinks(ctx context.Context, logger logs.Log, cfg config.SinksConfig, run sink.RunInfo) (*sink.Multi, []string, error) {
	multi := sink.NewMulti()
	files := []string{}
	fail := func(err error) (*sink.Multi, []string, error) {
		multi.Close()
		return nil, nil, err
	}

	if cfg.CSVPath != "" {
		csvSink, err := sink.NewCSVSink(cfg.CSVPath)
		if err != nil {
			return fail(err)
		}
		multi.Add(csvSink)
		files = append(files, cfg.CSVPath)
		logger.Infof("Writing CSV reports to %s", cfg.CSVPath)
	}
	if cfg.SQLitePath != "" {
		sqliteSink, err := sink.NewSQLiteSink(ctx, cfg.SQLitePath, run)
		if err != nil {
			return fail(err)
		}
		multi.Add(sqliteSink)
		files = append(files, cfg.SQLitePath)
		logger.Infof("Writing reports to SQLite database %s", cfg.SQLitePath)
	}
	if cfg.PostgresDSN != "" {
		pgSink, err := sink.NewPostgresSink(ctx, cfg.PostgresDSN, run)
		if err != nil {
			return fail(err)
		}
		multi.Add(pgSink)
		logger.Infof("Writing reports to PostgreSQL")
	}
	if cfg.NATSURL != "" {
		natsSink, err := sink.NewNATSSink(cfg.NATSURL, cfg.NATSSubject, run)
		if err != nil {
			return fail(err)
		}
		multi.Add(natsSink)
		logger.Infof("Publishing reports to NATS subject %s.%v", cfg.NATSSubject, run.ID)
	}
	if multi.Len() == 0 {
		logger.Warnf("No report sinks configured, only the annotated video will be produced")
	}
	return multi, files, nil
}

func upload(logger logs.Log, cfg config.ArtifactsConfig, run sink.RunInfo, files []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	uploader, err := artifacts.NewUploader(cfg)
	if err != nil {
		return err
	}
	if err := uploader.EnsureBucket(ctx); err != nil {
		return err
	}
	keys, err := uploader.Upload(ctx, run.ID.String(), files...)
	if err != nil {
		return err
	}
	for _, key := range keys {
		logger.Infof("Uploaded %s/%s", cfg.Bucket, key)
	}
	return nil
}
