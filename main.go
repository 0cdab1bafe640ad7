package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"bmpconverter/config"
	"bmpconverter/dataset"
	"bmpconverter/imageprocessor"
	"bmpconverter/imageprocessor/cvloader"
	"bmpconverter/logging"
	"bmpconverter/metrics"
	"bmpconverter/scanner"
	"bmpconverter/signalhandler"
	"bmpconverter/utils"

	"github.com/pkg/errors"
)

const (
	exitUsage = 1
	exitFatal = 2
)

func main() {
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())
	os.Exit(run(os.Args))
}

func run(args []string) int {
	prog := filepath.Base(args[0])
	flags := config.NewFlagSet(prog)
	cfg, err := config.Load(flags, args[1:])
	if err != nil {
		if errors.Cause(err) == config.ErrUsage {
			if err != config.ErrUsage {
				fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			}
			utils.PrintUsage(os.Stderr, prog, flags.FlagUsages())
			return exitUsage
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger := logging.SetupLogger(logging.FileOptions{
		Path:       cfg.LogFile,
		Debug:      cfg.Debug,
		MaxBackups: 3,
	})
	defer logger.Close()
	if cfg.LogFile != "" {
		fmt.Printf("Logging to: %s\n", cfg.LogFile)
	}

	ctx, stop := signalhandler.SetupHandler(context.Background())
	defer stop()

	if err := handleConvertCommand(ctx, cfg, logger); err != nil {
		logger.Errorf("Conversion failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	return 0
}

func handleConvertCommand(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	var (
		loader  imageprocessor.ImageLoader
		resizer imageprocessor.Resizer
	)
	switch cfg.Decoder {
	case config.DecoderOpenCV:
		loader = cvloader.NewLoader(cfg.MaxPixels)
		resizer = cvloader.Resizer{}
	default:
		loader = imageprocessor.NewImageLoaderRegistry(cfg.MaxPixels)
		resizer = imageprocessor.DrawResizer{}
	}
	logger.Infof("Decoder: %s, backend: %s, map size: %d bytes", cfg.Decoder, cfg.Backend, cfg.MapSize)

	m := metrics.New()
	_, err := scanner.ScanAndStoreFolder(ctx, scanner.ScanOptions{
		RootPath:  cfg.InputRoot,
		LabelSet:  cfg.LabelSet,
		Extension: cfg.Extension,
		StorePath: cfg.StorePath,
		Store: dataset.Options{
			Backend: cfg.Backend,
			MapSize: cfg.MapSize,
		},
		MaxWorkers:    cfg.Workers,
		Schedule:      cfg.Schedule,
		ProgressEvery: cfg.ProgressEvery,
		Loader:        loader,
		Normalizer:    &imageprocessor.Normalizer{Scale: cfg.Scale, Resizer: resizer},
		Logger:        logger,
		Metrics:       m,
		Out:           os.Stdout,
	})
	if merr := m.WriteTextfile(cfg.MetricsFile); merr != nil {
		logger.Warnf("%v", merr)
	}
	return err
}
