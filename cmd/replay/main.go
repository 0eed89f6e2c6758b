package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"quote-replay-go/capture"
	"quote-replay-go/config"
	"quote-replay-go/emit"
	"quote-replay-go/infrastructure/logger"
	"quote-replay-go/metrics"
	"quote-replay-go/quote"
	"quote-replay-go/reorder"
	"quote-replay-go/replay"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config path")
	pcapPath := flag.String("pcap", "", "capture file to replay")
	watchDir := flag.String("watchDir", "", "replay capture files appearing in this directory")
	useVec := flag.Bool("vec", false, "use the insertion-sorted window")
	useHeap := flag.Bool("heap", false, "use the min-heap window")
	metricsAddr := flag.String("metricsAddr", "", "Prometheus listen address, empty disables")
	flag.Parse()

	if *useVec == *useHeap {
		log.Fatalf("exactly one of -vec or -heap is required")
	}
	strategy := reorder.StrategySorted
	if *useHeap {
		strategy = reorder.StrategyHeap
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *watchDir != "" {
		cfg.Watch.Dir = *watchDir
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		m = metrics.New(prometheus.DefaultRegisterer)
		metrics.StartServer(cfg.Metrics.Addr)
	}

	maxDelay := time.Duration(cfg.Replay.MaxDelayMs) * time.Millisecond
	emitter := emit.NewEmitter(os.Stdout)

	// Each capture file is an independent run with a fresh window.
	replayFile := func(path string) error {
		src, err := capture.OpenFile(path)
		if err != nil {
			return err
		}
		defer src.Close()
		window, err := reorder.New(strategy, maxDelay, cfg.Replay.WindowCapacity)
		if err != nil {
			return err
		}
		runner := replay.Runner{
			Source:  src,
			Decoder: quote.NewDecoder(),
			Window:  window,
			Emitter: emitter,
			Log:     zlog.Logger,
			Metrics: m,
		}
		return runner.Run()
	}

	switch {
	case cfg.Watch.Dir != "":
		watcher := replay.DirWatcher{
			Dir:     cfg.Watch.Dir,
			Pattern: cfg.Watch.Pattern,
			Settle:  time.Duration(cfg.Watch.SettleMs) * time.Millisecond,
			Log:     zlog.Logger,
			Replay:  replayFile,
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("watch %s: %v", cfg.Watch.Dir, err)
		}
	case *pcapPath != "":
		if err := replayFile(*pcapPath); err != nil {
			log.Fatalf("replay %s: %v", *pcapPath, err)
		}
	default:
		log.Fatalf("either -pcap or -watchDir is required")
	}
}
