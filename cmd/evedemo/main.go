package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"evedemo/internal/app"
	"evedemo/internal/board"
	"evedemo/internal/config"
	"evedemo/internal/eve"
	appLog "evedemo/internal/log"
	"evedemo/internal/scene"
	"evedemo/internal/schedule"
	"evedemo/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

// flagConfig holds CLI flag values that override the config file.
type flagConfig struct {
	configPath string
	board      string
	listen     string
	sim        bool
	calibrate  bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("evedemo starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	applyFlags(conf, flags)
	if !flags.debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	brd, err := board.Lookup(conf.Board)
	if err != nil {
		appLog.Error("unknown board", err, "board", conf.Board)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"board", brd.Name,
		"width", brd.Width(),
		"height", brd.Height(),
		"driver", conf.Driver,
		"spi_port", conf.SPI.Port,
		"pd_pin", conf.SPI.PDPin,
		"frame_interval_ms", conf.FrameIntervalMs,
		"backlight", conf.Backlight,
		"calibrate", conf.Calibrate,
		"picture_format", conf.PictureFormat,
		"listen", conf.Listen,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, conf, brd); err != nil {
		appLog.Error("evedemo failed", err)
		os.Exit(1)
	}
	appLog.Info("evedemo exiting")
}

func run(ctx context.Context, conf *config.Config, brd board.Board) error {
	dev, sim, closeDev, err := openDevice(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDev(); err != nil {
			appLog.Error("failed to close SPI port", err)
		}
	}()

	start := time.Now()
	if err := dev.Init(ctx, brd.Timing); err != nil {
		return err
	}
	if err := dev.SetBacklight(uint8(conf.Backlight)); err != nil {
		return err
	}
	if err := dev.SetTouchTransform(brd.Touch); err != nil {
		return err
	}
	appLog.Info("controller ready", "elapsed", time.Since(start).String())

	lay := scene.Layout{Width: int16(brd.Width()), Height: int16(brd.Height())}

	if conf.Calibrate {
		m, ok, err := scene.Calibrate(ctx, dev, lay, time.Second)
		if err != nil {
			return err
		}
		if !ok {
			appLog.Warn("touch calibration reported failure; keeping recorded values")
			if err := dev.SetTouchTransform(brd.Touch); err != nil {
				return err
			}
		} else {
			appLog.Info("touch calibration done", "transform", formatTransform(m))
		}
	}

	if err := scene.LoadAssets(ctx, dev, scene.ParsePictureSource(conf.PictureFormat)); err != nil {
		return err
	}
	static, err := scene.BuildStatic(ctx, dev, lay)
	if err != nil {
		return err
	}
	appLog.Info("static display list captured", "bytes", static.Size, "addr", static.Addr)

	runner := app.NewRunner(scene.New(dev, lay, static), dev, time.Duration(conf.FrameIntervalMs)*time.Millisecond)
	runner.InitBacklight(conf.Backlight)

	cr, err := schedule.Start(conf.BacklightSchedule, runner)
	if err != nil {
		return err
	}
	defer cr.Stop()

	if conf.Listen != "" {
		var touch web.TouchInjector
		if sim != nil {
			touch = sim
		}
		srv := web.NewServer(conf, runner, touch)
		go func() {
			if err := web.Serve(ctx, conf.Listen, srv.Handler()); err != nil {
				appLog.Error("HTTP server stopped", err)
			}
		}()
	}

	if err := runner.Run(ctx); err != nil {
		return err
	}

	// Leave the panel dark rather than frozen on the last frame.
	if err := dev.SetBacklight(0); err != nil {
		appLog.Error("failed to switch backlight off", err)
	}
	return nil
}

// openDevice returns the controller plus, for the simulator, the Sim behind
// it so touches can be injected.
func openDevice(conf *config.Config) (*eve.Dev, *eve.Sim, func() error, error) {
	if conf.Driver == "sim" {
		sim := eve.NewSim()
		return eve.NewDev(sim, nil), sim, func() error { return nil }, nil
	}
	dev, closeFn, err := eve.OpenSPI(eve.SPIConfig{
		Port:  conf.SPI.Port,
		MaxHz: conf.SPI.MaxHz,
		PDPin: conf.SPI.PDPin,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return dev, nil, closeFn, nil
}

func formatTransform(m [6]uint32) string {
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = fmt.Sprintf("0x%08x", v)
	}
	return strings.Join(parts, ",")
}

func applyFlags(conf *config.Config, f flagConfig) {
	if f.board != "" {
		conf.Board = f.board
	}
	if f.listen != "" {
		conf.Listen = f.listen
	}
	if f.sim {
		conf.Driver = "sim"
	}
	if f.calibrate {
		conf.Calibrate = true
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/evedemo/config.yaml", "Path to config file")
	flag.StringVar(&cfg.board, "board", "", "Board preset (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.sim, "sim", false, "Use the in-memory controller instead of SPI hardware")
	flag.BoolVar(&cfg.calibrate, "calibrate", false, "Run interactive touch calibration at start-up")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
