package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/device"
	"github.com/ayusman/mudra/internal/dispatch"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/tray"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the camera and toggle the microphone",
		Long: `Starts the gesture pipeline, the local configuration API and, optionally,
the system tray. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, &cfg); err != nil {
				return err
			}
			return run(cfg, logger)
		},
	}

	cmd.Flags().Int("camera", 0, "Camera device ID")
	cmd.Flags().String("listen", "", "Configuration API address; empty string disables it")
	cmd.Flags().Bool("tray", false, "Show the system tray menu")
	cmd.Flags().String("microphone", "", "Microphone control: auto, pactl, plugin or none")
	cmd.Flags().Duration("cooldown", 0, "Minimum time between two actions")
	cmd.Flags().Duration("hold", 0, "Minimum time between two confirmations of a gesture")
	return cmd
}

// applyRunFlags overrides cfg with the flags that were set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("camera") {
		cfg.CameraID, _ = flags.GetInt("camera")
	}
	if flags.Changed("listen") {
		cfg.ListenAddr, _ = flags.GetString("listen")
	}
	if flags.Changed("tray") {
		cfg.Tray, _ = flags.GetBool("tray")
	}
	if flags.Changed("microphone") {
		kind, _ := flags.GetString("microphone")
		cfg.Microphone = device.Kind(kind)
	}
	if flags.Changed("cooldown") {
		cfg.Cooldown, _ = flags.GetDuration("cooldown")
	}
	if flags.Changed("hold") {
		cfg.HoldThreshold, _ = flags.GetDuration("hold")
	}
	return cfg.Validate()
}

func run(cfg config.Config, logger *slog.Logger) error {
	bindings, db, err := openBindings(cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeDB(db)

	plugins := plugin.NewManager(cfg.PluginsPath(), logger)
	if err := plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.PluginsPath(), "error", err)
	}

	mic, err := device.New(cfg.Microphone, device.Options{
		Plugins:    plugins,
		PluginName: cfg.PluginName,
		Timeout:    cfg.ToggleTimeout,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	camera := capture.NewCamera(cfg.CameraID)
	camera.SetFPS(cfg.FPS)
	if err := camera.Open(); err != nil {
		return err
	}
	source := capture.NewHandSource(camera, newDetector(cfg, logger))
	defer source.Close()

	m := metrics.New()
	a := app.New(app.Config{
		Source:        source,
		Bindings:      bindings,
		Microphone:    mic,
		HoldThreshold: cfg.HoldThreshold,
		Cooldown:      cfg.Cooldown,
		FPS:           cfg.FPS,
		Metrics:       m,
		Logger:        logger,
	})
	hub := server.NewHub(logger)
	a.AddListener(app.EventLog(db.Events(), logger, hub.Broadcast))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var httpSrv *http.Server
	if cfg.ListenAddr != "" {
		httpSrv = &http.Server{
			Addr: cfg.ListenAddr,
			Handler: server.New(server.Config{
				Bindings:   bindings,
				Events:     db.Events(),
				Controller: a,
				Metrics:    m,
				Hub:        hub,
				Logger:     logger,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("configuration API listening", "addr", cfg.ListenAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("configuration API failed", "error", err)
				stop()
			}
		}()
	}

	if err := a.Start(); err != nil {
		return err
	}

	if cfg.Tray {
		runTray(ctx, stop, a, cfg, logger)
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	a.Stop()
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "error", err)
			httpSrv.Close()
		}
	}
	return nil
}

// newDetector prefers the MediaPipe service and falls back to a detector
// that never sees a hand.
func newDetector(cfg config.Config, logger *slog.Logger) detector.Detector {
	dc := detector.DefaultConfig()
	dc.ScriptPath = cfg.MediaPipeScript
	mp, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		logger.Warn("MediaPipe not available, no hands will be detected", "error", err)
		return detector.NewMockDetector()
	}
	logger.Info("using MediaPipe hand detection")
	return mp
}

// runTray blocks on the tray menu, which must own the main goroutine,
// until it quits or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, cfg config.Config, logger *slog.Logger) {
	t := tray.New()
	t.SetEnabled(a.IsEnabled())
	a.OnEnabledChange(t.SetEnabled)
	t.OnToggle(a.SetEnabled)
	t.OnQuit(stop)
	t.OnSettings(func() {
		if cfg.ListenAddr == "" {
			logger.Warn("configuration API is disabled")
			return
		}
		url := "http://" + cfg.ListenAddr + "/api/bindings"
		if err := openBrowser(url); err != nil {
			logger.Warn("failed to open browser", "url", url, "error", err)
		}
	})
	a.AddListener(func(res dispatch.Result) {
		t.SetLastAction(res.Action.String(), res.At)
		enabled, known, _ := a.Microphone().State()
		t.SetMicrophone(enabled, known)
	})

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
