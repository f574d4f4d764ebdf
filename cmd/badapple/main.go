package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/EinEisbxr/badapple-matrix/internal/config"
	"github.com/EinEisbxr/badapple-matrix/internal/frames"
	"github.com/EinEisbxr/badapple-matrix/internal/hal"
	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
	"github.com/EinEisbxr/badapple-matrix/internal/player"
	"github.com/EinEisbxr/badapple-matrix/internal/sim"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: gpio | sim (overrides config)")
		framesPath = flag.String("frames", "", "frame data: converter hex dump or 8x8 GIF (overrides config)")
		fps        = flag.Int("fps", 0, "playback frames per second (overrides config)")
		addr       = flag.String("addr", "", "HTTP listen address for the simulator (overrides config)")
		selfTest   = flag.Bool("selftest", false, "run the pixel self-test before playback")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
	)
	// .env can carry BADAPPLE_* overrides for service-style deployments.
	_ = godotenv.Load()
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
	} else {
		cfg = c
	}

	// ---- Effective params: env, then flags, override config ----
	if v := os.Getenv("BADAPPLE_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv("BADAPPLE_FRAMES"); v != "" {
		cfg.Frames.Path = v
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *framesPath != "" {
		cfg.Frames.Path = *framesPath
	}
	if *fps > 0 {
		cfg.Player.FPS = *fps
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *selfTest {
		cfg.SelfTest = true
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	pins, err := cfg.PinMap()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid pin map")
	}

	// ---- Frame source ----
	src, err := frames.Load(cfg.Frames.Path, frames.Format(cfg.Frames.Format), byte(cfg.Frames.Threshold))
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Frames.Path).Msg("loading frame data failed")
	}
	log.Info().Int("frames", src.Count()).Str("path", cfg.Frames.Path).Msg("frame data loaded")

	// ---- Port selection: gpio with sim fallback ----
	var port hal.Port
	var panel *sim.Panel
	selected := cfg.Driver
	if selected == "gpio" {
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Msg("periph host init failed; falling back to sim")
			selected = "sim"
		} else if g, err := hal.OpenGPIO(log.Logger); err != nil {
			log.Warn().Err(err).Str("driver", "gpio").Msg("gpio open failed; falling back to sim")
			selected = "sim"
		} else {
			port = g
		}
	}
	if port == nil {
		panel = sim.NewPanel(pins, log.Logger)
		port = panel
	}
	log.Info().Str("driver", selected).Msg("matrix port ready")

	// ---- Matrix driver ----
	drv, err := matrix.New(port, pins, matrix.WithDwell(time.Duration(cfg.Scan.DwellUs)*time.Microsecond))
	if err != nil {
		log.Fatal().Err(err).Msg("matrix init failed")
	}
	for i := 0; i < matrix.Rows; i++ {
		log.Info().
			Int("row_pin", int(pins.Rows[i])).
			Int("col_pin", int(pins.Cols[i])).
			Msg("initialized pins")
	}

	if cfg.SelfTest {
		drv.SelfTest(log.Logger)
		log.Info().Msg("starting animation")
	}

	// ---- Simulator HTTP surface ----
	var srv *http.Server
	if panel != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", panel.HandleFrames)
		mux.HandleFunc("/health", panel.HandleHealth)
		srv = &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      withCORS(mux),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("http server crashed")
			}
		}()
	}

	// ---- Playback ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pl := player.New(drv, src, cfg.Player.FPS, cfg.Player.Loop, log.Logger)
	done := make(chan error, 1)
	go func() { done <- pl.Run(ctx) }()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("playback failed")
		}
	}

	if srv != nil {
		_ = srv.Close()
	}
	drv.Blank()
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
