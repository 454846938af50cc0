package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jask/fintrack/internal/api"
	"github.com/jask/fintrack/internal/config"
	"github.com/jask/fintrack/internal/fakeapi"
	"github.com/jask/fintrack/internal/logging"
	"github.com/jask/fintrack/internal/state"
	"github.com/jask/fintrack/internal/tui"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fintrack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "config file (default $FINTRACK_CONFIG or ~/.config/fintrack/config.toml)")
		initConfig  = flag.Bool("init-config", false, "write the default config file and exit")
		showVersion = flag.Bool("version", false, "print version and exit")
		demo        = flag.Bool("demo", false, "run against an in-process sample backend")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("fintrack", version)
		return nil
	}
	if *initConfig {
		path := *configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	}

	// .env is optional; it only seeds FINTRACK_* for local runs.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := logging.Setup(cfg.Log.Logging())
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer closer.Close()
	appLog := logging.For(logger, logging.ComponentApp)
	appLog.Info("starting", "version", version, "base_url", cfg.Server.BaseURL, "demo", *demo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseURL := cfg.Server.BaseURL
	if *demo {
		url, stop, err := serveDemo(logger)
		if err != nil {
			return fmt.Errorf("demo backend: %w", err)
		}
		defer stop()
		baseURL = url
		appLog.Info("demo backend listening", "url", url, "pin", fakeapi.DefaultPIN)
	}

	client, err := api.New(baseURL, api.WithTimeout(cfg.Server.Timeout), api.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		appLog.Warn("using local timezone", logging.FieldError, err)
		loc = time.Local
	}
	ctl := state.New(client,
		state.WithClock(func() time.Time { return time.Now().In(loc) }),
		state.WithDefaultPeriod(cfg.Period()),
		state.WithLogger(logger),
	)

	p := tea.NewProgram(tui.New(ctx, ctl, cfg.UI, loc, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	appLog.Info("exiting")
	return nil
}

// serveDemo starts the sample backend on a loopback port.
func serveDemo(logger *slog.Logger) (string, func(), error) {
	backend := fakeapi.New(fakeapi.WithLogger(logger))
	backend.SeedSample()
	backend.SeedRandom(time.Now().UnixNano(), 40, 90)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: backend.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("demo backend stopped", logging.FieldError, err)
		}
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), stop, nil
}
