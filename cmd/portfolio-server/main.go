package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gc-portfolio/internal/api"
	"gc-portfolio/internal/assistant"
	"gc-portfolio/internal/channel"
	"gc-portfolio/internal/config"
	"gc-portfolio/internal/eventbus"
	"gc-portfolio/internal/llm"
	"gc-portfolio/internal/relay"
	"gc-portfolio/internal/security"
)

// Per-sender budget for messaging channels.
const (
	channelRateLimit  = 20
	channelRateWindow = time.Minute
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default ~/.gcportfolio/config.json)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	bus := eventbus.New()
	bus.Subscribe(eventbus.TopicError, func(e eventbus.Event) {
		log.Printf("[server] error event: %v", e.Payload)
	})

	if cfg.Relay.Enabled {
		r, err := relay.Connect(ctx, cfg.Relay)
		if err != nil {
			log.Printf("warning: event relay disabled: %v", err)
		} else {
			defer r.Close()
			r.Attach(bus)
			log.Printf("Relaying chat events to %s", cfg.Relay.URL)
		}
	}

	provider, err := llm.NewFromConfig(cfg.LLM, cfg.FallbackLLM)
	if err != nil {
		log.Printf("warning: failed to initialize LLM provider: %v", err)
	}
	if provider == nil {
		log.Println("LLM not configured, answering with canned replies")
	} else {
		log.Printf("LLM provider %s ready (model %s)", provider.Name(), provider.DefaultModel())
	}

	var allowed []int64
	if cfg.Channels.Telegram != nil {
		allowed = cfg.Channels.Telegram.AllowedIDs
	}
	auth := security.NewAuthorizer(allowed).WithRateLimit(channelRateLimit, channelRateWindow)
	svc := assistant.New(cfg.Assistant, provider, security.NewSanitizer(cfg.Security.PIIFiltering), auth, bus)

	chanMgr := channel.NewManager()
	if cfg.Channels.Telegram != nil && cfg.Channels.Telegram.Token != "" {
		chanMgr.Register(channel.NewTelegramChannel(cfg.Channels.Telegram.Token))
	}
	if cfg.Server.ConsoleChannel {
		chanMgr.Register(channel.NewConsoleChannel())
	}
	if err := chanMgr.StartAll(ctx); err != nil {
		log.Printf("warning: failed to start channels: %v", err)
	}
	defer chanMgr.StopAll(context.Background())
	svc.Start(ctx, chanMgr)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(svc, cfg.Server.AllowedOrigin),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Portfolio chat backend listening on %s", cfg.Server.Addr)
	bus.Publish(eventbus.TopicStatusChange, "server started")
	if err := runServer(ctx, srv, time.Duration(cfg.Server.ShutdownSecs)*time.Second); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server stopped")
}

func loadConfig(path string) (*config.Config, error) {
	var (
		loader *config.Loader
		err    error
	)
	if path != "" {
		loader, err = config.NewLoaderAt(path)
	} else {
		loader, err = config.NewLoader()
	}
	if err != nil {
		return nil, err
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)

	ks, err := security.NewKeyStore(os.Getenv("PORTFOLIO_VAULT_PASSWORD"))
	if err != nil {
		log.Printf("warning: failed to create key store: %v", err)
		return cfg, nil
	}
	ks.ResolveSecrets(cfg)
	return cfg, nil
}

func runServer(ctx context.Context, srv *http.Server, grace time.Duration) error {
	if grace <= 0 {
		grace = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
