package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gc-portfolio/internal/browser"
	"gc-portfolio/internal/channel"
	"gc-portfolio/internal/chat"
	"gc-portfolio/internal/config"
	"gc-portfolio/internal/eventbus"
	"gc-portfolio/internal/gallery"
	"gc-portfolio/internal/relay"
	"gc-portfolio/internal/render"
	"gc-portfolio/internal/storage"
	"gc-portfolio/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default ~/.gcportfolio/config.json)")
	pageURL := flag.String("browser", "", "open the portfolio site at this URL and drive its chat widget")
	allowPrivate := flag.Bool("allow-private", true, "allow -browser to open loopback and LAN addresses")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	tr, closeTransport, err := transport.New(cfg.Chat)
	if err != nil {
		log.Fatalf("failed to create transport: %v", err)
	}
	defer closeTransport()

	bus := eventbus.New()
	if cfg.Relay.Enabled {
		r, err := relay.Connect(ctx, cfg.Relay)
		if err != nil {
			log.Printf("warning: event relay disabled: %v", err)
		} else {
			defer r.Close()
			r.Attach(bus)
		}
	}

	if *pageURL != "" {
		if err := runKiosk(ctx, cfg, *pageURL, *allowPrivate, tr, bus); err != nil && ctx.Err() == nil {
			log.Fatalf("browser mode: %v", err)
		}
		return
	}

	if err := runTerminal(ctx, cfg, tr, bus); err != nil {
		log.Fatalf("chat client: %v", err)
	}
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
	return cfg, nil
}

func managerOptions(cfg *config.Config, bus *eventbus.Bus) []chat.Option {
	return []chat.Option{
		chat.WithBus(bus),
		chat.WithContext(cfg.Chat.Context),
		chat.WithHistoryLimit(cfg.Chat.HistoryLimit),
	}
}

// runTerminal runs the chat in the terminal, persisting to the configured
// store.
func runTerminal(ctx context.Context, cfg *config.Config, tr chat.Transport, bus *eventbus.Bus) error {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	sink := render.NewTerminal(os.Stdout, os.Getenv("NO_COLOR") == "")
	m := chat.NewManager(store, tr, sink, managerOptions(cfg, bus)...)
	m.Initialize(ctx)

	console := channel.NewConsoleChannel(channel.WithReplyLabel(""))
	console.OnMessage(func(msg channel.InboundMessage) {
		out, quit := handleLine(ctx, m, msg.Text)
		if out != "" {
			console.Send(ctx, channel.OutboundMessage{ChatID: msg.ChatID, Text: out})
		}
		if quit {
			console.Stop(ctx)
		}
	})
	if err := console.Start(ctx); err != nil {
		return err
	}
	done := console.Done()

	select {
	case <-ctx.Done():
	case <-done:
	}
	return console.Stop(context.Background())
}

// runKiosk opens the site and binds its widgets to Go. Chat state lives in
// the page's localStorage.
func runKiosk(ctx context.Context, cfg *config.Config, pageURL string, allowPrivate bool, tr chat.Transport, bus *eventbus.Bus) error {
	var opts []browser.OpenOption
	if allowPrivate {
		opts = append(opts, browser.AllowPrivateHosts())
	}
	session, err := browser.Open(ctx, cfg.Browser, pageURL, opts...)
	if err != nil {
		return err
	}
	defer session.Close()

	m := chat.NewManager(browser.NewLocalStorage(session), tr, browser.NewChatSink(session), managerOptions(cfg, bus)...)

	var galleryOpts []gallery.Option
	if d, err := gallery.NewDownloader(cfg.Chat.DownloadDir, pageURL, nil); err != nil {
		log.Printf("warning: downloads disabled: %v", err)
	} else {
		galleryOpts = append(galleryOpts, gallery.WithDownloader(d))
	}
	g := gallery.New(browser.NewGallerySink(session), nil, galleryOpts...)

	kiosk := browser.NewKiosk(session, m, g)
	if err := kiosk.Bind(ctx); err != nil {
		return err
	}
	defer kiosk.Unbind()

	log.Printf("Driving %s, press Ctrl+C to quit", pageURL)
	return kiosk.Run(ctx)
}
