package main

import (
	"context"
	"flag"
	"fmt"
	"hotel-panel/booking"
	"hotel-panel/config"
	"hotel-panel/handlers/api/rooms"
	"hotel-panel/handlers/websocket"
	"hotel-panel/panel"
	"hotel-panel/stores"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func isLocalOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "http", "https":
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}
	return false
}

func setupRouter(p *panel.Panel, hub *websocket.Hub, origins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}
			if isLocalOrigin(origin) {
				return true
			}
			for _, allowed := range origins {
				if allowed == origin {
					return true
				}
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		rooms.Routes(r, p)
	})
	r.Handle("/socket.io/", hub.Handler())

	return r
}

func waitForShutdown(server *http.Server, hub *websocket.Hub, closers ...io.Closer) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s).Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	hub.Close()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close resource")
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	configPath := flag.String("config", "", "Path to a YAML config file")
	listenAddr := flag.String("listen", "", "Set the server listen address")
	logLevel := flag.String("loglevel", "", "Set the logging level: debug, info, warn, error, fatal, panic")
	bookingURL := flag.String("booking-url", "", "Base URL of the booking service rooms collection")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *bookingURL != "" {
		cfg.BookingURL = *bookingURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	journal, err := stores.GetJournal(cfg.Journal.Type, cfg.Journal.DataSourceName)
	if err != nil {
		logrus.WithField("event", "open journal").Fatal(err)
	}

	hub := websocket.NewHub(cfg.CORSOrigins)
	p := panel.New(
		booking.New(cfg.BookingURL, booking.WithTimeout(cfg.RequestTimeout)),
		panel.WithHighlightTTL(cfg.HighlightTTL),
		panel.WithNotifier(hub),
		panel.WithJournal(journal),
		panel.WithStaleGuard(cfg.StaleGuard),
	)
	hub.Bind(p)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	if err := p.RefreshAll(ctx); err != nil {
		logrus.WithError(err).WithField("bookingURL", cfg.BookingURL).Warn("Initial room load failed")
	}
	cancel()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           setupRouter(p, hub, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithFields(logrus.Fields{
		"addr":       cfg.ListenAddr,
		"bookingURL": cfg.BookingURL,
	}).Info("starting server")
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	var closers []io.Closer
	if c, ok := journal.(io.Closer); ok {
		closers = append(closers, c)
	}
	waitForShutdown(server, hub, closers...)
}
