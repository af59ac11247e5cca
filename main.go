package main

import (
	"context"
	"expvar"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"agenthooks/internal"
	"agenthooks/pkg/api"
	"agenthooks/pkg/storage"
	"agenthooks/pkg/storage/deliveries"
	"agenthooks/webhook"
)

func main() {
	logger := internal.NewLogger("server")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ruleEngine, err := internal.NewRuleEngine(internal.RulesConfig{
		Rules:  config.Rules,
		Strict: config.RulesStrict,
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("compile rules: %v", err)
	}

	publisher, err := internal.NewPublisher(config.Watermill)
	if err != nil {
		logger.Fatalf("publisher: %v", err)
	}
	defer publisher.Close()

	var store storage.DeliveryStore
	if config.Storage.DSN != "" {
		deliveryStore, err := deliveries.Open(deliveries.Config{
			Driver:      config.Storage.Driver,
			DSN:         config.Storage.DSN,
			Table:       config.Storage.Table,
			AutoMigrate: config.Storage.AutoMigrate,
			ListLimit:   config.Storage.ListLimit,
		})
		if err != nil {
			logger.Fatalf("storage: %v", err)
		}
		defer deliveryStore.Close()
		store = deliveryStore
		logger.Printf("delivery log enabled (%s)", config.Storage.Driver)
	}

	mux := http.NewServeMux()

	if config.Connectors.GitHub.Enabled {
		ghHandler := webhook.NewGitHubHandler(
			config.Connectors.GitHub.Secret,
			ruleEngine,
			publisher,
			store,
			internal.NewLogger("github"),
		)
		mux.Handle(config.Connectors.GitHub.Path, ghHandler)
		logger.Printf("github webhook enabled on %s", config.Connectors.GitHub.Path)
	}

	if config.Connectors.Slack.Enabled {
		slackHandler := webhook.NewSlackHandler(
			config.Connectors.Slack.SigningSecret,
			ruleEngine,
			publisher,
			store,
			internal.NewLogger("slack"),
		)
		mux.Handle(config.Connectors.Slack.Path, slackHandler)
		logger.Printf("slack webhook enabled on %s", config.Connectors.Slack.Path)
	}

	if store != nil {
		mux.Handle("/api/deliveries", &api.DeliveriesHandler{Store: store, Logger: logger})
		mux.Handle("/api/delivery", &api.DeliveryHandler{Store: store, Logger: logger})
	}

	if config.Server.MetricsEnabled {
		mux.Handle(config.Server.MetricsPath, expvar.Handler())
		logger.Printf("metrics enabled on %s", config.Server.MetricsPath)
	}

	var handler http.Handler = mux
	if config.Server.MaxBodyBytes > 0 {
		handler = maxBodyHandler(handler, config.Server.MaxBodyBytes)
	}
	if config.Server.RateLimitRPS > 0 {
		handler = internal.NewRateLimitHandler(
			handler,
			config.Server.RateLimitRPS,
			config.Server.RateLimitBurst,
			time.Minute,
		)
	}

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(config.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(config.Server.IdleTimeoutMS) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

func maxBodyHandler(next http.Handler, limit int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}
