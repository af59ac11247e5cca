// Example agent worker: consumes normalized events from the gateway's
// brokers and reacts with connector calls. Run the gateway with a rules
// section emitting pr.opened and slack.mention, then start this worker
// against the same config file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"agenthooks/internal"
	"agenthooks/pkg/connector"
	worker "agenthooks/pkg/worker"

	_ "github.com/lib/pq"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to app config")
	driver := flag.String("driver", "", "Override subscriber driver (amqp|nats|kafka|sql|gochannel)")
	flag.Parse()

	log.SetPrefix("agenthooks/agent-worker ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appCfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	subCfg, err := worker.LoadSubscriberConfig(*configPath)
	if err != nil {
		log.Fatalf("load subscriber config: %v", err)
	}
	if *driver != "" {
		subCfg.Driver = *driver
		subCfg.Drivers = nil
	}

	sub, err := worker.BuildSubscriber(subCfg)
	if err != nil {
		log.Fatalf("subscriber: %v", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			log.Printf("subscriber close: %v", err)
		}
	}()

	clients := &worker.ConnectorClients{
		GitHub: connector.GitHubConfig{
			Secret:         appCfg.Connectors.GitHub.Secret,
			Token:          appCfg.Connectors.GitHub.Token,
			AppID:          appCfg.Connectors.GitHub.AppID,
			PrivateKeyPath: appCfg.Connectors.GitHub.PrivateKeyPath,
			InstallationID: appCfg.Connectors.GitHub.InstallationID,
			BaseURL:        appCfg.Connectors.GitHub.BaseURL,
		},
		Slack: connector.SlackConfig{
			SigningSecret: appCfg.Connectors.Slack.SigningSecret,
			BotToken:      appCfg.Connectors.Slack.BotToken,
		},
	}

	wk := worker.New(
		worker.WithSubscriber(sub),
		worker.WithTopics("pr.opened", "slack.mention"),
		worker.WithConcurrency(5),
		worker.WithRetry(worker.AckOnError{}),
		worker.WithClientProvider(clients),
		worker.WithListener(worker.Listener{
			OnStart: func(ctx context.Context) { log.Println("worker started") },
			OnExit:  func(ctx context.Context) { log.Println("worker stopped") },
			OnError: func(ctx context.Context, evt *worker.Event, err error) {
				log.Printf("worker error: %v", err)
			},
			OnMessageFinish: func(ctx context.Context, evt *worker.Event, err error) {
				log.Printf("finished provider=%s kind=%s err=%v", evt.Provider, evt.Kind, err)
			},
		}),
	)

	wk.HandleTopic("pr.opened", func(ctx context.Context, evt *worker.Event) error {
		gh, ok := worker.GitHubClient(evt)
		if !ok {
			return nil
		}
		number, ok := evt.Data["number"].(float64)
		if !ok {
			return nil
		}
		result := gh.AddIssueComment(ctx, evt.Repo, int(number), "Thanks! An agent will review this shortly.")
		if !result.OK() {
			log.Printf("comment failed: %s", result.Err())
		}
		return nil
	})

	wk.HandleTopic("slack.mention", func(ctx context.Context, evt *worker.Event) error {
		sl, ok := worker.SlackClient(evt)
		if !ok {
			return nil
		}
		result := sl.SendMessage(ctx, evt.Repo, "On it.")
		if !result.OK() {
			log.Printf("reply failed: %s", result.Err())
		}
		return nil
	})

	if err := wk.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
