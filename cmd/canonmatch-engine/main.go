// canonmatch-engine processes submitted problem mentions through matching,
// agent review, and human review queues, persisting every step to Postgres.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"

	"github.com/researchgraph/canonmatch/internal/agentroles"
	"github.com/researchgraph/canonmatch/internal/agentworkflow"
	"github.com/researchgraph/canonmatch/internal/alerting"
	"github.com/researchgraph/canonmatch/internal/blacklist"
	"github.com/researchgraph/canonmatch/internal/checkpoint"
	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/embedding"
	"github.com/researchgraph/canonmatch/internal/engine"
	"github.com/researchgraph/canonmatch/internal/observability"
	"github.com/researchgraph/canonmatch/internal/refinement"
	"github.com/researchgraph/canonmatch/internal/resilience"
	"github.com/researchgraph/canonmatch/internal/reviewqueue"
	"github.com/researchgraph/canonmatch/internal/store"
	"github.com/researchgraph/canonmatch/internal/vectorindex"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	pollInterval := flag.Duration("poll-interval", 2*time.Second, "how often to poll for EXTRACTED work items")
	workers := flag.Int("workers", 4, "number of concurrent work item processors")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	log.Printf("Starting canonmatch-engine")
	log.Printf("Config Directory: %s", *configDir)

	ctx := context.Background()

	cfg, err := config.Load(filepath.Join(*configDir, "config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbConfig, err := store.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := store.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL database")

	retrier := resilience.NewRetrier(cfg.Retry)

	embeddingBreaker := resilience.NewBreaker(resilience.CollaboratorEmbeddingProvider)
	rawEmbedder := embedding.NewHTTPProvider(
		getEnv("EMBEDDING_ENDPOINT", "http://localhost:9000/embed"),
		os.Getenv("EMBEDDING_API_KEY"),
		getEnv("EMBEDDING_MODEL", "text-embedding-3-large"),
		16000,
		nil,
	)
	embeddingCache := embedding.NewLRUCache(10000)
	embedder := embedding.NewCachedProvider(rawEmbedder, embeddingCache, embeddingBreaker, retrier)

	vectorIndex := vectorindex.NewPostgresIndex(dbClient.Client)

	var backend agentroles.Backend
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		backend = agentroles.NewAnthropicBackend(apiKey, anthropic.ModelClaude3_7SonnetLatest)
		log.Println("Agent roles backend: Anthropic")
	} else {
		log.Fatalf("ANTHROPIC_API_KEY not set and no fallback langchaingo model configured")
	}
	roles := agentroles.New(backend, resilience.NewRetrier(config.RetryConfig{Max: 1, InitialBackoff: cfg.Retry.InitialBackoff, Jitter: cfg.Retry.Jitter}))

	checkpoints := checkpoint.New(dbClient.Client)
	blacklists := blacklist.New(dbClient.Client)

	alerts := alerting.NewService(alerting.ServiceConfig{
		Token:   os.Getenv("SLACK_TOKEN"),
		Channel: getEnv("SLACK_CHANNEL", ""),
	})

	reviews := reviewqueue.New(dbClient.Client, alerts, cfg.Priority, cfg.SLAHours)
	refiner := refinement.New(dbClient.Client, roles, embedder, cfg.Refinement, cfg.RoleTimeouts.Synthesiser)
	agentWorkflow := agentworkflow.New(roles, checkpoints, cfg.Consensus, cfg.RoleTimeouts)
	events := observability.NewPublisher(dbClient.DB())

	eng := engine.New(engine.Deps{
		Client:        dbClient.Client,
		VectorIndex:   vectorIndex,
		Blacklists:    blacklists,
		AgentWorkflow: agentWorkflow,
		Reviews:       reviews,
		Refiner:       refiner,
		Checkpoints:   checkpoints,
		Events:        events,
		Alerts:        alerts,
		Embedder:      embedder,
		Config:        cfg,
	})

	log.Println("Engine initialized")

	listenerDSN := getEnv("DATABASE_LISTEN_DSN", "")
	if listenerDSN != "" {
		listener := observability.NewListener(listenerDSN)
		go func() {
			if err := listener.Start(ctx); err != nil {
				log.Printf("observability listener stopped: %v", err)
			}
		}()
	}

	runWorkerPool(ctx, eng, reviews, *pollInterval, *workers)
}

// runWorkerPool polls for EXTRACTED work items and fans them out across a
// fixed number of workers, and separately sweeps for SLA breaches and stuck
// items on their own slower cadence.
func runWorkerPool(ctx context.Context, eng *engine.Engine, reviews *reviewqueue.Store, pollInterval time.Duration, workers int) {
	jobs := make(chan string, workers*4)
	for i := 0; i < workers; i++ {
		go func(id int) {
			for workItemID := range jobs {
				if err := eng.ProcessWorkItem(ctx, workItemID); err != nil {
					log.Printf("worker %d: processing work item %s: %v", id, workItemID, err)
				}
			}
		}(i)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			now := time.Now().UTC()
			if err := eng.HandleStuckItems(ctx, now); err != nil {
				log.Printf("stuck item sweep failed: %v", err)
			}
			if err := reviews.CheckSLABreaches(ctx, now); err != nil {
				log.Printf("SLA breach sweep failed: %v", err)
			}
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		ids, err := eng.PollExtracted(ctx, workers*4)
		if err != nil {
			log.Printf("polling extracted work items failed: %v", err)
			continue
		}
		for _, id := range ids {
			jobs <- id
		}
	}
}
