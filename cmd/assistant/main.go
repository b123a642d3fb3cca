package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lectern-ai/lectern/internal/answer"
	"github.com/lectern-ai/lectern/internal/assist"
	"github.com/lectern-ai/lectern/internal/chunker"
	"github.com/lectern-ai/lectern/internal/config"
	"github.com/lectern-ai/lectern/internal/core"
	"github.com/lectern-ai/lectern/internal/embed"
	"github.com/lectern-ai/lectern/internal/index"
	"github.com/lectern-ai/lectern/internal/llm"
	"github.com/lectern-ai/lectern/internal/logger"
	"github.com/lectern-ai/lectern/internal/retrieve"
	"github.com/lectern-ai/lectern/internal/store"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	userID := flag.String("user", "", "User id to answer questions for")
	flag.Parse()

	logger.Init(*debug)
	logger.Info("Starting course assistant...")

	if err := godotenv.Load(); err != nil {
		logger.Info("Warning: No .env file found or error loading it")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if *userID == "" {
		logger.Error("-user is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Initializing services...")

	recordStore, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
	if err != nil {
		logger.Error("Failed to open record store: %v", err)
		os.Exit(1)
	}
	defer recordStore.Close()

	objects, err := store.NewDiskObjectStore(cfg.Store.UploadDir, cfg.Store.PublicBase)
	if err != nil {
		logger.Error("Failed to prepare object store: %v", err)
		os.Exit(1)
	}

	embedder := embed.NewOpenAIEmbedder(
		cfg.Embedder.BaseURL,
		os.Getenv(cfg.Embedder.APIKeyEnv),
		cfg.Embedder.Model,
		cfg.Embedder.Dimension,
		time.Duration(cfg.Embedder.TimeoutSecs)*time.Second,
	)

	vectorIndex, err := buildIndex(ctx, cfg, embedder.Dimension())
	if err != nil {
		logger.Error("Failed to initialize vector index: %v", err)
		os.Exit(1)
	}

	model := initModel(cfg)
	if !model.Ready() {
		logger.Warn("Language model unavailable (%s); answers will degrade to the offline notice", model.Reason())
	}

	ch, err := chunker.New(cfg.Chunker.MaxSize, cfg.Chunker.Overlap)
	if err != nil {
		logger.Error("Invalid chunker configuration: %v", err)
		os.Exit(1)
	}

	svc := assist.New(
		recordStore,
		vectorIndex,
		embedder,
		objects,
		ch,
		retrieve.New(vectorIndex, embedder, model),
		answer.NewGenerator(model, cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	)

	if cfg.SeedDir != "" {
		if _, err := svc.SeedCorpus(ctx, cfg.SeedDir, core.ChunkMetadata{ContentType: "seed"}); err != nil {
			logger.Error("Seed corpus ingestion failed: %v", err)
		}
	}

	// Create the user on first run so date lookups have a department.
	if _, err := recordStore.GetUser(ctx, *userID); err != nil {
		dept := os.Getenv("LECTERN_DEPARTMENT")
		logger.Info("Registering new user %s (department %q)", *userID, dept)
		if err := recordStore.PutUser(ctx, core.UserProfile{ID: *userID, Department: dept}); err != nil {
			logger.Error("Failed to register user: %v", err)
			os.Exit(1)
		}
	}

	go runPromptLoop(ctx, svc, *userID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")
	cancel()
}

func buildIndex(ctx context.Context, cfg *config.AppConfig, dim int) (core.VectorIndex, error) {
	switch cfg.Index.Type {
	case "memory":
		logger.Info("Using in-memory vector index")
		return index.NewMemoryIndex(), nil
	default:
		return index.NewMilvusIndex(ctx, cfg.Index.MilvusAddr, cfg.Index.Collection, dim)
	}
}

// initModel yields the explicit two-state init result the pipeline carries
// instead of a swallowed startup failure.
func initModel(cfg *config.AppConfig) llm.InitResult {
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		return llm.Unavailable(fmt.Sprintf("%s not set", cfg.LLM.APIKeyEnv))
	}
	client := llm.NewClient(cfg.LLM.BaseURL, apiKey, cfg.LLM.Model, time.Duration(cfg.LLM.TimeoutSecs)*time.Second)
	return llm.Ready(client)
}

// runPromptLoop answers questions from stdin until the context ends. One
// conversation id is threaded through the whole session.
func runPromptLoop(ctx context.Context, svc *assist.Service, userID string) {
	scanner := bufio.NewScanner(os.Stdin)
	conversationID := ""

	fmt.Println("Ask a question (ctrl-c to quit):")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		reply, err := svc.Answer(ctx, userID, conversationID, question)
		if err != nil {
			logger.Error("Request failed: %v", err)
			continue
		}
		conversationID = reply.ConversationID
		fmt.Printf("\n%s\n\n", reply.Answer)
	}
}
