package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fmartel/ragdesk/api"
	"github.com/fmartel/ragdesk/chat"
	"github.com/fmartel/ragdesk/config"
	"github.com/fmartel/ragdesk/embeddings"
	"github.com/fmartel/ragdesk/index"
	"github.com/fmartel/ragdesk/ingestion"
	"github.com/fmartel/ragdesk/llm"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := os.Getenv("RAGDESK_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "indices":
		indicesCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.ListenAddr, "address to listen on")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manager, closeStore, err := newManager(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("index setup: %v", err)
	}
	defer closeStore()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	chatSvc := chat.NewService(manager, llmClient, logger)
	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(cfg, manager, chatSvc, logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s (store=%s, embeddings=%s/%s, llm=%s/%s)",
		*addr, cfg.StoreType,
		strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model,
		strings.ToUpper(cfg.LLM.Provider), cfg.LLM.Model)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	filePath := flags.String("file", "", "path to the document to ingest")
	metadata := flags.String("metadata", "", "extra metadata as key=value pairs separated by commas")
	saveAs := flags.String("save", "", "snapshot name to save the index to after ingestion")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	if strings.TrimSpace(*filePath) == "" {
		logger.Fatal("ingest requires -file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manager, closeStore, err := newManager(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("index setup: %v", err)
	}
	defer closeStore()

	doc, err := ingestion.Extract(ingestion.FromPath(*filePath))
	if err != nil {
		logger.Fatalf("read %s: %v", *filePath, err)
	}

	meta, skipped := ingestion.ParseMetadata(*metadata)
	if skipped > 0 {
		logger.Printf("skipped %d malformed metadata entries", skipped)
	}
	for k, v := range ingestion.FileMetadata(*filePath) {
		meta[k] = v
	}

	count, err := manager.InsertDocument(ctx, doc, meta)
	if err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}
	logger.Printf("ingested %s as %d chunks (%s)", *filePath, count, doc.Format)

	if *saveAs != "" {
		if err := manager.Save(ctx, *saveAs); err != nil {
			logger.Fatalf("save index: %v", err)
		}
		logger.Printf("index saved to %q", *saveAs)
	}
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	question := flags.String("question", "", "question to ask")
	indexName := flags.String("index", "", "saved index to load before answering")
	topK := flags.Int("top-k", cfg.TopK, "number of context chunks to retrieve")
	model := flags.String("model", "", "override the configured llm model")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manager, closeStore, err := newManager(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("index setup: %v", err)
	}
	defer closeStore()

	if *indexName != "" {
		if err := manager.Load(ctx, *indexName); err != nil {
			logger.Fatalf("load index %q: %v", *indexName, err)
		}
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	svc := chat.NewService(manager, llmClient, logger)
	resp, _, err := svc.ChatStream(ctx, *question, chat.Config{TopK: *topK, Model: *model}, nil, func(token string) error {
		fmt.Print(token)
		return nil
	})
	if err != nil {
		logger.Fatalf("chat failed: %v", err)
	}

	fmt.Println()
	if len(resp.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for idx, source := range resp.Sources {
			name := source.FileName
			if name == "" {
				name = source.ChunkID
			}
			fmt.Printf("%d. %s (score %.3f)\n", idx+1, name, source.Score)
		}
	}
}

func indicesCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("indices", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse indices flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manager, closeStore, err := newManager(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("index setup: %v", err)
	}
	defer closeStore()

	indices, err := manager.ListIndices()
	if err != nil {
		logger.Fatalf("list indices: %v", err)
	}

	if len(indices) == 0 {
		fmt.Println("no saved indices")
		return
	}
	for _, name := range indices {
		fmt.Println(name)
	}
}

// newManager wires the configured store and embedder into an index manager.
// The returned close function releases the store's resources.
func newManager(ctx context.Context, cfg config.Config, logger *log.Logger) (*index.Manager, func(), error) {
	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder setup: %w", err)
	}

	opts := index.Options{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		IndicesRoot:  cfg.IndicesDir,
	}

	switch cfg.StoreType {
	case config.StoreMemory, "":
		return index.NewManager(index.NewMemoryStore(), embedder, logger, opts), func() {}, nil
	case config.StorePostgres:
		store, err := index.NewPostgresStore(ctx, cfg.PostgresDSN, cfg.Embeddings.Dimension)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return index.NewManager(store, embedder, logger, opts), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.StoreType)
	}
}

func printUsage() {
	fmt.Println("Usage: ragdesk <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve    start the HTTP API and web UI")
	fmt.Println("  ingest   extract, chunk and index a document")
	fmt.Println("  chat     ask a question against the index")
	fmt.Println("  indices  list saved index snapshots")
}
