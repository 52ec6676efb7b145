package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ollamaface/cli/config"
	"github.com/ollamaface/cli/internal/chat"
	"github.com/ollamaface/cli/internal/embeddings"
	"github.com/ollamaface/cli/internal/kb"
	"github.com/ollamaface/cli/internal/ollama"
	"github.com/ollamaface/cli/internal/rag"
	"github.com/ollamaface/cli/internal/session"
	"github.com/ollamaface/cli/internal/tui"
	"github.com/ollamaface/cli/internal/websearch"
)

func main() {
	var (
		rebuildFlag = flag.Bool("rebuild", false, "Rebuild the knowledge base index and exit")
		addFlag     = flag.String("add", "", "Add a document to the knowledge base and exit")
		removeFlag  = flag.String("remove", "", "Remove a tracked document from the knowledge base and exit")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Paths.LogFile)

	embedder := embeddings.NewTextEmbedder(cfg.Ollama.BaseURL, cfg.Embeddings.TextModel)
	store, err := kb.NewStore(
		cfg.KnowledgeBase.DocumentsDir,
		cfg.KnowledgeBase.IndexPath,
		cfg.KnowledgeBase.MetadataPath,
		embedder,
		cfg.KnowledgeBase.ChunkSize,
		cfg.KnowledgeBase.ChunkOverlap,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing knowledge base: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch {
	case *rebuildFlag:
		snap, err := store.Rebuild(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rebuilding index: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Index rebuilt: %d chunks\n", len(snap.Chunks))
		return

	case *addFlag != "":
		meta, err := store.AddDocument(ctx, *addFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error adding document: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added %s (loaded %s)\n", meta.Filename, meta.LastLoaded)
		return

	case *removeFlag != "":
		if err := store.RemoveDocument(ctx, *removeFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing document: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Document removed")
		return
	}

	// Load the persisted index if present; a corrupt or missing one
	// falls back to an empty knowledge base rather than aborting.
	if _, err := store.LoadExisting(ctx); err != nil {
		log.Printf("knowledge base load failed, starting empty: %v", err)
	}

	sessions, err := session.NewStore(cfg.Paths.SessionsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing sessions: %v\n", err)
		os.Exit(1)
	}

	client := ollama.NewClient(cfg.Ollama.BaseURL)
	retriever := rag.NewRetriever(store, embedder, cfg.KnowledgeBase.TopK)
	builder := rag.NewContextBuilder()
	search := websearch.NewClient(websearch.DefaultChain(
		time.Duration(cfg.Search.TimeoutSecs)*time.Second,
		cfg.Search.UserAgent,
	)...)

	engine := chat.NewEngine(client, retriever, builder, search, store, sessions, chat.Settings{
		Model:       cfg.Ollama.DefaultModel,
		WebSearch:   cfg.Search.Enabled,
		SearchDebug: cfg.Search.Debug,
		MaxResults:  cfg.Search.MaxResults,
		Temperature: cfg.Generation.Temperature,
		NumPredict:  cfg.Generation.NumPredict,
	})

	app, err := tui.NewApp(engine, sessions, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends the background event trail to the configured file.
func setupLogging(path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags)
}
