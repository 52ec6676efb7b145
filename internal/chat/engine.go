// Package chat sequences one conversation turn: gather context from the
// knowledge base and the web, assemble the prompt, call the model, and
// record the exchange.
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/ollamaface/cli/internal/kb"
	"github.com/ollamaface/cli/internal/ollama"
	"github.com/ollamaface/cli/internal/rag"
	"github.com/ollamaface/cli/internal/session"
	"github.com/ollamaface/cli/internal/websearch"
)

// Settings is the immutable per-turn configuration. Operations read a
// snapshot of it; the only way to change it is UpdateSettings.
type Settings struct {
	Model       string
	WebSearch   bool
	SearchDebug bool
	MaxResults  int
	Temperature float64
	NumPredict  int
}

// Engine coordinates the per-turn data flow.
type Engine struct {
	ollama    *ollama.Client
	retriever *rag.Retriever
	builder   *rag.ContextBuilder
	search    *websearch.Client
	store     *kb.Store
	sessions  *session.Store

	mu       sync.RWMutex
	settings Settings
}

// NewEngine creates a chat engine over the given collaborators.
func NewEngine(
	client *ollama.Client,
	retriever *rag.Retriever,
	builder *rag.ContextBuilder,
	search *websearch.Client,
	store *kb.Store,
	sessions *session.Store,
	settings Settings,
) *Engine {
	return &Engine{
		ollama:    client,
		retriever: retriever,
		builder:   builder,
		search:    search,
		store:     store,
		sessions:  sessions,
		settings:  settings,
	}
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// UpdateSettings replaces the settings snapshot used by later turns.
func (e *Engine) UpdateSettings(s Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

// TurnResult is the outcome of one successful turn.
type TurnResult struct {
	Answer    string
	Prompt    string
	Search    *websearch.Response  // nil when web search was disabled
	Retrieval *rag.RetrievalResult // nil when the index was empty
	// SearchError holds the chain failure message when every engine
	// failed; the turn still completes with the placeholder section.
	SearchError string
}

// Turn runs one conversation turn. Web search and local retrieval run
// concurrently and are both joined before the prompt is assembled. The
// session is mutated and persisted only when the model call succeeds.
func (e *Engine) Turn(ctx context.Context, sess *session.Session, message string) (*TurnResult, error) {
	settings := e.Settings()
	if settings.Model == "" {
		return nil, fmt.Errorf("no model selected")
	}

	retrievalRequested := !e.store.Snapshot().Empty()

	var (
		wg         sync.WaitGroup
		searchResp *websearch.Response
		searchErr  error
		retrieval  *rag.RetrievalResult
		retErr     error
	)
	if settings.WebSearch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			searchResp, searchErr = e.search.Search(ctx, message, settings.MaxResults)
		}()
	}
	if retrievalRequested {
		wg.Add(1)
		go func() {
			defer wg.Done()
			retrieval, retErr = e.retriever.Retrieve(ctx, message)
		}()
	}
	wg.Wait()

	result := &TurnResult{}
	if searchErr != nil {
		// The chain already degraded to its placeholder; keep the trace.
		result.SearchError = searchErr.Error()
	}
	if retErr != nil {
		// Retrieval failures degrade to the empty-KB placeholder.
		retrieval = &rag.RetrievalResult{}
	}

	prompt := e.builder.BuildPrompt(message, retrieval, searchResp)

	answer, err := e.ollama.Generate(ctx, &ollama.GenerateRequest{
		Model:  settings.Model,
		Prompt: prompt,
		Options: &ollama.Options{
			Temperature: settings.Temperature,
			NumPredict:  settings.NumPredict,
		},
	})
	if err != nil {
		return nil, err
	}

	before := len(sess.Messages)
	sess.Messages = append(sess.Messages,
		session.Message{Role: session.RoleUser, Content: message},
		session.Message{Role: session.RoleAssistant, Content: answer},
	)
	sess.Model = settings.Model
	if err := e.sessions.Save(sess); err != nil {
		sess.Messages = sess.Messages[:before]
		return nil, err
	}

	result.Answer = answer
	result.Prompt = prompt
	result.Search = searchResp
	result.Retrieval = retrieval
	return result, nil
}

// RefreshModels lists the models the server currently offers.
func (e *Engine) RefreshModels(ctx context.Context) ([]string, error) {
	models, err := e.ollama.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(models))
	for _, model := range models {
		names = append(names, model.Name)
	}
	return names, nil
}

// Health reports whether the inference server is reachable.
func (e *Engine) Health(ctx context.Context) error {
	return e.ollama.Health(ctx)
}
