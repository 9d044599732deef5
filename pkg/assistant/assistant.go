package assistant

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"openshelf/pkg/circuitbreaker"
	"openshelf/pkg/models"
)

// LLMClient abstracts the generative-language API so tests can stub it.
type LLMClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiClient implements LLMClient using the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		MaxOutputTokens: 1024,
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}, config)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", nil
}

// Assistant answers catalog questions. The upstream call runs behind a
// circuit breaker; when the API is failing or the breaker is open, Ask
// degrades to a plain catalog listing instead of an error.
type Assistant struct {
	client  LLMClient
	breaker *circuitbreaker.CircuitBreaker
}

func New(client LLMClient) *Assistant {
	return &Assistant{
		client:  client,
		breaker: circuitbreaker.New(3, 30*time.Second),
	}
}

// Ask builds the prompt from the catalog and the user's question and
// returns the assistant's reply.
func (a *Assistant) Ask(ctx context.Context, question string, books []models.Book) (string, error) {
	prompt := BuildPrompt(question, books)

	var reply string
	err := a.breaker.Execute(
		func() error {
			var callErr error
			reply, callErr = a.client.GenerateContent(ctx, prompt)
			return callErr
		},
		func() error {
			reply = fallbackReply(books)
			return nil
		},
	)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// BuildPrompt lays out the catalog context ahead of the question. Each
// book renders on one line so the model can reference titles exactly.
func BuildPrompt(question string, books []models.Book) string {
	var sb strings.Builder
	sb.WriteString("You are the assistant of a community book-sharing app. ")
	sb.WriteString("Answer using only the catalog below. ")
	sb.WriteString("When a book is unavailable, suggest reserving it.\n\n")
	sb.WriteString("Catalog:\n")
	sb.WriteString(CatalogContext(books))
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

// CatalogContext formats the catalog as prompt text.
func CatalogContext(books []models.Book) string {
	var sb strings.Builder
	for _, book := range books {
		available := 0
		for _, c := range book.Copies {
			if c.BorrowedBy == nil {
				available++
			}
		}
		sb.WriteString(fmt.Sprintf("- %q by %s (%s, %d): %d of %d copies available\n",
			book.Title, book.Author, book.Category, book.PublishYear,
			available, len(book.Copies)))
	}
	if sb.Len() == 0 {
		return "(no books in the catalog)\n"
	}
	return sb.String()
}

func fallbackReply(books []models.Book) string {
	return "The assistant is temporarily unavailable. Here is the current catalog:\n\n" +
		CatalogContext(books)
}
