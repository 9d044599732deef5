package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openshelf/pkg/models"
)

type stubClient struct {
	reply  string
	err    error
	prompt string
}

func (s *stubClient) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func sampleBooks() []models.Book {
	borrower := "user1"
	return []models.Book{
		{
			Title:       "Dune",
			Author:      "Frank Herbert",
			Category:    "Sci-Fi",
			PublishYear: 1965,
			Copies: []models.Copy{
				{BorrowedBy: &borrower},
				{},
			},
		},
		{
			Title:       "Emma",
			Author:      "Jane Austen",
			Category:    "Classics",
			PublishYear: 1815,
			Copies:      []models.Copy{{}},
		},
	}
}

func TestAskSendsCatalogInPrompt(t *testing.T) {
	client := &stubClient{reply: "Try Dune."}
	bot := New(client)

	reply, err := bot.Ask(context.Background(), "any sci-fi?", sampleBooks())
	require.NoError(t, err)
	assert.Equal(t, "Try Dune.", reply)

	assert.Contains(t, client.prompt, "any sci-fi?")
	assert.Contains(t, client.prompt, `"Dune" by Frank Herbert`)
	assert.Contains(t, client.prompt, "1 of 2 copies available")
	assert.Contains(t, client.prompt, "1 of 1 copies available")
}

func TestAskFallsBackOnUpstreamError(t *testing.T) {
	client := &stubClient{err: errors.New("quota exceeded")}
	bot := New(client)

	reply, err := bot.Ask(context.Background(), "anything", sampleBooks())
	require.NoError(t, err)
	assert.Contains(t, reply, "temporarily unavailable")
	assert.Contains(t, reply, "Dune")
}

func TestCatalogContextEmpty(t *testing.T) {
	text := CatalogContext(nil)
	assert.Contains(t, text, "no books in the catalog")
}

func TestBuildPromptLayout(t *testing.T) {
	prompt := BuildPrompt("question?", sampleBooks())
	catalogIdx := strings.Index(prompt, "Catalog:")
	questionIdx := strings.Index(prompt, "Question: question?")
	require.NotEqual(t, -1, catalogIdx)
	require.NotEqual(t, -1, questionIdx)
	assert.Less(t, catalogIdx, questionIdx)
}
