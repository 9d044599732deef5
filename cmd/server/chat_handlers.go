package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"openshelf/pkg/assistant"
	"openshelf/pkg/chunker"
	"openshelf/pkg/models"
)

// Pending reply chunks per conversation, drained by getChunks polling.
var (
	emittersMu sync.Mutex
	emitters   = map[string]*chunker.Emitter{}
)

func emitterFor(conversationUid string) *chunker.Emitter {
	emittersMu.Lock()
	defer emittersMu.Unlock()
	emitter, ok := emitters[conversationUid]
	if !ok {
		emitter = chunker.NewEmitter()
		emitters[conversationUid] = emitter
	}
	return emitter
}

func conversationView(conversation *models.Conversation, withMessages bool) gin.H {
	view := gin.H{
		"conversationUid": conversation.ConversationUid,
		"title":           conversation.Title,
		"updatedAt":       conversation.UpdatedAt.Format(time.RFC3339),
	}
	if withMessages {
		messages := make([]gin.H, len(conversation.Messages))
		for i, m := range conversation.Messages {
			messages[i] = gin.H{
				"role":    m.Role,
				"content": m.Content,
				"date":    m.CreatedAt.Format(time.RFC3339),
			}
		}
		view["messages"] = messages
	}
	return view
}

func listConversations(c *gin.Context) {
	userUid, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := convStore.List(userUid)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]gin.H, len(items))
	for i := range items {
		views[i] = conversationView(&items[i], false)
	}
	c.JSON(http.StatusOK, views)
}

func createConversation(c *gin.Context) {
	userUid, ok := currentUser(c)
	if !ok {
		return
	}
	var request struct {
		Title string `json:"title"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}
	if request.Title == "" {
		request.Title = "New conversation"
	}
	conversation, err := convStore.Create(userUid, request.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversationView(conversation, false))
}

func getConversation(c *gin.Context) {
	conversation, err := convStore.Get(c.Param("conversationUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationView(conversation, true))
}

func renameConversation(c *gin.Context) {
	var request struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	conversation, err := convStore.Rename(c.Param("conversationUid"), request.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationView(conversation, false))
}

func deleteConversation(c *gin.Context) {
	conversationUid := c.Param("conversationUid")
	if err := convStore.Delete(conversationUid); err != nil {
		writeError(c, err)
		return
	}
	emittersMu.Lock()
	delete(emitters, conversationUid)
	emittersMu.Unlock()
	c.Data(http.StatusNoContent, "application/json", nil)
}

// postMessage stores the user's question, asks the assistant about the
// catalog and returns the reply pre-split into typing chunks for the UI.
func postMessage(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var request struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	conversationUid := c.Param("conversationUid")
	if _, err := convStore.AppendMessage(conversationUid, "user", request.Content); err != nil {
		writeError(c, err)
		return
	}

	books, err := catalogStore.Books("")
	if err != nil {
		writeError(c, err)
		return
	}

	var reply string
	if bot != nil {
		reply, err = bot.Ask(c.Request.Context(), request.Content, books)
		if err != nil {
			writeError(c, err)
			return
		}
	} else {
		reply = "The assistant is not configured. Here is the current catalog:\n\n" +
			assistant.CatalogContext(books)
	}

	if _, err := convStore.AppendMessage(conversationUid, "assistant", reply); err != nil {
		writeError(c, err)
		return
	}

	pieces := chunker.Split(reply, 8, 120*time.Millisecond)
	emitterFor(conversationUid).Push(pieces...)
	chunks := make([]string, len(pieces))
	for i, p := range pieces {
		chunks[i] = p.Text
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "chunks": chunks})
}

// getChunks pops the reply chunks that are due for display and reports how
// many are still pending. The chat screen polls it for the typing effect.
func getChunks(c *gin.Context) {
	conversationUid := c.Param("conversationUid")
	if _, err := convStore.Get(conversationUid); err != nil {
		writeError(c, err)
		return
	}
	emitter := emitterFor(conversationUid)
	due := make([]string, 0)
	for {
		chunk := emitter.Pop()
		if chunk == nil {
			break
		}
		due = append(due, chunk.Text)
	}
	c.JSON(http.StatusOK, gin.H{"chunks": due, "pending": emitter.Size()})
}
