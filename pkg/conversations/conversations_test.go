package conversations

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openshelf/pkg/database"
	"openshelf/pkg/errs"
)

func TestCreateAndGet(t *testing.T) {
	store := New(database.InitTest())

	conversation, err := store.Create("user1", "Fantasy picks")
	require.NoError(t, err)
	assert.NotEmpty(t, conversation.ConversationUid)

	found, err := store.Get(conversation.ConversationUid)
	require.NoError(t, err)
	assert.Equal(t, "Fantasy picks", found.Title)
	assert.Empty(t, found.Messages)

	_, err = store.Get(uuid.New().String())
	assert.True(t, errs.IsNotFound(err))

	_, err = store.Create("", "title")
	assert.True(t, errs.IsValidation(err))
}

func TestListIsPerUser(t *testing.T) {
	store := New(database.InitTest())

	_, err := store.Create("user1", "a")
	require.NoError(t, err)
	_, err = store.Create("user1", "b")
	require.NoError(t, err)
	_, err = store.Create("user2", "c")
	require.NoError(t, err)

	list, err := store.List("user1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAppendMessage(t *testing.T) {
	store := New(database.InitTest())
	conversation, err := store.Create("user1", "chat")
	require.NoError(t, err)

	_, err = store.AppendMessage(conversation.ConversationUid, "user", "any sci-fi?")
	require.NoError(t, err)
	_, err = store.AppendMessage(conversation.ConversationUid, "assistant", "try Dune")
	require.NoError(t, err)

	found, err := store.Get(conversation.ConversationUid)
	require.NoError(t, err)
	require.Len(t, found.Messages, 2)
	assert.Equal(t, "user", found.Messages[0].Role)
	assert.Equal(t, "assistant", found.Messages[1].Role)

	_, err = store.AppendMessage(conversation.ConversationUid, "system", "nope")
	assert.True(t, errs.IsValidation(err))
}

func TestRename(t *testing.T) {
	store := New(database.InitTest())
	conversation, err := store.Create("user1", "old")
	require.NoError(t, err)

	renamed, err := store.Rename(conversation.ConversationUid, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Title)

	_, err = store.Rename(uuid.New().String(), "x")
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteRemovesMessages(t *testing.T) {
	store := New(database.InitTest())
	conversation, err := store.Create("user1", "chat")
	require.NoError(t, err)
	_, err = store.AppendMessage(conversation.ConversationUid, "user", "hello")
	require.NoError(t, err)

	require.NoError(t, store.Delete(conversation.ConversationUid))

	_, err = store.Get(conversation.ConversationUid)
	assert.True(t, errs.IsNotFound(err))

	err = store.Delete(conversation.ConversationUid)
	assert.True(t, errs.IsNotFound(err))
}
