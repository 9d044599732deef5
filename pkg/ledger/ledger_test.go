package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openshelf/pkg/database"
	"openshelf/pkg/errs"
	"openshelf/pkg/models"
)

func TestAppendAndFind(t *testing.T) {
	db := database.InitTest()
	store := New(db)

	entry, err := store.Append(nil, Entry{
		Type:    models.TxBorrow,
		UserUid: "user1",
		BookUid: "book1",
		CopyUid: "copy1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.TransactionUid)
	assert.False(t, entry.Date.IsZero())

	found, err := store.Find(Filter{UserUid: "user1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.TxBorrow, found[0].Type)
	assert.Equal(t, "copy1", found[0].CopyUid)
}

func TestAppendValidation(t *testing.T) {
	db := database.InitTest()
	store := New(db)

	_, err := store.Append(nil, Entry{Type: "refund", UserUid: "u", BookUid: "b"})
	assert.True(t, errs.IsValidation(err))

	_, err = store.Append(nil, Entry{Type: models.TxBorrow, BookUid: "b"})
	assert.True(t, errs.IsValidation(err))

	_, err = store.Append(nil, Entry{Type: models.TxBorrow, UserUid: "u"})
	assert.True(t, errs.IsValidation(err))
}

// Filtering by user and type ignores unrelated entries: three borrows and
// one return by the same user still yield exactly three borrow rows.
func TestFindFilterCombinations(t *testing.T) {
	db := database.InitTest()
	store := New(db)

	for _, e := range []Entry{
		{Type: models.TxBorrow, UserUid: "u1", BookUid: "b1"},
		{Type: models.TxBorrow, UserUid: "u1", BookUid: "b2"},
		{Type: models.TxBorrow, UserUid: "u1", BookUid: "b1"},
		{Type: models.TxReturn, UserUid: "u1", BookUid: "b1"},
		{Type: models.TxBorrow, UserUid: "u2", BookUid: "b1"},
	} {
		_, err := store.Append(nil, e)
		require.NoError(t, err)
	}

	borrows, err := store.Find(Filter{UserUid: "u1", Type: models.TxBorrow})
	require.NoError(t, err)
	assert.Len(t, borrows, 3)

	b1, err := store.Find(Filter{UserUid: "u1", BookUid: "b1"})
	require.NoError(t, err)
	assert.Len(t, b1, 3)

	all, err := store.Find(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = store.Find(Filter{Type: "refund"})
	assert.True(t, errs.IsValidation(err))
}

func TestFindPreservesInsertionOrder(t *testing.T) {
	db := database.InitTest()
	store := New(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// Dates run backwards on purpose; order must follow insertion anyway.
	for i := 0; i < 4; i++ {
		_, err := store.Append(nil, Entry{
			Type:    models.TxBorrow,
			UserUid: "u1",
			BookUid: string(rune('a' + i)),
			Date:    base.AddDate(0, 0, -i),
		})
		require.NoError(t, err)
	}

	found, err := store.Find(Filter{UserUid: "u1"})
	require.NoError(t, err)
	require.Len(t, found, 4)
	for i := 0; i < 3; i++ {
		assert.Less(t, found[i].ID, found[i+1].ID)
	}
	assert.Equal(t, "a", found[0].BookUid)
	assert.Equal(t, "d", found[3].BookUid)
}
