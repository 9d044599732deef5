package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"openshelf/pkg/database"
	"openshelf/pkg/errs"
	"openshelf/pkg/models"
)

func seedLibrary(t *testing.T, db *gorm.DB) *models.Library {
	t.Helper()
	library := models.Library{
		LibraryUid:  uuid.New().String(),
		Name:        "Corner Shelf",
		Description: "Books by the bakery",
		Location:    "Main St 12",
		IsPublic:    true,
		OwnerUid:    "owner1",
	}
	require.NoError(t, db.Create(&library).Error)
	return &library
}

func seedBookWithCopies(t *testing.T, db *gorm.DB, libraryID uint, category string, copies int) *models.Book {
	t.Helper()
	book := models.Book{
		BookUid:   uuid.New().String(),
		LibraryID: libraryID,
		Title:     "Some Title",
		Author:    "Some Author",
		Category:  category,
	}
	require.NoError(t, db.Create(&book).Error)
	for i := 0; i < copies; i++ {
		require.NoError(t, db.Create(&models.Copy{
			CopyUid: uuid.New().String(),
			BookID:  book.ID,
		}).Error)
	}
	return &book
}

func TestLibraryLookup(t *testing.T) {
	db := database.InitTest()
	store := New(db)
	library := seedLibrary(t, db)

	found, err := store.Library(library.LibraryUid)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shelf", found.Name)

	_, err = store.Library(uuid.New().String())
	assert.True(t, errs.IsNotFound(err))

	_, err = store.Library("not-a-uuid")
	assert.True(t, errs.IsValidation(err))

	_, err = store.Library("")
	assert.True(t, errs.IsValidation(err))
}

func TestLibrariesList(t *testing.T) {
	db := database.InitTest()
	store := New(db)
	seedLibrary(t, db)
	seedLibrary(t, db)

	libraries, err := store.Libraries()
	require.NoError(t, err)
	assert.Len(t, libraries, 2)
}

func TestRecordVisit(t *testing.T) {
	db := database.InitTest()
	store := New(db)
	library := seedLibrary(t, db)

	require.NoError(t, store.RecordVisit(library.LibraryUid))
	require.NoError(t, store.RecordVisit(library.LibraryUid))

	found, err := store.Library(library.LibraryUid)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Visits)

	err = store.RecordVisit(uuid.New().String())
	assert.True(t, errs.IsNotFound(err))
}

func TestBooksByLibrary(t *testing.T) {
	db := database.InitTest()
	store := New(db)
	library := seedLibrary(t, db)
	other := seedLibrary(t, db)
	seedBookWithCopies(t, db, library.ID, "Fiction", 2)
	seedBookWithCopies(t, db, other.ID, "History", 1)

	books, err := store.Books(library.LibraryUid)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Len(t, books[0].Copies, 2)
	assert.Equal(t, library.LibraryUid, books[0].Library.LibraryUid)

	all, err := store.Books("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.Books(uuid.New().String())
	assert.True(t, errs.IsNotFound(err))
}

func TestBookLookupAndAvailability(t *testing.T) {
	db := database.InitTest()
	store := New(db)
	library := seedLibrary(t, db)
	book := seedBookWithCopies(t, db, library.ID, "Fiction", 3)

	found, err := store.Book(book.BookUid)
	require.NoError(t, err)
	assert.Equal(t, 3, AvailableCount(found))
	assert.Equal(t, 0, BorrowedCount(found))

	var first models.Copy
	require.NoError(t, db.Where("book_id = ?", book.ID).Order("id").First(&first).Error)
	require.NoError(t, db.Model(&first).Update("borrowed_by", "user1").Error)

	found, err = store.Book(book.BookUid)
	require.NoError(t, err)
	assert.Equal(t, 2, AvailableCount(found))
	assert.Equal(t, 1, BorrowedCount(found))

	_, err = store.Book(uuid.New().String())
	assert.True(t, errs.IsNotFound(err))
}

func TestCategories(t *testing.T) {
	db := database.InitTest()
	store := New(db)
	library := seedLibrary(t, db)
	seedBookWithCopies(t, db, library.ID, "Fiction", 1)
	seedBookWithCopies(t, db, library.ID, "Fiction", 1)
	seedBookWithCopies(t, db, library.ID, "History", 1)
	seedBookWithCopies(t, db, library.ID, "", 1)

	categories, err := store.Categories(library.LibraryUid)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fiction", "History"}, categories)
}
