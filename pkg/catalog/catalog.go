package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openshelf/pkg/errs"
	"openshelf/pkg/models"
)

// Store owns read access to libraries, books and copies. All mutations of
// copy state go through the lending engine; the store only exposes reads
// and derived values.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Libraries() ([]models.Library, error) {
	var libraries []models.Library
	if err := s.db.Order("id").Find(&libraries).Error; err != nil {
		return nil, err
	}
	return libraries, nil
}

func (s *Store) Library(libraryUid string) (*models.Library, error) {
	if err := checkUid("libraryUid", libraryUid); err != nil {
		return nil, err
	}
	var library models.Library
	err := s.db.Where("library_uid = ?", libraryUid).First(&library).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("library", libraryUid)
	}
	if err != nil {
		return nil, err
	}
	return &library, nil
}

// RecordVisit bumps the visit counter shown on discovery screens.
func (s *Store) RecordVisit(libraryUid string) error {
	if err := checkUid("libraryUid", libraryUid); err != nil {
		return err
	}
	res := s.db.Model(&models.Library{}).
		Where("library_uid = ?", libraryUid).
		UpdateColumn("visits", gorm.Expr("visits + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("library", libraryUid)
	}
	return nil
}

// Books returns all books, or the books of one library when libraryUid is
// non-empty. Copies are always loaded so callers can derive availability.
func (s *Store) Books(libraryUid string) ([]models.Book, error) {
	query := s.db.Preload("Copies").Preload("Library").Order("id")
	if libraryUid != "" {
		library, err := s.Library(libraryUid)
		if err != nil {
			return nil, err
		}
		query = query.Where("library_id = ?", library.ID)
	}
	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (s *Store) Book(bookUid string) (*models.Book, error) {
	if err := checkUid("bookUid", bookUid); err != nil {
		return nil, err
	}
	var book models.Book
	err := s.db.Preload("Copies").Preload("Library").Where("book_uid = ?", bookUid).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("book", bookUid)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Categories lists the distinct non-empty categories of a library's books.
func (s *Store) Categories(libraryUid string) ([]string, error) {
	library, err := s.Library(libraryUid)
	if err != nil {
		return nil, err
	}
	var categories []string
	err = s.db.Model(&models.Book{}).
		Where("library_id = ? AND category <> ''", library.ID).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// AvailableCount derives a book's free copies from loaded copy state.
func AvailableCount(book *models.Book) int {
	count := 0
	for _, c := range book.Copies {
		if c.BorrowedBy == nil {
			count++
		}
	}
	return count
}

func BorrowedCount(book *models.Book) int {
	return len(book.Copies) - AvailableCount(book)
}

func checkUid(field, value string) error {
	if value == "" {
		return errs.Validation(field, "must not be empty")
	}
	if _, err := uuid.Parse(value); err != nil {
		return errs.Validation(field, "must be a uuid")
	}
	return nil
}
