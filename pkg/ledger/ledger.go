package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openshelf/pkg/errs"
	"openshelf/pkg/models"
)

// Store is the append-only transaction ledger. It exposes Append and
// filtered reads; there is deliberately no update or delete path, the
// ledger is the historical source of truth.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Entry describes one event to record.
type Entry struct {
	Type    string
	UserUid string
	BookUid string
	CopyUid string
	Date    time.Time
	Amount  float64
	Status  string
}

var validTypes = map[string]bool{
	models.TxBorrow:      true,
	models.TxReturn:      true,
	models.TxReservation: true,
	models.TxFine:        true,
}

// Append records one transaction. tx may be an open gorm transaction so
// the entry commits atomically with the state change that caused it; pass
// nil to use the store's own handle.
func (s *Store) Append(tx *gorm.DB, e Entry) (*models.Transaction, error) {
	if !validTypes[e.Type] {
		return nil, errs.Validation("type", "unknown transaction type")
	}
	if e.UserUid == "" {
		return nil, errs.Validation("userUid", "must not be empty")
	}
	if e.BookUid == "" {
		return nil, errs.Validation("bookUid", "must not be empty")
	}
	if tx == nil {
		tx = s.db
	}
	date := e.Date
	if date.IsZero() {
		date = time.Now()
	}
	record := models.Transaction{
		TransactionUid: uuid.New().String(),
		Type:           e.Type,
		UserUid:        e.UserUid,
		BookUid:        e.BookUid,
		CopyUid:        e.CopyUid,
		Date:           date,
		Amount:         e.Amount,
		Status:         e.Status,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Filter narrows Find; empty fields match everything.
type Filter struct {
	UserUid string
	BookUid string
	Type    string
}

// Find returns matching transactions in insertion order.
func (s *Store) Find(f Filter) ([]models.Transaction, error) {
	if f.Type != "" && !validTypes[f.Type] {
		return nil, errs.Validation("type", "unknown transaction type")
	}
	query := s.db.Order("id")
	if f.UserUid != "" {
		query = query.Where("user_uid = ?", f.UserUid)
	}
	if f.BookUid != "" {
		query = query.Where("book_uid = ?", f.BookUid)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
