package profile

import (
	"errors"

	"gorm.io/gorm"

	"openshelf/pkg/errs"
	"openshelf/pkg/ledger"
	"openshelf/pkg/models"
)

// Aggregator derives per-user counters from the ledger and live copy
// state. It keeps no counters of its own; everything is recomputed on
// read.
type Aggregator struct {
	db     *gorm.DB
	ledger *ledger.Store
}

func New(db *gorm.DB, ledgerStore *ledger.Store) *Aggregator {
	return &Aggregator{db: db, ledger: ledgerStore}
}

// Summary is what the profile screen shows.
type Summary struct {
	UserUid       string  `json:"userUid"`
	BorrowedCount int     `json:"borrowedCount"`
	ReturnedCount int     `json:"returnedCount"`
	ActiveLoans   int     `json:"activeLoans"`
	FinesOwed     float64 `json:"finesOwed"`
	FavoriteCount int     `json:"favoriteCount"`
}

func (a *Aggregator) Summary(userUid string) (*Summary, error) {
	if userUid == "" {
		return nil, errs.Validation("userUid", "must not be empty")
	}

	borrows, err := a.ledger.Find(ledger.Filter{UserUid: userUid, Type: models.TxBorrow})
	if err != nil {
		return nil, err
	}
	returns, err := a.ledger.Find(ledger.Filter{UserUid: userUid, Type: models.TxReturn})
	if err != nil {
		return nil, err
	}
	fines, err := a.ledger.Find(ledger.Filter{UserUid: userUid, Type: models.TxFine})
	if err != nil {
		return nil, err
	}
	owed := 0.0
	for _, f := range fines {
		owed += f.Amount
	}

	var activeLoans int64
	err = a.db.Model(&models.Copy{}).Where("borrowed_by = ?", userUid).Count(&activeLoans).Error
	if err != nil {
		return nil, err
	}

	var favoriteCount int64
	err = a.db.Model(&models.Favorite{}).Where("user_uid = ?", userUid).Count(&favoriteCount).Error
	if err != nil {
		return nil, err
	}

	return &Summary{
		UserUid:       userUid,
		BorrowedCount: len(borrows),
		ReturnedCount: len(returns),
		ActiveLoans:   int(activeLoans),
		FinesOwed:     owed,
		FavoriteCount: int(favoriteCount),
	}, nil
}

// AddFavorite is an idempotent set-add; favoriting twice is a no-op.
func (a *Aggregator) AddFavorite(userUid, bookUid string) error {
	if userUid == "" {
		return errs.Validation("userUid", "must not be empty")
	}
	var book models.Book
	err := a.db.Where("book_uid = ?", bookUid).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound("book", bookUid)
	}
	if err != nil {
		return err
	}

	var existing models.Favorite
	err = a.db.Where("user_uid = ? AND book_uid = ?", userUid, bookUid).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return a.db.Create(&models.Favorite{UserUid: userUid, BookUid: bookUid}).Error
}

// RemoveFavorite is idempotent as well.
func (a *Aggregator) RemoveFavorite(userUid, bookUid string) error {
	if userUid == "" {
		return errs.Validation("userUid", "must not be empty")
	}
	return a.db.Where("user_uid = ? AND book_uid = ?", userUid, bookUid).
		Delete(&models.Favorite{}).Error
}

// Favorites returns the user's favorited book uids in the order they were
// added.
func (a *Aggregator) Favorites(userUid string) ([]string, error) {
	if userUid == "" {
		return nil, errs.Validation("userUid", "must not be empty")
	}
	var bookUids []string
	err := a.db.Model(&models.Favorite{}).
		Where("user_uid = ?", userUid).
		Order("id").
		Pluck("book_uid", &bookUids).Error
	if err != nil {
		return nil, err
	}
	return bookUids, nil
}
