package lending

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openshelf/pkg/errs"
	"openshelf/pkg/ledger"
	"openshelf/pkg/models"
)

// Config holds the lending policy. Values come from the environment, not
// from literals scattered through the code.
type Config struct {
	LoanPeriodDays    int
	OverdueRatePerDay float64
	HoldWindowHours   int
}

func DefaultConfig() Config {
	return Config{
		LoanPeriodDays:    14,
		OverdueRatePerDay: 0.50,
		HoldWindowHours:   48,
	}
}

// Engine is the sole authority for copy state transitions. Every mutation
// runs inside one gorm transaction and under a per-book mutex, so two
// racing borrows of the last copy resolve to one success and one
// ConflictError.
type Engine struct {
	db     *gorm.DB
	ledger *ledger.Store
	cfg    Config

	mu        sync.Mutex
	bookLocks map[string]*sync.Mutex

	// NowFunc is the engine clock; tests replace it to control due dates.
	NowFunc func() time.Time
}

func New(db *gorm.DB, ledgerStore *ledger.Store, cfg Config) *Engine {
	if cfg.LoanPeriodDays <= 0 {
		cfg.LoanPeriodDays = DefaultConfig().LoanPeriodDays
	}
	if cfg.OverdueRatePerDay < 0 {
		cfg.OverdueRatePerDay = DefaultConfig().OverdueRatePerDay
	}
	if cfg.HoldWindowHours <= 0 {
		cfg.HoldWindowHours = DefaultConfig().HoldWindowHours
	}
	return &Engine{
		db:        db,
		ledger:    ledgerStore,
		cfg:       cfg,
		bookLocks: make(map[string]*sync.Mutex),
		NowFunc:   time.Now,
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Fine is the amount owed after a late return.
type Fine struct {
	Amount float64 `json:"amount"`
}

func (e *Engine) lockBook(bookUid string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.bookLocks[bookUid]
	if !ok {
		lock = &sync.Mutex{}
		e.bookLocks[bookUid] = lock
	}
	return lock
}

// Borrow checks out one copy of a book to userUid. copyUid may be empty,
// in which case the first available copy is taken. The returned book has
// fresh copy state so callers can recompute availability.
func (e *Engine) Borrow(bookUid, userUid, copyUid string) (*models.Book, error) {
	if err := checkBookUid(bookUid); err != nil {
		return nil, err
	}
	if err := checkUserUid(userUid); err != nil {
		return nil, err
	}

	lock := e.lockBook(bookUid)
	lock.Lock()
	defer lock.Unlock()

	now := e.NowFunc()
	err := e.db.Transaction(func(tx *gorm.DB) error {
		book, err := bookByUid(tx, bookUid)
		if err != nil {
			return err
		}
		if err := e.expireStaleHolds(tx, book.ID, now); err != nil {
			return err
		}
		// A lapsed hold frees its copy for the next reserver, not for
		// whoever happens to borrow first.
		if err := e.promoteHead(tx, book.ID, now); err != nil {
			return err
		}

		copies, err := copiesOf(tx, book.ID)
		if err != nil {
			return err
		}
		target, err := pickCopy(copies, copyUid)
		if err != nil {
			return err
		}

		own, err := liveReservation(tx, book.ID, userUid)
		if err != nil {
			return err
		}
		// Only a READY holder may take copies that are held. A WAITING
		// reserver queues behind the current holder like everyone else.
		if own == nil || own.Status != models.ReservationReady {
			held, err := heldForOthers(tx, book.ID, userUid, now)
			if err != nil {
				return err
			}
			if freeCount(copies) <= held {
				return errs.Conflict("remaining copies are held for reservation holders")
			}
		}

		due := now.Add(time.Duration(e.cfg.LoanPeriodDays) * 24 * time.Hour)
		updates := map[string]interface{}{
			"borrowed_by": userUid,
			"borrow_date": now,
			"due_date":    due,
		}
		if err := tx.Model(&models.Copy{}).Where("id = ?", target.ID).Updates(updates).Error; err != nil {
			return err
		}

		if own != nil {
			err := tx.Model(own).Updates(map[string]interface{}{
				"status":     models.ReservationFulfilled,
				"hold_until": nil,
			}).Error
			if err != nil {
				return err
			}
		}

		_, err = e.ledger.Append(tx, ledger.Entry{
			Type:    models.TxBorrow,
			UserUid: userUid,
			BookUid: bookUid,
			CopyUid: target.CopyUid,
			Date:    now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return e.loadBook(bookUid)
}

// Return checks a copy back in. A return past the due date also records a
// fine transaction; a missing due date means no fine, never an error.
func (e *Engine) Return(bookUid, userUid, copyUid string) (*models.Book, *Fine, error) {
	if err := checkBookUid(bookUid); err != nil {
		return nil, nil, err
	}
	if err := checkUserUid(userUid); err != nil {
		return nil, nil, err
	}
	if copyUid == "" {
		return nil, nil, errs.Validation("copyUid", "must not be empty")
	}

	lock := e.lockBook(bookUid)
	lock.Lock()
	defer lock.Unlock()

	now := e.NowFunc()
	var fine *Fine
	err := e.db.Transaction(func(tx *gorm.DB) error {
		book, err := bookByUid(tx, bookUid)
		if err != nil {
			return err
		}
		var target models.Copy
		err = tx.Where("book_id = ? AND copy_uid = ?", book.ID, copyUid).First(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("copy", copyUid)
		}
		if err != nil {
			return err
		}
		if target.BorrowedBy == nil || *target.BorrowedBy != userUid {
			return errs.Conflict("copy is not borrowed by this user")
		}

		amount := e.fineAmount(target.DueDate, now)

		err = tx.Model(&models.Copy{}).Where("id = ?", target.ID).Updates(map[string]interface{}{
			"borrowed_by": nil,
			"borrow_date": nil,
			"due_date":    nil,
		}).Error
		if err != nil {
			return err
		}

		_, err = e.ledger.Append(tx, ledger.Entry{
			Type:    models.TxReturn,
			UserUid: userUid,
			BookUid: bookUid,
			CopyUid: copyUid,
			Date:    now,
		})
		if err != nil {
			return err
		}
		if amount > 0 {
			_, err = e.ledger.Append(tx, ledger.Entry{
				Type:    models.TxFine,
				UserUid: userUid,
				BookUid: bookUid,
				CopyUid: copyUid,
				Date:    now,
				Amount:  amount,
				Status:  "UNPAID",
			})
			if err != nil {
				return err
			}
			fine = &Fine{Amount: amount}
		}

		// The freed copy goes to the reservation queue head first.
		if err := e.expireStaleHolds(tx, book.ID, now); err != nil {
			return err
		}
		return e.promoteHead(tx, book.ID, now)
	})
	if err != nil {
		return nil, nil, err
	}
	book, err := e.loadBook(bookUid)
	if err != nil {
		return nil, nil, err
	}
	return book, fine, nil
}

// Reserve puts userUid at the tail of the book's wait queue. Repeated
// calls by the same user are idempotent: the queue entry stays unique and
// only the first call writes a reservation transaction.
func (e *Engine) Reserve(bookUid, userUid string) (*models.Book, error) {
	if err := checkBookUid(bookUid); err != nil {
		return nil, err
	}
	if err := checkUserUid(userUid); err != nil {
		return nil, err
	}

	lock := e.lockBook(bookUid)
	lock.Lock()
	defer lock.Unlock()

	now := e.NowFunc()
	err := e.db.Transaction(func(tx *gorm.DB) error {
		book, err := bookByUid(tx, bookUid)
		if err != nil {
			return err
		}
		existing, err := liveReservation(tx, book.ID, userUid)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		reservation := models.Reservation{
			BookID:  book.ID,
			UserUid: userUid,
			Status:  models.ReservationWaiting,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		_, err = e.ledger.Append(tx, ledger.Entry{
			Type:    models.TxReservation,
			UserUid: userUid,
			BookUid: bookUid,
			Date:    now,
			Status:  models.ReservationWaiting,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return e.loadBook(bookUid)
}

// PromoteNextReservation moves the queue head to READY with a time-boxed
// hold when a copy is free. It returns the reservation currently holding
// the window, or nil when the queue is empty or no copy is free.
func (e *Engine) PromoteNextReservation(bookUid string) (*models.Reservation, error) {
	if err := checkBookUid(bookUid); err != nil {
		return nil, err
	}

	lock := e.lockBook(bookUid)
	lock.Lock()
	defer lock.Unlock()

	now := e.NowFunc()
	var current *models.Reservation
	err := e.db.Transaction(func(tx *gorm.DB) error {
		book, err := bookByUid(tx, bookUid)
		if err != nil {
			return err
		}
		if err := e.expireStaleHolds(tx, book.ID, now); err != nil {
			return err
		}
		if err := e.promoteHead(tx, book.ID, now); err != nil {
			return err
		}
		var ready models.Reservation
		err = tx.Where("book_id = ? AND status = ?", book.ID, models.ReservationReady).
			Order("id").First(&ready).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = &ready
		return nil
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

// Queue returns the uids of users waiting for a book, head first.
func (e *Engine) Queue(bookUid string) ([]string, error) {
	if err := checkBookUid(bookUid); err != nil {
		return nil, err
	}
	book, err := bookByUid(e.db, bookUid)
	if err != nil {
		return nil, err
	}
	var reservations []models.Reservation
	err = e.db.Where("book_id = ? AND status IN ?", book.ID,
		[]string{models.ReservationWaiting, models.ReservationReady}).
		Order("id").Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	users := make([]string, len(reservations))
	for i, r := range reservations {
		users[i] = r.UserUid
	}
	return users, nil
}

func (e *Engine) fineAmount(due *time.Time, now time.Time) float64 {
	if due == nil || !now.After(*due) {
		return 0
	}
	daysLate := math.Ceil(now.Sub(*due).Hours() / 24)
	return e.cfg.OverdueRatePerDay * daysLate
}

func (e *Engine) expireStaleHolds(tx *gorm.DB, bookID uint, now time.Time) error {
	return tx.Model(&models.Reservation{}).
		Where("book_id = ? AND status = ? AND hold_until < ?", bookID, models.ReservationReady, now).
		Updates(map[string]interface{}{"status": models.ReservationExpired, "hold_until": nil}).Error
}

func (e *Engine) promoteHead(tx *gorm.DB, bookID uint, now time.Time) error {
	var readyCount int64
	err := tx.Model(&models.Reservation{}).
		Where("book_id = ? AND status = ?", bookID, models.ReservationReady).
		Count(&readyCount).Error
	if err != nil {
		return err
	}
	if readyCount > 0 {
		return nil
	}

	copies, err := copiesOf(tx, bookID)
	if err != nil {
		return err
	}
	if freeCount(copies) == 0 {
		return nil
	}

	var head models.Reservation
	err = tx.Where("book_id = ? AND status = ?", bookID, models.ReservationWaiting).
		Order("id").First(&head).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	holdUntil := now.Add(time.Duration(e.cfg.HoldWindowHours) * time.Hour)
	return tx.Model(&head).Updates(map[string]interface{}{
		"status":     models.ReservationReady,
		"hold_until": holdUntil,
	}).Error
}

func (e *Engine) loadBook(bookUid string) (*models.Book, error) {
	var book models.Book
	err := e.db.Preload("Copies").Preload("Library").Where("book_uid = ?", bookUid).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func bookByUid(tx *gorm.DB, bookUid string) (*models.Book, error) {
	var book models.Book
	err := tx.Where("book_uid = ?", bookUid).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("book", bookUid)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func copiesOf(tx *gorm.DB, bookID uint) ([]models.Copy, error) {
	var copies []models.Copy
	if err := tx.Where("book_id = ?", bookID).Order("id").Find(&copies).Error; err != nil {
		return nil, err
	}
	return copies, nil
}

func pickCopy(copies []models.Copy, copyUid string) (*models.Copy, error) {
	if copyUid != "" {
		for i := range copies {
			if copies[i].CopyUid == copyUid {
				if copies[i].BorrowedBy != nil {
					return nil, errs.Conflict("copy already borrowed")
				}
				return &copies[i], nil
			}
		}
		return nil, errs.NotFound("copy", copyUid)
	}
	for i := range copies {
		if copies[i].BorrowedBy == nil {
			return &copies[i], nil
		}
	}
	return nil, errs.Conflict("no available copies")
}

func freeCount(copies []models.Copy) int {
	count := 0
	for _, c := range copies {
		if c.BorrowedBy == nil {
			count++
		}
	}
	return count
}

// liveReservation finds the user's WAITING or READY queue entry, if any.
func liveReservation(tx *gorm.DB, bookID uint, userUid string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := tx.Where("book_id = ? AND user_uid = ? AND status IN ?", bookID, userUid,
		[]string{models.ReservationWaiting, models.ReservationReady}).
		Order("id").First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// heldForOthers counts unexpired READY holds belonging to other users.
func heldForOthers(tx *gorm.DB, bookID uint, userUid string, now time.Time) (int, error) {
	var count int64
	err := tx.Model(&models.Reservation{}).
		Where("book_id = ? AND status = ? AND user_uid <> ? AND hold_until >= ?",
			bookID, models.ReservationReady, userUid, now).
		Count(&count).Error
	return int(count), err
}

func checkBookUid(bookUid string) error {
	if bookUid == "" {
		return errs.Validation("bookUid", "must not be empty")
	}
	if _, err := uuid.Parse(bookUid); err != nil {
		return errs.Validation("bookUid", "must be a uuid")
	}
	return nil
}

func checkUserUid(userUid string) error {
	if userUid == "" {
		return errs.Validation("userUid", "must not be empty")
	}
	if len(userUid) > 80 {
		return errs.Validation("userUid", "longer than 80 characters")
	}
	return nil
}
