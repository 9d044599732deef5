package models

import (
	"time"
)

// Transaction types recorded in the ledger.
const (
	TxBorrow      = "borrow"
	TxReturn      = "return"
	TxReservation = "reservation"
	TxFine        = "fine"
)

// Reservation queue statuses.
const (
	ReservationWaiting   = "WAITING"
	ReservationReady     = "READY"
	ReservationFulfilled = "FULFILLED"
	ReservationExpired   = "EXPIRED"
)

type Library struct {
	ID          uint   `gorm:"primaryKey"`
	LibraryUid  string `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string `gorm:"size:120;not null"`
	Description string
	Location    string
	IsPublic    bool   `gorm:"default:true"`
	OwnerUid    string `gorm:"size:80;not null"`
	Visits      int    `gorm:"default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Book struct {
	ID          uint   `gorm:"primaryKey"`
	BookUid     string `gorm:"type:uuid;uniqueIndex;not null"`
	LibraryID   uint   `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Author      string
	ISBN        string `gorm:"column:isbn;size:20"`
	Category    string
	Description string
	Publisher   string
	PublishYear int
	Pages       int
	Language    string `gorm:"size:10"`
	CoverImage  string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Library Library `gorm:"foreignKey:LibraryID"`
	Copies  []Copy  `gorm:"foreignKey:BookID"`
}

// Copy is one physical instance of a Book. A copy is available iff
// BorrowedBy is nil; BorrowDate and DueDate are set together with it.
type Copy struct {
	ID         uint   `gorm:"primaryKey"`
	CopyUid    string `gorm:"type:uuid;uniqueIndex;not null"`
	BookID     uint   `gorm:"index;not null"`
	BorrowedBy *string
	BorrowDate *time.Time
	DueDate    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Reservation is one entry of a Book's FIFO wait queue. Queue order is
// primary-key order; WAITING and READY entries form the live queue.
type Reservation struct {
	ID        uint   `gorm:"primaryKey"`
	BookID    uint   `gorm:"index;not null"`
	UserUid   string `gorm:"size:80;not null"`
	Status    string `gorm:"size:20;not null"`
	HoldUntil *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction rows are append-only; nothing in the services updates or
// deletes them.
type Transaction struct {
	ID             uint   `gorm:"primaryKey"`
	TransactionUid string `gorm:"type:uuid;uniqueIndex;not null"`
	Type           string `gorm:"size:20;not null;index"`
	UserUid        string `gorm:"size:80;not null;index"`
	BookUid        string `gorm:"type:uuid;not null;index"`
	CopyUid        string `gorm:"type:uuid"`
	Date           time.Time
	Amount         float64
	Status         string `gorm:"size:20"`
	CreatedAt      time.Time
}

type User struct {
	ID        uint   `gorm:"primaryKey"`
	UserUid   string `gorm:"type:uuid;uniqueIndex;not null"`
	Name      string `gorm:"size:120;not null"`
	Email     string `gorm:"size:120;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Favorite struct {
	ID        uint   `gorm:"primaryKey"`
	UserUid   string `gorm:"size:80;not null;uniqueIndex:idx_fav_user_book"`
	BookUid   string `gorm:"type:uuid;not null;uniqueIndex:idx_fav_user_book"`
	CreatedAt time.Time
}

type Conversation struct {
	ID              uint   `gorm:"primaryKey"`
	ConversationUid string `gorm:"type:uuid;uniqueIndex;not null"`
	UserUid         string `gorm:"size:80;not null;index"`
	Title           string `gorm:"size:200"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

type Message struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"index;not null"`
	Role           string `gorm:"size:20;not null"`
	Content        string
	CreatedAt      time.Time
}
