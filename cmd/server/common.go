package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"openshelf/pkg/catalog"
	"openshelf/pkg/errs"
	"openshelf/pkg/models"
)

// currentUser reads the trusted session identity. Authentication itself
// happens upstream; the backend only consumes the id.
func currentUser(c *gin.Context) (string, bool) {
	userUid := c.GetHeader("X-User-Id")
	if userUid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-Id header is required"})
		return "", false
	}
	return userUid, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errs.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func libraryView(library *models.Library) gin.H {
	return gin.H{
		"libraryUid":  library.LibraryUid,
		"name":        library.Name,
		"description": library.Description,
		"location":    library.Location,
		"isPublic":    library.IsPublic,
		"owner":       library.OwnerUid,
		"visits":      library.Visits,
	}
}

func copyView(c *models.Copy, now time.Time) gin.H {
	view := gin.H{
		"copyUid":    c.CopyUid,
		"borrowedBy": c.BorrowedBy,
		"borrowDate": nil,
		"dueDate":    nil,
		"overdue":    false,
	}
	if c.BorrowDate != nil {
		view["borrowDate"] = c.BorrowDate.Format(time.RFC3339)
	}
	if c.DueDate != nil {
		view["dueDate"] = c.DueDate.Format(time.RFC3339)
		view["overdue"] = c.BorrowedBy != nil && now.After(*c.DueDate)
	}
	return view
}

func bookView(book *models.Book) gin.H {
	now := time.Now()
	copies := make([]gin.H, len(book.Copies))
	for i := range book.Copies {
		copies[i] = copyView(&book.Copies[i], now)
	}
	reservedBy, err := engine.Queue(book.BookUid)
	if err != nil {
		reservedBy = nil
	}
	return gin.H{
		"bookUid":         book.BookUid,
		"libraryUid":      book.Library.LibraryUid,
		"title":           book.Title,
		"author":          book.Author,
		"isbn":            book.ISBN,
		"category":        book.Category,
		"description":     book.Description,
		"publisher":       book.Publisher,
		"publishYear":     book.PublishYear,
		"pages":           book.Pages,
		"language":        book.Language,
		"coverImage":      book.CoverImage,
		"copies":          copies,
		"availableCopies": catalog.AvailableCount(book),
		"reservedBy":      reservedBy,
	}
}

func transactionView(t *models.Transaction) gin.H {
	return gin.H{
		"transactionUid": t.TransactionUid,
		"type":           t.Type,
		"userUid":        t.UserUid,
		"bookUid":        t.BookUid,
		"copyUid":        t.CopyUid,
		"date":           t.Date.Format(time.RFC3339),
		"amount":         t.Amount,
		"status":         t.Status,
	}
}

func healthCheck(ctx *gin.Context) {
	sqlDB, err := db.DB()
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "UP"})
}
