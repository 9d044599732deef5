package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func getLibraries(c *gin.Context) {
	libraries, err := catalogStore.Libraries()
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]gin.H, len(libraries))
	for i := range libraries {
		items[i] = libraryView(&libraries[i])
	}
	c.JSON(http.StatusOK, items)
}

func getLibrary(c *gin.Context) {
	library, err := catalogStore.Library(c.Param("libraryUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, libraryView(library))
}

// visitLibrary bumps the visit counter when the detail screen opens.
func visitLibrary(c *gin.Context) {
	libraryUid := c.Param("libraryUid")
	if err := catalogStore.RecordVisit(libraryUid); err != nil {
		writeError(c, err)
		return
	}
	library, err := catalogStore.Library(libraryUid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, libraryView(library))
}

func getLibraryBooks(c *gin.Context) {
	books, err := catalogStore.Books(c.Param("libraryUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]gin.H, len(books))
	for i := range books {
		items[i] = bookView(&books[i])
	}
	c.JSON(http.StatusOK, items)
}

func getLibraryCategories(c *gin.Context) {
	categories, err := catalogStore.Categories(c.Param("libraryUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func getBooks(c *gin.Context) {
	books, err := catalogStore.Books(c.Query("libraryUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]gin.H, len(books))
	for i := range books {
		items[i] = bookView(&books[i])
	}
	c.JSON(http.StatusOK, items)
}

func getBook(c *gin.Context) {
	book, err := catalogStore.Book(c.Param("bookUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookView(book))
}
