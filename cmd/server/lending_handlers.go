package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func borrowBook(c *gin.Context) {
	userUid, ok := currentUser(c)
	if !ok {
		return
	}
	var request struct {
		CopyUid string `json:"copyUid"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}
	book, err := engine.Borrow(c.Param("bookUid"), userUid, request.CopyUid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": bookView(book)})
}

func returnBook(c *gin.Context) {
	userUid, ok := currentUser(c)
	if !ok {
		return
	}
	var request struct {
		CopyUid string `json:"copyUid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	book, fine, err := engine.Return(c.Param("bookUid"), userUid, request.CopyUid)
	if err != nil {
		writeError(c, err)
		return
	}
	response := gin.H{"book": bookView(book)}
	if fine != nil {
		response["fine"] = gin.H{"amount": fine.Amount}
	}
	c.JSON(http.StatusOK, response)
}

func reserveBook(c *gin.Context) {
	userUid, ok := currentUser(c)
	if !ok {
		return
	}
	book, err := engine.Reserve(c.Param("bookUid"), userUid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": bookView(book)})
}
