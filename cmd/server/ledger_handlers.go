package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"openshelf/pkg/ledger"
)

func getTransactions(c *gin.Context) {
	filter := ledger.Filter{
		UserUid: c.Query("userUid"),
		BookUid: c.Query("bookUid"),
		Type:    c.Query("type"),
	}
	transactions, err := ledgerStore.Find(filter)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]gin.H, len(transactions))
	for i := range transactions {
		items[i] = transactionView(&transactions[i])
	}
	c.JSON(http.StatusOK, items)
}
