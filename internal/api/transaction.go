package api

import (
	"net/http" // HTTP status codes
	"time"     // Default date range

	"smart_wallet/internal/domain" // Importing domain models
	"smart_wallet/internal/ledger" // Balance reconciliation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// TransactionRequest represents a new income or expense
type TransactionRequest struct {
	WalletID   string                 `json:"walletId"`   // Wallet the money moves through
	CategoryID string                 `json:"categoryId"` // Category the entry is filed under
	Amount     int64                  `json:"amount"`     // Positive whole amount
	Type       domain.TransactionType `json:"type"`       // Income or Expense
	Note       string                 `json:"note"`       // Free text
	Date       string                 `json:"date"`       // YYYY-MM-DD
}

// ListTransactionsHandler returns the signed-in user's transactions filtered by from, to and q
func ListTransactionsHandler(ledgerSvc *ledger.Service, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindFilter(c, now()) // Current month when no range is given
		if !ok {
			return
		}
		txs, err := ledgerSvc.ListTransactions(c.Request.Context(), owner(c))
		if err != nil {
			respondError(c, err, "Transaction not found", "Failed to fetch transactions")
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": filter.Apply(txs), "filter": filter})
	}
}

// CreateTransactionHandler records a transaction and adjusts its wallet in one step
func CreateTransactionHandler(ledgerSvc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tx, wallet, err := ledgerSvc.AddTransaction(c.Request.Context(), owner(c), domain.Transaction{
			WalletID:   req.WalletID,   // Wallet
			CategoryID: req.CategoryID, // Category
			Amount:     req.Amount,     // Amount
			Type:       req.Type,       // Income or Expense
			Note:       req.Note,       // Note
			Date:       req.Date,       // Date
		})
		if err != nil {
			respondError(c, err, "Wallet not found", "Failed to record transaction")
			return
		}
		invalidateDashboard(c.Request.Context(), rdb, owner(c))
		c.JSON(http.StatusCreated, gin.H{"transaction": tx, "wallet": wallet})
	}
}

// DeleteTransactionHandler removes a transaction and reverses its effect on the wallet
func DeleteTransactionHandler(ledgerSvc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, wallet, err := ledgerSvc.DeleteTransaction(c.Request.Context(), owner(c), c.Param("id"))
		if err != nil {
			respondError(c, err, "Transaction not found", "Failed to delete transaction")
			return
		}
		invalidateDashboard(c.Request.Context(), rdb, owner(c))
		resp := gin.H{"transaction": tx, "wallet": nil}
		if wallet != nil {
			resp["wallet"] = wallet
		} else {
			logrus.WithFields(logrus.Fields{"owner": owner(c), "transaction_id": tx.ID}).Info("Deleted transaction had no wallet")
		}
		c.JSON(http.StatusOK, resp)
	}
}
