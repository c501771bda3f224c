package api

import (
	"net/http" // HTTP status codes

	"smart_wallet/internal/domain" // Importing domain models
	"smart_wallet/internal/ledger" // Balance reconciliation
	"smart_wallet/internal/report" // Dashboard figures

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// WalletRequest represents a new wallet
type WalletRequest struct {
	Name    string            `json:"name" binding:"required"` // Display name
	Type    domain.WalletType `json:"type" binding:"required"` // Cash, Credit Card, Debit Card or E-Money
	Balance int64             `json:"balance"`                 // Opening balance
	Color   string            `json:"color"`                   // Display color
}

// ListWalletsHandler returns the wallets of the signed-in user
func ListWalletsHandler(ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallets, err := ledgerSvc.ListWallets(c.Request.Context(), owner(c))
		if err != nil {
			respondError(c, err, "Wallet not found", "Failed to fetch wallets")
			return
		}
		if wallets == nil {
			wallets = []domain.Wallet{} // Render an empty list, not null
		}
		c.JSON(http.StatusOK, gin.H{"wallets": wallets, "totalBalance": report.TotalBalance(wallets)})
	}
}

// CreateWalletHandler creates a wallet with an opening balance
func CreateWalletHandler(ledgerSvc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		wallet, err := ledgerSvc.CreateWallet(c.Request.Context(), owner(c), domain.Wallet{
			Name:    req.Name,    // Display name
			Type:    req.Type,    // Wallet type
			Balance: req.Balance, // Opening balance
			Color:   req.Color,   // Display color
		})
		if err != nil {
			respondError(c, err, "Wallet not found", "Failed to create wallet")
			return
		}
		invalidateDashboard(c.Request.Context(), rdb, owner(c)) // Total balance changed
		c.JSON(http.StatusCreated, wallet)
	}
}

// DeleteWalletHandler removes a wallet; its transactions stay as orphans
func DeleteWalletHandler(ledgerSvc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ledgerSvc.DeleteWallet(c.Request.Context(), owner(c), c.Param("id")); err != nil {
			respondError(c, err, "Wallet not found", "Failed to delete wallet")
			return
		}
		invalidateDashboard(c.Request.Context(), rdb, owner(c))
		c.JSON(http.StatusOK, gin.H{"message": "Wallet deleted"})
	}
}
