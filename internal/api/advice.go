package api

import (
	"net/http" // HTTP status codes

	"smart_wallet/internal/advice" // Advice collaborator
	"smart_wallet/internal/report" // Financial summary
	"smart_wallet/internal/state"  // Snapshot loading

	"github.com/gin-gonic/gin" // Gin web framework
)

// ChatRequest is one chat turn with optional earlier turns
type ChatRequest struct {
	Message string           `json:"message" binding:"required"` // Question for the assistant
	History []advice.Message `json:"history" binding:"dive"`     // Earlier turns, oldest first
}

// AdviceHandler asks the advisor for suggestions about the user's finances
func AdviceHandler(src state.Source, advisor advice.Advisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := state.Load(c.Request.Context(), src, owner(c))
		if err != nil {
			respondError(c, err, "Not found", "Failed to load records")
			return
		}
		summary := report.Summary(snap, report.SummaryLimit) // Plain-text context
		c.JSON(http.StatusOK, gin.H{"advice": advisor.Advise(c.Request.Context(), summary)})
	}
}

// ChatHandler answers a question with the user's finances as context
func ChatHandler(src state.Source, advisor advice.Advisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		snap, err := state.Load(c.Request.Context(), src, owner(c))
		if err != nil {
			respondError(c, err, "Not found", "Failed to load records")
			return
		}
		summary := report.Summary(snap, report.SummaryLimit)
		c.JSON(http.StatusOK, gin.H{"reply": advisor.Chat(c.Request.Context(), summary, req.Message, req.History)})
	}
}
