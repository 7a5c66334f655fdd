package handler

import (
	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	// monetary fields go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func walletView(w models.Wallet) gin.H {
	return gin.H{
		"balance_fc": w.BalanceFC,
		"locked_fc":  w.LockedFC,
	}
}

func escrowView(e models.CampaignEscrow) gin.H {
	return gin.H{
		"campaign_id":       e.CampaignID,
		"escrow_balance_fc": e.EscrowBalanceFC,
		"released_fc":       e.ReleasedFC,
	}
}

func investmentView(inv models.Investment) gin.H {
	return gin.H{
		"id":              inv.ID,
		"investor_id":     inv.InvestorID,
		"campaign_id":     inv.CampaignID,
		"amount":          inv.Amount,
		"status":          inv.Status,
		"investment_date": inv.InvestmentDate,
		"confirmed_at":    inv.ConfirmedAt,
	}
}

func milestoneView(m models.Milestone) gin.H {
	return gin.H{
		"id":               m.ID,
		"campaign_id":      m.CampaignID,
		"title":            m.Title,
		"is_completed":     m.IsCompleted,
		"completion_date":  m.CompletionDate,
		"completion_notes": m.CompletionNotes,
	}
}

func tokenTransactionView(tx models.TokenTransaction) gin.H {
	description, _ := tx.Metadata["description"].(string)
	return gin.H{
		"id":               tx.ID,
		"transaction_type": tx.Type,
		"amount":           tx.AmountFC,
		"token_symbol":     "FC",
		"status":           "completed",
		"description":      description,
		"created_at":       tx.CreatedAt,
		"metadata":         tx.Metadata,
	}
}
