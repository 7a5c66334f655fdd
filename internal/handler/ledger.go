package handler

import (
	"net/http"
	"strings"

	"github.com/JawadAsif77/fundchain-sub001/internal/ledger"
	"github.com/JawadAsif77/fundchain-sub001/internal/middleware"
	"github.com/JawadAsif77/fundchain-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerHandler serves the fund-movement functions.
type LedgerHandler struct {
	Svc *ledger.Service
}

func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{Svc: svc}
}

const notActor = "token subject does not match the acting user"

type investRequest struct {
	UserID     string              `json:"userId"`
	CampaignID string              `json:"campaignId"`
	Amount     decimal.NullDecimal `json:"amount"`
	AmountFC   decimal.NullDecimal `json:"amountFc"`
}

// amount prefers "amount"; older clients send "amountFc".
func (r investRequest) amount() decimal.Decimal {
	if r.Amount.Valid {
		return r.Amount.Decimal
	}
	return r.AmountFC.Decimal
}

// Invest handles POST /functions/v1/invest-in-campaign and its alias
// /functions/v1/invest.
func (h *LedgerHandler) Invest(c *gin.Context) {
	var req investRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	amount := req.amount()
	if err := firstError(
		util.ValidateID("userId", req.UserID),
		util.ValidateID("campaignId", req.CampaignID),
		util.ValidateAmount(amount),
	); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.ActsAs(c, req.UserID) {
		util.Error(c, http.StatusForbidden, notActor)
		return
	}

	res, err := h.Svc.Invest(c.Request.Context(), ledger.InvestInput{
		InvestorID: req.UserID,
		CampaignID: req.CampaignID,
		Amount:     amount,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, util.Response{
		"investment":     investmentView(res.Investment),
		"newBalance":     walletView(res.Wallet),
		"campaignWallet": escrowView(res.Escrow),
	})
}

type releaseRequest struct {
	AdminID     string          `json:"adminId"`
	CampaignID  string          `json:"campaignId"`
	MilestoneID string          `json:"milestoneId"`
	AmountFC    decimal.Decimal `json:"amountFc"`
	Notes       string          `json:"notes"`
}

// ReleaseMilestoneFunds handles POST /functions/v1/release-milestone-funds.
func (h *LedgerHandler) ReleaseMilestoneFunds(c *gin.Context) {
	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := firstError(
		util.ValidateID("adminId", req.AdminID),
		util.ValidateID("campaignId", req.CampaignID),
		util.ValidateID("milestoneId", req.MilestoneID),
		util.ValidateAmount(req.AmountFC),
	); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.ActsAs(c, req.AdminID) {
		util.Error(c, http.StatusForbidden, notActor)
		return
	}

	res, err := h.Svc.ReleaseMilestoneFunds(c.Request.Context(), ledger.ReleaseInput{
		AdminID:     req.AdminID,
		CampaignID:  req.CampaignID,
		MilestoneID: req.MilestoneID,
		Amount:      req.AmountFC,
		Notes:       req.Notes,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}

	util.Success(c, util.Response{
		"campaignWallet": escrowView(res.Escrow),
		"creatorWallet":  walletView(res.CreatorWallet),
		"milestone":      milestoneView(res.Milestone),
	})
}

type refundRequest struct {
	AdminID    string `json:"adminId"`
	CampaignID string `json:"campaignId"`
	Reason     string `json:"reason"`
}

// RefundCampaignInvestors handles POST /functions/v1/refund-campaign-investors.
func (h *LedgerHandler) RefundCampaignInvestors(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := firstError(
		util.ValidateID("adminId", req.AdminID),
		util.ValidateID("campaignId", req.CampaignID),
	); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.ActsAs(c, req.AdminID) {
		util.Error(c, http.StatusForbidden, notActor)
		return
	}

	res, err := h.Svc.RefundCampaignInvestors(c.Request.Context(), ledger.RefundInput{
		AdminID:    req.AdminID,
		CampaignID: req.CampaignID,
		Reason:     req.Reason,
	})
	if err != nil {
		util.Fail(c, err)
		return
	}

	body := util.Response{
		"refundedCount": res.RefundedCount,
		"totalRefund":   res.TotalRefund,
	}
	if len(res.Skipped) > 0 {
		skipped := make([]string, 0, len(res.Skipped))
		for _, sk := range res.Skipped {
			skipped = append(skipped, sk.InvestmentID)
		}
		body["skipped"] = skipped
	}
	util.Success(c, body)
}

type buyRequest struct {
	UserID       string              `json:"userId"`
	PurchaseType string              `json:"purchaseType"`
	AmountSol    decimal.NullDecimal `json:"amountSol"`
	AmountFC     decimal.NullDecimal `json:"amountFc"`
	USDAmount    decimal.NullDecimal `json:"usdAmount"`
	AmountUSD    decimal.NullDecimal `json:"amountUsd"`
	TxSignature  string              `json:"txSignature"`
}

// source picks the paid amount for the purchase type. Without a type a
// SOL amount means a SOL purchase.
func (r buyRequest) source() (string, decimal.Decimal) {
	kind := strings.ToUpper(strings.TrimSpace(r.PurchaseType))
	if kind == "" {
		kind = ledger.SourceUSD
		if r.AmountSol.Valid {
			kind = ledger.SourceSOL
		}
	}
	if kind == ledger.SourceSOL {
		return kind, r.AmountSol.Decimal
	}
	for _, d := range []decimal.NullDecimal{r.USDAmount, r.AmountUSD, r.AmountFC} {
		if d.Valid {
			return kind, d.Decimal
		}
	}
	return kind, decimal.Zero
}

// BuyFCTokens handles POST /functions/v1/buy-fc-tokens.
func (h *LedgerHandler) BuyFCTokens(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.StatusError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, amount := req.source()
	h.credit(c, req.UserID, kind, amount, req.TxSignature)
}

type solRequest struct {
	UserID      string          `json:"userId"`
	AmountSol   decimal.Decimal `json:"amountSol"`
	TxSignature string          `json:"txSignature"`
	TxID        string          `json:"txId"`
}

// BuyFCWithSol handles POST /functions/v1/buy-fc-with-sol and
// POST /functions/v1/credit-fc. credit-fc names the signature txId.
func (h *LedgerHandler) BuyFCWithSol(c *gin.Context) {
	var req solRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.StatusError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	sig := req.TxSignature
	if sig == "" {
		sig = req.TxID
	}
	h.credit(c, req.UserID, ledger.SourceSOL, req.AmountSol, sig)
}

func (h *LedgerHandler) credit(c *gin.Context, userID, sourceType string, amount decimal.Decimal, sig string) {
	if err := firstError(
		util.ValidateID("userId", userID),
		util.ValidateAmount(amount),
	); err != nil {
		util.StatusError(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(sig) == "" {
		util.StatusError(c, http.StatusBadRequest, "txSignature is required")
		return
	}
	if !middleware.ActsAs(c, userID) {
		util.StatusError(c, http.StatusForbidden, notActor)
		return
	}

	res, err := h.Svc.CreditExternalPurchase(c.Request.Context(), ledger.PurchaseInput{
		UserID:       userID,
		SourceAmount: amount,
		SourceType:   sourceType,
		TxSignature:  sig,
	})
	if err != nil {
		util.StatusFail(c, err)
		return
	}

	util.Status(c, "success", util.Response{
		"userId":       res.UserID,
		"sourceAmount": res.SourceAmount,
		"sourceType":   res.SourceType,
		"amountFc":     res.AmountFC,
		"wallet":       walletView(res.Wallet),
	})
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
