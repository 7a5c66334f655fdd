package handler

import (
	"errors"
	"net/http"

	"github.com/JawadAsif77/fundchain-sub001/internal/ledger"
	"github.com/JawadAsif77/fundchain-sub001/internal/middleware"
	"github.com/JawadAsif77/fundchain-sub001/internal/util"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// WalletHandler serves the wallet read functions.
type WalletHandler struct {
	Svc *ledger.Service
}

func NewWalletHandler(svc *ledger.Service) *WalletHandler {
	return &WalletHandler{Svc: svc}
}

type userRequest struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// bindUser decodes {userId} and checks the caller may act for it.
func bindUser(c *gin.Context) (userRequest, bool) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.StatusError(c, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := util.ValidateID("userId", req.UserID); err != nil {
		util.StatusError(c, http.StatusBadRequest, err.Error())
		return req, false
	}
	if !middleware.ActsAs(c, req.UserID) {
		util.StatusError(c, http.StatusForbidden, notActor)
		return req, false
	}
	return req, true
}

// GetWallet handles POST /functions/v1/get-wallet. A missing wallet is not an
// error for this function.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	req, ok := bindUser(c)
	if !ok {
		return
	}

	w, err := h.Svc.GetWallet(c.Request.Context(), req.UserID)
	if errors.Is(err, ledger.ErrNotFound) {
		util.Status(c, "not_found", nil)
		return
	}
	if err != nil {
		util.StatusFail(c, err)
		return
	}
	util.Status(c, "success", util.Response{
		"balanceFc": w.BalanceFC,
		"lockedFc":  w.LockedFC,
	})
}

// CreateUserWallet handles POST /functions/v1/create-user-wallet.
func (h *WalletHandler) CreateUserWallet(c *gin.Context) {
	req, ok := bindUser(c)
	if !ok {
		return
	}

	w, created, err := h.Svc.CreateWallet(c.Request.Context(), req.UserID)
	if err != nil {
		util.StatusFail(c, err)
		return
	}
	status := "exists"
	if created {
		status = "created"
	}
	util.Status(c, status, util.Response{"wallet": walletView(*w)})
}

// GetTransactions handles POST /functions/v1/get-transactions.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	req, ok := bindUser(c)
	if !ok {
		return
	}
	if req.Limit <= 0 || req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	list, err := h.Svc.ListTokenTransactions(c.Request.Context(), req.UserID, req.Limit, req.Offset)
	if err != nil {
		util.StatusFail(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, tx := range list {
		out = append(out, tokenTransactionView(tx))
	}
	util.Status(c, "success", util.Response{"transactions": out})
}

// GetUserInvestments handles POST /functions/v1/get-user-investments.
func (h *WalletHandler) GetUserInvestments(c *gin.Context) {
	req, ok := bindUser(c)
	if !ok {
		return
	}

	rows, err := h.Svc.ListUserInvestments(c.Request.Context(), req.UserID)
	if err != nil {
		util.StatusFail(c, err)
		return
	}
	if rows == nil {
		rows = []ledger.UserInvestment{}
	}
	util.Status(c, "success", util.Response{"investments": rows})
}

type reconcileRequest struct {
	AdminID    string `json:"adminId"`
	CampaignID string `json:"campaignId"`
}

// ReconcileCampaign handles POST /functions/v1/reconcile-campaign.
func (h *WalletHandler) ReconcileCampaign(c *gin.Context) {
	var req reconcileRequest
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

	ctx := c.Request.Context()
	if err := h.Svc.AuthorizeAdmin(ctx, req.AdminID); err != nil {
		util.Fail(c, err)
		return
	}
	rep, err := h.Svc.ReconcileCampaign(ctx, req.CampaignID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, util.Response{"reconciliation": rep})
}
