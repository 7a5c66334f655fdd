package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/JawadAsif77/fundchain-sub001/internal/ledger"
	"github.com/JawadAsif77/fundchain-sub001/internal/middleware"
	"github.com/JawadAsif77/fundchain-sub001/internal/models"
	"github.com/JawadAsif77/fundchain-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler downloads a user's FC movements as CSV or XLSX.
type ExportHandler struct {
	Svc *ledger.Service
}

func NewExportHandler(svc *ledger.Service) *ExportHandler {
	return &ExportHandler{Svc: svc}
}

var exportHeaders = []string{"ID", "Type", "Amount (FC)", "Campaign", "Milestone", "Date"}

// load returns the rows to export, or writes an error and returns false.
// Optional ?from= and ?to= (YYYY-MM-DD, inclusive) narrow the range.
func (h *ExportHandler) load(c *gin.Context) (string, []models.TokenTransaction, bool) {
	userID := c.Param("userId")
	if err := util.ValidateID("userId", userID); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	if !middleware.ActsAs(c, userID) {
		util.Error(c, http.StatusForbidden, notActor)
		return "", nil, false
	}

	var from, to time.Time
	if s := c.Query("from"); s != "" {
		if err := util.ValidateDate(s); err != nil {
			util.Error(c, http.StatusBadRequest, "from: "+err.Error())
			return "", nil, false
		}
		from, _ = time.Parse("2006-01-02", s)
	}
	if s := c.Query("to"); s != "" {
		if err := util.ValidateDate(s); err != nil {
			util.Error(c, http.StatusBadRequest, "to: "+err.Error())
			return "", nil, false
		}
		to, _ = time.Parse("2006-01-02", s)
		to = to.Add(24 * time.Hour)
	}

	rows, err := h.Svc.ListTokenTransactionsBetween(c.Request.Context(), userID, from, to)
	if err != nil {
		util.Fail(c, err)
		return "", nil, false
	}
	return userID, rows, true
}

func exportRow(tx models.TokenTransaction) []string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return []string{
		fmt.Sprintf("%d", tx.ID),
		tx.Type,
		tx.AmountFC.String(),
		deref(tx.CampaignID),
		deref(tx.MilestoneID),
		tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ExportCSV handles GET /api/users/:userId/transactions/export.csv.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID, rows, ok := h.load(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"fc_transactions_%s_%s.csv\"",
		userID, time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	_ = writer.Write(exportHeaders)
	for _, tx := range rows {
		_ = writer.Write(exportRow(tx))
	}
}

// ExportXLSX handles GET /api/users/:userId/transactions/export.xlsx.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	userID, rows, ok := h.load(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "FC Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for idx, tx := range rows {
		row := idx + 2
		values := exportRow(tx)
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if col == 2 {
				// amounts as numbers so spreadsheets can sum them
				amount, _ := tx.AmountFC.Float64()
				_ = f.SetCellValue(sheetName, cell, amount)
				continue
			}
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "C", 16)
	_ = f.SetColWidth(sheetName, "D", "E", 38)
	_ = f.SetColWidth(sheetName, "F", "F", 22)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"fc_transactions_%s_%s.xlsx\"",
		userID, time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, "export failed")
	}
}
