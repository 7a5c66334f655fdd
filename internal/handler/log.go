package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JawadAsif77/fundchain-sub001/internal/ledger"
	"github.com/JawadAsif77/fundchain-sub001/internal/middleware"
	"github.com/JawadAsif77/fundchain-sub001/internal/models"
	"github.com/JawadAsif77/fundchain-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler lists the audit trail of function calls for admins.
type LogHandler struct {
	DB  *gorm.DB
	Svc *ledger.Service
}

func NewLogHandler(db *gorm.DB, svc *ledger.Service) *LogHandler {
	return &LogHandler{DB: db, Svc: svc}
}

type logResp struct {
	ID        uint      `json:"id"`
	ActorID   string    `json:"actor_id"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs handles GET /api/audit-logs?adminId=&page=&page_size=&start=&end=&actor=&q=
func (h *LogHandler) ListLogs(c *gin.Context) {
	adminID := c.Query("adminId")
	if err := util.ValidateID("adminId", adminID); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !middleware.ActsAs(c, adminID) {
		util.Error(c, http.StatusForbidden, notActor)
		return
	}
	if err := h.Svc.AuthorizeAdmin(c.Request.Context(), adminID); err != nil {
		util.Fail(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > maxPageSize {
		size = 20
	}
	offset := (page - 1) * size

	// start / end are YYYY-MM-DD, end inclusive
	base := h.DB.WithContext(c.Request.Context()).Model(&models.AuditLog{})
	if s := c.Query("start"); s != "" {
		start, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "invalid start date")
			return
		}
		base = base.Where("created_at >= ?", start)
	}
	if s := c.Query("end"); s != "" {
		end, err := time.Parse("2006-01-02", s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "invalid end date")
			return
		}
		base = base.Where("created_at < ?", end.Add(24*time.Hour))
	}
	if actor := strings.TrimSpace(c.Query("actor")); actor != "" {
		base = base.Where("actor_id = ?", actor)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + q + "%"
		base = base.Where("path LIKE ? OR metadata LIKE ?", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "query failed")
		return
	}

	var logs []models.AuditLog
	if err := base.
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset(offset).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "query failed")
		return
	}

	items := make([]logResp, 0, len(logs))
	for _, l := range logs {
		items = append(items, logResp{
			ID:        l.ID,
			ActorID:   l.ActorID,
			Path:      l.Path,
			Method:    l.Method,
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			Metadata:  l.Metadata,
			CreatedAt: l.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
