package router

import (
	"net/http"

	"github.com/JawadAsif77/fundchain-sub001/internal/config"
	"github.com/JawadAsif77/fundchain-sub001/internal/handler"
	"github.com/JawadAsif77/fundchain-sub001/internal/ledger"
	"github.com/JawadAsif77/fundchain-sub001/internal/metrics"
	"github.com/JawadAsif77/fundchain-sub001/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine. rec may be nil when metrics are off.
func SetupRouter(cfg *config.Config, db *gorm.DB, svc *ledger.Service, rec *metrics.Recorder, logger zerolog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// CORS is global so preflight requests are answered on every path
	r.Use(middleware.CORS(), middleware.RequestLogger(logger), gin.Recovery())

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled && rec != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(rec.Handler()))
	}

	identity := middleware.Identity(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// ====== functions ======
	fn := r.Group("/functions/v1")
	fn.Use(identity, middleware.AuditMiddleware(db, logger))

	ledgerHandler := handler.NewLedgerHandler(svc)
	fn.POST("/invest-in-campaign", ledgerHandler.Invest)
	fn.POST("/invest", ledgerHandler.Invest)
	fn.POST("/release-milestone-funds", ledgerHandler.ReleaseMilestoneFunds)
	fn.POST("/refund-campaign-investors", ledgerHandler.RefundCampaignInvestors)
	fn.POST("/buy-fc-tokens", ledgerHandler.BuyFCTokens)
	fn.POST("/buy-fc-with-sol", ledgerHandler.BuyFCWithSol)
	fn.POST("/credit-fc", ledgerHandler.BuyFCWithSol)

	walletHandler := handler.NewWalletHandler(svc)
	fn.POST("/get-wallet", walletHandler.GetWallet)
	fn.POST("/create-user-wallet", walletHandler.CreateUserWallet)
	fn.POST("/get-transactions", walletHandler.GetTransactions)
	fn.POST("/get-user-investments", walletHandler.GetUserInvestments)
	fn.POST("/reconcile-campaign", walletHandler.ReconcileCampaign)

	// ====== API ======
	api := r.Group("/api")
	api.Use(identity)

	exportHandler := handler.NewExportHandler(svc)
	api.GET("/users/:userId/transactions/export.csv", exportHandler.ExportCSV)
	api.GET("/users/:userId/transactions/export.xlsx", exportHandler.ExportXLSX)

	logHandler := handler.NewLogHandler(db, svc)
	api.GET("/audit-logs", logHandler.ListLogs)

	return r
}
