package util

import (
	"errors"
	"net/http"

	"github.com/JawadAsif77/fundchain-sub001/internal/ledger"

	"github.com/gin-gonic/gin"
)

// Response is the data part of a success envelope.
type Response map[string]interface{}

// StatusFor maps a ledger error kind to its HTTP status.
func StatusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindInvalidArgument, ledger.KindInvalidState, ledger.KindInsufficientFunds:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindForbidden:
		return http.StatusForbidden
	case ledger.KindAlreadyCompleted, ledger.KindDuplicateTransaction:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Success writes {success: true, ...data}.
func Success(c *gin.Context, data Response) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail writes {success: false, error, details?} with the status of err's kind.
func Fail(c *gin.Context, err error) {
	status, msg, details := describe(err)
	body := gin.H{"success": false, "error": msg}
	if len(details) > 0 {
		body["details"] = details
	}
	c.JSON(status, body)
}

// Error writes a failure envelope for problems found before the ledger is called.
func Error(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"success": false, "error": msg})
}

// Status writes the {status: "...", ...data} envelope used by the wallet
// credit and read functions.
func Status(c *gin.Context, status string, data Response) {
	body := gin.H{"status": status}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// StatusFail writes {error, details?} for the wallet credit and read functions.
func StatusFail(c *gin.Context, err error) {
	status, msg, details := describe(err)
	body := gin.H{"error": msg}
	if len(details) > 0 {
		body["details"] = details
	}
	c.JSON(status, body)
}

// StatusError writes {error} for problems found before the ledger is called.
func StatusError(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"error": msg})
}

func describe(err error) (int, string, map[string]any) {
	var le *ledger.Error
	if !errors.As(err, &le) {
		return http.StatusInternalServerError, err.Error(), nil
	}
	return StatusFor(le.Kind), le.Error(), le.Details
}
