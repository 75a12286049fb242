package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"license-shop/internal/domain"
	"license-shop/internal/infrastructure/payment"
)

var errorMessages = []struct {
	kind    error
	status  int
	message string
}{
	{domain.ErrOrderNotFound, http.StatusNotFound, "order not found"},
	{domain.ErrAlreadyPaid, http.StatusConflict, "order already paid"},
	{domain.ErrOrderCancelled, http.StatusConflict, "order was cancelled"},
	{domain.ErrInvalidTier, http.StatusBadRequest, "invalid product type"},
	{domain.ErrLicenseNotFound, http.StatusNotFound, "license not found"},
	{domain.ErrLicenseBanned, http.StatusForbidden, "license has been banned"},
	{domain.ErrLicenseExpired, http.StatusForbidden, "license has expired"},
	{domain.ErrActivationLimitReached, http.StatusForbidden, "activation limit reached"},
	{domain.ErrDeviceNotAuthorized, http.StatusForbidden, "device not authorized"},
	{payment.ErrCardDeclined, http.StatusPaymentRequired, "payment declined"},
}

// fail writes the error envelope. Unknown errors become a 500 without detail.
func (s *Server) fail(c *gin.Context, err error) {
	for _, m := range errorMessages {
		if errors.Is(err, m.kind) {
			body := gin.H{"success": false, "error": m.message}
			var lerr *domain.LicenseError
			if errors.As(err, &lerr) {
				body["activations"] = lerr.ActivationCount
				body["maxActivations"] = lerr.MaxActivations
				body["expiry"] = lerr.ExpiresAt
			}
			c.JSON(m.status, body)
			return
		}
	}
	s.Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}
