package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"license-shop/internal/domain"
	"license-shop/internal/keygen"
	"license-shop/internal/logger"
	"license-shop/internal/service"
)

type createOrderRequest struct {
	Type          string `json:"type" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	QQ            string `json:"qq"`
	Note          string `json:"note"`
}

type searchOrderRequest struct {
	OrderID string `json:"orderId"`
	Email   string `json:"email"`
}

type licenseRequest struct {
	Key  string `json:"key" binding:"required"`
	HWID string `json:"hwid" binding:"required"`
}

func (s *Server) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"tiers":          domain.Tiers(),
		"paymentMethods": domain.PaymentMethods(),
	})
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing or invalid parameters")
		return
	}
	if !domain.IsPaymentMethod(req.PaymentMethod) {
		badRequest(c, "unsupported payment method")
		return
	}

	extra := map[string]string{}
	if req.QQ != "" {
		extra["qq"] = req.QQ
	}
	if req.Note != "" {
		extra["note"] = req.Note
	}
	if len(extra) == 0 {
		extra = nil
	}

	order, err := s.Orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		TierCode:      domain.TierCode(strings.ToUpper(req.Type)),
		Email:         strings.TrimSpace(req.Email),
		PaymentMethod: req.PaymentMethod,
		Extra:         extra,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orderId": order.ID,
		"order":   order,
	})
}

// confirmPayment charges the order through the gateway and, when the charge
// clears, confirms it. The license email goes out after the response.
func (s *Server) confirmPayment(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("orderId")

	order, err := s.Orders.FindOrder(ctx, service.OrderQuery{OrderID: orderID})
	if err != nil {
		s.fail(c, err)
		return
	}
	if order == nil {
		s.fail(c, domain.ErrOrderNotFound)
		return
	}
	if err := order.CanPay(); err != nil {
		s.fail(c, err)
		return
	}

	var evidence domain.PaymentEvidence
	if s.Gateway != nil {
		evidence, err = s.Gateway.Charge(ctx, *order)
		if err != nil {
			s.Logger.WithFields(log.Fields{
				logger.ActionKey: "PAYMENT_FAILED",
				"orderId":        orderID,
			}).WithError(err).Warn("charge failed")
			s.fail(c, err)
			return
		}
	}

	receipt, err := s.Orders.ConfirmPayment(ctx, orderID, evidence)
	if err != nil {
		// A concurrent confirm of the same charge is not an orphan.
		if s.Gateway != nil && !errors.Is(err, domain.ErrAlreadyPaid) {
			s.Logger.WithFields(log.Fields{
				logger.ActionKey: "PAYMENT_ORPHANED",
				"orderId":        orderID,
				"transactionId":  evidence.TransactionID,
				"payer":          evidence.Payer,
				"amount":         evidence.Amount,
			}).WithError(err).Error("charged order could not be confirmed")
		}
		s.fail(c, err)
		return
	}

	if s.Mailer != nil {
		go func(order domain.Order, license domain.License) {
			if err := s.Mailer.SendLicense(context.Background(), order, license); err != nil {
				s.Logger.WithError(err).WithField("orderId", order.ID).Error("send license email")
			}
		}(receipt.Order, receipt.License)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"order":      receipt.Order,
		"licenseKey": receipt.License.Key,
		"license":    receipt.License.View(*receipt.Order.PaidAt),
	})
}

func (s *Server) cancelOrder(c *gin.Context) {
	if err := s.Orders.CancelOrder(c.Request.Context(), c.Param("orderId")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) searchOrder(c *gin.Context) {
	var req searchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Email = strings.TrimSpace(req.Email)
	if req.OrderID == "" && req.Email == "" {
		badRequest(c, "order id or email required")
		return
	}

	order, err := s.Orders.FindOrder(c.Request.Context(), service.OrderQuery{
		OrderID: req.OrderID,
		Email:   req.Email,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	if order == nil {
		s.fail(c, domain.ErrOrderNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (s *Server) validate(c *gin.Context) {
	s.licenseCheck(c, s.Licenses.Validate)
}

func (s *Server) activate(c *gin.Context) {
	s.licenseCheck(c, s.Licenses.Activate)
}

type licenseOp func(ctx context.Context, key, deviceID string) (*domain.LicenseView, error)

func (s *Server) licenseCheck(c *gin.Context, op licenseOp) {
	var req licenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "key and hwid required")
		return
	}

	view, err := op(c.Request.Context(), strings.TrimSpace(req.Key), strings.TrimSpace(req.HWID))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"license": view,
		"token":   keygen.NewSessionToken(),
	})
}
