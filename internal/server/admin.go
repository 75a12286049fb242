package server

import (
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"license-shop/internal/keygen"
	"license-shop/internal/logger"
)

const (
	adminTokenHeader = "X-Admin-Token"
	adminLogLimit    = 50
)

// adminSession holds the single token issued by the last successful login.
// Logging in again invalidates the previous token.
type adminSession struct {
	mu    sync.RWMutex
	token string
}

func (a *adminSession) issue() string {
	tok := keygen.NewSessionToken()
	a.mu.Lock()
	a.token = tok
	a.mu.Unlock()
	return tok
}

func (a *adminSession) valid(tok string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token == "" || tok == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.token), []byte(tok)) == 1
}

type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (s *Server) adminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "password required")
		return
	}
	if s.cfg.AdminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.AdminPassword)) != 1 {
		s.Logger.WithFields(log.Fields{
			logger.ActionKey: "ADMIN_LOGIN_FAILED",
			"remoteAddr":     c.ClientIP(),
		}).Warn("admin login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid password"})
		return
	}

	tok := s.admin.issue()
	s.Logger.WithFields(log.Fields{
		logger.ActionKey: "ADMIN_LOGIN",
		"remoteAddr":     c.ClientIP(),
	}).Info("admin logged in")
	c.JSON(http.StatusOK, gin.H{"success": true, "token": tok})
}

func (s *Server) requireAdmin(c *gin.Context) {
	if !s.admin.valid(c.GetHeader(adminTokenHeader)) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) adminStats(c *gin.Context) {
	snap, err := s.Stats.Snapshot(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	body := gin.H{
		"success":      true,
		"stats":        snap.Stats,
		"orders":       snap.Orders,
		"licenses":     snap.Licenses,
		"payments":     snap.Payments,
		"recentOrders": snap.RecentOrders,
	}
	if s.Journal != nil {
		body["logs"] = s.Journal.Recent(adminLogLimit)
	}
	c.JSON(http.StatusOK, body)
}
