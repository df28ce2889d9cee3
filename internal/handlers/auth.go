package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ripple-app/backend/internal/auth"
	"github.com/ripple-app/backend/internal/database"
	apierrors "github.com/ripple-app/backend/internal/errors"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/models"
	"github.com/ripple-app/backend/internal/util"
	"go.uber.org/zap"
)

// Register handles POST /api/auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondWithAPIError(c, apierrors.Conflict("account"))
		default:
			util.RespondInternalError(c, err)
		}
		return
	}

	logger.Log.Info("user registered", logger.WithUserID(resp.User.ID))
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid email or password")
		case errors.Is(err, auth.ErrAccountBanned):
			util.RespondWithAPIError(c, apierrors.AccountBanned(""))
		default:
			util.RespondInternalError(c, err)
		}
		return
	}

	logger.Log.Info("user logged in", logger.WithUserID(resp.User.ID))
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout. Tokens are stateless bearer JWTs,
// so there is nothing to revoke server-side; the client discards its token
// and the account is marked offline for everyone else to see.
func (h *Handlers) Logout(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"is_online":      false,
		"last_active_at": now,
	}).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	h.notifier.PresenceChanged(user.ID, "offline")
	logger.Log.Info("user logged out", logger.WithUserID(user.ID))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me handles GET /api/auth/me.
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// MarkNotificationsRead handles POST /api/auth/notifications/read. It
// clears the unread flag on the persisted admin notifications the socket
// already delivered.
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	changed := false
	for i := range user.AdminNotifications {
		if !user.AdminNotifications[i].Read {
			user.AdminNotifications[i].Read = true
			changed = true
		}
	}
	if changed {
		if err := saveUserNotifications(user); err != nil {
			util.RespondInternalError(c, err)
			return
		}
	}

	logger.Log.Debug("notifications marked read",
		logger.WithUserID(user.ID),
		zap.Int("count", len(user.AdminNotifications)),
	)
	c.JSON(http.StatusOK, gin.H{"notifications": user.AdminNotifications})
}
