package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opsboard/operator-auth/internal/application"
	"github.com/opsboard/operator-auth/internal/domain/autherr"
	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/internal/interface/middleware"
	"github.com/opsboard/operator-auth/pkg/helpers"
	"github.com/opsboard/operator-auth/pkg/response"
	"github.com/opsboard/operator-auth/pkg/validation"
)

// AuthHandler exposes the auth use-cases over HTTP. It owns the
// envelope mapping; typed errors from the service decide the status.
type AuthHandler struct {
	Svc        *application.Service
	Audit      *application.AuditRecorder
	Logger     *logrus.Logger
	Cookies    *helpers.CookieManager
	SessionTTL time.Duration
}

func NewAuthHandler(svc *application.Service, audit *application.AuditRecorder, logger *logrus.Logger, cookieDomain string, cookieSecure bool, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		Svc:        svc,
		Audit:      audit,
		Logger:     logger,
		Cookies:    helpers.NewCookie(cookieDomain, cookieSecure),
		SessionTTL: sessionTTL,
	}
}

func statusOf(err error) int {
	if errors.Is(err, autherr.ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}
	switch autherr.KindOf(err) {
	case autherr.KindValidation:
		return http.StatusBadRequest
	case autherr.KindNotFound:
		return http.StatusNotFound
	case autherr.KindConflict:
		return http.StatusConflict
	case autherr.KindAuthentication:
		return http.StatusUnauthorized
	case autherr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	response.Error(c, status, autherr.Message(err), nil)
}

func (h *AuthHandler) record(c *gin.Context, operatorID *int64, email, action string, metadata map[string]any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(c.Request.Context(), entity.AuditRecord{
		OperatorID: operatorID,
		Email:      email,
		Action:     action,
		IP:         middleware.ClientIP(c),
		UserAgent:  c.GetHeader("User-Agent"),
		Metadata:   metadata,
	})
}

func ctxOperatorID(c *gin.Context) *int64 {
	if v, ok := c.Get(middleware.CtxOperatorIDKey); ok {
		if id, ok := v.(int64); ok {
			return &id
		}
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type recipientRequest struct {
	MailRecipient string `json:"mailRecipient" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type passwordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type operatorRequest struct {
	Operator string `json:"operator" binding:"required"`
}

type initRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
	Operator string `json:"operator" binding:"required"`
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	sid, principal, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.record(c, nil, req.Email, "login_failed", nil)
		h.fail(c, err)
		return
	}
	h.Cookies.SetSession(c, sid, h.SessionTTL)
	h.record(c, &principal.ID, principal.Email, "login", nil)
	response.Success(c, http.StatusOK, gin.H{"user": principal}, "login successful")
}

// Logout GET /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := c.GetString(middleware.CtxSessionIDKey)
	if err := h.Svc.Logout(c.Request.Context(), sid); err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	h.record(c, ctxOperatorID(c), "", "logout", nil)
	response.Success(c, http.StatusOK, nil, "logged out")
}

// Forgot POST /auth/forgot
func (h *AuthHandler) Forgot(c *gin.Context) {
	var req recipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.Forgot(c.Request.Context(), req.MailRecipient); err != nil {
		h.record(c, nil, req.MailRecipient, "forgot_failed", map[string]any{"kind": autherr.KindOf(err).String()})
		h.fail(c, err)
		return
	}
	h.record(c, nil, req.MailRecipient, "forgot", nil)
	// Identical answer whether or not the address is known.
	response.Success(c, http.StatusOK, nil, "if the address is known, a reset link has been sent")
}

// ResetPassword POST /auth/password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, nil, "", "password_reset", nil)
	response.Success(c, http.StatusOK, nil, "password updated")
}

// Rename POST /auth/operator
func (h *AuthHandler) Rename(c *gin.Context) {
	var req operatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	oid := ctxOperatorID(c)
	if oid == nil {
		response.Error(c, http.StatusForbidden, "authentication required", nil)
		return
	}
	if err := h.Svc.Rename(c.Request.Context(), *oid, req.Operator); err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, oid, "", "rename", map[string]any{"operator": req.Operator})
	response.Success(c, http.StatusOK, nil, "operator name updated")
}

// ProbeName POST /auth/probe
func (h *AuthHandler) ProbeName(c *gin.Context) {
	var req operatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	available, err := h.Svc.ProbeName(c.Request.Context(), req.Operator)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !available {
		response.Error(c, http.StatusConflict, "operator name already taken", nil)
		return
	}
	response.Success(c, http.StatusOK, nil, "operator name available")
}

// Invite POST /auth/invite
func (h *AuthHandler) Invite(c *gin.Context) {
	var req recipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.Invite(c.Request.Context(), req.MailRecipient); err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, ctxOperatorID(c), req.MailRecipient, "invite", nil)
	response.Success(c, http.StatusOK, nil, "invitation sent")
}

// Welcome POST /auth/welcome
func (h *AuthHandler) Welcome(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, err := h.Svc.Welcome(c.Request.Context(), req.Token)
	if err != nil {
		h.fail(c, err)
		return
	}
	// The invited address travels in the message so the client can
	// prefill the registration form.
	response.Success(c, http.StatusOK, nil, email)
}

// Initialize POST /auth/init
func (h *AuthHandler) Initialize(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.Initialize(c.Request.Context(), req.Token, req.Operator, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, nil, "", "initialize", map[string]any{"operator": req.Operator})
	response.Success(c, http.StatusOK, nil, "operator initialized")
}
