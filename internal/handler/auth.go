package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/auth"
	"github.com/fairops/fairadmin/internal/repository"
	"github.com/fairops/fairadmin/internal/utils"
)

// AuthHandler exposes the approval-gated session endpoints. All gating
// decisions live in the auth package; this layer only translates typed gate
// errors into status-specific responses.
type AuthHandler struct {
	Gate *auth.Gate
}

func NewAuthHandler(g *auth.Gate) *AuthHandler {
	if g == nil {
		panic("nil gate passed to NewAuthHandler")
	}
	return &AuthHandler{Gate: g}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID             uint64 `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role,omitempty"`
	ApprovalStatus string `json:"approval_status"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func sessionResp(sess auth.Session, pair auth.TokenPair) authResp {
	return authResp{
		User: userPart{
			ID:             sess.UserID,
			Email:          sess.Email,
			Name:           sess.Name,
			Role:           sess.Role,
			ApprovalStatus: sess.Profile.ApprovalStatus,
		},
		Access:  tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
		Refresh: tokenPart{Token: pair.Refresh.Raw, Expires: pair.Refresh.Exp},
	}
}

// Register creates a pending account. No tokens are issued: the account
// cannot sign in until an admin approves it.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	err := h.Gate.SignUp(ctx, req.Email, req.Password, req.Name)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{
			"message": "registration received; your account is awaiting admin approval",
		})
	case errors.Is(err, utils.ErrInvalidEmail),
		errors.Is(err, utils.ErrShortPassword),
		errors.Is(err, utils.ErrShortName):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailRejected):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "registration is not allowed for this email"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}
}

// Login verifies credentials and the approval gate, then returns a token
// pair. A pending or rejected account gets a status-specific message rather
// than a generic auth failure.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	sess, pair, err := h.Gate.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return h.gateError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess, pair))
}

// Refresh rotates the refresh token and re-runs the approval gate, so a
// user approved-then-rejected loses access at the next rotation at latest.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	sess, pair, err := h.Gate.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return h.gateError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess, pair))
}

// Logout revokes the caller's sessions. With a refresh token in the body
// only that session ends; without one every session for the user is revoked.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	h.Gate.SignOut(ctx, uid, strings.TrimSpace(req.RefreshToken))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the resolved session for the current token. Because the
// approval gate runs here too, a revoked approval surfaces on the next call.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	sess, err := h.Gate.Resolve(ctx, uid)
	if err != nil {
		return h.gateError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userPart{
		ID:             sess.UserID,
		Email:          sess.Email,
		Name:           sess.Name,
		Role:           sess.Role,
		ApprovalStatus: sess.Profile.ApprovalStatus,
	}})
}

// gateError maps typed gate errors onto HTTP responses.
func (h *AuthHandler) gateError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrPendingApproval):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account pending admin approval"})
	case errors.Is(err, auth.ErrRejected):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account has been rejected, contact support"})
	case errors.Is(err, auth.ErrProfileNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account profile not found, contact support"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth failed"})
	}
}
