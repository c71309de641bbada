package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/repository"
)

// AdminUserHandler owns the admin-only account management endpoints:
// approving and rejecting registrations, role changes, deactivation and
// removal. Every route behind it is guarded by the admin role middleware.
type AdminUserHandler struct {
	Users    *repository.UserRepo
	Profiles *repository.ProfileRepo
	Roles    *repository.RoleRepo
	Tokens   *repository.TokenRepo
}

func NewAdminUserHandler(users *repository.UserRepo, profiles *repository.ProfileRepo,
	roles *repository.RoleRepo, tokens *repository.TokenRepo) *AdminUserHandler {
	if users == nil || profiles == nil || roles == nil || tokens == nil {
		panic("nil repository passed to NewAdminUserHandler")
	}
	return &AdminUserHandler{Users: users, Profiles: profiles, Roles: roles, Tokens: tokens}
}

type accountView struct {
	UserID         uint64     `json:"user_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           string     `json:"role,omitempty"`
	IsActive       bool       `json:"is_active"`
	ApprovalStatus string     `json:"approval_status"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
}

// List handles GET /v1/admin/users: every profile joined with its role.
func (h *AdminUserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	roles, err := h.Roles.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	items := make([]accountView, 0, len(profiles))
	for _, p := range profiles {
		v := accountView{
			UserID:         p.UserID,
			Name:           p.Name,
			Email:          p.Email,
			Role:           roles[p.UserID],
			IsActive:       p.IsActive,
			ApprovalStatus: p.ApprovalStatus,
			CreatedAt:      p.CreatedAt,
		}
		if p.LastLogin.Valid {
			t := p.LastLogin.Time
			v.LastLogin = &t
		}
		items = append(items, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Approve handles POST /v1/admin/users/:id/approve. Approval opens the gate
// at the user's next sign-in; nothing else changes.
func (h *AdminUserHandler) Approve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Profiles.SetApproval(ctx, id, repository.ApprovalApproved); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"approval_status": repository.ApprovalApproved})
}

// Reject handles POST /v1/admin/users/:id/reject. Live sessions end
// immediately: all of the user's refresh tokens are revoked along with the
// status change.
func (h *AdminUserHandler) Reject(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Profiles.SetApproval(ctx, id, repository.ApprovalRejected); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reject failed"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
		c.Logger().Warnf("revoke tokens after reject failed for user %d: %v", id, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"approval_status": repository.ApprovalRejected})
}

// SetRole handles PUT /v1/admin/users/:id/role.
func (h *AdminUserHandler) SetRole(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Role != repository.RoleAdmin && body.Role != repository.RoleSales {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or sales"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err := h.Roles.Set(ctx, id, body.Role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"role": body.Role})
}

// SetActive handles PUT /v1/admin/users/:id/active. Deactivation also ends
// live sessions.
func (h *AdminUserHandler) SetActive(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&body); err != nil || body.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Profiles.SetActive(ctx, id, *body.Active); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !*body.Active {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			c.Logger().Warnf("revoke tokens after deactivate failed for user %d: %v", id, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"is_active": *body.Active})
}

// Delete handles DELETE /v1/admin/users/:id: the account, profile, role and
// tokens go in one transaction. Admins cannot delete themselves.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Users.DeleteCascade(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
