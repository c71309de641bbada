package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairops/fairadmin/internal/repository"
)

type stubProfiles struct {
	profile repository.Profile
	err     error
}

func (s *stubProfiles) GetByUserID(context.Context, uint64) (repository.Profile, error) {
	return s.profile, s.err
}

type stubRevoker struct {
	revoked []uint64
}

func (s *stubRevoker) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func runApproval(t *testing.T, profiles *stubProfiles, revoker *stubRevoker, uid interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != nil {
		c.Set("user_id", uid)
	}

	h := RequireApproved(profiles, revoker)(func(c echo.Context) error {
		return c.String(http.StatusOK, "through")
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequireApprovedAllowsApprovedActive(t *testing.T) {
	profiles := &stubProfiles{profile: repository.Profile{
		UserID: 7, IsActive: true, ApprovalStatus: repository.ApprovalApproved,
	}}
	revoker := &stubRevoker{}

	rec := runApproval(t, profiles, revoker, uint64(7))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, revoker.revoked)
}

func TestRequireApprovedBlocksPendingAndRevokes(t *testing.T) {
	profiles := &stubProfiles{profile: repository.Profile{
		UserID: 7, IsActive: true, ApprovalStatus: repository.ApprovalPending,
	}}
	revoker := &stubRevoker{}

	rec := runApproval(t, profiles, revoker, uint64(7))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending admin approval")
	assert.Equal(t, []uint64{7}, revoker.revoked)
}

func TestRequireApprovedBlocksRejected(t *testing.T) {
	profiles := &stubProfiles{profile: repository.Profile{
		UserID: 7, IsActive: true, ApprovalStatus: repository.ApprovalRejected,
	}}
	revoker := &stubRevoker{}

	rec := runApproval(t, profiles, revoker, uint64(7))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "rejected")
	assert.Equal(t, []uint64{7}, revoker.revoked)
}

func TestRequireApprovedMissingProfile(t *testing.T) {
	profiles := &stubProfiles{err: sql.ErrNoRows}
	revoker := &stubRevoker{}

	rec := runApproval(t, profiles, revoker, uint64(7))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile not found")
	assert.Equal(t, []uint64{7}, revoker.revoked)
}

func TestRequireApprovedBackendErrorLeavesSession(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("connection refused")}
	revoker := &stubRevoker{}

	rec := runApproval(t, profiles, revoker, uint64(7))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, revoker.revoked, "transient failures must not revoke sessions")
}

func TestRequireApprovedBlocksDeactivated(t *testing.T) {
	profiles := &stubProfiles{profile: repository.Profile{
		UserID: 7, IsActive: false, ApprovalStatus: repository.ApprovalApproved,
	}}
	revoker := &stubRevoker{}

	rec := runApproval(t, profiles, revoker, uint64(7))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

func TestRequireApprovedNoUser(t *testing.T) {
	rec := runApproval(t, &stubProfiles{}, &stubRevoker{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
