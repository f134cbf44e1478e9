package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTripCarriesRole(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute)

	token, err := m.GenerateAccessToken(staff)
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, staff, claims.Actor())
}

func TestJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewJWTManager("secret-a", time.Minute)
	other := NewJWTManager("secret-b", time.Minute)

	token, err := other.GenerateAccessToken(student)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(token)
	assert.Error(t, err)

	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := m.GenerateAccessToken(student)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(expired)
	assert.Error(t, err)
}

func TestJWTRefusesInvalidRole(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	_, err := m.GenerateAccessToken(Actor{ID: "x", Role: "root"})
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)

	r := gin.New()
	r.GET("/staff-only", AuthRequired(m), RequireRole(RoleStaff), func(c *gin.Context) {
		a, ok := GetActor(c)
		require.True(t, ok)
		c.String(http.StatusOK, a.ID)
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/staff-only", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)

	studentToken, _ := m.GenerateAccessToken(student)
	assert.Equal(t, http.StatusForbidden, do("Bearer "+studentToken).Code)

	staffToken, _ := m.GenerateAccessToken(staff)
	w := do("Bearer " + staffToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, staff.ID, w.Body.String())
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptPasswordHasherWithCost(1)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
}
