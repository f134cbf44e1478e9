package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/booking"
	"github.com/campushub/booking-core/internal/pkg/bulk"
	"github.com/campushub/booking-core/internal/review"
)

type catalog map[string]booking.Resource

func (c catalog) GetResource(_ context.Context, id string) (booking.Resource, error) {
	r, ok := c[id]
	if !ok {
		return booking.Resource{}, booking.ErrResourceNotFound
	}
	return r, nil
}

type testServer struct {
	router     *gin.Engine
	jwt        *auth.JWTManager
	resourceID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resourceID := uuid.NewString()
	store := review.NewMemoryStore()
	svc := review.NewService(store, catalog{resourceID: {ID: resourceID, Available: true}}, nil)
	jwt := auth.NewJWTManager("review-handler-test", time.Hour)

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewHandler(svc, review.NewGate(store, nil)), auth.AuthRequired(jwt))
	return &testServer{router: r, jwt: jwt, resourceID: resourceID}
}

func (s *testServer) do(t *testing.T, actor auth.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != "" {
		token, err := s.jwt.GenerateAccessToken(actor)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestReviewModerationFlow(t *testing.T) {
	s := newTestServer(t)
	author := auth.Actor{ID: uuid.NewString(), Role: auth.RoleStudent}
	reader := auth.Actor{ID: uuid.NewString(), Role: auth.RoleStudent}
	admin := auth.Actor{ID: uuid.NewString(), Role: auth.RoleAdmin}

	w := s.do(t, author, http.MethodPost, "/api/v1/reviews", CreateReviewRequest{ResourceID: s.resourceID, Rating: 2, Comment: strPtr("Projector was broken.")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created ReviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = s.do(t, author, http.MethodPost, "/api/v1/reviews", CreateReviewRequest{ResourceID: s.resourceID, Rating: 3})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, reader, http.MethodPost, "/api/v1/reviews/"+created.ID+"/flag", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"is_flagged":true`)

	w = s.do(t, reader, http.MethodPost, "/api/v1/reviews/"+created.ID+"/hide", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"required_role":"staff"`)

	w = s.do(t, admin, http.MethodPost, "/api/v1/reviews/"+created.ID+"/hide", HideReviewRequest{Notes: strPtr("spam")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"is_hidden":true`)

	w = s.do(t, auth.Actor{}, http.MethodGet, "/api/v1/reviews?resource_id="+s.resourceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), created.ID)

	w = s.do(t, admin, http.MethodGet, "/api/v1/reviews/flagged", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.ID)

	w = s.do(t, admin, http.MethodPost, "/api/v1/reviews/bulk/hide", map[string]any{"ids": []string{created.ID, uuid.NewString()}})
	require.Equal(t, http.StatusOK, w.Code)
	var res bulk.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Succeeded)
	assert.Len(t, res.Failed, 2)

	w = s.do(t, admin, http.MethodPost, "/api/v1/reviews/"+created.ID+"/unhide", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, auth.Actor{}, http.MethodGet, "/api/v1/reviews/summary?resource_id="+s.resourceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalReviews)
	assert.Equal(t, 2.0, summary.AverageRating)
}

func strPtr(s string) *string { return &s }
