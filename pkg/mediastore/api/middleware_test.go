package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

func authTestRouter(auth *jwtauth.JWTAuth, captured *Requester) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(auth))
	r.Use(RequireRequester)
	r.Get("/protected", func(w http.ResponseWriter, r *http.Request) {
		req, ok := RequesterFromContext(r.Context())
		if ok {
			*captured = req
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestRequireRequester(t *testing.T) {
	auth := jwtauth.New("HS256", []byte("test-secret"), nil)

	t.Run("valid token passes identity through", func(t *testing.T) {
		userID := uuid.New()
		_, tokenString, err := auth.Encode(map[string]interface{}{
			"user_id": userID.String(),
			"role":    "admin",
		})
		require.NoError(t, err)

		var captured Requester
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()
		authTestRouter(auth, &captured).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, captured.ID)
		assert.Equal(t, mediastore.RoleAdmin, captured.Role)
	})

	t.Run("role defaults to user", func(t *testing.T) {
		userID := uuid.New()
		_, tokenString, err := auth.Encode(map[string]interface{}{
			"user_id": userID.String(),
		})
		require.NoError(t, err)

		var captured Requester
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()
		authTestRouter(auth, &captured).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, mediastore.RoleUser, captured.Role)
	})

	t.Run("no token", func(t *testing.T) {
		var captured Requester
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()
		authTestRouter(auth, &captured).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without user id claim", func(t *testing.T) {
		_, tokenString, err := auth.Encode(map[string]interface{}{"role": "user"})
		require.NoError(t, err)

		var captured Requester
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()
		authTestRouter(auth, &captured).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := jwtauth.New("HS256", []byte("different-secret"), nil)
		_, tokenString, err := other.Encode(map[string]interface{}{
			"user_id": uuid.NewString(),
		})
		require.NoError(t, err)

		var captured Requester
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()
		authTestRouter(auth, &captured).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestWithRequester(t *testing.T) {
	req := Requester{ID: uuid.New(), Role: mediastore.RoleUser}
	ctx := WithRequester(httptest.NewRequest(http.MethodGet, "/", nil).Context(), req)

	got, ok := RequesterFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, req, got)
}
