package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/parkroll/mediastore/pkg/mediastore"
	memrepo "github.com/parkroll/mediastore/pkg/mediastore/repo/memory"
	memstorage "github.com/parkroll/mediastore/pkg/mediastore/storage/memory"
	"github.com/parkroll/mediastore/pkg/mediastore/urlstrategy"
)

type apiTest struct {
	router http.Handler
	svc    mediastore.Service
	auth   *jwtauth.JWTAuth
	locID  uuid.UUID
	userID uuid.UUID
}

func newAPITest(t *testing.T, limits UploadLimits) *apiTest {
	t.Helper()

	svc, err := mediastore.New(
		mediastore.WithRepository(memrepo.New()),
		mediastore.WithBlobStore(memstorage.New()),
		mediastore.WithURLStrategy(urlstrategy.NewS3Public("test-bucket", "us-east-1")),
		mediastore.WithOrphanSink(mediastore.NewNoopOrphanSink()),
	)
	require.NoError(t, err)

	userID := uuid.New()
	loc, err := svc.CreateLocation(context.Background(), mediastore.CreateLocationRequest{
		Name:      "Cedar Grove",
		Longitude: -121.1,
		Latitude:  44.0,
		CreatedBy: userID,
	})
	require.NoError(t, err)

	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	return &apiTest{
		router: NewRouter(svc, auth, limits),
		svc:    svc,
		auth:   auth,
		locID:  loc.ID,
		userID: userID,
	}
}

func (a *apiTest) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := map[string]interface{}{"user_id": userID.String()}
	if role != "" {
		claims["role"] = role
	}
	_, tokenString, err := a.auth.Encode(claims)
	require.NoError(t, err)
	return tokenString
}

func (a *apiTest) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// multipartBody builds a multipart form with one part per file under the
// images field, each with an explicit Content-Type.
func multipartBody(t *testing.T, files map[string][]byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, data := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	t.Run("rejects missing token", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		body, ct := multipartBody(t, map[string][]byte{"a.png": []byte("x")}, "image/png")
		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/images", body)
		req.Header.Set("Content-Type", ct)

		rec := a.do(req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts a valid batch", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		body, ct := multipartBody(t, map[string][]byte{
			"a.png": []byte("first"),
			"b.png": []byte("second"),
		}, "image/png")
		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/images", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp []ImageResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp, 2)
		for _, img := range resp {
			require.Equal(t, a.locID.String(), img.LocationID)
			require.Equal(t, a.userID.String(), img.OwnerID)
			require.Contains(t, img.URL, "https://test-bucket.s3.us-east-1.amazonaws.com/")
		}
	})

	t.Run("rejects unsupported content type", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		body, ct := multipartBody(t, map[string][]byte{"a.gif": []byte("x")}, "image/gif")
		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/images", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects too many files", func(t *testing.T) {
		a := newAPITest(t, UploadLimits{MaxFiles: 2, MaxFileSize: 1 << 20})

		body, ct := multipartBody(t, map[string][]byte{
			"a.png": []byte("1"),
			"b.png": []byte("2"),
			"c.png": []byte("3"),
		}, "image/png")
		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/images", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		a := newAPITest(t, UploadLimits{MaxFiles: 10, MaxFileSize: 8})

		body, ct := multipartBody(t, map[string][]byte{"a.png": []byte("way more than eight bytes")}, "image/png")
		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/images", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty form", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		body, ct := multipartBody(t, nil, "image/png")
		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/images", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown location", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		body, ct := multipartBody(t, map[string][]byte{"a.png": []byte("x")}, "image/png")
		req := httptest.NewRequest(http.MethodPost, "/locations/"+uuid.NewString()+"/images", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteEndpoint(t *testing.T) {
	uploadOne := func(t *testing.T, a *apiTest) *mediastore.Image {
		t.Helper()
		images, err := a.svc.UploadImages(context.Background(), mediastore.UploadImagesRequest{
			LocationID: a.locID,
			UploaderID: a.userID,
			Files: []mediastore.FileInput{{
				FileName:    "a.png",
				ContentType: "image/png",
				Data:        []byte("data"),
			}},
		})
		require.NoError(t, err)
		return images[0]
	}

	t.Run("owner deletes", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())
		img := uploadOne(t, a)

		req := httptest.NewRequest(http.MethodDelete, "/images/"+img.ID.String(), nil)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusOK, rec.Code)

		_, err := a.svc.GetImage(context.Background(), img.ID)
		require.ErrorIs(t, err, mediastore.ErrImageNotFound)
	})

	t.Run("non-owner gets forbidden", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())
		img := uploadOne(t, a)

		req := httptest.NewRequest(http.MethodDelete, "/images/"+img.ID.String(), nil)
		req.Header.Set("Authorization", "Bearer "+a.token(t, uuid.New(), "user"))

		rec := a.do(req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin deletes any image", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())
		img := uploadOne(t, a)

		req := httptest.NewRequest(http.MethodDelete, "/images/"+img.ID.String(), nil)
		req.Header.Set("Authorization", "Bearer "+a.token(t, uuid.New(), "admin"))

		rec := a.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing image", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		req := httptest.NewRequest(http.MethodDelete, "/images/"+uuid.NewString(), nil)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid image id", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		req := httptest.NewRequest(http.MethodDelete, "/images/not-a-uuid", nil)
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListEndpointsArePublic(t *testing.T) {
	a := newAPITest(t, DefaultUploadLimits())

	for _, path := range []string{
		"/locations",
		"/locations/" + a.locID.String(),
		"/locations/" + a.locID.String() + "/images",
		"/locations/" + a.locID.String() + "/reviews",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := a.do(req)
		require.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
	}
}

func TestListImagesEndpoint(t *testing.T) {
	a := newAPITest(t, DefaultUploadLimits())

	images, err := a.svc.UploadImages(context.Background(), mediastore.UploadImagesRequest{
		LocationID: a.locID,
		UploaderID: a.userID,
		Files: []mediastore.FileInput{
			{FileName: "a.png", ContentType: "image/png", Data: []byte("1")},
			{FileName: "b.png", ContentType: "image/png", Data: []byte("2")},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/locations/"+a.locID.String()+"/images", nil)
	rec := a.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []ImageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	require.Equal(t, images[0].ID.String(), resp[0].ID)
	require.Equal(t, images[1].ID.String(), resp[1].ID)
}

func TestLocationEndpoints(t *testing.T) {
	t.Run("create requires name and coordinates", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		req := httptest.NewRequest(http.MethodPost, "/locations",
			bytes.NewReader([]byte(`{"name":"No Coords"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create location", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		req := httptest.NewRequest(http.MethodPost, "/locations",
			bytes.NewReader([]byte(`{"name":"New Spot","longitude":-120.5,"latitude":43.8}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp LocationResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "New Spot", resp.Name)
		require.Equal(t, a.userID.String(), resp.CreatedBy)
		require.True(t, resp.IsUserGenerated)
	})

	t.Run("create review", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/reviews",
			bytes.NewReader([]byte(`{"rating":5,"body":"great views"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp ReviewResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, 5, resp.Rating)
		require.Equal(t, a.userID.String(), resp.AuthorID)
	})

	t.Run("review rating out of range", func(t *testing.T) {
		a := newAPITest(t, DefaultUploadLimits())

		req := httptest.NewRequest(http.MethodPost, "/locations/"+a.locID.String()+"/reviews",
			bytes.NewReader([]byte(`{"rating":9}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.token(t, a.userID, ""))

		rec := a.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
