package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// UploadLimits bounds a single upload request. Validation happens here,
// before the orchestrator; the service assumes inputs are already valid.
type UploadLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

// DefaultUploadLimits matches the product defaults: at most 10 files of
// 10MiB each.
func DefaultUploadLimits() UploadLimits {
	return UploadLimits{MaxFiles: 10, MaxFileSize: 10 << 20}
}

// allowedContentTypes is the MIME allow-list for uploads.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// multipartFieldName is the form field carrying the files.
const multipartFieldName = "images"

// ImagesHandler handles image upload, listing and deletion endpoints
type ImagesHandler struct {
	service mediastore.Service
	limits  UploadLimits
}

// NewImagesHandler creates a new images handler
func NewImagesHandler(service mediastore.Service, limits UploadLimits) *ImagesHandler {
	if limits.MaxFiles <= 0 || limits.MaxFileSize <= 0 {
		limits = DefaultUploadLimits()
	}
	return &ImagesHandler{service: service, limits: limits}
}

// ImageResponse is the response body for one image
type ImageResponse struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	StorageKey string    `json:"storage_key"`
	LocationID string    `json:"location_id"`
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toImageResponse(img *mediastore.Image) ImageResponse {
	return ImageResponse{
		ID:         img.ID.String(),
		URL:        img.URL,
		StorageKey: img.StorageKey,
		LocationID: img.LocationID.String(),
		OwnerID:    img.OwnerID.String(),
		CreatedAt:  img.CreatedAt,
	}
}

// Upload handles POST /locations/{locationID}/images
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid location id"})
		return
	}

	requester, ok := RequesterFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "authentication required"})
		return
	}

	if _, err := h.service.GetLocation(r.Context(), locationID); err != nil {
		respondError(w, r, err)
		return
	}

	files, err := h.readFiles(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	records, err := h.service.UploadImages(r.Context(), mediastore.UploadImagesRequest{
		LocationID: locationID,
		UploaderID: requester.ID,
		Files:      files,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]ImageResponse, len(records))
	for i, img := range records {
		resp[i] = toImageResponse(img)
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// readFiles pulls the multipart files out of the request and applies the
// count, size and MIME-type limits.
func (h *ImagesHandler) readFiles(r *http.Request) ([]mediastore.FileInput, error) {
	if err := r.ParseMultipartForm(h.limits.MaxFileSize); err != nil {
		return nil, mediastore.ErrNoFilesProvided
	}

	headers := r.MultipartForm.File[multipartFieldName]
	if len(headers) == 0 {
		return nil, mediastore.ErrNoFilesProvided
	}
	if len(headers) > h.limits.MaxFiles {
		return nil, fmt.Errorf("%w: got %d, limit is %d", mediastore.ErrTooManyFiles, len(headers), h.limits.MaxFiles)
	}

	files := make([]mediastore.FileInput, 0, len(headers))
	for _, header := range headers {
		contentType := header.Header.Get("Content-Type")
		if !allowedContentTypes[contentType] {
			return nil, fmt.Errorf("%w: %s", mediastore.ErrUnsupportedContentType, contentType)
		}
		if header.Size > h.limits.MaxFileSize {
			return nil, fmt.Errorf("%w: %s", mediastore.ErrFileTooLarge, header.Filename)
		}

		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		data, err := io.ReadAll(io.LimitReader(file, h.limits.MaxFileSize+1))
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file: %w", err)
		}
		if int64(len(data)) > h.limits.MaxFileSize {
			return nil, fmt.Errorf("%w: %s", mediastore.ErrFileTooLarge, header.Filename)
		}

		files = append(files, mediastore.FileInput{
			FileName:    header.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return files, nil
}

// List handles GET /locations/{locationID}/images
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid location id"})
		return
	}

	images, err := h.service.ListImages(r.Context(), locationID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]ImageResponse, len(images))
	for i, img := range images {
		resp[i] = toImageResponse(img)
	}
	render.JSON(w, r, resp)
}

// Delete handles DELETE /images/{imageID}
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(chi.URLParam(r, "imageID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid image id"})
		return
	}

	requester, ok := RequesterFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "authentication required"})
		return
	}

	err = h.service.DeleteImage(r.Context(), mediastore.DeleteImageRequest{
		ImageID:       imageID,
		RequesterID:   requester.ID,
		RequesterRole: requester.Role,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"message": "image deleted successfully"})
}
