package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/community-eats/apiserver/internal/services"
	"github.com/community-eats/apiserver/internal/store"
	"github.com/community-eats/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 16 << 20
	maxImageBytes      = 16 << 20
	formFieldImage     = "image"
)

// SupplyHandler provides HTTP handlers for the supply catalog.
type SupplyHandler struct {
	supplyService *services.SupplyService
}

// NewSupplyHandler constructs a handler with the provided service.
func NewSupplyHandler(supplyService *services.SupplyService) *SupplyHandler {
	return &SupplyHandler{supplyService: supplyService}
}

// SupplyRouter registers supply routes on the given router.
func SupplyRouter(r chi.Router, supplyService *services.SupplyService) {
	handler := NewSupplyHandler(supplyService)

	r.Get("/", handler.ListSupplies)
	r.Post("/", handler.CreateSupply)
	r.Route("/{supplyID}", func(r chi.Router) {
		r.Get("/", handler.GetSupply)
		r.Patch("/", handler.UpdateSupply)
		r.Delete("/", handler.DeleteSupply)
		r.Post("/image", handler.UploadImage)
	})
}

// SupplyUpsertRequest is the JSON payload for create and update.
type SupplyUpsertRequest struct {
	ImageLink   string         `json:"imageLink"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Quantity    types.Quantity `json:"quantity"`
	Description string         `json:"description"`
}

func (h *SupplyHandler) CreateSupply(w http.ResponseWriter, r *http.Request) {
	var req SupplyUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	_, err := h.supplyService.Create(r.Context(), types.Supply{
		ImageLink:   req.ImageLink,
		Title:       req.Title,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			writeMessage(w, http.StatusBadRequest, "Not enough data to create Supplies")
			return
		}
		writeInternalError(w)
		return
	}

	writeStatus(w, http.StatusCreated, true, "Supplies added successfully")
}

// ListSupplies returns every supply as a bare JSON array.
func (h *SupplyHandler) ListSupplies(w http.ResponseWriter, r *http.Request) {
	supplies, err := h.supplyService.List(r.Context())
	if err != nil {
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, supplies)
}

func (h *SupplyHandler) GetSupply(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSupplyID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "supplies not found")
		return
	}

	supply, err := h.supplyService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "supplies not found")
			return
		}
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, supply)
}

// UpdateSupply replaces all five fields of an existing supply.
func (h *SupplyHandler) UpdateSupply(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSupplyID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "supplies not found")
		return
	}

	var req SupplyUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	_, err := h.supplyService.Update(r.Context(), types.Supply{
		ID:          id,
		ImageLink:   req.ImageLink,
		Title:       req.Title,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "supplies not found")
			return
		}
		writeInternalError(w)
		return
	}

	writeStatus(w, http.StatusOK, true, "supplies updated successfully")
}

func (h *SupplyHandler) DeleteSupply(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSupplyID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Supplies not found")
		return
	}

	if err := h.supplyService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Supplies not found")
			return
		}
		writeInternalError(w)
		return
	}

	writeStatus(w, http.StatusOK, true, "Supplies deleted successfully")
}

// UploadImage stores a multipart image in object storage and points the
// supply's imageLink at it.
func (h *SupplyHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSupplyID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "supplies not found")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	image, err := parseImageFile(r.MultipartForm)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.supplyService.AttachImage(r.Context(), id, image.Filename, image.ContentType, image.Data)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "supplies not found")
		case errors.Is(err, services.ErrInvalidImage):
			writeMessage(w, http.StatusBadRequest, "uploaded file must be an image")
		case errors.Is(err, services.ErrStorageUnavailable):
			writeMessage(w, http.StatusServiceUnavailable, "image storage is not configured")
		default:
			writeInternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// ImageFile represents an uploaded supply image.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// parseSupplyID reports false for anything that cannot be a stored id; the
// caller collapses that into the same not-found response as an unknown id.
func parseSupplyID(r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "supplyID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func parseImageFile(form *multipart.Form) (ImageFile, error) {
	if form == nil {
		return ImageFile{}, errors.New("missing form data")
	}

	files := form.File[formFieldImage]
	if len(files) == 0 {
		return ImageFile{}, errors.New("image file is required")
	}
	if len(files) > 1 {
		return ImageFile{}, errors.New("only one image file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return ImageFile{}, fmt.Errorf("failed to read image file: %w", err)
	}

	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return ImageFile{}, err
	}

	contentType := strings.TrimSpace(fileHeader.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return ImageFile{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
