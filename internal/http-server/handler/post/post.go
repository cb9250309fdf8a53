package post

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"insta-poster/internal/domain"
	"insta-poster/internal/http-server/handler/post/dto"
	"insta-poster/internal/repository/queue"
	"insta-poster/internal/usecase/compliance"
	"insta-poster/internal/usecase/normalize"
	"insta-poster/internal/usecase/poster"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const maxMemory = 32 << 20

type PostHandler struct {
	usecase  posterUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewPostHandler(usecase posterUsecase, logger *zlog.Zerolog) *PostHandler {
	return &PostHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

// PostNext triggers one posting cycle. The body is optional; when present it
// may override the caption or request a dry run.
func (h *PostHandler) PostNext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.PostRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
		if err := h.validate.Struct(req); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid request", err)
			return
		}
	}

	record, err := h.usecase.PostNext(ctx, poster.PostOptions{
		Caption: req.Caption,
		DryRun:  req.DryRun,
	})
	if err != nil {
		h.handlePostError(w, err)
		return
	}

	message := "Image published and removed from queue"
	if record.Status == domain.StatusValidated {
		message = "Image validated (dry run), queue unchanged"
	}

	h.respondJSON(w, http.StatusOK, dto.PostResponse{
		Message: message,
		Record:  record,
	})
}

// InspectNext reports the compliance of the oldest pending image.
func (h *PostHandler) InspectNext(w http.ResponseWriter, r *http.Request) {
	info, err := h.usecase.InspectNext(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueEmpty):
			h.respondError(w, http.StatusNotFound, "Queue is empty", nil)
		case errors.Is(err, compliance.ErrUnreadableImage):
			h.respondError(w, http.StatusBadRequest, "Oldest object is not a readable image", err)
		default:
			h.logger.Error().Err(err).Msg("Failed to inspect queue")
			h.respondError(w, http.StatusInternalServerError, "Failed to inspect queue", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, info)
}

// Enqueue accepts a multipart image upload into the posting queue.
func (h *PostHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, domain.DefaultMaxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required", nil)
		return
	}
	defer file.Close()

	if err := h.validateFile(handler); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", handler.Filename).Msg("Failed to read file")
		h.respondError(w, http.StatusInternalServerError, "Failed to read file", err)
		return
	}

	key, err := h.usecase.Enqueue(ctx, handler.Filename, bytes.NewReader(data),
		int64(len(data)), handler.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error().Err(err).Str("filename", handler.Filename).Msg("Enqueue failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to enqueue file", err)
		return
	}

	h.respondJSON(w, http.StatusAccepted, dto.EnqueueResponse{
		Key:       key,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	})
}

// History lists recent posting records.
func (h *PostHandler) History(w http.ResponseWriter, r *http.Request) {
	req := dto.HistoryRequest{Limit: 20, Offset: 0}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		req.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid offset", nil)
			return
		}
		req.Offset = offset
	}

	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pagination", err)
		return
	}

	records, err := h.usecase.History(r.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list history")
		h.respondError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.HistoryResponse{Posts: records})
}

// handlePostError maps cycle failures onto status codes: an empty queue is a
// successful no-op, bad input is the client's problem, everything else is a
// server-side failure.
func (h *PostHandler) handlePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrQueueEmpty):
		h.respondJSON(w, http.StatusOK, dto.PostResponse{Message: "No images found in queue"})
	case errors.Is(err, normalize.ErrProcessingFailed),
		errors.Is(err, compliance.ErrUnreadableImage):
		h.logger.Warn().Err(err).Msg("Pending object rejected")
		h.respondError(w, http.StatusBadRequest, "Image could not be processed", err)
	case errors.Is(err, normalize.ErrInvariantViolated):
		h.logger.Error().Err(err).Msg("Normalizer invariant violated")
		h.respondError(w, http.StatusInternalServerError, "Internal processing defect", err)
	case errors.Is(err, poster.ErrPublishFailed):
		h.logger.Error().Err(err).Msg("Publish failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to publish image", err)
	default:
		h.logger.Error().Err(err).Msg("Posting cycle failed")
		h.respondError(w, http.StatusInternalServerError, "Posting cycle failed", err)
	}
}

func (h *PostHandler) validateFile(handler *multipart.FileHeader) error {
	if handler.Size > domain.DefaultMaxUploadSize {
		return fmt.Errorf("file is too large (max %d MB)", domain.DefaultMaxUploadSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file format, allowed: jpg, jpeg, png, gif, webp, bmp, tiff")
	}

	if !strings.HasPrefix(handler.Header.Get("Content-Type"), "image/") {
		return fmt.Errorf("file must be an image")
	}

	return nil
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
}

func (h *PostHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PostHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
