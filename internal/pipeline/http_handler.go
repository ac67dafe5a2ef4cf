package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

// Handler exposes the pipeline's boundary operations over HTTP.
type Handler struct {
	service *Service
}

// NewHandler wraps the service for HTTP transport.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type errorResponse struct {
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
}

// Submit handles POST multipart uploads: fields "file" (required), "source"
// (mapping name, optional) and "details" (include per-record errors).
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			ErrorKind: string(KindParseError),
			Message:   fmt.Sprintf("invalid form data: %v", err),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			ErrorKind: string(KindParseError),
			Message:   fmt.Sprintf("file required: %v", err),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			ErrorKind: string(KindParseError),
			Message:   fmt.Sprintf("failed to read file: %v", err),
		})
		return
	}

	req := Request{
		FileName:       header.Filename,
		MappingSource:  strings.TrimSpace(r.FormValue("source")),
		Data:           data,
		IncludeDetails: r.FormValue("details") == "true",
	}

	result, err := h.service.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type registerMappingRequest struct {
	Name    string               `json:"name"`
	Targets []domain.TargetField `json:"targets"`
}

// RegisterMapping handles POST of a mapping config as JSON.
func (h *Handler) RegisterMapping(w http.ResponseWriter, r *http.Request) {
	var payload registerMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			ErrorKind: string(KindInvalidMappingConfig),
			Message:   fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	config := domain.MappingConfig{Name: payload.Name, Targets: payload.Targets}
	if err := h.service.RegisterMapping(r.Context(), payload.Name, config); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "mapping configuration registered",
		"name":    payload.Name,
	})
}

// ListMappings handles GET of all registered configs.
func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	mappings := h.service.ListMappings()

	response := make(map[string][]domain.TargetField, len(mappings))
	for name, config := range mappings {
		response[name] = config.Targets
	}

	writeJSON(w, http.StatusOK, response)
}

func writeError(w http.ResponseWriter, err error) {
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			ErrorKind: string(KindInternal),
			Message:   err.Error(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch pipelineErr.Kind {
	case KindUnsupportedFormat, KindParseError, KindInvalidMappingConfig:
		status = http.StatusBadRequest
	case KindCancelled:
		status = http.StatusRequestTimeout
	case KindStoreError:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorResponse{
		ErrorKind: string(pipelineErr.Kind),
		Message:   pipelineErr.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
