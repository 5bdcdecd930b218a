package testemunho

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/missaoglobal/outreach/internal/http/middleware"
)

const maxUploadBytes = 50 << 20

// Handler orquestra rotas de testemunhos e uploads de mídia.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/testemunhos", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
	})
	r.Get("/evangelismos/{id}/testemunhos", h.handleListByEvangelismo)
	r.Post("/upload-media", h.handleUploadMedia)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var payload struct {
		EvangelismoID  int64  `json:"evangelismoId"`
		Title          string `json:"title"`
		Date           string `json:"date"`
		PersonalInfo   string `json:"personalInfo"`
		ProfileInfo    string `json:"profileInfo"`
		EventInfo      string `json:"eventInfo"`
		DecisionInfo   string `json:"decisionInfo"`
		SummaryText    string `json:"summaryText"`
		SummaryNative  string `json:"summaryNative"`
		SummaryEnglish string `json:"summaryEnglish"`
		NativeLanguage string `json:"nativeLanguage"`
		PhotosUrls     string `json:"photosUrls"`
		VideosUrls     string `json:"videosUrls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if payload.EvangelismoID == 0 || payload.Title == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "Evangelismo ID e título são obrigatórios", nil)
		return
	}

	result, err := h.service.Create(ctx, CreateInput{
		EvangelismoID:  payload.EvangelismoID,
		Title:          payload.Title,
		Date:           payload.Date,
		PersonalInfo:   payload.PersonalInfo,
		ProfileInfo:    payload.ProfileInfo,
		EventInfo:      payload.EventInfo,
		DecisionInfo:   payload.DecisionInfo,
		SummaryText:    payload.SummaryText,
		SummaryNative:  payload.SummaryNative,
		SummaryEnglish: payload.SummaryEnglish,
		NativeLanguage: payload.NativeLanguage,
		PhotosUrls:     payload.PhotosUrls,
		VideosUrls:     payload.VideosUrls,
	})
	if err != nil {
		if errors.Is(err, ErrEvangelismoNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Evangelismo não encontrado", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	logRequest(ctx, "POST /testemunhos", start)
	writeJSON(w, http.StatusCreated, map[string]any{
		"testemunhoId":         result.TestemunhoID,
		"driveFolderId":        result.DriveFolderID,
		"photosFolderId":       result.PhotosFolderID,
		"videosFolderId":       result.VideosFolderID,
		"resumoDocxUrl":        result.ResumoDocxURL,
		"resumoEnglishDocxUrl": result.ResumoEnglishDocxURL,
		"message":              "Testemunho criado com sucesso",
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	t, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Testemunho não encontrado", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"testemunho": t})
}

func (h *Handler) handleListByEvangelismo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	itens, err := h.service.ListByEvangelismo(ctx, id)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if itens == nil {
		itens = []Testemunho{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"testemunhos": itens})
}

func (h *Handler) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "arquivo não fornecido", nil)
		return
	}
	defer file.Close()

	testemunhoID, err := strconv.ParseInt(r.FormValue("testemunhoId"), 10, 64)
	if err != nil || testemunhoID == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION", "Testemunho ID é obrigatório", nil)
		return
	}

	mediaType := r.FormValue("mediaType")
	if mediaType != "photo" && mediaType != "video" {
		writeError(w, http.StatusBadRequest, "VALIDATION", `media type deve ser "photo" ou "video"`, nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeInternalError(w, err)
		return
	}

	uploaded, err := h.service.UploadMedia(ctx, UploadMediaInput{
		TestemunhoID: testemunhoID,
		MediaType:    mediaType,
		FileName:     header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Body:         body,
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Testemunho não encontrado", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	logRequest(ctx, "POST /upload-media", start)
	writeJSON(w, http.StatusOK, map[string]any{
		"fileId":      uploaded.ID,
		"fileName":    uploaded.Name,
		"webViewLink": uploaded.WebViewLink,
		"mimeType":    uploaded.MimeType,
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("testemunho handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func logRequest(ctx context.Context, label string, start time.Time) {
	logger := log.Ctx(ctx)
	if logger == nil {
		logger = &log.Logger
	}
	reqID := chimiddleware.GetReqID(ctx)
	logger.Info().Str("request_id", reqID).Str("subject", httpmiddleware.GetSubject(ctx)).
		Str("label", label).Dur("duration", time.Since(start)).Msg("testemunho_request")
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
