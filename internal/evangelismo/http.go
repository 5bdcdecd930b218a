package evangelismo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/missaoglobal/outreach/internal/http/middleware"
)

// Handler orquestra rotas dos eventos de evangelismo.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evangelismos", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(httpmiddleware.RequireRoles("admin", "lider")).Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.With(httpmiddleware.RequireRoles("admin", "lider")).Patch("/{id}", h.handleUpdate)
		r.With(httpmiddleware.RequireAdmin).Delete("/{id}", h.handleDelete)
		r.Post("/{id}/apply", h.handleApply)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(httpmiddleware.RequireRoles("admin", "lider"))
		r.Get("/evangelismos/{id}/aplicacoes", h.handleListAplicacoes)
		r.Patch("/aplicacoes/{id}", h.handleUpdateAplicacao)
		r.With(httpmiddleware.RequireAdmin).Patch("/evangelismos/{id}/materiais", h.handleSetMateriais)
	})

	r.With(httpmiddleware.RequireRoles("lider")).
		Patch("/lider/evangelismos/{id}/materiais", h.handleSetMateriais)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	eventos, err := h.service.List(ctx, r.URL.Query().Get("status"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if eventos == nil {
		eventos = []Evangelismo{}
	}

	logRequest(ctx, "GET /evangelismos", start)
	writeJSON(w, http.StatusOK, map[string]any{"evangelismos": eventos})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var payload struct {
		Title           string  `json:"title"`
		Date            string  `json:"evangelismoDate"`
		TimeStart       *string `json:"evangelismoTimeStart"`
		TimeEnd         *string `json:"evangelismoTimeEnd"`
		Location        string  `json:"location"`
		LeadersNeeded   int     `json:"leadersNeeded"`
		Evangelists     int     `json:"evangelists"`
		Description     string  `json:"description"`
		AdditionalNotes string  `json:"additionalNotes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Date) == "" ||
		strings.TrimSpace(payload.Location) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "título, data e localização são obrigatórios", nil)
		return
	}

	id, folderID, err := h.service.Create(ctx, CreateInput{
		Title:           payload.Title,
		Date:            payload.Date,
		TimeStart:       payload.TimeStart,
		TimeEnd:         payload.TimeEnd,
		Location:        payload.Location,
		LeadersNeeded:   payload.LeadersNeeded,
		Evangelists:     payload.Evangelists,
		Description:     payload.Description,
		AdditionalNotes: payload.AdditionalNotes,
	})
	if err != nil {
		writeInternalError(w, err)
		return
	}

	logRequest(ctx, "POST /evangelismos", start)
	writeJSON(w, http.StatusCreated, map[string]any{
		"evangelismoId": id,
		"driveFolderId": folderID,
		"message":       "Evangelismo criado com sucesso",
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	evento, aplicacoes, err := h.service.Get(ctx, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if aplicacoes == nil {
		aplicacoes = []Aplicacao{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"evangelismo": evento, "aplicacoes": aplicacoes})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Title       string  `json:"title"`
		Date        string  `json:"evangelismoDate"`
		TimeStart   *string `json:"evangelismoTimeStart"`
		TimeEnd     *string `json:"evangelismoTimeEnd"`
		Location    string  `json:"location"`
		Description string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Date) == "" ||
		strings.TrimSpace(payload.Location) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "título, data e localização são obrigatórios", nil)
		return
	}

	if err := h.service.Update(ctx, id, CreateInput{
		Title:       payload.Title,
		Date:        payload.Date,
		TimeStart:   payload.TimeStart,
		TimeEnd:     payload.TimeEnd,
		Location:    payload.Location,
		Description: payload.Description,
	}); err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "PATCH /evangelismos", start)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Evangelismo atualizado com sucesso"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "DELETE /evangelismos", start)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Evangelismo deletado com sucesso"})
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Tipo string `json:"tipo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	switch payload.Tipo {
	case "evangelista", "intercessor", "lider":
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION", "tipo inválido", nil)
		return
	}

	aplicacaoID, err := h.service.Apply(ctx, id, httpmiddleware.GetSubject(ctx), payload.Tipo)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /evangelismos/apply", start)
	writeJSON(w, http.StatusCreated, map[string]any{"aplicacaoId": aplicacaoID})
}

func (h *Handler) handleListAplicacoes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	aplicacoes, err := h.service.ListAplicacoes(ctx, id)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if aplicacoes == nil {
		aplicacoes = []Aplicacao{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"aplicacoes": aplicacoes})
}

func (h *Handler) handleUpdateAplicacao(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	switch payload.Status {
	case "pendente", "aprovado", "recusado":
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION", "status inválido", nil)
		return
	}

	if err := h.service.SetAplicacaoStatus(ctx, id, payload.Status); err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "PATCH /admin/aplicacoes", start)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Aplicação " + payload.Status})
}

func (h *Handler) handleSetMateriais(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Materiais []string `json:"materiais"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.service.SetMateriais(ctx, id, payload.Materiais); err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "PATCH /evangelismos/materiais", start)
	writeJSON(w, http.StatusOK, map[string]any{"materiais": payload.Materiais})
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Evangelismo não encontrado", nil)
		return
	}
	writeInternalError(w, err)
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("evangelismo handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func logRequest(ctx context.Context, label string, start time.Time) {
	logger := log.Ctx(ctx)
	if logger == nil {
		logger = &log.Logger
	}
	reqID := chimiddleware.GetReqID(ctx)
	logger.Info().Str("request_id", reqID).Str("subject", httpmiddleware.GetSubject(ctx)).
		Str("label", label).Dur("duration", time.Since(start)).Msg("evangelismo_request")
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
