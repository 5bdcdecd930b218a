package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/missaoglobal/outreach/internal/ai"
)

// TextAI cobre as operações de edição de texto (chat completions).
type TextAI interface {
	ImproveTestimony(ctx context.Context, text string, structured bool, lang string) string
	GerarTestemunho(ctx context.Context, notes, lang string) (*ai.Testemunho, error)
}

// GenerativeAI cobre transcrição, resumos, tradução e agenda.
type GenerativeAI interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	SummarizeTestimony(ctx context.Context, in ai.SummaryInput, teamName, lang string) string
	SummarizeBilingual(ctx context.Context, in ai.SummaryInput, teamName, nativeLang string) (ai.Bilingual, error)
	GeneratePrayerAgenda(ctx context.Context, topic string) (*ai.PrayerAgenda, error)
	Translate(ctx context.Context, text, targetLang string) string
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// ImproveTestimony melhora um relato ditado. Falha do provedor devolve
// o texto original, nunca um relato vazio.
func (h *Handler) ImproveTestimony(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text         string `json:"text"`
		IsStructured bool   `json:"isStructured"`
		Language     string `json:"language"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Text) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "texto não fornecido", nil)
		return
	}

	improved := h.textAI.ImproveTestimony(r.Context(), payload.Text, payload.IsStructured, payload.Language)
	WriteJSON(w, http.StatusOK, map[string]string{"improvedText": improved})
}

// GerarTestemunho monta um testemunho narrativo a partir de notas.
func (h *Handler) GerarTestemunho(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Data          string `json:"data"`
		Nome          string `json:"nome"`
		Nacionalidade string `json:"nacionalidade"`
		Decisao       string `json:"decisao"`
		Historia      string `json:"historia"`
		Language      string `json:"language"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if payload.Nome == "" || payload.Decisao == "" || payload.Historia == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Nome, Decisão e História são obrigatórios", nil)
		return
	}

	data := payload.Data
	if data == "" {
		data = "Não informada"
	}
	nacionalidade := payload.Nacionalidade
	if nacionalidade == "" {
		nacionalidade = "Não informada"
	}

	notes := fmt.Sprintf("Data: %s\nNome/Pessoa: %s\nNacionalidade: %s\nDecisão(es): %s\nHistória/Contexto: %s",
		data, payload.Nome, nacionalidade, payload.Decisao, payload.Historia)

	result, err := h.textAI.GerarTestemunho(r.Context(), notes, payload.Language)
	if err != nil {
		h.writeAIError(w, err)
		return
	}

	titulo := result.Titulo
	if titulo == "" {
		titulo = "Testemunho"
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"titulo":        titulo,
		"narrativa":     result.Narrativa,
		"data":          data,
		"nome":          payload.Nome,
		"nacionalidade": nacionalidade,
		"decisao":       payload.Decisao,
	})
}

// Transcribe converte áudio enviado em base64 em texto.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Audio    string `json:"audio"`
		MimeType string `json:"mimeType"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	audio, err := base64.StdEncoding.DecodeString(payload.Audio)
	if err != nil || len(audio) == 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "áudio inválido", nil)
		return
	}

	text, err := h.genAI.Transcribe(r.Context(), audio, payload.MimeType)
	if err != nil {
		h.writeAIError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Translate traduz preservando a estrutura; degrada para o original.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text           string `json:"text"`
		TargetLanguage string `json:"targetLanguage"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Text) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "texto não fornecido", nil)
		return
	}

	translated := h.genAI.Translate(r.Context(), payload.Text, payload.TargetLanguage)
	WriteJSON(w, http.StatusOK, map[string]string{"translatedText": translated})
}

// Summarize gera o resumo do testemunho. Com bilingual os dois idiomas
// vêm juntos ou a operação falha inteira.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Date               string             `json:"date"`
		Title              string             `json:"title"`
		InitialContext     string             `json:"initialContext"`
		DuringApproach     string             `json:"duringApproach"`
		EventsDuring       []string           `json:"eventsDuring"`
		TestimonyWitnessed string             `json:"testimonyWitnessed"`
		People             []ai.PersonProfile `json:"people"`
		TeamName           string             `json:"teamName"`
		Language           string             `json:"language"`
		Bilingual          bool               `json:"bilingual"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := ai.SummaryInput{
		Date:               payload.Date,
		Title:              payload.Title,
		InitialContext:     payload.InitialContext,
		DuringApproach:     payload.DuringApproach,
		EventsDuring:       payload.EventsDuring,
		TestimonyWitnessed: payload.TestimonyWitnessed,
		People:             payload.People,
	}

	if payload.Bilingual {
		result, err := h.genAI.SummarizeBilingual(r.Context(), input, payload.TeamName, payload.Language)
		if err != nil {
			h.writeAIError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{
			"summaryNative":  result.Native,
			"summaryEnglish": result.English,
		})
		return
	}

	summary := h.genAI.SummarizeTestimony(r.Context(), input, payload.TeamName, payload.Language)
	WriteJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// PrayerAgenda gera a agenda semanal de oração para um tema.
func (h *Handler) PrayerAgenda(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Topic string `json:"topic"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Topic) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "tema não fornecido", nil)
		return
	}

	agenda, err := h.genAI.GeneratePrayerAgenda(r.Context(), payload.Topic)
	if err != nil {
		h.writeAIError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"agenda": agenda})
}

func (h *Handler) writeAIError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("ai handler error")
	if errors.Is(err, ai.ErrNotConfigured) {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "IA não configurada", nil)
		return
	}
	WriteError(w, http.StatusBadGateway, "UPSTREAM", "falha no provedor de IA", nil)
}
