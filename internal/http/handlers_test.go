package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/missaoglobal/outreach/internal/ai"
	"github.com/missaoglobal/outreach/internal/drive"
)

type stubTextAI struct {
	improved   string
	testemunho *ai.Testemunho
	err        error
	lastNotes  string
}

func (s *stubTextAI) ImproveTestimony(ctx context.Context, text string, structured bool, lang string) string {
	if s.improved != "" {
		return s.improved
	}
	return text
}

func (s *stubTextAI) GerarTestemunho(ctx context.Context, notes, lang string) (*ai.Testemunho, error) {
	s.lastNotes = notes
	if s.err != nil {
		return nil, s.err
	}
	return s.testemunho, nil
}

type stubGenAI struct {
	text      string
	summary   string
	bilingual ai.Bilingual
	agenda    *ai.PrayerAgenda
	err       error
}

func (s *stubGenAI) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubGenAI) SummarizeTestimony(ctx context.Context, in ai.SummaryInput, teamName, lang string) string {
	return s.summary
}

func (s *stubGenAI) SummarizeBilingual(ctx context.Context, in ai.SummaryInput, teamName, nativeLang string) (ai.Bilingual, error) {
	if s.err != nil {
		return ai.Bilingual{}, s.err
	}
	return s.bilingual, nil
}

func (s *stubGenAI) GeneratePrayerAgenda(ctx context.Context, topic string) (*ai.PrayerAgenda, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.agenda, nil
}

func (s *stubGenAI) Translate(ctx context.Context, text, targetLang string) string {
	if s.text != "" {
		return s.text
	}
	return text
}

type stubStorage struct {
	files      []drive.File
	uploads    []drive.UploadInput
	deleted    []string
	folderName string
	err        error
}

func (s *stubStorage) CreateFolder(ctx context.Context, name, parentID string) (drive.Folder, error) {
	if s.err != nil {
		return drive.Folder{}, s.err
	}
	s.folderName = name
	return drive.Folder{ID: "folder-1", Name: name}, nil
}

func (s *stubStorage) UploadFile(ctx context.Context, input drive.UploadInput) (drive.File, error) {
	if s.err != nil {
		return drive.File{}, s.err
	}
	s.uploads = append(s.uploads, input)
	return drive.File{ID: "file-1", Name: input.Name, MimeType: input.MimeType, WebViewLink: "https://drive.example/file-1"}, nil
}

func (s *stubStorage) ListFiles(ctx context.Context, folderID string) ([]drive.File, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.files, nil
}

func (s *stubStorage) DeleteFile(ctx context.Context, fileID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, fileID)
	return nil
}

func newTestHandler(textAI TextAI, genAI GenerativeAI, storage drive.Storage) *Handler {
	return &Handler{textAI: textAI, genAI: genAI, storage: storage}
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("resposta não é JSON: %v", err)
	}
	return envelope.Data
}

func TestImproveTestimony(t *testing.T) {
	h := newTestHandler(&stubTextAI{improved: "Relato melhorado."}, &stubGenAI{}, &stubStorage{})

	rec := postJSON(t, h.ImproveTestimony, "/api/improve-testimony", map[string]any{"text": "relato crú"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if data := decodeData(t, rec); data["improvedText"] != "Relato melhorado." {
		t.Fatalf("texto errado: %v", data)
	}

	rec = postJSON(t, h.ImproveTestimony, "/api/improve-testimony", map[string]any{"text": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("texto vazio deveria dar 400, veio %d", rec.Code)
	}
}

func TestGerarTestemunho(t *testing.T) {
	textAI := &stubTextAI{testemunho: &ai.Testemunho{Titulo: "Encontro na Praça", Narrativa: "Naquele dia..."}}
	h := newTestHandler(textAI, &stubGenAI{}, &stubStorage{})

	rec := postJSON(t, h.GerarTestemunho, "/api/gerarTestemunho", map[string]any{
		"nome": "Maria", "decisao": "aceitou", "historia": "abordada na feira",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	if data["titulo"] != "Encontro na Praça" {
		t.Fatalf("titulo errado: %v", data["titulo"])
	}
	if data["data"] != "Não informada" || data["nacionalidade"] != "Não informada" {
		t.Fatalf("defaults errados: %v", data)
	}
	if textAI.lastNotes == "" {
		t.Fatalf("notas não chegaram ao provedor")
	}
}

func TestGerarTestemunhoValida(t *testing.T) {
	h := newTestHandler(&stubTextAI{}, &stubGenAI{}, &stubStorage{})

	rec := postJSON(t, h.GerarTestemunho, "/api/gerarTestemunho", map[string]any{"nome": "Maria"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGerarTestemunhoTituloDefault(t *testing.T) {
	h := newTestHandler(&stubTextAI{testemunho: &ai.Testemunho{Narrativa: "Narrativa sem título."}}, &stubGenAI{}, &stubStorage{})

	rec := postJSON(t, h.GerarTestemunho, "/api/gerarTestemunho", map[string]any{
		"nome": "Maria", "decisao": "aceitou", "historia": "feira",
	})
	if data := decodeData(t, rec); data["titulo"] != "Testemunho" {
		t.Fatalf("título default errado: %v", data["titulo"])
	}
}

func TestAIErroMapeiaStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nao-configurada", ai.ErrNotConfigured, http.StatusServiceUnavailable},
		{"provedor", errors.New("status 500"), http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubTextAI{err: tc.err}, &stubGenAI{}, &stubStorage{})
			rec := postJSON(t, h.GerarTestemunho, "/api/gerarTestemunho", map[string]any{
				"nome": "Maria", "decisao": "aceitou", "historia": "feira",
			})
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestTranscribe(t *testing.T) {
	h := newTestHandler(&stubTextAI{}, &stubGenAI{text: "texto transcrito"}, &stubStorage{})

	audio := base64.StdEncoding.EncodeToString([]byte("webm-bytes"))
	rec := postJSON(t, h.Transcribe, "/api/transcribe", map[string]any{"audio": audio, "mimeType": "audio/webm"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if data := decodeData(t, rec); data["text"] != "texto transcrito" {
		t.Fatalf("transcrição errada: %v", data)
	}

	rec = postJSON(t, h.Transcribe, "/api/transcribe", map[string]any{"audio": "%%%"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("base64 inválido deveria dar 400, veio %d", rec.Code)
	}
}

func TestSummarizeMonoEBilingue(t *testing.T) {
	genAI := &stubGenAI{summary: "Resumo nativo.", bilingual: ai.Bilingual{Native: "Resumo.", English: "Summary."}}
	h := newTestHandler(&stubTextAI{}, genAI, &stubStorage{})

	rec := postJSON(t, h.Summarize, "/api/summarize", map[string]any{"title": "Maria", "language": "pt-BR"})
	if data := decodeData(t, rec); data["summary"] != "Resumo nativo." {
		t.Fatalf("resumo mono errado: %v", data)
	}

	rec = postJSON(t, h.Summarize, "/api/summarize", map[string]any{"title": "Maria", "language": "pt-BR", "bilingual": true})
	data := decodeData(t, rec)
	if data["summaryNative"] != "Resumo." || data["summaryEnglish"] != "Summary." {
		t.Fatalf("resumo bilíngue errado: %v", data)
	}
}

func TestSummarizeBilingueFalhaInteira(t *testing.T) {
	h := newTestHandler(&stubTextAI{}, &stubGenAI{err: errors.New("status 500")}, &stubStorage{})

	rec := postJSON(t, h.Summarize, "/api/summarize", map[string]any{"title": "Maria", "bilingual": true})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rec.Code)
	}
}

func TestPrayerAgenda(t *testing.T) {
	agenda := &ai.PrayerAgenda{Title: "Semana de Oração", Days: []ai.AgendaDay{{ID: "mon", Label: "SEGUNDA"}}}
	h := newTestHandler(&stubTextAI{}, &stubGenAI{agenda: agenda}, &stubStorage{})

	rec := postJSON(t, h.PrayerAgenda, "/api/prayer-agenda", map[string]any{"topic": "família"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = postJSON(t, h.PrayerAgenda, "/api/prayer-agenda", map[string]any{"topic": " "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("tema vazio deveria dar 400, veio %d", rec.Code)
	}
}

func TestDriveUpload(t *testing.T) {
	storage := &stubStorage{}
	h := newTestHandler(&stubTextAI{}, &stubGenAI{}, storage)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, _ := form.CreateFormFile("file", "banner.png")
	_, _ = part.Write([]byte("png-bytes"))
	_ = form.WriteField("parentId", "folder-raiz")
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/drive/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	h.DriveUpload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(storage.uploads) != 1 {
		t.Fatalf("esperava 1 upload, veio %d", len(storage.uploads))
	}
	up := storage.uploads[0]
	if up.ParentID != "folder-raiz" || up.Description != "Testimony Media" {
		t.Fatalf("upload errado: %+v", up)
	}
}

func TestDriveListDevolveListaVazia(t *testing.T) {
	h := newTestHandler(&stubTextAI{}, &stubGenAI{}, &stubStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/drive/list", nil)
	rec := httptest.NewRecorder()
	h.DriveList(rec, req)

	var envelope struct {
		Data struct {
			Files []drive.File `json:"files"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("resposta não é JSON: %v", err)
	}
	if envelope.Data.Files == nil {
		t.Fatalf("lista deveria ser vazia, não nula")
	}
}

func TestDriveDelete(t *testing.T) {
	storage := &stubStorage{}
	h := newTestHandler(&stubTextAI{}, &stubGenAI{}, storage)

	r := chi.NewRouter()
	r.Delete("/api/drive/delete/{fileId}", h.DriveDelete)

	req := httptest.NewRequest(http.MethodDelete, "/api/drive/delete/file-7", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "file-7" {
		t.Fatalf("delete errado: %v", storage.deleted)
	}
}

func TestDriveCreateFolder(t *testing.T) {
	storage := &stubStorage{}
	h := newTestHandler(&stubTextAI{}, &stubGenAI{}, storage)

	rec := postJSON(t, h.DriveCreateFolder, "/api/drive/create-folder", map[string]any{"name": "Feira | 2026-10-01"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if data := decodeData(t, rec); data["folderId"] != "folder-1" {
		t.Fatalf("pasta errada: %v", data)
	}

	rec = postJSON(t, h.DriveCreateFolder, "/api/drive/create-folder", map[string]any{"parentId": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("nome vazio deveria dar 400, veio %d", rec.Code)
	}
}

func TestDriveErroMapeiaStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nao-configurado", drive.ErrNotConfigured, http.StatusServiceUnavailable},
		{"provedor", errors.New("status 500"), http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubTextAI{}, &stubGenAI{}, &stubStorage{err: tc.err})

			req := httptest.NewRequest(http.MethodGet, "/api/drive/list", nil)
			rec := httptest.NewRecorder()
			h.DriveList(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}
