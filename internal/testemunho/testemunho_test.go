package testemunho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/missaoglobal/outreach/internal/docgen"
	"github.com/missaoglobal/outreach/internal/drive"
	"github.com/missaoglobal/outreach/internal/evangelismo"
)

type stubRepo struct {
	nextID    int64
	pending   []Testemunho
	completed map[int64]FolderIDs
	failed    []int64
	stored    map[int64]Testemunho
	uploads   []UploadedFile
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 10, completed: map[int64]FolderIDs{}, stored: map[int64]Testemunho{}}
}

func (s *stubRepo) InsertPending(ctx context.Context, t Testemunho) (int64, error) {
	s.nextID++
	t.ID = s.nextID
	t.Status = StatusPendente
	s.pending = append(s.pending, t)
	s.stored[t.ID] = t
	return t.ID, nil
}

func (s *stubRepo) MarkComplete(ctx context.Context, id int64, ids FolderIDs) error {
	t, ok := s.stored[id]
	if !ok {
		return errNotFound
	}
	t.Status = StatusCompleto
	t.DriveFolderID = ids.DriveFolderID
	t.PhotosFolderID = ids.PhotosFolderID
	t.VideosFolderID = ids.VideosFolderID
	s.stored[id] = t
	s.completed[id] = ids
	return nil
}

func (s *stubRepo) MarkFailed(ctx context.Context, id int64) error {
	t, ok := s.stored[id]
	if !ok {
		return errNotFound
	}
	t.Status = StatusFalhou
	s.stored[id] = t
	s.failed = append(s.failed, id)
	return nil
}

func (s *stubRepo) GetTestemunho(ctx context.Context, id int64) (Testemunho, error) {
	t, ok := s.stored[id]
	if !ok {
		return Testemunho{}, errNotFound
	}
	return t, nil
}

func (s *stubRepo) ListByEvangelismo(ctx context.Context, evangelismoID int64) ([]Testemunho, error) {
	var out []Testemunho
	for _, t := range s.stored {
		if t.EvangelismoID == evangelismoID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertUploadedFile(ctx context.Context, f UploadedFile) error {
	s.uploads = append(s.uploads, f)
	return nil
}

type stubEvents struct {
	evento evangelismo.Evangelismo
	err    error
}

func (s *stubEvents) GetEvangelismo(ctx context.Context, id int64) (evangelismo.Evangelismo, error) {
	if s.err != nil {
		return evangelismo.Evangelismo{}, s.err
	}
	return s.evento, nil
}

type folderCall struct {
	name     string
	parentID string
}

type stubStorage struct {
	folders      []folderCall
	uploads      []drive.UploadInput
	failFolderAt int
	failUploadAt int
}

func (s *stubStorage) CreateFolder(ctx context.Context, name, parentID string) (drive.Folder, error) {
	if s.failFolderAt > 0 && len(s.folders)+1 == s.failFolderAt {
		return drive.Folder{}, errors.New("provedor indisponível")
	}
	s.folders = append(s.folders, folderCall{name: name, parentID: parentID})
	return drive.Folder{ID: fmt.Sprintf("folder-%d", len(s.folders)), Name: name}, nil
}

func (s *stubStorage) UploadFile(ctx context.Context, input drive.UploadInput) (drive.File, error) {
	if s.failUploadAt > 0 && len(s.uploads)+1 == s.failUploadAt {
		return drive.File{}, errors.New("provedor indisponível")
	}
	s.uploads = append(s.uploads, input)
	id := fmt.Sprintf("file-%d", len(s.uploads))
	return drive.File{ID: id, Name: input.Name, WebViewLink: "https://drive.example/" + id}, nil
}

func (s *stubStorage) ListFiles(ctx context.Context, folderID string) ([]drive.File, error) {
	return nil, nil
}

func (s *stubStorage) DeleteFile(ctx context.Context, fileID string) error {
	return nil
}

func fakeRender(doc docgen.Testemunho) ([]byte, error) {
	return []byte("docx:" + doc.Title), nil
}

func newTestService(repo *stubRepo, storage *stubStorage) *Service {
	events := &stubEvents{evento: evangelismo.Evangelismo{
		ID: 5, Title: "Praça Central", Date: "2026-09-12", DriveFolderID: "evento-folder",
	}}
	svc := NewService(repo, events, storage, fakeRender)
	svc.now = func() time.Time { return time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateCompletaSaga(t *testing.T) {
	repo := newStubRepo()
	storage := &stubStorage{}
	svc := newTestService(repo, storage)

	result, err := svc.Create(context.Background(), CreateInput{
		EvangelismoID: 5,
		Title:         "Maria",
		SummaryNative: "Resumo nativo",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.pending) != 1 {
		t.Fatalf("esperava 1 linha pendente, veio %d", len(repo.pending))
	}
	p := repo.pending[0]
	if p.Date != "2026-09-12" {
		t.Fatalf("data default errada: %q", p.Date)
	}
	if p.NativeLanguage != "pt-BR" {
		t.Fatalf("idioma default errado: %q", p.NativeLanguage)
	}

	if len(storage.folders) != 3 {
		t.Fatalf("esperava 3 pastas, veio %d", len(storage.folders))
	}
	if storage.folders[0].name != "Maria | 2026-09-12" || storage.folders[0].parentID != "evento-folder" {
		t.Fatalf("pasta principal errada: %+v", storage.folders[0])
	}
	if storage.folders[1].name != "Photos" || storage.folders[1].parentID != result.DriveFolderID {
		t.Fatalf("subpasta Photos errada: %+v", storage.folders[1])
	}
	if storage.folders[2].name != "Videos" {
		t.Fatalf("subpasta Videos errada: %+v", storage.folders[2])
	}

	if len(storage.uploads) != 1 {
		t.Fatalf("esperava 1 documento, veio %d", len(storage.uploads))
	}
	if storage.uploads[0].Name != "Maria.docx" {
		t.Fatalf("nome do documento errado: %q", storage.uploads[0].Name)
	}

	ids, ok := repo.completed[result.TestemunhoID]
	if !ok {
		t.Fatalf("registro não foi marcado como completo")
	}
	if ids.ResumoEnglishDocxID != nil {
		t.Fatalf("não deveria haver documento em inglês")
	}
	if result.ResumoEnglishDocxURL != nil {
		t.Fatalf("URL em inglês deveria ser nula")
	}
	if len(repo.failed) != 0 {
		t.Fatalf("nenhum registro deveria ter falhado")
	}
}

func TestCreateMarcaFalhaDoProvedor(t *testing.T) {
	repo := newStubRepo()
	storage := &stubStorage{failFolderAt: 2}
	svc := newTestService(repo, storage)

	_, err := svc.Create(context.Background(), CreateInput{EvangelismoID: 5, Title: "Maria"})
	if err == nil {
		t.Fatalf("esperava erro do provedor")
	}

	if len(repo.pending) != 1 {
		t.Fatalf("linha pendente deveria existir antes da falha")
	}
	if len(repo.failed) != 1 {
		t.Fatalf("registro deveria ter sido marcado como falhou")
	}
	if len(repo.completed) != 0 {
		t.Fatalf("nada deveria estar completo")
	}
}

func TestCreateBilingue(t *testing.T) {
	repo := newStubRepo()
	storage := &stubStorage{}
	svc := newTestService(repo, storage)

	result, err := svc.Create(context.Background(), CreateInput{
		EvangelismoID:  5,
		Title:          "Maria",
		SummaryNative:  "Resumo nativo",
		SummaryEnglish: "Summary in English",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(storage.uploads) != 2 {
		t.Fatalf("esperava 2 documentos, veio %d", len(storage.uploads))
	}
	if storage.uploads[1].Name != "Maria (English).docx" {
		t.Fatalf("nome do documento em inglês errado: %q", storage.uploads[1].Name)
	}

	ids := repo.completed[result.TestemunhoID]
	if ids.ResumoEnglishDocxID == nil || *ids.ResumoEnglishDocxID != "file-2" {
		t.Fatalf("id do documento em inglês errado: %v", ids.ResumoEnglishDocxID)
	}
	if result.ResumoEnglishDocxURL == nil {
		t.Fatalf("URL em inglês deveria existir")
	}
}

func TestCreateInglesMelhorEsforco(t *testing.T) {
	repo := newStubRepo()
	storage := &stubStorage{failUploadAt: 2}
	svc := newTestService(repo, storage)

	result, err := svc.Create(context.Background(), CreateInput{
		EvangelismoID:  5,
		Title:          "Maria",
		SummaryEnglish: "Summary in English",
	})
	if err != nil {
		t.Fatalf("falha do documento em inglês não deveria derrubar a captura: %v", err)
	}

	ids, ok := repo.completed[result.TestemunhoID]
	if !ok {
		t.Fatalf("registro deveria estar completo")
	}
	if ids.ResumoEnglishDocxID != nil {
		t.Fatalf("id em inglês deveria ser nulo após a falha")
	}
	if len(repo.failed) != 0 {
		t.Fatalf("registro não deveria ser marcado como falhou")
	}
}

func TestCreateEvangelismoInexistente(t *testing.T) {
	repo := newStubRepo()
	storage := &stubStorage{}
	svc := NewService(repo, &stubEvents{err: evangelismo.ErrNotFound}, storage, fakeRender)

	_, err := svc.Create(context.Background(), CreateInput{EvangelismoID: 99, Title: "Maria"})
	if !errors.Is(err, ErrEvangelismoNotFound) {
		t.Fatalf("esperava ErrEvangelismoNotFound, veio %v", err)
	}
	if len(repo.pending) != 0 {
		t.Fatalf("nenhuma linha deveria existir")
	}
	if len(storage.folders) != 0 {
		t.Fatalf("nenhuma pasta deveria ser criada")
	}
}

func TestUploadMediaRoteiaPorTipo(t *testing.T) {
	repo := newStubRepo()
	repo.stored[1] = Testemunho{ID: 1, PhotosFolderID: "photos-1", VideosFolderID: "videos-1", Status: StatusCompleto}
	storage := &stubStorage{}
	svc := newTestService(repo, storage)

	if _, err := svc.UploadMedia(context.Background(), UploadMediaInput{
		TestemunhoID: 1, MediaType: "photo", FileName: "foto.jpg", MimeType: "image/jpeg", Body: []byte("jpg"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.UploadMedia(context.Background(), UploadMediaInput{
		TestemunhoID: 1, MediaType: "video", FileName: "video.mp4", MimeType: "video/mp4", Body: []byte("mp4"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storage.uploads[0].ParentID != "photos-1" {
		t.Fatalf("foto foi para a pasta errada: %q", storage.uploads[0].ParentID)
	}
	if storage.uploads[1].ParentID != "videos-1" {
		t.Fatalf("vídeo foi para a pasta errada: %q", storage.uploads[1].ParentID)
	}
	if len(repo.uploads) != 2 {
		t.Fatalf("esperava 2 registros de upload, veio %d", len(repo.uploads))
	}
	if repo.uploads[0].FileType != "photo" || repo.uploads[1].FileType != "video" {
		t.Fatalf("tipos registrados errados: %+v", repo.uploads)
	}
}

func newTestHandler(repo *stubRepo, storage *stubStorage) *Handler {
	return NewHandler(newTestService(repo, storage))
}

func TestHandleCreateValida(t *testing.T) {
	handler := newTestHandler(newStubRepo(), &stubStorage{})

	body, _ := json.Marshal(map[string]any{"title": "Maria"})
	req := httptest.NewRequest(http.MethodPost, "/testemunhos", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestHandleCreateEvangelismoAusente(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, &stubEvents{err: evangelismo.ErrNotFound}, &stubStorage{}, fakeRender)
	handler := NewHandler(svc)

	body, _ := json.Marshal(map[string]any{"evangelismoId": 99, "title": "Maria"})
	req := httptest.NewRequest(http.MethodPost, "/testemunhos", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateFalhaDeBancoNaoVira404(t *testing.T) {
	repo := newStubRepo()
	storage := &stubStorage{}
	timeout := errors.New("context deadline exceeded")
	svc := NewService(repo, &stubEvents{err: timeout}, storage, fakeRender)

	_, err := svc.Create(context.Background(), CreateInput{EvangelismoID: 5, Title: "Maria"})
	if errors.Is(err, ErrEvangelismoNotFound) {
		t.Fatalf("falha de infraestrutura não pode virar não-encontrado")
	}
	if !errors.Is(err, timeout) {
		t.Fatalf("erro original deveria ser propagado, veio %v", err)
	}
	if len(repo.pending) != 0 || len(storage.folders) != 0 {
		t.Fatalf("nenhum efeito colateral esperado")
	}
}

func TestHandleCreateFalhaDeBancoDevolve500(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, &stubEvents{err: errors.New("banco indisponível")}, &stubStorage{}, fakeRender)
	handler := NewHandler(svc)

	body, _ := json.Marshal(map[string]any{"evangelismoId": 5, "title": "Maria"})
	req := httptest.NewRequest(http.MethodPost, "/testemunhos", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleUploadMedia(t *testing.T) {
	repo := newStubRepo()
	repo.stored[3] = Testemunho{ID: 3, PhotosFolderID: "photos-3", VideosFolderID: "videos-3", Status: StatusCompleto}
	storage := &stubStorage{}
	handler := newTestHandler(repo, storage)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, _ := form.CreateFormFile("file", "foto.jpg")
	_, _ = part.Write([]byte("jpg"))
	_ = form.WriteField("testemunhoId", "3")
	_ = form.WriteField("mediaType", "photo")
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-media", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(storage.uploads) != 1 || storage.uploads[0].ParentID != "photos-3" {
		t.Fatalf("upload não chegou na pasta de fotos: %+v", storage.uploads)
	}

	badForm := &bytes.Buffer{}
	w := multipart.NewWriter(badForm)
	p, _ := w.CreateFormFile("file", "clip.bin")
	_, _ = p.Write([]byte("bin"))
	_ = w.WriteField("testemunhoId", "3")
	_ = w.WriteField("mediaType", "audio")
	_ = w.Close()

	req = httptest.NewRequest(http.MethodPost, "/upload-media", badForm)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
