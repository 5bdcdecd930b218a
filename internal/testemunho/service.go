package testemunho

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/missaoglobal/outreach/internal/docgen"
	"github.com/missaoglobal/outreach/internal/drive"
	"github.com/missaoglobal/outreach/internal/evangelismo"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrEvangelismoNotFound distingue o evento ausente do testemunho
// ausente na camada HTTP.
var ErrEvangelismoNotFound = errors.New("evangelismo não encontrado")

// TestimonyRepository descreve o acesso a dados usado pelo serviço.
type TestimonyRepository interface {
	InsertPending(context.Context, Testemunho) (int64, error)
	MarkComplete(context.Context, int64, FolderIDs) error
	MarkFailed(context.Context, int64) error
	GetTestemunho(context.Context, int64) (Testemunho, error)
	ListByEvangelismo(context.Context, int64) ([]Testemunho, error)
	InsertUploadedFile(context.Context, UploadedFile) error
}

// EventSource resolve o evento dono do testemunho.
type EventSource interface {
	GetEvangelismo(ctx context.Context, id int64) (evangelismo.Evangelismo, error)
}

// DocRenderer produz os bytes do documento final.
type DocRenderer func(docgen.Testemunho) ([]byte, error)

// Service executa a captura do testemunho: linha pendente primeiro,
// efeitos remotos depois, conclusão ou falha registrada por último.
type Service struct {
	repo    TestimonyRepository
	events  EventSource
	storage drive.Storage
	render  DocRenderer
	now     func() time.Time
}

func NewService(repo TestimonyRepository, events EventSource, storage drive.Storage, render DocRenderer) *Service {
	if render == nil {
		render = docgen.GenerateTestimonyDoc
	}
	return &Service{repo: repo, events: events, storage: storage, render: render, now: time.Now}
}

// CreateInput carrega o payload da captura.
type CreateInput struct {
	EvangelismoID  int64
	Title          string
	Date           string
	PersonalInfo   string
	ProfileInfo    string
	EventInfo      string
	DecisionInfo   string
	SummaryText    string
	SummaryNative  string
	SummaryEnglish string
	NativeLanguage string
	PhotosUrls     string
	VideosUrls     string
}

// Result devolve os identificadores remotos ao chamador.
type Result struct {
	TestemunhoID         int64   `json:"testemunhoId"`
	DriveFolderID        string  `json:"driveFolderId"`
	PhotosFolderID       string  `json:"photosFolderId"`
	VideosFolderID       string  `json:"videosFolderId"`
	ResumoDocxURL        string  `json:"resumoDocxUrl"`
	ResumoEnglishDocxURL *string `json:"resumoEnglishDocxUrl"`
}

// Create roda a sequência completa. Falha do provedor depois da linha
// pendente marca o registro como falhou antes de propagar o erro.
func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	evento, err := s.events.GetEvangelismo(ctx, in.EvangelismoID)
	if err != nil {
		if errors.Is(err, evangelismo.ErrNotFound) {
			return Result{}, ErrEvangelismoNotFound
		}
		return Result{}, fmt.Errorf("carregar evangelismo %d: %w", in.EvangelismoID, err)
	}

	date := in.Date
	if date == "" {
		date = s.now().Format("2006-01-02")
	}
	lang := in.NativeLanguage
	if lang == "" {
		lang = "pt-BR"
	}

	id, err := s.repo.InsertPending(ctx, Testemunho{
		EvangelismoID:  in.EvangelismoID,
		Title:          in.Title,
		Date:           date,
		PersonalInfo:   in.PersonalInfo,
		ProfileInfo:    in.ProfileInfo,
		EventInfo:      in.EventInfo,
		DecisionInfo:   in.DecisionInfo,
		SummaryText:    in.SummaryText,
		SummaryNative:  in.SummaryNative,
		SummaryEnglish: in.SummaryEnglish,
		NativeLanguage: lang,
		PhotosUrls:     in.PhotosUrls,
		VideosUrls:     in.VideosUrls,
	})
	if err != nil {
		return Result{}, err
	}

	result, err := s.provision(ctx, id, in, date, evento)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, id); markErr != nil {
			log.Error().Err(markErr).Int64("testemunho_id", id).
				Msg("testemunho: falha ao marcar registro como falhou")
		}
		return Result{}, err
	}
	return result, nil
}

func (s *Service) provision(ctx context.Context, id int64, in CreateInput, date string, evento evangelismo.Evangelismo) (Result, error) {
	folderName := fmt.Sprintf("%s | %s", in.Title, date)
	mainFolder, err := s.storage.CreateFolder(ctx, folderName, evento.DriveFolderID)
	if err != nil {
		return Result{}, fmt.Errorf("criar pasta do testemunho: %w", err)
	}

	photosFolder, err := s.storage.CreateFolder(ctx, "Photos", mainFolder.ID)
	if err != nil {
		return Result{}, fmt.Errorf("criar pasta Photos: %w", err)
	}
	videosFolder, err := s.storage.CreateFolder(ctx, "Videos", mainFolder.ID)
	if err != nil {
		return Result{}, fmt.Errorf("criar pasta Videos: %w", err)
	}

	summary := in.SummaryNative
	if summary == "" {
		summary = in.SummaryText
	}

	nativeDoc, err := s.uploadDoc(ctx, mainFolder.ID, in.Title, docgen.Testemunho{
		Title:            in.Title,
		PersonalInfo:     in.PersonalInfo,
		ProfileInfo:      in.ProfileInfo,
		EventInfo:        in.EventInfo,
		DecisionInfo:     in.DecisionInfo,
		SummaryText:      summary,
		EvangelismoTitle: evento.Title,
		EvangelismoDate:  evento.Date,
	})
	if err != nil {
		return Result{}, fmt.Errorf("documento do testemunho: %w", err)
	}

	ids := FolderIDs{
		DriveFolderID:  mainFolder.ID,
		PhotosFolderID: photosFolder.ID,
		VideosFolderID: videosFolder.ID,
		ResumoDocxID:   nativeDoc.ID,
	}
	result := Result{
		TestemunhoID:   id,
		DriveFolderID:  mainFolder.ID,
		PhotosFolderID: photosFolder.ID,
		VideosFolderID: videosFolder.ID,
		ResumoDocxURL:  nativeDoc.WebViewLink,
	}

	// Versão em inglês é melhor esforço: falha não derruba a captura.
	if in.SummaryEnglish != "" {
		englishDoc, err := s.uploadDoc(ctx, mainFolder.ID, in.Title+" (English)", docgen.Testemunho{
			Title:            in.Title + " (English)",
			PersonalInfo:     in.PersonalInfo,
			ProfileInfo:      in.ProfileInfo,
			EventInfo:        in.EventInfo,
			DecisionInfo:     in.DecisionInfo,
			SummaryText:      in.SummaryEnglish,
			EvangelismoTitle: evento.Title,
			EvangelismoDate:  evento.Date,
		})
		if err != nil {
			log.Warn().Err(err).Int64("testemunho_id", id).
				Msg("testemunho: documento em inglês falhou")
		} else {
			ids.ResumoEnglishDocxID = &englishDoc.ID
			link := englishDoc.WebViewLink
			result.ResumoEnglishDocxURL = &link
		}
	}

	if err := s.repo.MarkComplete(ctx, id, ids); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Service) uploadDoc(ctx context.Context, parentID, name string, doc docgen.Testemunho) (drive.File, error) {
	body, err := s.render(doc)
	if err != nil {
		return drive.File{}, err
	}
	return s.storage.UploadFile(ctx, drive.UploadInput{
		Name:     name + ".docx",
		MimeType: docxMimeType,
		Body:     body,
		ParentID: parentID,
	})
}

func (s *Service) Get(ctx context.Context, id int64) (Testemunho, error) {
	return s.repo.GetTestemunho(ctx, id)
}

func (s *Service) ListByEvangelismo(ctx context.Context, evangelismoID int64) ([]Testemunho, error) {
	return s.repo.ListByEvangelismo(ctx, evangelismoID)
}

// UploadMediaInput descreve um arquivo de mídia vindo do formulário.
type UploadMediaInput struct {
	TestemunhoID int64
	MediaType    string
	FileName     string
	MimeType     string
	Body         []byte
}

// UploadMedia envia o arquivo para a subpasta certa do testemunho e
// registra o upload.
func (s *Service) UploadMedia(ctx context.Context, in UploadMediaInput) (drive.File, error) {
	t, err := s.repo.GetTestemunho(ctx, in.TestemunhoID)
	if err != nil {
		return drive.File{}, err
	}

	var targetFolderID string
	switch in.MediaType {
	case "photo":
		targetFolderID = t.PhotosFolderID
	case "video":
		targetFolderID = t.VideosFolderID
	default:
		return drive.File{}, fmt.Errorf("tipo de mídia inválido: %s", in.MediaType)
	}

	file, err := s.storage.UploadFile(ctx, drive.UploadInput{
		Name:     in.FileName,
		MimeType: in.MimeType,
		Body:     in.Body,
		ParentID: targetFolderID,
	})
	if err != nil {
		return drive.File{}, err
	}

	if err := s.repo.InsertUploadedFile(ctx, UploadedFile{
		TestemunhoID: in.TestemunhoID,
		FileID:       file.ID,
		FileName:     file.Name,
		FileType:     in.MediaType,
		DriveLink:    file.WebViewLink,
	}); err != nil {
		return drive.File{}, err
	}
	return file, nil
}
