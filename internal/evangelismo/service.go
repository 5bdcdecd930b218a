package evangelismo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/missaoglobal/outreach/internal/drive"
	"github.com/missaoglobal/outreach/internal/repo"
)

// EventRepository descreve o acesso a dados usado pelo serviço.
type EventRepository interface {
	ListEvangelismos(context.Context, string) ([]Evangelismo, error)
	GetEvangelismo(context.Context, int64) (Evangelismo, error)
	InsertEvangelismo(context.Context, Evangelismo) (int64, error)
	UpdateEvangelismo(context.Context, int64, Evangelismo) error
	DeleteEvangelismoCascade(context.Context, int64) error
	SetMateriais(context.Context, int64, string) error
	ListAplicacoes(context.Context, int64) ([]Aplicacao, error)
	InsertAplicacao(context.Context, Aplicacao) (int64, error)
	UpdateAplicacaoStatus(context.Context, int64, string) error
}

// UserDirectory resolve o nome de quem aplica a partir do subject.
type UserDirectory interface {
	GetUsuarioByID(ctx context.Context, usuarioID uuid.UUID) (repo.Usuario, error)
}

// Service contém as regras dos eventos de evangelismo.
type Service struct {
	repo     EventRepository
	storage  drive.Storage
	usuarios UserDirectory
	cache    *redis.Client
}

func NewService(r EventRepository, storage drive.Storage, usuarios UserDirectory, cache *redis.Client) *Service {
	return &Service{repo: r, storage: storage, usuarios: usuarios, cache: cache}
}

// CreateInput carrega os campos aceitos na criação de um evento.
type CreateInput struct {
	Title           string
	Date            string
	TimeStart       *string
	TimeEnd         *string
	Location        string
	LeadersNeeded   int
	Evangelists     int
	Description     string
	AdditionalNotes string
}

func (s *Service) List(ctx context.Context, status string) ([]Evangelismo, error) {
	key := "evangelismos:" + status
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var eventos []Evangelismo
			if json.Unmarshal(data, &eventos) == nil {
				return eventos, nil
			}
		}
	}

	eventos, err := s.repo.ListEvangelismos(ctx, status)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(eventos); err == nil {
			_ = s.cache.Set(ctx, key, payload, 60*time.Second).Err()
		}
	}
	return eventos, nil
}

// Create valida nada além do repassado pelo handler e cria a pasta no
// provedor antes da linha: falha da pasta significa nenhum registro.
func (s *Service) Create(ctx context.Context, in CreateInput) (int64, string, error) {
	folderName := fmt.Sprintf("%s | %s", in.Title, in.Date)
	folder, err := s.storage.CreateFolder(ctx, folderName, "")
	if err != nil {
		return 0, "", fmt.Errorf("criar pasta do evento: %w", err)
	}

	leaders := in.LeadersNeeded
	if leaders <= 0 {
		leaders = 1
	}
	evangelists := in.Evangelists
	if evangelists <= 0 {
		evangelists = 3
	}

	id, err := s.repo.InsertEvangelismo(ctx, Evangelismo{
		Title:           in.Title,
		Date:            in.Date,
		TimeStart:       in.TimeStart,
		TimeEnd:         in.TimeEnd,
		Location:        in.Location,
		Status:          "aberto",
		LeadersNeeded:   leaders,
		Evangelists:     evangelists,
		Description:     in.Description,
		AdditionalNotes: in.AdditionalNotes,
		DriveFolderID:   folder.ID,
	})
	if err != nil {
		return 0, "", err
	}

	s.invalidateListCache(ctx)
	return id, folder.ID, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Evangelismo, []Aplicacao, error) {
	evento, err := s.repo.GetEvangelismo(ctx, id)
	if err != nil {
		return Evangelismo{}, nil, err
	}
	aplicacoes, err := s.repo.ListAplicacoes(ctx, id)
	if err != nil {
		return Evangelismo{}, nil, err
	}
	return evento, aplicacoes, nil
}

func (s *Service) Update(ctx context.Context, id int64, in CreateInput) error {
	if err := s.repo.UpdateEvangelismo(ctx, id, Evangelismo{
		Title:       in.Title,
		Date:        in.Date,
		TimeStart:   in.TimeStart,
		TimeEnd:     in.TimeEnd,
		Location:    in.Location,
		Description: in.Description,
	}); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

// Delete remove o evento em cascata. A pasta remota é melhor esforço:
// falha do provedor não impede a remoção local.
func (s *Service) Delete(ctx context.Context, id int64) error {
	evento, err := s.repo.GetEvangelismo(ctx, id)
	if err != nil {
		return err
	}

	if evento.DriveFolderID != "" {
		if err := s.storage.DeleteFile(ctx, evento.DriveFolderID); err != nil {
			log.Warn().Err(err).Str("folder_id", evento.DriveFolderID).
				Msg("evangelismo: falha ao remover pasta remota")
		}
	}

	if err := s.repo.DeleteEvangelismoCascade(ctx, id); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

// Apply registra uma aplicação. Duplicatas do mesmo usuário são
// permitidas, a triagem acontece na aprovação.
func (s *Service) Apply(ctx context.Context, evangelismoID int64, userID, tipo string) (int64, error) {
	if _, err := s.repo.GetEvangelismo(ctx, evangelismoID); err != nil {
		return 0, err
	}

	userName := "Anônimo"
	if uid, err := uuid.Parse(userID); err == nil && s.usuarios != nil {
		if u, err := s.usuarios.GetUsuarioByID(ctx, uid); err == nil {
			userName = u.Nome
		}
	}

	return s.repo.InsertAplicacao(ctx, Aplicacao{
		EvangelismoID: evangelismoID,
		UserID:        userID,
		UserName:      userName,
		Tipo:          tipo,
	})
}

func (s *Service) ListAplicacoes(ctx context.Context, evangelismoID int64) ([]Aplicacao, error) {
	return s.repo.ListAplicacoes(ctx, evangelismoID)
}

func (s *Service) SetAplicacaoStatus(ctx context.Context, id int64, status string) error {
	return s.repo.UpdateAplicacaoStatus(ctx, id, status)
}

func (s *Service) SetMateriais(ctx context.Context, id int64, materiais []string) error {
	payload, err := json.Marshal(materiais)
	if err != nil {
		return err
	}
	if err := s.repo.SetMateriais(ctx, id, string(payload)); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

func (s *Service) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, status := range []string{"", "aberto", "em_andamento", "encerrado"} {
		_ = s.cache.Del(ctx, "evangelismos:"+status).Err()
	}
}
