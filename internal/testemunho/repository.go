package testemunho

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var errNotFound = errors.New("not found")

const dbTimeout = 3 * time.Second

// Status do registro durante a captura do testemunho.
const (
	StatusPendente = "pendente"
	StatusCompleto = "completo"
	StatusFalhou   = "falhou"
)

// Repository fornece acesso aos dados de testemunhos e uploads.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type Testemunho struct {
	ID                  int64   `json:"id"`
	EvangelismoID       int64   `json:"evangelismoId"`
	Title               string  `json:"title"`
	Date                string  `json:"testemunhoDate"`
	PersonalInfo        string  `json:"personalInfo"`
	ProfileInfo         string  `json:"profileInfo"`
	EventInfo           string  `json:"eventInfo"`
	DecisionInfo        string  `json:"decisionInfo"`
	SummaryText         string  `json:"summaryText"`
	SummaryNative       string  `json:"summaryNative"`
	SummaryEnglish      string  `json:"summaryEnglish"`
	NativeLanguage      string  `json:"nativeLanguage"`
	PhotosUrls          string  `json:"photosUrls"`
	VideosUrls          string  `json:"videosUrls"`
	DriveFolderID       string  `json:"driveFolderId"`
	PhotosFolderID      string  `json:"photosFolderId"`
	VideosFolderID      string  `json:"videosFolderId"`
	ResumoDocxID        string  `json:"resumoDocxId"`
	ResumoEnglishDocxID *string `json:"resumoEnglishDocxId"`
	Status              string  `json:"status"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

type UploadedFile struct {
	ID           int64  `json:"id"`
	TestemunhoID int64  `json:"testemunhoId"`
	FileID       string `json:"fileId"`
	FileName     string `json:"fileName"`
	FileType     string `json:"fileType"`
	DriveLink    string `json:"driveLink"`
	CreatedAt    string `json:"createdAt"`
}

// InsertPending grava a intenção antes de qualquer efeito no provedor
// remoto. Os ids de pastas e documentos chegam depois.
func (r *Repository) InsertPending(ctx context.Context, t Testemunho) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO testemunhos (
			evangelismo_id, title, testemunho_date, personal_info, profile_info,
			event_info, decision_info, summary_text, summary_native, summary_english,
			native_language, photos_urls, videos_urls, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.EvangelismoID, t.Title, t.Date, t.PersonalInfo, t.ProfileInfo,
		t.EventInfo, t.DecisionInfo, t.SummaryText, t.SummaryNative, t.SummaryEnglish,
		t.NativeLanguage, t.PhotosUrls, t.VideosUrls, StatusPendente)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FolderIDs carrega os identificadores remotos gravados na conclusão.
type FolderIDs struct {
	DriveFolderID       string
	PhotosFolderID      string
	VideosFolderID      string
	ResumoDocxID        string
	ResumoEnglishDocxID *string
}

func (r *Repository) MarkComplete(ctx context.Context, id int64, ids FolderIDs) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE testemunhos
		SET drive_folder_id = ?, photos_folder_id = ?, videos_folder_id = ?,
			resumo_docx_id = ?, resumo_english_docx_id = ?, status = ?,
			updated_at = datetime('now')
		WHERE id = ?
	`, ids.DriveFolderID, ids.PhotosFolderID, ids.VideosFolderID,
		ids.ResumoDocxID, ids.ResumoEnglishDocxID, StatusCompleto, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errNotFound
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		UPDATE testemunhos SET status = ?, updated_at = datetime('now') WHERE id = ?
	`, StatusFalhou, id)
	return err
}

func (r *Repository) GetTestemunho(ctx context.Context, id int64) (Testemunho, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var t Testemunho
	err := r.db.QueryRowContext(ctx, `
		SELECT id, evangelismo_id, title, COALESCE(testemunho_date, ''),
			COALESCE(personal_info, ''), COALESCE(profile_info, ''),
			COALESCE(event_info, ''), COALESCE(decision_info, ''),
			COALESCE(summary_text, ''), COALESCE(summary_native, ''),
			COALESCE(summary_english, ''), native_language,
			COALESCE(photos_urls, ''), COALESCE(videos_urls, ''),
			COALESCE(drive_folder_id, ''), COALESCE(photos_folder_id, ''),
			COALESCE(videos_folder_id, ''), COALESCE(resumo_docx_id, ''),
			resumo_english_docx_id, status, created_at, updated_at
		FROM testemunhos WHERE id = ?
	`, id).Scan(
		&t.ID, &t.EvangelismoID, &t.Title, &t.Date,
		&t.PersonalInfo, &t.ProfileInfo, &t.EventInfo, &t.DecisionInfo,
		&t.SummaryText, &t.SummaryNative, &t.SummaryEnglish, &t.NativeLanguage,
		&t.PhotosUrls, &t.VideosUrls,
		&t.DriveFolderID, &t.PhotosFolderID, &t.VideosFolderID, &t.ResumoDocxID,
		&t.ResumoEnglishDocxID, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Testemunho{}, errNotFound
	}
	return t, err
}

func (r *Repository) ListByEvangelismo(ctx context.Context, evangelismoID int64) ([]Testemunho, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, evangelismo_id, title, COALESCE(testemunho_date, ''), status, created_at
		FROM testemunhos
		WHERE evangelismo_id = ?
		ORDER BY created_at DESC
	`, evangelismoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var itens []Testemunho
	for rows.Next() {
		var t Testemunho
		if err := rows.Scan(&t.ID, &t.EvangelismoID, &t.Title, &t.Date, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		itens = append(itens, t)
	}
	return itens, rows.Err()
}

func (r *Repository) InsertUploadedFile(ctx context.Context, f UploadedFile) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploaded_files (testemunho_id, file_id, file_name, file_type, drive_link)
		VALUES (?, ?, ?, ?, ?)
	`, f.TestemunhoID, f.FileID, f.FileName, f.FileType, f.DriveLink)
	return err
}
