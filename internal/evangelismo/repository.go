package evangelismo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/missaoglobal/outreach/internal/db"
)

// ErrNotFound indica que o registro consultado não existe. Demais
// erros do banco sobem inalterados.
var ErrNotFound = errors.New("not found")

const dbTimeout = 3 * time.Second

// Repository fornece acesso aos dados de eventos e aplicações.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type Evangelismo struct {
	ID                    int64   `json:"id"`
	Title                 string  `json:"title"`
	Date                  string  `json:"evangelismoDate"`
	TimeStart             *string `json:"evangelismoTimeStart"`
	TimeEnd               *string `json:"evangelismoTimeEnd"`
	Location              string  `json:"location"`
	Status                string  `json:"status"`
	LeadersNeeded         int     `json:"leadersNeeded"`
	Evangelists           int     `json:"evangelists"`
	CoordinatorName       string  `json:"coordinatorName"`
	CoordinatorPhone      string  `json:"coordinatorPhone"`
	Materials             string  `json:"materials"`
	EmergencyResponsibles string  `json:"emergencyResponsibles"`
	Description           string  `json:"description"`
	AdditionalNotes       string  `json:"additionalNotes"`
	DriveFolderID         string  `json:"driveFolderId"`
	CreatedAt             string  `json:"createdAt"`
	UpdatedAt             string  `json:"updatedAt"`
}

type Aplicacao struct {
	ID            int64  `json:"id"`
	EvangelismoID int64  `json:"evangelismoId"`
	UserID        string `json:"userId"`
	UserName      string `json:"userName"`
	Tipo          string `json:"tipo"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

const evangelismoColumns = `
	id, title, evangelismo_date, time_start, time_end, location, status,
	leaders_needed, evangelists, coordinator_name, coordinator_phone,
	materials, emergency_responsibles, description, additional_notes,
	drive_folder_id, created_at, updated_at`

func scanEvangelismo(row interface{ Scan(...any) error }) (Evangelismo, error) {
	var e Evangelismo
	err := row.Scan(
		&e.ID, &e.Title, &e.Date, &e.TimeStart, &e.TimeEnd, &e.Location,
		&e.Status, &e.LeadersNeeded, &e.Evangelists, &e.CoordinatorName,
		&e.CoordinatorPhone, &e.Materials, &e.EmergencyResponsibles,
		&e.Description, &e.AdditionalNotes, &e.DriveFolderID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *Repository) ListEvangelismos(ctx context.Context, status string) ([]Evangelismo, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `SELECT` + evangelismoColumns + ` FROM evangelismos`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY evangelismo_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eventos []Evangelismo
	for rows.Next() {
		e, err := scanEvangelismo(rows)
		if err != nil {
			return nil, err
		}
		eventos = append(eventos, e)
	}
	return eventos, rows.Err()
}

func (r *Repository) GetEvangelismo(ctx context.Context, id int64) (Evangelismo, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	e, err := scanEvangelismo(r.db.QueryRowContext(ctx,
		`SELECT`+evangelismoColumns+` FROM evangelismos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Evangelismo{}, ErrNotFound
	}
	return e, err
}

func (r *Repository) InsertEvangelismo(ctx context.Context, e Evangelismo) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO evangelismos (
			title, evangelismo_date, time_start, time_end, location, status,
			leaders_needed, evangelists, description, additional_notes, drive_folder_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Title, e.Date, e.TimeStart, e.TimeEnd, e.Location, e.Status,
		e.LeadersNeeded, e.Evangelists, e.Description, e.AdditionalNotes, e.DriveFolderID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repository) UpdateEvangelismo(ctx context.Context, id int64, e Evangelismo) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE evangelismos
		SET title = ?, evangelismo_date = ?, time_start = ?, time_end = ?,
			location = ?, description = ?, updated_at = datetime('now')
		WHERE id = ?
	`, e.Title, e.Date, e.TimeStart, e.TimeEnd, e.Location, e.Description, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvangelismoCascade remove o evento, testemunhos, uploads e
// aplicações dentro de uma única transação.
func (r *Repository) DeleteEvangelismoCascade(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM uploaded_files
			WHERE testemunho_id IN (SELECT id FROM testemunhos WHERE evangelismo_id = ?)
		`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM testemunhos WHERE evangelismo_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM aplicacoes WHERE evangelismo_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM evangelismos WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) SetMateriais(ctx context.Context, id int64, materiais string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE evangelismos SET materials = ?, updated_at = datetime('now') WHERE id = ?
	`, materiais, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListAplicacoes(ctx context.Context, evangelismoID int64) ([]Aplicacao, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, evangelismo_id, user_id, user_name, tipo, status, created_at, updated_at
		FROM aplicacoes
		WHERE evangelismo_id = ?
		ORDER BY created_at
	`, evangelismoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aplicacoes []Aplicacao
	for rows.Next() {
		var a Aplicacao
		if err := rows.Scan(&a.ID, &a.EvangelismoID, &a.UserID, &a.UserName,
			&a.Tipo, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		aplicacoes = append(aplicacoes, a)
	}
	return aplicacoes, rows.Err()
}

func (r *Repository) InsertAplicacao(ctx context.Context, a Aplicacao) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO aplicacoes (evangelismo_id, user_id, user_name, tipo, status)
		VALUES (?, ?, ?, ?, 'pendente')
	`, a.EvangelismoID, a.UserID, a.UserName, a.Tipo)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repository) UpdateAplicacaoStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE aplicacoes SET status = ?, updated_at = datetime('now') WHERE id = ?
	`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
