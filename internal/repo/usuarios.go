package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dbTimeout = 3 * time.Second

// Queries concentra o acesso à tabela de usuários e refresh tokens.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u Usuario
	var id string
	var ativo int
	var criadoEm string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, nome, email, senha_hash, papel, ativo, created_at
		FROM usuarios WHERE email = ?
	`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&id, &u.Nome, &u.Email, &u.SenhaHash, &u.Papel, &ativo, &criadoEm)
	if errors.Is(err, sql.ErrNoRows) {
		return Usuario{}, ErrNotFound
	}
	if err != nil {
		return Usuario{}, err
	}
	return finishUsuario(u, id, ativo, criadoEm)
}

func (q *Queries) GetUsuarioByID(ctx context.Context, usuarioID uuid.UUID) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var u Usuario
	var id string
	var ativo int
	var criadoEm string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, nome, email, senha_hash, papel, ativo, created_at
		FROM usuarios WHERE id = ?
	`, usuarioID.String()).
		Scan(&id, &u.Nome, &u.Email, &u.SenhaHash, &u.Papel, &ativo, &criadoEm)
	if errors.Is(err, sql.ErrNoRows) {
		return Usuario{}, ErrNotFound
	}
	if err != nil {
		return Usuario{}, err
	}
	return finishUsuario(u, id, ativo, criadoEm)
}

func (q *Queries) InsertUsuario(ctx context.Context, u Usuario) error {
	if !PapelValido(u.Papel) {
		return fmt.Errorf("papel inválido: %q", u.Papel)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO usuarios (id, nome, email, senha_hash, papel, ativo)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID.String(), u.Nome, strings.ToLower(u.Email), u.SenhaHash, u.Papel, boolToInt(u.Ativo))
	return err
}

func (q *Queries) InsertRefreshToken(ctx context.Context, usuarioID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, usuario_id, token_hash, expires_at)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), usuarioID.String(), tokenHash, expiresAt.UTC().Format(time.RFC3339))
	return err
}

func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var t TokenRefresh
	var id, usuarioID, expiresAt, criadoEm string
	var revogado int
	err := q.db.QueryRowContext(ctx, `
		SELECT id, usuario_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens WHERE token_hash = ?
	`, tokenHash).Scan(&id, &usuarioID, &t.TokenHash, &expiresAt, &revogado, &criadoEm)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenRefresh{}, ErrNotFound
	}
	if err != nil {
		return TokenRefresh{}, err
	}

	if t.ID, err = uuid.Parse(id); err != nil {
		return TokenRefresh{}, err
	}
	if t.UsuarioID, err = uuid.Parse(usuarioID); err != nil {
		return TokenRefresh{}, err
	}
	if t.Expiracao, err = parseSQLiteTime(expiresAt); err != nil {
		return TokenRefresh{}, err
	}
	t.Revogado = revogado != 0
	t.CriadoEm, _ = parseSQLiteTime(criadoEm)
	return t, nil
}

func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?
	`, tokenHash)
	return err
}

func (q *Queries) RevokeRefreshTokensByUsuario(ctx context.Context, usuarioID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1 WHERE usuario_id = ?
	`, usuarioID.String())
	return err
}

func finishUsuario(u Usuario, id string, ativo int, criadoEm string) (Usuario, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Usuario{}, err
	}
	u.ID = parsed
	u.Ativo = ativo != 0
	u.CriadoEm, _ = parseSQLiteTime(criadoEm)
	return u, nil
}

// parseSQLiteTime aceita os dois formatos gravados: CURRENT_TIMESTAMP
// ("2006-01-02 15:04:05") e RFC3339.
func parseSQLiteTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
