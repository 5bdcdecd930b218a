package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// expirySkew desconta o tempo de voo da requisição para não entregar
// um token prestes a expirar.
const expirySkew = 30 * time.Second

// ErrNotConfigured indica que o provedor não recebeu credenciais.
var ErrNotConfigured = errors.New("drive: conexão não configurada")

// TokenSource troca credenciais por bearer tokens no endpoint externo
// e mantém o token corrente em cache. A renovação é serializada pelo
// mutex: duas requisições simultâneas com token vencido produzem uma
// única troca.
type TokenSource struct {
	tokenURL string
	secret   string
	client   *http.Client
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource cria a fonte de tokens. tokenURL vazio produz uma
// fonte desabilitada que falha apenas quando usada.
func NewTokenSource(tokenURL, secret string, client *http.Client) *TokenSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenSource{
		tokenURL: strings.TrimSpace(tokenURL),
		secret:   strings.TrimSpace(secret),
		client:   client,
		now:      time.Now,
	}
}

// Token devolve um bearer token válido, renovando quando necessário.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Before(t.expiresAt.Add(-expirySkew)) {
		return t.token, nil
	}

	if t.tokenURL == "" {
		return "", ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.tokenURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if t.secret != "" {
		req.Header.Set("Authorization", "Bearer "+t.secret)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("drive: troca de token falhou: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drive: troca de token retornou status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   string `json:"expires_at"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("drive: resposta de token inválida: %w", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", errors.New("drive: provedor não devolveu access token")
	}

	t.token = payload.AccessToken
	switch {
	case payload.ExpiresAt != "":
		parsed, err := time.Parse(time.RFC3339, payload.ExpiresAt)
		if err != nil {
			return "", fmt.Errorf("drive: expires_at inválido: %w", err)
		}
		t.expiresAt = parsed
	case payload.ExpiresIn > 0:
		t.expiresAt = t.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	default:
		t.expiresAt = t.now().Add(5 * time.Minute)
	}

	return t.token, nil
}
