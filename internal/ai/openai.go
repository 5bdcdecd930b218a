package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultOpenAIBase = "https://api.openai.com/v1"
	openAIModel       = "gpt-4o-mini"
)

// OpenAI cobre as operações de texto que usam chat completions.
type OpenAI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultOpenAIBase,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Testemunho é o par título/narrativa produzido pela geração
// estruturada.
type Testemunho struct {
	Titulo    string `json:"titulo"`
	Narrativa string `json:"narrativa"`
}

// ImproveTestimony melhora um relato mantendo a voz de quem conta.
// Com structured o modelo reorganiza o relato em parágrafos. Falha do
// provedor devolve o texto original.
func (o *OpenAI) ImproveTestimony(ctx context.Context, text string, structured bool, lang string) string {
	// Nos dois modos o texto do cliente entra só como conteúdo, nunca
	// como prompt cru; structured muda apenas a instrução do sistema.
	var instruction string
	if structured {
		instruction = fmt.Sprintf(
			"You are an editor for a Christian outreach ministry. Rewrite the following testimony in %s: fix grammar and clarity, keep the first-person voice and every fact intact, and organize the narrative into short coherent paragraphs (context, encounter, outcome). Return only the rewritten testimony.",
			langName(lang))
	} else {
		instruction = fmt.Sprintf(
			"You are an editor for a Christian outreach ministry. Improve the grammar, clarity and flow of the following testimony in %s without changing its meaning, facts or first-person voice. Return only the improved testimony.",
			langName(lang))
	}

	improved, err := o.complete(ctx, instruction, text, 0.7, 1000)
	if err != nil || strings.TrimSpace(improved) == "" {
		if err != nil {
			log.Warn().Err(err).Msg("ai: improve degradado para o texto original")
		}
		return text
	}
	return strings.TrimSpace(improved)
}

// GerarTestemunho transforma notas soltas num testemunho com título e
// narrativa. A resposta vem em texto marcado e é separada aqui.
func (o *OpenAI) GerarTestemunho(ctx context.Context, notes, lang string) (*Testemunho, error) {
	instruction := fmt.Sprintf(`You are a writer for a Christian outreach ministry. From the raw notes below, write a complete evangelism testimony in %s with an inspiring tone, faithful to the facts given.

Respond in exactly this format, nothing else:
TÍTULO: <a short inspiring title>
NARRATIVA: <the full testimony narrative>`, langName(lang))

	raw, err := o.complete(ctx, instruction, notes, 0.8, 2500)
	if err != nil {
		return nil, fmt.Errorf("ai: geração de testemunho falhou: %w", err)
	}

	titulo, narrativa := splitTestemunho(raw)
	if narrativa == "" {
		return nil, fmt.Errorf("ai: resposta sem narrativa")
	}
	return &Testemunho{Titulo: titulo, Narrativa: narrativa}, nil
}

// splitTestemunho separa os marcadores TÍTULO:/NARRATIVA:. Resposta
// sem marcadores vira narrativa inteira com título vazio.
func splitTestemunho(raw string) (titulo, narrativa string) {
	trimmed := strings.TrimSpace(raw)

	narIdx := strings.Index(trimmed, "NARRATIVA:")
	if narIdx < 0 {
		return "", trimmed
	}
	narrativa = strings.TrimSpace(trimmed[narIdx+len("NARRATIVA:"):])

	head := trimmed[:narIdx]
	if titIdx := strings.Index(head, "TÍTULO:"); titIdx >= 0 {
		titulo = strings.TrimSpace(head[titIdx+len("TÍTULO:"):])
	}
	return titulo, narrativa
}

func (o *OpenAI) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if o.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]any{
		"model": openAIModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: resposta sem escolhas")
	}
	return out.Choices[0].Message.Content, nil
}
