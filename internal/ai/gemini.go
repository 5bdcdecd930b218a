package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

	// modelo estável para transcrição, melhoria e resumos.
	geminiFlash = "gemini-2.0-flash"
	// modelo dedicado à tradução literal com estrutura preservada.
	geminiTranslate = "gemini-2.5-flash"
)

// Gemini implementa as operações generativas sobre a API
// generateContent.
type Gemini struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGemini cria o adaptador. Chave vazia produz um adaptador que
// falha (ou degrada) apenas quando usado.
func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultGeminiBase,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig *struct {
		ResponseMimeType string `json:"response_mime_type,omitempty"`
	} `json:"generationConfig,omitempty"`
}

// Transcribe converte áudio em texto. Resposta vazia do provedor não é
// erro: devolve string vazia.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("ai: áudio vazio")
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	parts := []geminiPart{
		{Text: "Transcribe the following audio content into text. Return only the transcription without any introductory text or explanations."},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(audio),
		}},
	}

	text, err := g.generate(ctx, geminiFlash, parts, false)
	if err != nil {
		return "", fmt.Errorf("ai: transcrição falhou: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Improve melhora clareza e gramática preservando sentido e tom. Falha
// do provedor devolve o texto original inalterado.
func (g *Gemini) Improve(ctx context.Context, text, lang string) string {
	prompt := fmt.Sprintf(
		"Improve the following text for clarity, grammar, coherence and impact while maintaining the original meaning and tone. Return only the improved text in %s.\n\nText: %q",
		langName(lang), text)

	improved, err := g.generate(ctx, geminiFlash, []geminiPart{{Text: prompt}}, false)
	if err != nil || strings.TrimSpace(improved) == "" {
		if err != nil {
			log.Warn().Err(err).Msg("ai: improve degradado para o texto original")
		}
		return text
	}
	return strings.TrimSpace(improved)
}

// Summarize gera a narrativa do testemunho no idioma pedido,
// propagando erros do provedor.
func (g *Gemini) Summarize(ctx context.Context, in SummaryInput, teamName, lang string) (string, error) {
	team := strings.TrimSpace(teamName)
	if team == "" {
		team = "Evangelism Team"
	}

	var decisions []string
	for _, p := range in.People {
		if len(p.Decisions) == 0 {
			continue
		}
		name := p.ProfileType
		if p.Name != "" {
			name = fmt.Sprintf("%s (%s)", p.Name, p.ProfileType)
		}
		decisions = append(decisions, fmt.Sprintf("%s decidiu: %s", name, strings.Join(p.Decisions, ", ")))
	}

	prompt := fmt.Sprintf(`You are an expert writer for a Christian outreach ministry.
Create a compelling, inspiring, and coherent summary of the following evangelism testimony.

Input Data:
- Date: %s
- Team: %s
- Title: %s
- Context: %s
- Approach Description: %s
- Supernatural Events: %s
- Personal Witness Account: %s
- Spiritual Outcomes: %s

Guidelines:
- Write in %s.
- Use an encouraging and faithful tone.
- Structure the narrative logically: Context -> Encounter -> Impact -> Result.
- Highlight specific miracles or decisions.`,
		in.Date, team, in.Title, in.InitialContext, in.DuringApproach,
		strings.Join(in.EventsDuring, ", "), in.TestimonyWitnessed,
		strings.Join(decisions, "; "), langName(lang))

	return g.generate(ctx, geminiFlash, []geminiPart{{Text: prompt}}, false)
}

// SummarizeTestimony é a variante degradável: falha do provedor vira a
// frase de fallback, para a interface nunca ficar sem texto.
func (g *Gemini) SummarizeTestimony(ctx context.Context, in SummaryInput, teamName, lang string) string {
	summary, err := g.Summarize(ctx, in, teamName, lang)
	if err != nil {
		log.Warn().Err(err).Msg("ai: resumo degradado para fallback")
		return "Erro ao gerar resumo com IA."
	}
	if strings.TrimSpace(summary) == "" {
		return "Não foi possível gerar o resumo."
	}
	return summary
}

// SummarizeBilingual emite os dois resumos em chamadas concorrentes
// independentes. Qualquer falha derruba a operação inteira: não existe
// resultado bilíngue parcial.
func (g *Gemini) SummarizeBilingual(ctx context.Context, in SummaryInput, teamName, nativeLang string) (Bilingual, error) {
	var out Bilingual

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		native, err := g.Summarize(gctx, in, teamName, nativeLang)
		if err != nil {
			return err
		}
		out.Native = native
		return nil
	})
	group.Go(func() error {
		english, err := g.Summarize(gctx, in, teamName, "en")
		if err != nil {
			return err
		}
		out.English = english
		return nil
	})

	if err := group.Wait(); err != nil {
		return Bilingual{}, fmt.Errorf("ai: resumo bilíngue falhou: %w", err)
	}
	return out, nil
}

// GeneratePrayerAgenda pede a agenda semanal como JSON estruturado.
// Qualquer falha (provedor ou parse) devolve nil para o chamador
// preservar o estado existente.
func (g *Gemini) GeneratePrayerAgenda(ctx context.Context, topic string) (*PrayerAgenda, error) {
	prompt := fmt.Sprintf(`Create a weekly prayer agenda for a church outreach ministry based on the specific topic: %q.

Return the result strictly as a JSON object with the following structure:
{
  "title": "Inspiring Title related to the topic",
  "vision": "A short inspiring vision statement",
  "objective": "A specific spiritual objective",
  "days": [
    { "id": "mon", "label": "SEGUNDA", "theme": "...", "prayer": "...", "declaration": "..." },
    { "id": "tue", "label": "TERÇA", "theme": "...", "prayer": "...", "declaration": "..." },
    { "id": "wed", "label": "QUARTA", "theme": "...", "prayer": "...", "declaration": "..." },
    { "id": "thu", "label": "QUINTA", "theme": "...", "prayer": "...", "declaration": "..." },
    { "id": "fri", "label": "SEXTA", "theme": "...", "prayer": "...", "declaration": "..." },
    { "id": "weekend", "label": "FIM-DE-SEMANA", "theme": "...", "prayer": "...", "declaration": "..." }
  ]
}
Language: Portuguese.`, topic)

	raw, err := g.generate(ctx, geminiFlash, []geminiPart{{Text: prompt}}, true)
	if err != nil {
		return nil, fmt.Errorf("ai: agenda falhou: %w", err)
	}

	var agenda PrayerAgenda
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &agenda); err != nil {
		return nil, fmt.Errorf("ai: agenda ilegível: %w", err)
	}
	return &agenda, nil
}

// Translate faz tradução literal preservando a estrutura do texto.
// Falha devolve o texto original inalterado.
func (g *Gemini) Translate(ctx context.Context, text, targetLang string) string {
	codes := map[string]string{"pt-BR": "PT-BR", "pt-PT": "PT-PT", "en": "EN", "de": "DE"}
	target, ok := codes[targetLang]
	if !ok {
		target = "PT-BR"
	}

	prompt := fmt.Sprintf(`Você é um tradutor especializado. Sua única função é traduzir o texto de entrada para o idioma de destino solicitado. Mantenha o tom profissional e direto. Se o texto for uma lista ou tiver formatação, preserve a estrutura original (parágrafos, bullet points, quebras de linha, etc.).

**Linguagem de Saída Requerida:** %s

**Texto de Entrada Original:**
"""
%s
"""`, target, text)

	translated, err := g.generate(ctx, geminiTranslate, []geminiPart{{Text: prompt}}, false)
	if err != nil || strings.TrimSpace(translated) == "" {
		if err != nil {
			log.Warn().Err(err).Msg("ai: tradução degradada para o texto original")
		}
		return text
	}
	return strings.TrimSpace(translated)
}

func (g *Gemini) generate(ctx context.Context, model string, parts []geminiPart, jsonOut bool) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := geminiRequest{}
	reqBody.Contents = append(reqBody.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: parts})
	if jsonOut {
		reqBody.GenerationConfig = &struct {
			ResponseMimeType string `json:"response_mime_type,omitempty"`
		}{ResponseMimeType: "application/json"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, candidate := range out.Candidates {
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		break
	}
	return sb.String(), nil
}

// stripJSONFences remove cercas markdown que alguns modelos insistem em
// devolver mesmo com response_mime_type json.
func stripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
