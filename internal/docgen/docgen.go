// Package docgen monta os documentos Word entregues ao armazenamento
// em nuvem. A montagem é pura: entra o testemunho, saem os bytes do
// .docx.
package docgen

import (
	"bytes"
	"fmt"

	"github.com/fumiama/go-docx"
)

const naoPreenchido = "Não preenchido"

// Testemunho traz os campos que o documento apresenta. Campos vazios
// recebem o placeholder padrão.
type Testemunho struct {
	Title            string
	PersonalInfo     string
	ProfileInfo      string
	EventInfo        string
	DecisionInfo     string
	SummaryText      string
	EvangelismoTitle string
	EvangelismoDate  string
}

// GenerateTestimonyDoc produz o .docx completo do testemunho.
func GenerateTestimonyDoc(t Testemunho) ([]byte, error) {
	title := t.Title
	if title == "" {
		title = "Testemunho"
	}

	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(title).Size("36").Bold()
	doc.AddParagraph()

	addSection(doc, "Informações do Evangelismo",
		fmt.Sprintf("Evento: %s", t.EvangelismoTitle),
		fmt.Sprintf("Data: %s", t.EvangelismoDate),
	)
	addSection(doc, "Informações Pessoais", orPlaceholder(t.PersonalInfo))
	addSection(doc, "Perfil", orPlaceholder(t.ProfileInfo))
	addSection(doc, "Experiência no Evento", orPlaceholder(t.EventInfo))
	addSection(doc, "Decisão", orPlaceholder(t.DecisionInfo))
	addSection(doc, "Resumo", orPlaceholder(t.SummaryText))

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("docgen: falha ao serializar documento: %w", err)
	}
	return buf.Bytes(), nil
}

func addSection(doc *docx.Docx, heading string, lines ...string) {
	doc.AddParagraph().AddText(heading).Size("28").Bold()
	for _, line := range lines {
		doc.AddParagraph().AddText(line)
	}
	doc.AddParagraph()
}

func orPlaceholder(s string) string {
	if s == "" {
		return naoPreenchido
	}
	return s
}
