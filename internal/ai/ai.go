// Package ai fornece adaptadores finos sobre os dois provedores de
// texto generativo usados pela aplicação: a API generateContent do
// Gemini e a API de chat completions da OpenAI. Cada operação é uma
// chamada requisição-resposta única, sem streaming nem estado.
package ai

import "errors"

// ErrNotConfigured indica ausência da chave de API do provedor. As
// rotas dependentes falham na chamada, não na subida do processo.
var ErrNotConfigured = errors.New("ai: chave de API não configurada")

// langNames mapeia códigos internos de idioma para nomes legíveis nos
// prompts. Códigos desconhecidos caem em português.
var langNames = map[string]string{
	"pt-BR": "Brazilian Portuguese",
	"pt-PT": "European Portuguese",
	"en":    "English",
	"de":    "German",
	"es":    "Spanish",
	"fr":    "French",
	"it":    "Italian",
}

func langName(code string) string {
	if name, ok := langNames[code]; ok {
		return name
	}
	return "Portuguese"
}

// PersonProfile descreve uma pessoa abordada e suas decisões.
type PersonProfile struct {
	Name        string   `json:"name"`
	ProfileType string   `json:"profileType"`
	Decisions   []string `json:"decisions"`
}

// SummaryInput agrega os campos estruturados do testemunho usados na
// geração de resumos.
type SummaryInput struct {
	Date               string          `json:"date"`
	Title              string          `json:"title"`
	InitialContext     string          `json:"initialContext"`
	DuringApproach     string          `json:"duringApproach"`
	EventsDuring       []string        `json:"eventsDuring"`
	TestimonyWitnessed string          `json:"testimonyWitnessed"`
	People             []PersonProfile `json:"people"`
}

// Bilingual carrega o par de resumos nativo + inglês.
type Bilingual struct {
	Native  string `json:"native"`
	English string `json:"english"`
}

// AgendaDay é uma entrada diária da agenda de oração.
type AgendaDay struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Theme       string `json:"theme"`
	Prayer      string `json:"prayer"`
	Declaration string `json:"declaration"`
}

// PrayerAgenda é a agenda semanal gerada como JSON estruturado.
type PrayerAgenda struct {
	Title     string      `json:"title"`
	Vision    string      `json:"vision"`
	Objective string      `json:"objective"`
	Days      []AgendaDay `json:"days"`
}
