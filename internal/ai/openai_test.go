package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAI(t *testing.T, content string, status int) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "erro", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	o := NewOpenAI("test-key")
	o.baseURL = srv.URL
	return o
}

func TestImproveTestimonyDegradaParaOriginal(t *testing.T) {
	o := newTestOpenAI(t, "", http.StatusInternalServerError)

	got := o.ImproveTestimony(context.Background(), "relato bruto", false, "pt-BR")
	if got != "relato bruto" {
		t.Fatalf("ImproveTestimony = %q, esperava o original em falha", got)
	}
}

func TestImproveTestimonyRetornaMelhorado(t *testing.T) {
	o := newTestOpenAI(t, "  Relato melhorado.  ", http.StatusOK)

	got := o.ImproveTestimony(context.Background(), "relato bruto", true, "en")
	if got != "Relato melhorado." {
		t.Fatalf("ImproveTestimony = %q", got)
	}
}

func TestGerarTestemunhoParseiaMarcadores(t *testing.T) {
	o := newTestOpenAI(t, "TÍTULO: Deus na Praça\nNARRATIVA: Naquela tarde tudo mudou.", http.StatusOK)

	got, err := o.GerarTestemunho(context.Background(), "notas soltas", "pt-BR")
	if err != nil {
		t.Fatalf("GerarTestemunho: %v", err)
	}
	if got.Titulo != "Deus na Praça" {
		t.Errorf("Titulo = %q", got.Titulo)
	}
	if got.Narrativa != "Naquela tarde tudo mudou." {
		t.Errorf("Narrativa = %q", got.Narrativa)
	}
}

func TestGerarTestemunhoSemMarcadores(t *testing.T) {
	o := newTestOpenAI(t, "Só a narrativa corrida sem marcadores.", http.StatusOK)

	got, err := o.GerarTestemunho(context.Background(), "notas", "pt-BR")
	if err != nil {
		t.Fatalf("GerarTestemunho: %v", err)
	}
	if got.Titulo != "" || got.Narrativa != "Só a narrativa corrida sem marcadores." {
		t.Fatalf("parse inesperado: %+v", got)
	}
}

func TestGerarTestemunhoFalhaDoProvedor(t *testing.T) {
	o := newTestOpenAI(t, "", http.StatusBadGateway)

	if _, err := o.GerarTestemunho(context.Background(), "notas", "pt-BR"); err == nil {
		t.Fatal("esperava erro do provedor")
	}
}

func TestGerarTestemunhoSemChave(t *testing.T) {
	o := NewOpenAI("")
	if _, err := o.GerarTestemunho(context.Background(), "notas", "pt-BR"); err == nil {
		t.Fatal("esperava erro sem chave configurada")
	}
}
