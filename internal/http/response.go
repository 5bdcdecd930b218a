package http

import (
	"encoding/json"
	"net/http"
)

// SuccessEnvelope é o formato de toda resposta com dados: o campo
// error vem sempre nulo.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope é o formato de toda resposta de falha: data vem nulo.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody normaliza o erro com código estável e mensagem legível.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON serializa data no envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, SuccessEnvelope{Data: data})
}

// WriteError serializa o envelope de erro.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	writeEnvelope(w, status, ErrorEnvelope{
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, envelope any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}
