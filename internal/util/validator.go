// Package util reúne validações de entrada compartilhadas entre o
// handler de login e as ferramentas de linha de comando.
package util

import (
	"errors"
	"net/mail"
	"strings"
)

const minPasswordLen = 8

// ValidateEmail aceita qualquer endereço que net/mail consiga
// interpretar. A mensagem de erro vai direto na resposta 400.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// ValidatePassword aplica apenas o tamanho mínimo; complexidade fica a
// cargo de quem cadastra.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return errors.New("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString rejeita valores vazios ou só de espaços, nomeando o
// campo na mensagem.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}
