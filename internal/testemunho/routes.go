package testemunho

import (
	"github.com/go-chi/chi/v5"
)

// Mount adiciona rotas dos testemunhos no router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
