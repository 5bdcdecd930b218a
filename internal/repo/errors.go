package repo

import "errors"

// ErrNotFound indica consulta sem linhas; os serviços traduzem para o
// status HTTP adequado.
var ErrNotFound = errors.New("registro não encontrado")
