// Package drive encapsula o provedor de armazenamento de arquivos em
// nuvem (API de pastas/arquivos estilo Drive) usado para guardar os
// artefatos de evangelismos e testemunhos.
package drive

import "context"

const folderMimeType = "application/vnd.google-apps.folder"

// Folder descreve uma pasta criada no provedor.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// File descreve um arquivo remoto.
type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	WebViewLink  string `json:"webViewLink,omitempty"`
	CreatedTime  string `json:"createdTime,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// UploadInput representa um upload simples de conteúdo binário.
type UploadInput struct {
	Name        string
	MimeType    string
	Body        []byte
	ParentID    string
	Description string
}

// Storage define o contrato consumido pelos serviços da aplicação.
type Storage interface {
	CreateFolder(ctx context.Context, name, parentID string) (Folder, error)
	UploadFile(ctx context.Context, input UploadInput) (File, error)
	ListFiles(ctx context.Context, folderID string) ([]File, error)
	DeleteFile(ctx context.Context, fileID string) error
}
