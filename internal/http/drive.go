package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/missaoglobal/outreach/internal/drive"
)

const maxDriveUploadBytes = 50 << 20

// DriveUpload envia um arquivo solto para o provedor de armazenamento.
func (h *Handler) DriveUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxDriveUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário inválido", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo não fornecido", nil)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxDriveUploadBytes))
	if err != nil {
		h.writeDriveError(w, err)
		return
	}

	description := r.FormValue("description")
	if description == "" {
		description = "Testimony Media"
	}

	uploaded, err := h.storage.UploadFile(r.Context(), drive.UploadInput{
		Name:        header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Body:        body,
		ParentID:    r.FormValue("parentId"),
		Description: description,
	})
	if err != nil {
		h.writeDriveError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"fileId":      uploaded.ID,
		"fileName":    uploaded.Name,
		"webViewLink": uploaded.WebViewLink,
		"mimeType":    uploaded.MimeType,
	})
}

// DriveList lista arquivos, opcionalmente restritos a uma pasta.
func (h *Handler) DriveList(w http.ResponseWriter, r *http.Request) {
	files, err := h.storage.ListFiles(r.Context(), r.URL.Query().Get("folderId"))
	if err != nil {
		h.writeDriveError(w, err)
		return
	}
	if files == nil {
		files = []drive.File{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"files": files})
}

// DriveDelete remove um arquivo ou pasta remota.
func (h *Handler) DriveDelete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")
	if fileID == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "fileId obrigatório", nil)
		return
	}

	if err := h.storage.DeleteFile(r.Context(), fileID); err != nil {
		h.writeDriveError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}

// DriveCreateFolder cria uma pasta avulsa no provedor.
func (h *Handler) DriveCreateFolder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if payload.Name == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "nome da pasta obrigatório", nil)
		return
	}

	folder, err := h.storage.CreateFolder(r.Context(), payload.Name, payload.ParentID)
	if err != nil {
		h.writeDriveError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"folderId":   folder.ID,
		"folderName": folder.Name,
	})
}

func (h *Handler) writeDriveError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("drive handler error")
	if errors.Is(err, drive.ErrNotConfigured) {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "armazenamento não configurado", nil)
		return
	}
	WriteError(w, http.StatusBadGateway, "UPSTREAM", "falha no provedor de armazenamento", nil)
}
