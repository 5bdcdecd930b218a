package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBase    = "https://www.googleapis.com/drive/v3"
	defaultUploadBase = "https://www.googleapis.com/upload/drive/v3"
)

// Client implementa Storage sobre a API REST do provedor.
type Client struct {
	httpClient *http.Client
	tokens     *TokenSource
	apiBase    string
	uploadBase string
}

// Config descreve endereços e a fonte de tokens do cliente.
type Config struct {
	APIBase    string
	UploadBase string
	Tokens     *TokenSource
	HTTPClient *http.Client
}

// New cria um cliente pronto para uso.
func New(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("drive: fonte de tokens obrigatória")
	}

	apiBase := strings.TrimSpace(cfg.APIBase)
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	uploadBase := strings.TrimSpace(cfg.UploadBase)
	if uploadBase == "" {
		uploadBase = defaultUploadBase
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		httpClient: client,
		tokens:     cfg.Tokens,
		apiBase:    strings.TrimRight(apiBase, "/"),
		uploadBase: strings.TrimRight(uploadBase, "/"),
	}, nil
}

type fileMetadata struct {
	Name        string   `json:"name"`
	MimeType    string   `json:"mimeType,omitempty"`
	Description string   `json:"description,omitempty"`
	Parents     []string `json:"parents,omitempty"`
}

// CreateFolder cria uma pasta, opcionalmente dentro de parentID.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, errors.New("drive: nome da pasta obrigatório")
	}

	meta := fileMetadata{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	var created File
	endpoint := c.apiBase + "/files?fields=" + url.QueryEscape("id, name")
	if err := c.doJSON(ctx, http.MethodPost, endpoint, meta, &created); err != nil {
		return Folder{}, err
	}
	return Folder{ID: created.ID, Name: created.Name}, nil
}

// UploadFile envia o conteúdo em uma única requisição multipart
// (metadados JSON + corpo binário).
func (c *Client) UploadFile(ctx context.Context, input UploadInput) (File, error) {
	if strings.TrimSpace(input.Name) == "" {
		return File{}, errors.New("drive: nome do arquivo obrigatório")
	}
	if len(input.Body) == 0 {
		return File{}, errors.New("drive: corpo vazio")
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	meta := fileMetadata{Name: input.Name, Description: input.Description}
	if input.ParentID != "" {
		meta.Parents = []string{input.ParentID}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return File{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return File{}, err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return File{}, err
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", mimeType)
	mediaPart, err := writer.CreatePart(mediaHeader)
	if err != nil {
		return File{}, err
	}
	if _, err := mediaPart.Write(input.Body); err != nil {
		return File{}, err
	}
	if err := writer.Close(); err != nil {
		return File{}, err
	}

	endpoint := fmt.Sprintf("%s/files?uploadType=multipart&fields=%s",
		c.uploadBase, url.QueryEscape("id, name, webViewLink, mimeType, createdTime"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return File{}, err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	var uploaded File
	if err := c.send(req, &uploaded); err != nil {
		return File{}, err
	}
	return uploaded, nil
}

// ListFiles lista arquivos não descartados, opcionalmente restritos a
// uma pasta.
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]File, error) {
	query := "trashed = false"
	if strings.TrimSpace(folderID) != "" {
		query += fmt.Sprintf(" and '%s' in parents", folderID)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", "50")
	params.Set("fields", "files(id, name, mimeType, webViewLink, createdTime, modifiedTime)")

	var payload struct {
		Files []File `json:"files"`
	}
	endpoint := c.apiBase + "/files?" + params.Encode()
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Files, nil
}

// DeleteFile remove um arquivo ou pasta.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return errors.New("drive: fileId obrigatório")
	}
	endpoint := c.apiBase + "/files/" + url.PathEscape(fileID)
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("drive: requisição falhou: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("drive: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
