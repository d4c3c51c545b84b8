package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// Default addresses of the external management server.
const (
	DefaultBaseURL   = "http://72.60.246.250:8087"
	DefaultAPIPath   = "/bancoexterno"
	DefaultAudioPath = "/uploads"
)

// ExternalServer implements [Backend] over plain HTTP.
type ExternalServer struct {
	baseURL    string
	apiPath    string
	audioPath  string
	httpClient *http.Client
}

// ExternalServerOpts locates the backend. Empty fields take the defaults.
type ExternalServerOpts struct {
	BaseURL   string
	APIPath   string
	AudioPath string
}

// NewExternalServer creates a client for the external management server.
//
// A nil client means [http.DefaultClient], which has no timeout.
func NewExternalServer(opts ExternalServerOpts, client *http.Client) *ExternalServer {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.APIPath == "" {
		opts.APIPath = DefaultAPIPath
	}
	if opts.AudioPath == "" {
		opts.AudioPath = DefaultAudioPath
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &ExternalServer{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiPath:    "/" + strings.Trim(opts.APIPath, "/"),
		audioPath:  "/" + strings.Trim(opts.AudioPath, "/"),
		httpClient: client,
	}
}

// FromConfig builds an [ExternalServer] from the backend section of the config.
func FromConfig(cfg shared.BackendConfig) *ExternalServer {
	var client *http.Client
	if timeout := cfg.Timeout(); timeout > 0 {
		client = &http.Client{Timeout: timeout}
	}
	return NewExternalServer(ExternalServerOpts{
		BaseURL:   cfg.BaseURL,
		APIPath:   cfg.APIPath,
		AudioPath: cfg.AudioPath,
	}, client)
}

// ResolveAudioURL returns the URL of a stored audio file.
func (s *ExternalServer) ResolveAudioURL(name string) string {
	return s.baseURL + s.audioPath + "/" + url.PathEscape(name)
}

// UploadAudio posts the audio as multipart form field "audio" to {api}/upload_audio.
//
// Every failure, including building the form, is returned as a [shared.UploadError].
func (s *ExternalServer) UploadAudio(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("audio", filename)
	if err != nil {
		return nil, &shared.UploadError{Err: fmt.Errorf("failed to create form file: %w", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &shared.UploadError{Err: fmt.Errorf("failed to read audio: %w", err)}
	}
	if err := form.Close(); err != nil {
		return nil, &shared.UploadError{Err: fmt.Errorf("failed to finalize form: %w", err)}
	}

	var result UploadResult
	if err := s.do(ctx, shared.OpUpload, http.MethodPost, s.endpoint("upload_audio"), form.FormDataContentType(), &body, &result); err != nil {
		return nil, &shared.UploadError{Err: err}
	}
	return &result, nil
}

// Create posts data to {api}/{entity}.
func (s *ExternalServer) Create(ctx context.Context, entity string, data models.Record) (models.Record, error) {
	var created models.Record
	if err := s.doJSON(ctx, shared.OpCreate, http.MethodPost, s.endpoint(entity), data, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// List fetches {api}/{entity}.
func (s *ExternalServer) List(ctx context.Context, entity string) ([]models.Record, error) {
	var records []models.Record
	if err := s.do(ctx, shared.OpList, http.MethodGet, s.endpoint(entity), "", nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// Update puts data to {api}/{entity}/{id}.
func (s *ExternalServer) Update(ctx context.Context, entity, id string, data models.Record) (models.Record, error) {
	var updated models.Record
	if err := s.doJSON(ctx, shared.OpUpdate, http.MethodPut, s.endpoint(entity, id), data, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes {api}/{entity}/{id}. The response body is ignored.
func (s *ExternalServer) Delete(ctx context.Context, entity, id string) error {
	return s.do(ctx, shared.OpDelete, http.MethodDelete, s.endpoint(entity, id), "", nil, nil)
}

// Login posts {username, password_hash} to {api}/login.
//
// Any non-2xx reply is a credential rejection; transport and decoding failures keep their own kinds.
func (s *ExternalServer) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := s.doJSON(ctx, shared.OpLogin, http.MethodPost, s.endpoint("login"), loginRequest{
		Username:     username,
		PasswordHash: password,
	}, &resp)

	var remote *shared.RemoteError
	if errors.As(err, &remote) {
		return nil, &shared.AuthError{Reason: shared.ErrInvalidCredentials.Error(), Status: remote.Status}
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// endpoint joins path segments under the JSON API prefix, escaping each one.
func (s *ExternalServer) endpoint(segments ...string) string {
	var b strings.Builder
	b.WriteString(s.baseURL)
	b.WriteString(s.apiPath)
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

func (s *ExternalServer) doJSON(ctx context.Context, op shared.Op, method, fullURL string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request body: %v", shared.ErrInvalidInput, err)
	}
	return s.do(ctx, op, method, fullURL, "application/json", bytes.NewReader(data), out)
}

// do performs one request. A nil out discards the body.
func (s *ExternalServer) do(ctx context.Context, op shared.Op, method, fullURL, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &shared.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &shared.RemoteError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &shared.NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &shared.ParseError{Op: op, Err: err}
	}
	return nil
}
