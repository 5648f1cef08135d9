package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tgstash/internal/server/store"
)

// ValidationError reports a bad command-line argument.
type ValidationError struct {
	Arg   string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

// ValidateFileArg checks that path names a readable regular file and
// returns its cleaned form.
func ValidateFileArg(path string) (string, error) {
	if path == "" {
		return "", &ValidationError{Arg: "<file>", Cause: "no file provided"}
	}
	p := filepath.Clean(path)
	info, err := os.Stat(p)
	if err != nil {
		return "", &ValidationError{Arg: path, Cause: "not found or not accessible"}
	}
	if info.IsDir() {
		return "", &ValidationError{Arg: path, Cause: "is a directory, expected a file"}
	}
	return p, nil
}

// Client talks to a tgstash server over its HTTP API.
type Client struct {
	baseURL    string
	adminToken string
	http       *http.Client
}

// New creates a client for the server at baseURL. adminToken is only
// needed for uploads.
func New(baseURL, adminToken string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		adminToken: adminToken,
		http: &http.Client{
			Timeout: 120 * time.Second,
			// Downloads answer with a redirect to the delivery URL; surface
			// it instead of following.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Upload relays the file at path through the server. filename and caption
// are optional; an empty filename falls back to the file's base name
// server-side.
func (c *Client) Upload(path, filename, caption string) (*store.FileRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if filename != "" {
		if err := mw.WriteField("filename", filename); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Admin-Token", c.adminToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out struct {
		Success bool             `json:"success"`
		File    store.FileRecord `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &out.File, nil
}

// List fetches all file records, newest first.
func (c *Client) List() ([]store.FileRecord, error) {
	resp, err := c.http.Get(c.baseURL + "/api/files")
	if err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out struct {
		Files []store.FileRecord `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}
	return out.Files, nil
}

// ResolveURL asks the server for the current delivery URL of a stored file.
// The URL is time-limited; fetch it promptly.
func (c *Client) ResolveURL(id string) (string, error) {
	resp, err := c.http.Get(c.baseURL + "/api/download/" + id)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", apiError(resp)
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", fmt.Errorf("server answered %d without a Location header", resp.StatusCode)
	}
	return loc, nil
}

// apiError extracts the {"error": ...} envelope from a failed response.
func apiError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, envelope.Error)
	}
	return fmt.Errorf("server error (%d)", resp.StatusCode)
}
