// Package filesearch talks to the Gemini File Search API: one remote store
// per user, document ingestion into that store, and retrieval-augmented
// generation scoped to it.
package filesearch

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
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultUploadBaseURL = "https://generativelanguage.googleapis.com/upload/v1beta"
	generationModel      = "gemini-2.5-flash"

	defaultPollInterval = 2 * time.Second
	// Ingestion is abandoned entirely after maxWait.
	defaultMaxWait = 300 * time.Second
	// If the operation status has been unreadable for longer than this, the
	// ingestion is reported as failed instead of assumed complete.
	defaultStatusGrace = 60 * time.Second
)

var (
	ErrIngestFailed  = errors.New("document ingestion failed")
	ErrIngestTimeout = errors.New("document ingestion timed out")
)

type Client struct {
	apiKey        string
	baseURL       string
	uploadBaseURL string
	http          *http.Client
	log           *zap.Logger

	pollInterval time.Duration
	maxWait      time.Duration
	statusGrace  time.Duration
	stagingDir   string
}

func New(apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey:        apiKey,
		baseURL:       defaultBaseURL,
		uploadBaseURL: defaultUploadBaseURL,
		http:          &http.Client{Timeout: 30 * time.Second},
		log:           log,
		pollInterval:  defaultPollInterval,
		maxWait:       defaultMaxWait,
		statusGrace:   defaultStatusGrace,
		stagingDir:    os.TempDir(),
	}
}

// ResolveStore returns the user's store name. An already-known name is
// returned as-is without a remote call; otherwise a new store is created.
// Creation failures propagate: silently losing a store would corrupt the
// user's bookkeeping.
func (c *Client) ResolveStore(ctx context.Context, userID, existingStoreName string) (string, error) {
	if existingStoreName != "" {
		return existingStoreName, nil
	}

	payload := map[string]string{
		"displayName": fmt.Sprintf("user_%s_store", userID),
	}
	var created struct {
		Name string `json:"name"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/fileSearchStores", payload, &created); err != nil {
		return "", fmt.Errorf("create file search store: %w", err)
	}
	if created.Name == "" {
		return "", fmt.Errorf("create file search store: empty store name in response")
	}

	c.log.Info("created file search store",
		zap.String("user_id", userID),
		zap.String("store", created.Name))
	return created.Name, nil
}

// UploadDocument stages content to a temporary file, submits it for
// ingestion into storeName, and polls until the operation terminates. On
// success the store name is returned unchanged.
func (c *Client) UploadDocument(ctx context.Context, content, displayName, storeName string) (string, error) {
	stagePath := filepath.Join(c.stagingDir, "docsearch_"+uuid.NewString()+".txt")
	if err := os.WriteFile(stagePath, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("stage document: %w", err)
	}
	defer os.Remove(stagePath)

	op, err := c.startIngestion(ctx, stagePath, displayName, storeName)
	if err != nil {
		return "", fmt.Errorf("submit document to store %s: %w", storeName, err)
	}

	if err := c.awaitIngestion(ctx, op); err != nil {
		return "", err
	}
	return storeName, nil
}

// Answer runs a single generation request scoped to the given stores and
// returns the generated text verbatim.
func (c *Client) Answer(ctx context.Context, prompt string, storeNames []string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Tools: []tool{{
			FileSearch: &fileSearchTool{FileSearchStoreNames: storeNames},
		}},
	}

	var resp generateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, generationModel)
	if err := c.postJSON(ctx, url, req, &resp); err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("generate content: no candidates in response")
	}

	var text bytes.Buffer
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

// operation mirrors the long-running operation resource. Done is a pointer
// so a response that omits the field entirely is distinguishable from one
// that reports done=false.
type operation struct {
	Name  string          `json:"name"`
	Done  *bool           `json:"done"`
	Error *operationError `json:"error"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) startIngestion(ctx context.Context, stagePath, displayName, storeName string) (*operation, error) {
	file, err := os.Open(stagePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(metaPart).Encode(map[string]string{"displayName": displayName}); err != nil {
		return nil, err
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	filePart, err := mw.CreatePart(fileHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(filePart, file); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:uploadToFileSearchStore?uploadType=multipart", c.uploadBaseURL, storeName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var op operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return &op, nil
}

// awaitIngestion drives the operation to a terminal state:
// done → success; error → failure; poll budget exhausted → timeout;
// status unreadable → assumed done, unless it has been unreadable past the
// grace window. The assumed-done path is logged distinctly because it
// silently treats an unknown outcome as success.
func (c *Client) awaitIngestion(ctx context.Context, op *operation) error {
	if op.Name == "" {
		c.log.Warn("ingestion returned no operation handle, assuming synchronous completion")
		return nil
	}

	var elapsed time.Duration
	for {
		if op.Error != nil {
			return fmt.Errorf("%w: %s", ErrIngestFailed, op.Error.Message)
		}
		if op.Done == nil {
			c.log.Warn("ingestion operation has no status, assuming completion",
				zap.String("operation", op.Name))
			return nil
		}
		if *op.Done {
			c.log.Debug("ingestion complete",
				zap.String("operation", op.Name),
				zap.Duration("waited", elapsed))
			return nil
		}

		if elapsed >= c.maxWait {
			return fmt.Errorf("%w after %s", ErrIngestTimeout, c.maxWait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
		elapsed += c.pollInterval

		refreshed, err := c.getOperation(ctx, op.Name)
		if err != nil {
			if elapsed > c.statusGrace {
				return fmt.Errorf("%w: status unreadable for %s: %v", ErrIngestFailed, elapsed, err)
			}
			c.log.Warn("could not refresh ingestion status, retrying",
				zap.String("operation", op.Name), zap.Error(err))
			continue
		}
		op = refreshed
	}
}

func (c *Client) getOperation(ctx context.Context, name string) (*operation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var op operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return &op, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError surfaces the backend's own error message where available.
func apiError(resp *http.Response) error {
	var apiResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &apiResp); err == nil && apiResp.Error.Message != "" {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, apiResp.Error.Message)
	}
	return fmt.Errorf("backend returned %d", resp.StatusCode)
}

type generateRequest struct {
	Contents []content `json:"contents"`
	Tools    []tool    `json:"tools"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	FileSearch *fileSearchTool `json:"fileSearch,omitempty"`
}

type fileSearchTool struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}
