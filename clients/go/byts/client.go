// Package byts provides a Go client for the anonymous question board: the
// request/response registry API, the shared broadcast channel, and the
// thread synchronizer that merges the two into one consistent view.
package byts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/identity"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

// Client is a registry API client carrying the resolved anonymous session.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Session    models.Session
}

// NewClient creates a client and resolves the anonymous session: a persisted
// identity is reused unchanged, otherwise one is created and persisted. The
// registry registration is best-effort and never blocks construction.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	storage := identity.NewFileStorage(os.Getenv("BYTS_CONFIG"))
	session, err := identity.NewResolver(storage).Resolve()
	if err != nil {
		return nil, err
	}

	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Session:    session,
	}

	// session.init is best-effort: its failure must not block messaging
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.InitSession(ctx)

	return c, nil
}

// InitSession registers the session with the registry.
func (c *Client) InitSession(ctx context.Context) error {
	body := map[string]string{
		"session_id": c.Session.ID,
		"icon":       c.Session.Icon,
	}
	return c.post(ctx, "/api/session/init", body, nil)
}

// QuestionList is the registry's question listing.
type QuestionList struct {
	Questions []models.Question `json:"questions"`
	Total     int               `json:"total"`
}

// ListQuestions fetches questions, optionally filtered by status.
func (c *Client) ListQuestions(ctx context.Context, status models.QuestionStatus) (*QuestionList, error) {
	path := "/api/questions"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}

	var out QuestionList
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateQuestion posts a new anonymous question.
func (c *Client) CreateQuestion(ctx context.Context, text string) (*models.Question, error) {
	body := map[string]string{
		"text":       text,
		"session_id": c.Session.ID,
	}

	var out models.Question
	if err := c.post(ctx, "/api/questions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ArchiveQuestion transitions a question to archived. Archived threads are
// read-only; there is no reopen.
func (c *Client) ArchiveQuestion(ctx context.Context, questionID string) error {
	body := map[string]models.QuestionStatus{"status": models.StatusArchived}
	return c.patch(ctx, "/api/questions/"+questionID+"/status", body, nil)
}

// Thread is a point-in-time snapshot of one question's answers, used to seed
// or resynchronize the live view.
type Thread struct {
	Question models.Question `json:"question"`
	Answers  []models.Answer `json:"answers"`
}

// GetThread fetches the snapshot for one question.
func (c *Client) GetThread(ctx context.Context, questionID string) (*Thread, error) {
	var out Thread
	if err := c.get(ctx, "/api/questions/"+questionID+"/answers", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("X-Byts-Session", c.Session.ID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("api: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("api: unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
