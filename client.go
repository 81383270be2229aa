package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emrgen/notebook/internal/docsync"
	"github.com/emrgen/notebook/internal/service"
	"github.com/sirupsen/logrus"
)

// APIError is an error reported by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client interface {
	CreateProject(ctx context.Context, name, owner string) (*service.Project, error)
	GetProject(ctx context.Context, id string) (*service.Project, error)
	ListProjects(ctx context.Context, owner string) ([]*service.Project, error)
	DeleteProject(ctx context.Context, id string) error
	UpdateTitle(ctx context.Context, id, name string) error
	ListBackups(ctx context.Context, id string) ([]*service.Backup, error)
	Snapshot(ctx context.Context, id string) (*docsync.Snapshot, error)
	ImportCSV(ctx context.Context, id, name string, r io.Reader) error
}

type client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the server listening on addr, either a
// port or a base url.
func NewClient(addr string) Client {
	base := addr
	if !strings.Contains(base, "://") {
		if !strings.Contains(base, ":") {
			base = ":" + base
		}
		base = "http://localhost" + base[strings.Index(base, ":"):]
	}
	return &client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	logrus.Debugf("request time: %s %s: %v", method, path, time.Since(start))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)}
		var body struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(res.Body).Decode(&body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

func projectPath(id string) string {
	return "/v1/projects/" + url.PathEscape(id)
}

func (c *client) CreateProject(ctx context.Context, name, owner string) (*service.Project, error) {
	var p service.Project
	in := map[string]string{"name": name, "owner": owner}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/projects", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *client) GetProject(ctx context.Context, id string) (*service.Project, error) {
	var p service.Project
	if err := c.doJSON(ctx, http.MethodGet, projectPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *client) ListProjects(ctx context.Context, owner string) ([]*service.Project, error) {
	path := "/v1/projects"
	if owner != "" {
		path += "?owner=" + url.QueryEscape(owner)
	}
	var projects []*service.Project
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *client) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

func (c *client) UpdateTitle(ctx context.Context, id, name string) error {
	return c.doJSON(ctx, http.MethodPut, projectPath(id)+"/title", map[string]string{"name": name}, nil)
}

func (c *client) ListBackups(ctx context.Context, id string) ([]*service.Backup, error) {
	var backups []*service.Backup
	if err := c.doJSON(ctx, http.MethodGet, projectPath(id)+"/backups", nil, &backups); err != nil {
		return nil, err
	}
	return backups, nil
}

func (c *client) Snapshot(ctx context.Context, id string) (*docsync.Snapshot, error) {
	var snap docsync.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, projectPath(id)+"/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ImportCSV appends a table built from r to the end of the project document.
func (c *client) ImportCSV(ctx context.Context, id, name string, r io.Reader) error {
	path := projectPath(id) + "/import/csv"
	if name != "" {
		path += "?name=" + url.QueryEscape(name)
	}
	return c.do(ctx, http.MethodPost, path, r, "text/csv", nil)
}
