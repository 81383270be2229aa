package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/notebook/internal/cache"
	"github.com/emrgen/notebook/internal/compress"
	"github.com/emrgen/notebook/internal/docsync"
	"github.com/emrgen/notebook/internal/jobs"
	"github.com/emrgen/notebook/internal/model"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	_ docsync.Saver      = (*ProjectService)(nil)
	_ jobs.ContentWriter = (*ProjectService)(nil)
)

// Project is a project as handed to callers, with its content decoded.
type Project struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Owner     string         `json:"owner,omitempty"`
	Status    string         `json:"status"`
	Version   int64          `json:"version"`
	Content   string         `json:"content,omitempty"`
	ChartData *rowset.RowSet `json:"chartData,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// File is a file attached to a project.
type File struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mimeType,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Backup describes one stored backup of a project.
type Backup struct {
	Version   int64     `json:"version"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewProjectService creates a new ProjectService. cache may be nil, in
// which case content is written straight to the store.
func NewProjectService(compress compress.Compress, store store.Store, cache cache.ProjectCache) *ProjectService {
	return &ProjectService{
		compress: compress,
		store:    store,
		cache:    cache,
	}
}

// ProjectService manages projects and persists their documents.
type ProjectService struct {
	compress compress.Compress
	store    store.Store
	cache    cache.ProjectCache
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return parsed, nil
}

func fileOf(f *model.ProjectFile, withContent bool) *File {
	out := &File{
		ID:        f.ID,
		ProjectID: f.ProjectID,
		Name:      f.Name,
		MimeType:  f.MimeType,
		CreatedAt: f.CreatedAt,
	}
	if withContent {
		out.Content = f.Content
	}
	return out
}

func projectOf(p *model.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		Owner:     p.Owner,
		Status:    string(p.Status),
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// encode compresses content for storage. Compressed bytes are stored
// base64 encoded so they fit a text column.
func (s *ProjectService) encode(html string) (string, error) {
	data, err := s.compress.Encode([]byte(html))
	if err != nil {
		return "", err
	}
	if s.compress.Name() == compress.NewNop().Name() {
		return string(data), nil
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (s *ProjectService) decode(p *model.Project) (string, error) {
	if p.Content == "" {
		return "", nil
	}
	c, err := compress.ByName(p.Compression)
	if err != nil {
		return "", err
	}
	if c.Name() == compress.NewNop().Name() {
		return p.Content, nil
	}

	raw, err := base64.StdEncoding.DecodeString(p.Content)
	if err != nil {
		return "", fmt.Errorf("decode project %s content: %w", p.ID, err)
	}
	data, err := c.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("decode project %s content: %w", p.ID, err)
	}
	return string(data), nil
}

// CreateProject creates an empty project. A blank name gets the default.
func (s *ProjectService) CreateProject(ctx context.Context, name, owner string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultProjectName
	}

	p := &model.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Owner:       owner,
		Status:      model.ProjectStatusDraft,
		Compression: s.compress.Name(),
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	logrus.Infof("created project %s", p.ID)
	return projectOf(p), nil
}

// GetProject returns a project with its content. Cached content that has
// not been written through yet takes precedence over the stored one.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*Project, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, pid)
	if err != nil {
		return nil, err
	}

	out := projectOf(p)
	if out.Content, err = s.decode(p); err != nil {
		return nil, err
	}

	if s.cache != nil {
		content, ok, err := s.cache.GetContent(ctx, pid)
		if err != nil {
			logrus.Errorf("error reading cache: %v", err)
		} else if ok {
			out.Content = content
		}
	}

	if len(p.ChartData) > 0 {
		rs := rowset.RowSet{}
		if err := json.Unmarshal(p.ChartData, &rs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChartDataCorrupted, err)
		}
		out.ChartData = &rs
	}

	return out, nil
}

// ListProjects lists projects without their content.
func (s *ProjectService) ListProjects(ctx context.Context, owner string) ([]*Project, error) {
	projects, err := s.store.ListProjects(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := make([]*Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectOf(p))
	}
	return out, nil
}

// DeleteProject deletes a project and drops it from the cache.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteProject(ctx, pid); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteProject(ctx, pid); err != nil {
			logrus.Errorf("error deleting project %s from cache: %v", id, err)
		}
	}
	return nil
}

// UpdateTitle renames a project.
func (s *ProjectService) UpdateTitle(ctx context.Context, id, name string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidTitle
	}
	return s.store.UpdateProjectTitle(ctx, pid, name)
}

// SaveContent persists the rendered document of a project. With a cache the
// content is written behind by the cache sync job.
func (s *ProjectService) SaveContent(ctx context.Context, projectID string, html string) error {
	pid, err := parseID(projectID)
	if err != nil {
		return err
	}

	if s.cache != nil {
		err := s.cache.SetContent(ctx, pid, html)
		if err == nil {
			return nil
		}
		logrus.Errorf("error updating cache, writing through: %v", err)
	}

	return s.WriteContent(ctx, pid, html)
}

// WriteContent stores the content of a project, keeping the replaced
// content as a backup. Unchanged content is not written.
func (s *ProjectService) WriteContent(ctx context.Context, projectID uuid.UUID, html string) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}

		old, err := s.decode(p)
		if err != nil {
			return err
		}
		if old == html && p.Compression == s.compress.Name() {
			return nil
		}

		if p.Content != "" {
			logrus.Debugf("creating backup for project %s, version %d", p.ID, p.Version)
			err = tx.CreateProjectBackup(ctx, &model.ProjectBackup{
				ProjectID:   p.ID,
				Version:     p.Version,
				Name:        p.Name,
				Content:     p.Content,
				Compression: p.Compression,
			})
			if err != nil {
				return err
			}
		}

		data, err := s.encode(html)
		if err != nil {
			return err
		}

		_, err = tx.UpdateProjectContent(ctx, projectID, data, s.compress.Name())
		return err
	})
}

// SaveChartData persists the current chart data of a project.
func (s *ProjectService) SaveChartData(ctx context.Context, projectID string, rs rowset.RowSet) error {
	pid, err := parseID(projectID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rs)
	if err != nil {
		return err
	}
	return s.store.UpdateChartData(ctx, pid, data)
}

// ListBackups lists the stored backups of a project, newest first.
func (s *ProjectService) ListBackups(ctx context.Context, id string) ([]*Backup, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	backups, err := s.store.ListProjectBackups(ctx, pid)
	if err != nil {
		return nil, err
	}

	out := make([]*Backup, 0, len(backups))
	for _, b := range backups {
		out = append(out, &Backup{Version: b.Version, Name: b.Name, CreatedAt: b.CreatedAt})
	}
	return out, nil
}

// AddFile attaches a file to a project.
func (s *ProjectService) AddFile(ctx context.Context, projectID, name, mimeType, content string) (*File, error) {
	pid, err := parseID(projectID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetProject(ctx, pid); err != nil {
		return nil, err
	}

	f := &model.ProjectFile{
		ID:        uuid.New().String(),
		ProjectID: pid.String(),
		Name:      name,
		MimeType:  mimeType,
		Content:   content,
	}
	if err := s.store.AddFile(ctx, f); err != nil {
		return nil, err
	}
	return fileOf(f, false), nil
}

// GetFile returns a file with its content.
func (s *ProjectService) GetFile(ctx context.Context, projectID, fileID string) (*File, error) {
	pid, err := parseID(projectID)
	if err != nil {
		return nil, err
	}
	fid, err := parseID(fileID)
	if err != nil {
		return nil, err
	}

	f, err := s.store.GetFile(ctx, pid, fid)
	if err != nil {
		return nil, err
	}
	return fileOf(f, true), nil
}

// ListFiles lists the files of a project without their content.
func (s *ProjectService) ListFiles(ctx context.Context, projectID string) ([]*File, error) {
	pid, err := parseID(projectID)
	if err != nil {
		return nil, err
	}

	files, err := s.store.ListFiles(ctx, pid)
	if err != nil {
		return nil, err
	}

	out := make([]*File, 0, len(files))
	for _, f := range files {
		out = append(out, fileOf(f, false))
	}
	return out, nil
}

// SaveFileContent replaces the content of a project file.
func (s *ProjectService) SaveFileContent(ctx context.Context, projectID, fileID, content string) error {
	pid, err := parseID(projectID)
	if err != nil {
		return err
	}
	fid, err := parseID(fileID)
	if err != nil {
		return err
	}

	return s.store.UpdateFileContent(ctx, pid, fid, content)
}
