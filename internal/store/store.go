package store

import (
	"context"
	"errors"
	"time"

	"github.com/emrgen/notebook/internal/model"
	"github.com/google/uuid"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrFileNotFound    = errors.New("file not found")
)

type Store interface {
	ProjectStore
	ProjectFileStore
	ProjectBackupStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type ProjectStore interface {
	// CreateProject creates a new project.
	CreateProject(ctx context.Context, project *model.Project) error
	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// ListProjects retrieves the projects of an owner, all projects when owner is empty.
	ListProjects(ctx context.Context, owner string) ([]*model.Project, error)
	// UpdateProjectContent replaces the content and bumps the version.
	UpdateProjectContent(ctx context.Context, id uuid.UUID, content, compression string) (int64, error)
	// UpdateProjectTitle renames a project.
	UpdateProjectTitle(ctx context.Context, id uuid.UUID, name string) error
	// UpdateChartData stores the current chart data of a project.
	UpdateChartData(ctx context.Context, id uuid.UUID, data []byte) error
	// UpdateReadings stores the experiment readings of a project.
	UpdateReadings(ctx context.Context, id uuid.UUID, data []byte) error
	// UpdateBidirectional turns chart editing of readings on or off.
	UpdateBidirectional(ctx context.Context, id uuid.UUID, enabled bool) error
	// DeleteProject deletes a project by ID.
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type ProjectFileStore interface {
	// AddFile attaches a file to a project.
	AddFile(ctx context.Context, file *model.ProjectFile) error
	// GetFile retrieves a file of a project.
	GetFile(ctx context.Context, projectID, fileID uuid.UUID) (*model.ProjectFile, error)
	// ListFiles retrieves the files of a project.
	ListFiles(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectFile, error)
	// UpdateFileContent replaces the content of a file.
	UpdateFileContent(ctx context.Context, projectID, fileID uuid.UUID, content string) error
}

type ProjectBackupStore interface {
	// CreateProjectBackup creates a new project backup.
	CreateProjectBackup(ctx context.Context, backup *model.ProjectBackup) error
	// ListProjectBackups retrieves the backups of a project, newest first.
	ListProjectBackups(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectBackup, error)
	// ListBackupsCreatedBetween retrieves the backups created in [from, to), oldest first.
	ListBackupsCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.ProjectBackup, error)
	// DeleteProjectBackups deletes the given versions per project.
	DeleteProjectBackups(ctx context.Context, versions map[string][]int64) error
}
