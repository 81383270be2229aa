package store

import (
	"context"
	"errors"
	"time"

	"github.com/emrgen/notebook/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateProject(ctx context.Context, project *model.Project) error {
	return g.db.WithContext(ctx).Create(project).Error
}

func (g *GormStore) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (g *GormStore) ListProjects(ctx context.Context, owner string) ([]*model.Project, error) {
	var projects []*model.Project
	tx := g.db.WithContext(ctx).Order("updated_at desc")
	if owner != "" {
		tx = tx.Where("owner = ?", owner)
	}
	err := tx.Find(&projects).Error
	return projects, err
}

func (g *GormStore) UpdateProjectContent(ctx context.Context, id uuid.UUID, content, compression string) (int64, error) {
	res := g.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id.String()).Updates(map[string]any{
		"content":     content,
		"compression": compression,
		"version":     gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrProjectNotFound
	}

	var project model.Project
	if err := g.db.WithContext(ctx).Select("version").Where("id = ?", id.String()).First(&project).Error; err != nil {
		return 0, err
	}
	return project.Version, nil
}

func (g *GormStore) UpdateProjectTitle(ctx context.Context, id uuid.UUID, name string) error {
	return g.updateProject(ctx, id, "name", name)
}

func (g *GormStore) UpdateChartData(ctx context.Context, id uuid.UUID, data []byte) error {
	return g.updateProject(ctx, id, "chart_data", datatypes.JSON(data))
}

func (g *GormStore) UpdateReadings(ctx context.Context, id uuid.UUID, data []byte) error {
	return g.updateProject(ctx, id, "readings", datatypes.JSON(data))
}

func (g *GormStore) UpdateBidirectional(ctx context.Context, id uuid.UUID, enabled bool) error {
	return g.updateProject(ctx, id, "bidirectional_disabled", !enabled)
}

func (g *GormStore) updateProject(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := g.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id.String()).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (g *GormStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res := g.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&model.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return g.db.WithContext(ctx).Where("project_id = ?", id.String()).Delete(&model.ProjectFile{}).Error
}

func (g *GormStore) AddFile(ctx context.Context, file *model.ProjectFile) error {
	return g.db.WithContext(ctx).Create(file).Error
}

func (g *GormStore) GetFile(ctx context.Context, projectID, fileID uuid.UUID) (*model.ProjectFile, error) {
	var file model.ProjectFile
	err := g.db.WithContext(ctx).Where("id = ? AND project_id = ?", fileID.String(), projectID.String()).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (g *GormStore) ListFiles(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectFile, error) {
	var files []*model.ProjectFile
	err := g.db.WithContext(ctx).Where("project_id = ?", projectID.String()).Order("created_at").Find(&files).Error
	return files, err
}

func (g *GormStore) UpdateFileContent(ctx context.Context, projectID, fileID uuid.UUID, content string) error {
	res := g.db.WithContext(ctx).Model(&model.ProjectFile{}).
		Where("id = ? AND project_id = ?", fileID.String(), projectID.String()).
		Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

func (g *GormStore) CreateProjectBackup(ctx context.Context, backup *model.ProjectBackup) error {
	return g.db.WithContext(ctx).Create(backup).Error
}

func (g *GormStore) ListProjectBackups(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectBackup, error) {
	var backups []*model.ProjectBackup
	err := g.db.WithContext(ctx).Where("project_id = ?", projectID.String()).Order("version desc").Find(&backups).Error
	return backups, err
}

func (g *GormStore) ListBackupsCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.ProjectBackup, error) {
	var backups []*model.ProjectBackup
	err := g.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("project_id, created_at").
		Find(&backups).Error
	return backups, err
}

func (g *GormStore) DeleteProjectBackups(ctx context.Context, versions map[string][]int64) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for projectID, vs := range versions {
			if len(vs) == 0 {
				continue
			}
			logrus.Infof("removing %d backups of project %s", len(vs), projectID)
			if err := tx.Unscoped().Where("project_id = ? AND version IN ?", projectID, vs).Delete(&model.ProjectBackup{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
