package model

import "gorm.io/gorm"

// ProjectBackup is the content of a project at one version. A backup is
// created whenever the stored content is replaced; the backup cleaner
// thins them out over time.
type ProjectBackup struct {
	gorm.Model
	ProjectID   string `gorm:"uuid;not null;index:project_backup_project_index"`
	Version     int64  `gorm:"not null"`
	Name        string
	Content     string
	Compression string
}

func (ProjectBackup) TableName() string {
	return "project_backups"
}
