package model

import "gorm.io/gorm"

// ProjectFile is a file attached to a project, e.g. an uploaded CSV or a
// PDF linked from the document.
type ProjectFile struct {
	gorm.Model
	ID        string `gorm:"primaryKey;uuid;not null;"`
	ProjectID string `gorm:"uuid;not null;index:project_file_project_index"`
	Name      string `gorm:"not null"`
	MimeType  string
	Content   string
}

func CreateProjectFile(db *gorm.DB, file *ProjectFile) error {
	return db.Create(file).Error
}
