package model

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultProjectName names projects created without a name.
const DefaultProjectName = "Untitled Analysis"

type ProjectStatus string

const (
	ProjectStatusDraft    ProjectStatus = "draft"
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

type Project struct {
	gorm.Model
	ID          string `gorm:"primaryKey;uuid;not null;"`
	Name        string `gorm:"not null"`
	Owner       string `gorm:"index:project_owner_index"`
	Status      ProjectStatus
	Version     int64
	Content     string // the rendered document html, compressed
	Compression string // the compression algorithm used to compress the content
	ChartData   datatypes.JSON
	Readings    datatypes.JSON // experiment workbench readings
	// BidirectionalDisabled turns off editing readings from the chart.
	BidirectionalDisabled bool
	Files       []*ProjectFile `gorm:"foreignKey:ProjectID;references:ID"`
}

func CreateProject(db *gorm.DB, project *Project) error {
	return db.Create(project).Error
}

func GetProject(db *gorm.DB, id string) (*Project, error) {
	project := &Project{}
	err := db.Where("id = ?", id).First(project).Error
	if err != nil {
		return nil, err
	}

	return project, nil
}

// UpdateChanges writes the content only when it is newer than the stored one.
func (p *Project) UpdateChanges(db *gorm.DB) error {
	if p.Content != "" {
		return db.Model(&Project{}).Where("id = ? AND version < ?", p.ID, p.Version).Updates(p).Error
	}

	return nil
}

func (p *Project) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}
