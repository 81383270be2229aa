package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Project{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&ProjectFile{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&ProjectBackup{}); err != nil {
		return err
	}

	return nil
}
