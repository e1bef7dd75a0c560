package data

import (
	"fmt"

	"gorm.io/gorm"
)

// Setting is one row of the operator-managed settings table.
type Setting struct {
	Name  string `gorm:"primaryKey;size:128"`
	Value string `gorm:"type:text"`
}

// Settings is a snapshot of the settings table taken at startup.
type Settings map[string]string

func (s Settings) Get(name string) string {
	return s[name]
}

// LoadSettings migrates the settings table and reads it once.
func LoadSettings(db *gorm.DB) (Settings, error) {
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("migrate settings: %w", err)
	}
	var rows []Setting
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return FromRows(rows), nil
}

// FromRows drops blank values so they never shadow the environment.
func FromRows(rows []Setting) Settings {
	out := make(Settings, len(rows))
	for _, r := range rows {
		if r.Value == "" {
			continue
		}
		out[r.Name] = r.Value
	}
	return out
}
