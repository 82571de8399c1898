package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ArchiveLayout selects the folder naming scheme of the document archive
type ArchiveLayout string

const (
	LayoutStandard      ArchiveLayout = "standard"       // AFM/year/month/category
	LayoutYearFirst     ArchiveLayout = "year_first"     // year/AFM/category
	LayoutCategoryFirst ArchiveLayout = "category_first" // category/AFM/year-month
	LayoutFlat          ArchiveLayout = "flat"           // AFM_year_month_category_file
	LayoutCustom        ArchiveLayout = "custom"         // user-defined template
)

// StringList represents a text list stored as JSONB
type StringList []string

// Value implements driver.Valuer for JSONB
func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = make(StringList, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = make(StringList, 0)
		return nil
	}

	if len(bytes) == 0 {
		*l = make(StringList, 0)
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// ArchiveSettings represents the singleton archive configuration row
type ArchiveSettings struct {
	ID             uuid.UUID     `json:"id"`
	Layout         ArchiveLayout `json:"layout"`
	CustomTemplate string        `json:"custom_template,omitempty"`
	AllowedExts    StringList    `json:"allowed_extensions"`
	MaxFileSize    int64         `json:"max_file_size"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
