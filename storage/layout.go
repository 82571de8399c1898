package storage

import (
	"fmt"
	"path"
	"strings"

	"logistiko-backend/models"
)

// PathInfo carries the fields a folder layout can reference
type PathInfo struct {
	AFM        string
	ClientName string
	Year       int
	Month      int
	Category   string
	Filename   string
	Version    int
}

// RenderPath computes the archive-relative storage path for a document
// according to the configured folder layout. The version number is embedded
// in the filename so superseded versions never collide on disk.
func RenderPath(layout models.ArchiveLayout, customTemplate string, info PathInfo) (string, error) {
	if info.AFM == "" {
		return "", fmt.Errorf("path info: afm is required")
	}
	if info.Filename == "" {
		return "", fmt.Errorf("path info: filename is required")
	}

	name := versionedFilename(info.Filename, info.Version)
	category := sanitizeSegment(info.Category)
	if category == "" {
		category = "general"
	}

	switch layout {
	case models.LayoutStandard, "":
		return path.Join(info.AFM, fmt.Sprintf("%04d", info.Year), fmt.Sprintf("%02d", info.Month), category, name), nil
	case models.LayoutYearFirst:
		return path.Join(fmt.Sprintf("%04d", info.Year), info.AFM, category, name), nil
	case models.LayoutCategoryFirst:
		return path.Join(category, info.AFM, fmt.Sprintf("%04d-%02d", info.Year, info.Month), name), nil
	case models.LayoutFlat:
		return fmt.Sprintf("%s_%04d_%02d_%s_%s", info.AFM, info.Year, info.Month, category, name), nil
	case models.LayoutCustom:
		if customTemplate == "" {
			return "", fmt.Errorf("custom layout selected but no template configured")
		}
		rendered := strings.NewReplacer(
			"{afm}", info.AFM,
			"{name}", sanitizeSegment(info.ClientName),
			"{year}", fmt.Sprintf("%04d", info.Year),
			"{month}", fmt.Sprintf("%02d", info.Month),
			"{category}", category,
		).Replace(customTemplate)
		return path.Join(rendered, name), nil
	default:
		return "", fmt.Errorf("unknown archive layout: %s", layout)
	}
}

// versionedFilename inserts the version before the extension: report.pdf -> report_v2.pdf
func versionedFilename(filename string, version int) string {
	name := sanitizeSegment(filename)
	if version <= 1 {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_v%d%s", base, version, ext)
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "..", "_")
	return s
}
