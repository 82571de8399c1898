package storage

import (
	"testing"

	"logistiko-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPathLayouts(t *testing.T) {
	info := PathInfo{
		AFM:        "123456789",
		ClientName: "Acme SA",
		Year:       2025,
		Month:      3,
		Category:   "invoices",
		Filename:   "invoice.pdf",
		Version:    1,
	}

	tests := []struct {
		name     string
		layout   models.ArchiveLayout
		template string
		want     string
	}{
		{"standard", models.LayoutStandard, "", "123456789/2025/03/invoices/invoice.pdf"},
		{"empty defaults to standard", "", "", "123456789/2025/03/invoices/invoice.pdf"},
		{"year first", models.LayoutYearFirst, "", "2025/123456789/invoices/invoice.pdf"},
		{"category first", models.LayoutCategoryFirst, "", "invoices/123456789/2025-03/invoice.pdf"},
		{"flat", models.LayoutFlat, "", "123456789_2025_03_invoices_invoice.pdf"},
		{"custom", models.LayoutCustom, "{name}/{year}/{category}", "Acme_SA/2025/invoices/invoice.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderPath(tt.layout, tt.template, info)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderPathVersionedFilename(t *testing.T) {
	info := PathInfo{
		AFM:      "123456789",
		Year:     2025,
		Month:    3,
		Category: "invoices",
		Filename: "invoice.pdf",
		Version:  2,
	}

	got, err := RenderPath(models.LayoutStandard, "", info)
	require.NoError(t, err)
	assert.Equal(t, "123456789/2025/03/invoices/invoice_v2.pdf", got)
}

func TestRenderPathSanitizesSegments(t *testing.T) {
	info := PathInfo{
		AFM:      "123456789",
		Year:     2025,
		Month:    3,
		Category: "../etc",
		Filename: "my report.pdf",
		Version:  1,
	}

	got, err := RenderPath(models.LayoutStandard, "", info)
	require.NoError(t, err)
	assert.NotContains(t, got, "..")
	assert.NotContains(t, got, " ")
}

func TestRenderPathErrors(t *testing.T) {
	_, err := RenderPath(models.LayoutStandard, "", PathInfo{Filename: "a.pdf"})
	assert.Error(t, err)

	_, err = RenderPath(models.LayoutCustom, "", PathInfo{AFM: "1", Filename: "a.pdf"})
	assert.Error(t, err)

	_, err = RenderPath("weird", "", PathInfo{AFM: "1", Filename: "a.pdf"})
	assert.Error(t, err)
}
