package reports

import (
	"testing"
	"time"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientsWorkbook(t *testing.T) {
	clients := []*models.Client{
		{ID: uuid.New(), Name: "Alpha EE", AFM: "123456789", DOY: "A' Athinon", Email: "alpha@example.gr", Active: true},
		{ID: uuid.New(), Name: "Beta OE", AFM: "987654321", Active: false},
	}

	f, err := ClientsWorkbook(clients)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Clients", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Name", name)

	got, err := f.GetCellValue("Clients", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha EE", got)

	active, err := f.GetCellValue("Clients", "F3")
	require.NoError(t, err)
	assert.Equal(t, "no", active)
}

func TestObligationsWorkbook(t *testing.T) {
	completedAt := time.Date(2025, time.March, 18, 14, 0, 0, 0, time.UTC)
	rows := []ObligationRow{
		{
			ClientName:  "Alpha EE",
			AFM:         "123456789",
			TypeName:    "VAT return",
			Deadline:    time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
			Status:      models.ObligationCompleted,
			CompletedBy: "Maria",
			CompletedAt: &completedAt,
		},
		{
			ClientName: "Beta OE",
			AFM:        "987654321",
			TypeName:   "Payroll declaration",
			Deadline:   time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC),
			Status:     models.ObligationPending,
		},
	}

	f, err := ObligationsWorkbook(2025, 3, rows)
	require.NoError(t, err)
	defer f.Close()

	deadline, err := f.GetCellValue("2025-03", "D2")
	require.NoError(t, err)
	assert.Equal(t, "20/03/2025", deadline)

	status, err := f.GetCellValue("2025-03", "E3")
	require.NoError(t, err)
	assert.Equal(t, "pending", status)

	completed, err := f.GetCellValue("2025-03", "G3")
	require.NoError(t, err)
	assert.Empty(t, completed)
}
