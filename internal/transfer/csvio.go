// Package transfer implements the file-based interfaces:
// CSV plant import and xlsx database backup/restore.
package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"gorm.io/gorm"
)

var csvHeader = []string{"name", "species", "location", "acquired_at", "notes"}

// RowError reports a rejected CSV row. Line numbers are
// 1-based and include the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors,omitempty"`
}

// ImportPlantsCSV reads plant rows from r and creates them
// in one transaction. Malformed rows are skipped and
// reported; valid rows always commit.
func ImportPlantsCSV(ctx context.Context, dbConn *gorm.DB, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	plants := make(models.Plants, 0)
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		plant, err := parsePlantRow(record)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		plants = append(plants, plant)
	}

	if len(plants) > 0 {
		err := dbConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, plant := range plants {
				if err := tx.Create(plant).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	result.Imported = len(plants)
	return result, nil
}

func validateHeader(header []string) error {
	if len(header) != len(csvHeader) {
		return fmt.Errorf("expected header %v", csvHeader)
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(col)) != csvHeader[i] {
			return fmt.Errorf("expected header column %d to be %q", i+1, csvHeader[i])
		}
	}
	return nil
}

func parsePlantRow(record []string) (*models.Plant, error) {
	if len(record) != len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	name := strings.TrimSpace(record[0])
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	plant := &models.Plant{
		ID:       uuid.New(),
		Name:     name,
		Species:  strings.TrimSpace(record[1]),
		Location: strings.TrimSpace(record[2]),
		Notes:    strings.TrimSpace(record[4]),
	}

	if raw := strings.TrimSpace(record[3]); raw != "" {
		acquired, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid acquired_at %q: use YYYY-MM-DD", raw)
		}
		plant.AcquiredAt = &acquired
	}

	return plant, nil
}
