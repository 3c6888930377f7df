// Package excel imports the vocabulary catalog from spreadsheets
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/engcoach/internal/database"
	"github.com/example/engcoach/internal/logger"
	"github.com/example/engcoach/pkg/models"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ErrMissingColumns is returned when the header lacks word or meaning_ja
var ErrMissingColumns = errors.New("header must contain word and meaning_ja columns")

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath     string       // Path to the Excel or CSV file
	SheetName    string       // Sheet to import; the first sheet when empty
	DefaultLevel models.Level // Level for rows with an empty level cell
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// Store is the catalog the importer writes to
type Store interface {
	FindByWordAndLevel(ctx context.Context, word string, level models.Level) (*models.VocabularyItem, error)
	Create(ctx context.Context, item *models.VocabularyItem) error
	Update(ctx context.Context, item *models.VocabularyItem) error
}

// Importer upserts catalog rows keyed by word and level
type Importer struct {
	store Store
	log   *logger.Logger
}

// NewImporter creates an importer
func NewImporter(store Store, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{store: store, log: log}
}

// ImportFile imports words from an Excel or CSV file
func (im *Importer) ImportFile(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		file, err := os.Open(config.FilePath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open CSV file")
		}
		defer file.Close()
		return im.ImportCSV(ctx, file, config.DefaultLevel)
	}

	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get rows of sheet %q", sheet)
	}
	return im.ImportRows(ctx, rows, config.DefaultLevel)
}

// ImportCSV imports a CSV stream with a header row
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, defaultLevel models.Level) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "error reading CSV")
	}
	return im.ImportRows(ctx, rows, defaultLevel)
}

// ImportRows imports rows whose first entry is the header
func (im *Importer) ImportRows(ctx context.Context, rows [][]string, defaultLevel models.Level) (*ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}
	if len(rows) == 0 {
		return result, nil
	}

	cols := parseHeader(rows[0])
	if _, ok := cols["word"]; !ok {
		return nil, ErrMissingColumns
	}
	if _, ok := cols["meaning_ja"]; !ok {
		return nil, ErrMissingColumns
	}

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if isBlank(row) {
			continue
		}
		rowNum := i + 2
		result.TotalProcessed++

		item := cols.item(row, defaultLevel)
		if err := im.upsert(ctx, item, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	im.log.Info("vocabulary import finished",
		"processed", result.TotalProcessed,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

func (im *Importer) upsert(ctx context.Context, item models.VocabularyItem, result *ImportResult) error {
	if item.Word == "" {
		return errors.New("word cannot be empty")
	}
	if item.Meaning == "" {
		return errors.New("meaning cannot be empty")
	}

	existing, err := im.store.FindByWordAndLevel(ctx, item.Word, item.Level)
	if errors.Is(err, database.ErrNotFound) {
		if err := im.store.Create(ctx, &item); err != nil {
			return err
		}
		result.Created++
		return nil
	}
	if err != nil {
		return err
	}

	item.ID = existing.ID
	if item == *existing {
		result.Skipped++
		return nil
	}
	if err := im.store.Update(ctx, &item); err != nil {
		return err
	}
	result.Updated++
	return nil
}

// columns maps a lowercased header name to its index
type columns map[string]int

var headerAliases = map[string]string{
	"meaning":  "meaning_ja",
	"pos":      "part_of_speech",
	"japanese": "meaning_ja",
}

func parseHeader(header []string) columns {
	cols := columns{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) item(row []string, defaultLevel models.Level) models.VocabularyItem {
	level := defaultLevel
	if raw := c.get(row, "level"); raw != "" {
		level = models.ParseLevel(raw)
	}
	if level.IsAll() {
		level = models.Level5
	}
	return models.VocabularyItem{
		Word:          c.get(row, "word"),
		Meaning:       c.get(row, "meaning_ja"),
		Level:         level,
		PartOfSpeech:  c.get(row, "part_of_speech"),
		Category:      c.get(row, "category"),
		Pronunciation: c.get(row, "pronunciation"),
		ExampleEN:     c.get(row, "example_en"),
		ExampleJA:     c.get(row, "example_ja"),
	}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
