// Package importer moves trivia questions between the question bank and Excel
// workbooks. Each sheet is a category; after a header row every row holds a
// prompt in column A and the answer in column B.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/pkg/logger"
	"github.com/xuri/excelize/v2"
)

var header = []interface{}{"Soal", "Jawaban"}

// ReadWorkbook parses a workbook into a category → items map. Rows with a
// missing prompt or answer are skipped.
func ReadWorkbook(r io.Reader) (map[string][]models.TriviaItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	bank := make(map[string][]models.TriviaItem)
	for _, sheet := range f.GetSheetList() {
		category := strings.TrimSpace(sheet)
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warn("Skipping unreadable sheet", "sheet", sheet, "error", err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 2 {
				continue
			}
			prompt := strings.TrimSpace(row[0])
			answer := strings.TrimSpace(row[1])
			if prompt == "" || answer == "" {
				logger.Debug("Skipping incomplete row", "sheet", sheet, "row", i+1)
				continue
			}
			bank[category] = append(bank[category], models.TriviaItem{Prompt: prompt, Answer: answer})
		}
	}
	return bank, nil
}

// WriteWorkbook writes bank as one sheet per category, in the layout
// ReadWorkbook expects.
func WriteWorkbook(w io.Writer, bank map[string][]models.TriviaItem) error {
	f := excelize.NewFile()
	defer f.Close()

	doc := models.Document{QuestionBank: bank}
	categories := doc.Categories()
	if len(categories) == 0 {
		categories = []string{models.DefaultCategory}
	}

	for i, category := range categories {
		// Excel caps sheet names at 31 characters.
		name := category
		if len([]rune(name)) > 31 {
			name = string([]rune(name)[:31])
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for j, item := range bank[category] {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			row := []interface{}{item.Prompt, item.Answer}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
