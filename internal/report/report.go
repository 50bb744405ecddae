// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the dedup index as a two-sheet workbook with
// navigable file links.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/officebatch/pkg/types"
)

const (
	sheetUnique     = "UniqueFiles"
	sheetDuplicates = "Duplicates"

	// maxColWidth caps auto-fit so long paths don't blow the layout up.
	maxColWidth = 80
)

// IndexPath returns the report location under targetRoot for a run started
// at ts.
func IndexPath(targetRoot string, ts time.Time) string {
	return filepath.Join(targetRoot, fmt.Sprintf("office_index_%s.xlsx", ts.Format("20060102_150405")))
}

// WriteIndex writes the unique and duplicate tables to path. copyMode
// switches the final column between copy destination and kept-file source,
// matching what the run actually did.
func WriteIndex(path string, unique []types.UniqueRecord, dups []types.DuplicateRecord, copyMode bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetUnique); err != nil {
		return fmt.Errorf("naming unique sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetDuplicates); err != nil {
		return fmt.Errorf("creating duplicates sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	lastUnique := "Source Path"
	lastDup := "Kept File Source"
	if copyMode {
		lastUnique = "Destination Path"
		lastDup = "Kept File Destination"
	}

	uniqueHeaders := []string{"No.", "Group", "File Name", "Ext", "Size (KB)", "Source Path"}
	if copyMode {
		uniqueHeaders = append(uniqueHeaders, lastUnique)
	}
	dupHeaders := []string{"No.", "Group", "File Name", "Ext", "Size (KB)", "Source Path", lastDup}

	if err := writeHeader(f, sheetUnique, uniqueHeaders, bold); err != nil {
		return err
	}
	if err := writeHeader(f, sheetDuplicates, dupHeaders, bold); err != nil {
		return err
	}

	for i, rec := range unique {
		row := []interface{}{
			i + 1, rec.GroupID, filepath.Base(rec.Source), rec.Ext, kb(rec.Size), rec.Source,
		}
		linkCol := 6
		link := rec.Source
		if copyMode {
			row = append(row, rec.Dest)
			linkCol = 7
			link = rec.Dest
		}
		if err := writeRow(f, sheetUnique, i+2, row); err != nil {
			return err
		}
		if err := setLink(f, sheetUnique, linkCol, i+2, link); err != nil {
			return err
		}
	}

	for i, rec := range dups {
		ref := rec.KeepSource
		if copyMode {
			ref = rec.KeepDest
		}
		row := []interface{}{
			i + 1, rec.GroupID, filepath.Base(rec.Source), rec.Ext, kb(rec.Size), rec.Source, ref,
		}
		if err := writeRow(f, sheetDuplicates, i+2, row); err != nil {
			return err
		}
		if err := setLink(f, sheetDuplicates, 6, i+2, rec.Source); err != nil {
			return err
		}
		if err := setLink(f, sheetDuplicates, 7, i+2, ref); err != nil {
			return err
		}
	}

	fitColumns(f, sheetUnique, len(uniqueHeaders), len(unique)+1)
	fitColumns(f, sheetDuplicates, len(dupHeaders), len(dups)+1)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing index workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	if err := writeRow(f, sheet, 1, toAny(headers)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// setLink attaches a file:// hyperlink to the cell holding a path.
func setLink(f *excelize.File, sheet string, col, row int, path string) error {
	if path == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellHyperLink(sheet, cell, fileURL(path), "External"); err != nil {
		return fmt.Errorf("linking %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// fitColumns widens each column to its longest value, capped.
func fitColumns(f *excelize.File, sheet string, cols, rows int) {
	for col := 1; col <= cols; col++ {
		width := 0
		for row := 1; row <= rows; row++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				continue
			}
			v, err := f.GetCellValue(sheet, cell)
			if err == nil && len(v) > width {
				width = len(v)
			}
		}
		if width+2 > maxColWidth {
			width = maxColWidth - 2
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			continue
		}
		_ = f.SetColWidth(sheet, name, name, float64(width+2))
	}
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + strings.ReplaceAll(abs, string(filepath.Separator), "/")
}

func kb(size int64) float64 {
	return float64(size) / 1024
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
