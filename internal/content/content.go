// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package content implements keyword detection for priority tagging.
// Filename matching always wins over content matching; content scanning is
// only consulted when the filename did not already decide. Scan failures of
// any kind count as "no match" and are never propagated as errors.
package content

import (
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// Scanner reports whether a document's content mentions any keyword.
type Scanner interface {
	ContainsAnyKeyword(path string, keywords []string) bool
}

// MatchFilename reports whether any keyword occurs in the file name.
func MatchFilename(name string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// maxPDFPages bounds the PDF scan; quotation markers sit on early pages.
const maxPDFPages = 5

// DocScanner scans PDF and spreadsheet content. Word and presentation
// formats are opaque to it and always report no match; they rely on
// filename tagging alone.
type DocScanner struct{}

func (DocScanner) ContainsAnyKeyword(path string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return scanPDF(path, keywords)
	case ".xlsx", ".xlsm":
		return scanWorkbook(path, keywords)
	}
	return false
}

func scanPDF(path string, keywords []string) bool {
	f, r, err := pdf.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	pages := r.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, kw := range keywords {
			if kw != "" && strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

func scanWorkbook(path string, keywords []string) bool {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return false
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			for _, cell := range row {
				for _, kw := range keywords {
					if kw != "" && strings.Contains(cell, kw) {
						return true
					}
				}
			}
		}
	}
	return false
}
