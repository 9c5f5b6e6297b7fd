package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// xlsx OOXML parts, unmarshalled with namespace-agnostic local names.

type xlsxWorkbook struct {
	Sheets []xlsxSheetRef `xml:"sheets>sheet"`
}

type xlsxSheetRef struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"id,attr"`
}

type xlsxRels struct {
	Rels []xlsxRel `xml:"Relationship"`
}

type xlsxRel struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type xlsxSharedStrings struct {
	Items []xlsxSharedString `xml:"si"`
}

type xlsxSharedString struct {
	Text string   `xml:"t"`
	Runs []string `xml:"r>t"`
}

func (s xlsxSharedString) value() string {
	if len(s.Runs) > 0 {
		return strings.Join(s.Runs, "")
	}
	return s.Text
}

type xlsxWorksheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

// extractXlsx walks every sheet in workbook order and emits one line per row,
// joining non-empty cell values with a single space.
func extractXlsx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", extractionErr(FormatXlsx, fmt.Errorf("open archive: %w", err))
	}

	var workbook xlsxWorkbook
	if err := unmarshalZipEntry(zr, "xl/workbook.xml", &workbook); err != nil {
		return "", extractionErr(FormatXlsx, err)
	}

	var rels xlsxRels
	if err := unmarshalZipEntry(zr, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return "", extractionErr(FormatXlsx, err)
	}
	relTargets := make(map[string]string, len(rels.Rels))
	for _, rel := range rels.Rels {
		relTargets[rel.ID] = rel.Target
	}

	// sharedStrings.xml is absent when the workbook has no string cells.
	var shared xlsxSharedStrings
	if hasZipEntry(zr, "xl/sharedStrings.xml") {
		if err := unmarshalZipEntry(zr, "xl/sharedStrings.xml", &shared); err != nil {
			return "", extractionErr(FormatXlsx, err)
		}
	}

	var lines []string
	for _, ref := range workbook.Sheets {
		target := relTargets[ref.RID]
		if target == "" {
			return "", extractionErrf(FormatXlsx, "sheet %q has no relationship target", ref.Name)
		}
		if !strings.HasPrefix(target, "/") {
			target = "xl/" + target
		} else {
			target = strings.TrimPrefix(target, "/")
		}

		var sheet xlsxWorksheet
		if err := unmarshalZipEntry(zr, target, &sheet); err != nil {
			return "", extractionErr(FormatXlsx, err)
		}

		for _, row := range sheet.Rows {
			values := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				v := cellValue(cell, shared.Items)
				if v != "" {
					values = append(values, v)
				}
			}
			lines = append(lines, strings.Join(values, " "))
		}
	}

	return strings.Join(lines, "\n"), nil
}

func cellValue(cell xlsxCell, shared []xlsxSharedString) string {
	switch cell.Type {
	case "s":
		idx := 0
		if _, err := fmt.Sscanf(cell.Value, "%d", &idx); err != nil {
			return ""
		}
		if idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx].value()
	case "inlineStr":
		return cell.Inline
	default:
		return cell.Value
	}
}

func hasZipEntry(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func unmarshalZipEntry(zr *zip.Reader, name string, dst any) error {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := xml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("%s not found in archive", name)
}
