package source

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// JokesSheet is the worksheet OpenXLSX prefers when a workbook has several.
const JokesSheet = "jokes"

// OpenXLSX loads the jokes worksheet of an .xlsx workbook (the sheet named
// JokesSheet, else the first one) into an in-memory SQLite database. The
// sheet uses the same header as a CSV export. Dates are read as stored, so
// date cells should be formatted as text.
func OpenXLSX(p string) (*SQLite, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUpstream, p, err)
	}
	defer zr.Close()

	sr, err := newSheetReader(&zr.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, p, err)
	}
	defer sr.Close()
	return loadMemory(p, sr)
}

type xlsxOpener struct{}

func (xlsxOpener) CanOpen(p string) bool { return hasExt(p, ".xlsx") }

func (xlsxOpener) Open(p string) (Source, error) { return OpenXLSX(p) }

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type relsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sharedXML struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type rowXML struct {
	Cells []struct {
		Ref    string `xml:"r,attr"`
		Type   string `xml:"t,attr"`
		V      string `xml:"v"`
		Inline struct {
			T string `xml:"t"`
		} `xml:"is"`
	} `xml:"c"`
}

// sheetReader streams worksheet rows as string records.
type sheetReader struct {
	rc     io.ReadCloser
	dec    *xml.Decoder
	shared []string
}

func newSheetReader(zr *zip.Reader) (*sheetReader, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var wb workbookXML
	if err := decodePart(files, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	var rels relsXML
	if err := decodePart(files, "xl/_rels/workbook.xml.rels", &rels); err != nil && !errors.Is(err, errNoPart) {
		return nil, err
	}
	var sst sharedXML
	if err := decodePart(files, "xl/sharedStrings.xml", &sst); err != nil && !errors.Is(err, errNoPart) {
		return nil, err
	}

	rid := ""
	for _, s := range wb.Sheets {
		if strings.EqualFold(s.Name, JokesSheet) {
			rid = s.RID
			break
		}
	}
	if rid == "" && len(wb.Sheets) > 0 {
		rid = wb.Sheets[0].RID
	}
	target := "xl/worksheets/sheet1.xml"
	for _, r := range rels.Rels {
		if rid != "" && r.ID == rid {
			target = partPath(r.Target)
		}
	}
	f, ok := files[target]
	if !ok {
		return nil, fmt.Errorf("worksheet %s: %w", target, errNoPart)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open worksheet: %w", err)
	}

	shared := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		if len(si.Runs) == 0 {
			shared[i] = si.T
			continue
		}
		var b strings.Builder
		for _, r := range si.Runs {
			b.WriteString(r.T)
		}
		shared[i] = b.String()
	}
	return &sheetReader{rc: rc, dec: xml.NewDecoder(rc), shared: shared}, nil
}

var errNoPart = errors.New("missing workbook part")

func decodePart(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, errNoPart)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// partPath turns a relationship target into a zip entry name. Targets are
// relative to xl/ unless they start with a slash.
func partPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("xl", target)
}

// Close releases the worksheet stream.
func (r *sheetReader) Close() error { return r.rc.Close() }

// Read returns the next non-blank row, or io.EOF after the last one.
func (r *sheetReader) Read() ([]string, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("parse worksheet: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row rowXML
		if err := r.dec.DecodeElement(&row, &se); err != nil {
			return nil, fmt.Errorf("parse row: %w", err)
		}
		if rec := r.record(row); rec != nil {
			return rec, nil
		}
	}
}

func (r *sheetReader) record(row rowXML) []string {
	var rec []string
	blank := true
	for i, c := range row.Cells {
		col := columnIndex(c.Ref)
		if col < 0 {
			col = i
		}
		for len(rec) <= col {
			rec = append(rec, "")
		}
		v := c.V
		switch c.Type {
		case "s":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n >= len(r.shared) {
				v = ""
			} else {
				v = r.shared[n]
			}
		case "inlineStr":
			v = c.Inline.T
		}
		rec[col] = v
		if strings.TrimSpace(v) != "" {
			blank = false
		}
	}
	if blank {
		return nil
	}
	return rec
}

// columnIndex maps a cell reference such as "C12" to its 0-based column.
func columnIndex(ref string) int {
	n := 0
	for _, ch := range strings.ToUpper(ref) {
		if ch < 'A' || ch > 'Z' {
			break
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1
}
