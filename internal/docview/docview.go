// Package docview renders DOCX documents as HTML for inline viewing. A DOCX
// file is a zip archive of WordprocessingML; the converter extracts
// word/document.xml and emits one <p> per paragraph with escaped text. Run
// formatting is dropped — the viewer needs readable text, not fidelity.
package docview

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
)

// ErrNoDocument means the archive has no word/document.xml, i.e. the file
// is not a DOCX despite its extension.
var ErrNoDocument = errors.New("no word/document.xml in archive")

// ConvertFile renders the DOCX at path to an HTML fragment.
func ConvertFile(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()
		return convert(rc)
	}
	return "", ErrNoDocument
}

// convert walks the WordprocessingML token stream. Text inside w:t elements
// accumulates into the current paragraph; each closing w:p flushes one <p>.
// Tabs and explicit breaks map to their closest HTML equivalents.
func convert(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var out strings.Builder
	var para strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				para.WriteString("<br/>")
			case "tab":
				para.WriteString("&#9;")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := para.String()
				para.Reset()
				if strings.TrimSpace(text) == "" {
					continue
				}
				out.WriteString("<p>")
				out.WriteString(text)
				out.WriteString("</p>\n")
			}
		case xml.CharData:
			if inText {
				para.WriteString(html.EscapeString(string(t)))
			}
		}
	}

	return out.String(), nil
}
