package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"
)

// extractDOCX reads paragraphs, tables, headers and footers straight
// from the OOXML parts. Malformed documents degrade to a bracketed
// diagnostic rather than an error.
func extractDOCX(data []byte) string {
	if len(data) == 0 {
		return diag("DOCX", "empty file")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return diag("DOCX", err)
	}

	var bodyXML string
	var extraXML []string
	var extraNames []string
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		switch {
		case name == "word/document.xml":
			bodyXML = readZipFile(f)
		case strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml"),
			strings.HasPrefix(name, "word/footer") && strings.HasSuffix(name, ".xml"):
			extraNames = append(extraNames, name)
		}
	}
	if bodyXML == "" {
		return diag("DOCX", "document.xml not found")
	}
	// Headers before footers, each in filename order.
	sort.Strings(extraNames)
	for _, name := range extraNames {
		for _, f := range zr.File {
			if strings.ReplaceAll(f.Name, "\\", "/") == name {
				extraXML = append(extraXML, readZipFile(f))
			}
		}
	}

	var parts []string
	if body := flattenDocXML(bodyXML); body != "" {
		parts = append(parts, body)
	}
	for _, x := range extraXML {
		if t := flattenDocXML(x); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func readZipFile(f *zip.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}
	return string(raw)
}

// flattenDocXML walks WordprocessingML tokens and emits one line per
// paragraph, with table cells in a row joined by " | ".
func flattenDocXML(raw string) string {
	dec := xml.NewDecoder(strings.NewReader(raw))
	var out strings.Builder
	var para strings.Builder
	var row []string
	inCell := false

	flushPara := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		if inCell {
			row = append(row, text)
			return
		}
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(text)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return strings.TrimSpace(raw)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				inCell = true
			case "br", "tab":
				para.WriteString(" ")
			}
		case xml.CharData:
			para.Write(t)
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				flushPara()
			case "tc":
				// Paragraph text inside the cell may not have hit a
				// closing p yet.
				flushPara()
				inCell = false
			case "tr":
				if line := strings.Join(row, " | "); strings.TrimSpace(line) != "" {
					if out.Len() > 0 {
						out.WriteString("\n")
					}
					out.WriteString(line)
				}
				row = nil
			}
		}
	}
	flushPara()
	return strings.TrimSpace(out.String())
}
