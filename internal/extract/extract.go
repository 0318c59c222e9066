// Package extract pulls plain text out of resume files so the local
// provider path can work without a conversion backend.
package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	apperrors "hiringbuddy/internal/errors"
)

// FromFile reads path and extracts its text based on the file extension.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewIOError(apperrors.ErrCodeFileNotReadable, "failed to read file", err).
			WithContext("path", path)
	}
	return FromBytes(data, path)
}

// FromBytes extracts text from an in-memory payload. The filename is
// only used for its extension.
func FromBytes(data []byte, fileName string) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".md":
		return string(data), nil
	case ".pdf":
		return fromPDF(data)
	case ".docx":
		return fromDocx(data)
	default:
		return "", apperrors.NewValidationError(apperrors.ErrCodeInvalidFormat, "unsupported resume file type", nil).
			WithContext("file", filepath.Base(fileName))
	}
}

func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.NewParseError(apperrors.ErrCodeInvalidFormat, "failed to read pdf", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}

func fromDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.NewParseError(apperrors.ErrCodeInvalidFormat, "failed to parse docx", err)
	}
	defer doc.Close()

	return stripDocumentXML(doc.Editable().GetContent()), nil
}

// stripDocumentXML flattens word/document.xml markup into plain text,
// keeping paragraph and line breaks as newlines.
func stripDocumentXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
