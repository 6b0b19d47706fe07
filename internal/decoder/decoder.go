// Package decoder extracts plain text from document files. The format is
// resolved once from the file extension and each format has exactly one
// decode function.
package decoder

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

// Format identifies how a file's bytes are turned into text.
type Format int

const (
	PlainText Format = iota
	PDF
	DOCX
	Unknown
)

func (f Format) String() string {
	switch f {
	case PlainText:
		return "text"
	case PDF:
		return "pdf"
	case DOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// FormatOf maps a path's extension to a Format. The match is case-sensitive
// on the extension without its leading dot.
func FormatOf(path string) Format {
	switch extension(path) {
	case "txt", "":
		return PlainText
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	default:
		return Unknown
	}
}

func extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// Decoder turns files into rune sequences.
type Decoder struct {
	logger *slog.Logger
}

func New() *Decoder {
	return &Decoder{
		logger: slog.Default().With("component", "decoder"),
	}
}

// Decode reads path and returns its text. Every failure wraps
// errors.ErrDecode.
func (d *Decoder) Decode(path string) ([]rune, error) {
	var (
		text []rune
		err  error
	)
	switch format := FormatOf(path); format {
	case PlainText:
		text, err = decodeText(path)
	case PDF:
		text, err = decodePDF(path)
	case DOCX:
		text, err = decodeDOCX(path)
	default:
		d.logger.Warn("unexpected file type, reading as raw text",
			"path", path,
			"extension", extension(path),
		)
		text, err = decodeText(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrDecode, path, err)
	}
	return text, nil
}

// decodeText replaces every invalid UTF-8 byte with U+FFFD.
func decodeText(path string) ([]rune, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytes.Runes(data), nil
}

// decodePDF concatenates page texts, each page preceded by one space.
func decodePDF(path string) (text []rune, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteByte(' ')
		sb.WriteString(pageText)
	}
	return []rune(sb.String()), nil
}

const docxMainPart = "word/document.xml"

// decodeDOCX joins the text of top-level body paragraphs with single spaces.
// Tables, section properties and other structural nodes are ignored.
func decodeDOCX(path string) ([]rune, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxMainPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("package has no %s", docxMainPart)
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", docxMainPart, err)
	}
	defer rc.Close()

	paragraphs, err := bodyParagraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", docxMainPart, err)
	}
	return []rune(strings.Join(paragraphs, " ")), nil
}

func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
		paraDepth  int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			if !inPara && name == "p" && len(stack) > 0 && stack[len(stack)-1] == "body" {
				inPara = true
				paraDepth = len(stack)
				current.Reset()
			} else if inPara {
				switch name {
				case "t":
					inText = true
				case "tab":
					current.WriteByte('\t')
				case "br", "cr":
					current.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced element %s", el.Name.Local)
			}
			stack = stack[:len(stack)-1]
			if !inPara {
				continue
			}
			if len(stack) == paraDepth {
				inPara = false
				inText = false
				paragraphs = append(paragraphs, current.String())
			} else if el.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
	return paragraphs, nil
}
