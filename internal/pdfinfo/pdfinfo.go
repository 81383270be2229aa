// Package pdfinfo reads the metadata shown next to linked PDF files.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"
)

// PreviewLength is the number of characters kept in Info.Preview.
const PreviewLength = 200

var ErrNotPDF = errors.New("not a pdf file")

// Info describes an uploaded PDF.
type Info struct {
	Pages   int    `json:"pages"`
	Preview string `json:"preview"`
}

// Inspect counts the pages of a PDF and extracts the start of its text.
// A PDF whose text cannot be extracted still reports its page count.
func Inspect(data []byte) (info Info, err error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	info.Pages = r.NumPage()
	info.Preview = preview(r)
	return info, nil
}

// preview returns the first PreviewLength characters of the text layer.
// The reader panics on malformed content streams.
func preview(r *pdf.Reader) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	text, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(text, PreviewLength*utf8.UTFMax))
	if err != nil {
		return ""
	}

	s := strings.Join(strings.Fields(string(data)), " ")
	if utf8.RuneCountInString(s) > PreviewLength {
		s = string([]rune(s)[:PreviewLength])
	}
	return s
}
