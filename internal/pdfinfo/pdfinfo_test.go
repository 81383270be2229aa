package pdfinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspect_NotPDF(t *testing.T) {
	_, err := Inspect([]byte("name,value\na,1\n"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = Inspect(nil)
	assert.ErrorIs(t, err, ErrNotPDF)
}
