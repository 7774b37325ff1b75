package pdf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mediarag/pkg/pdf"
)

func TestExtractTextFromBytes_NotAPDF(t *testing.T) {
	_, err := pdf.ExtractTextFromBytes([]byte("this is plain text, not a pdf"))
	assert.Error(t, err)
}

func TestExtractTextFromBytes_Empty(t *testing.T) {
	_, err := pdf.ExtractTextFromBytes(nil)
	assert.Error(t, err)
}
