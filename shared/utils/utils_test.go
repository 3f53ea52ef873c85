package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExt(t *testing.T) {
	assert.Equal(t, "pdf", FileExt("scan.pdf"))
	assert.Equal(t, "gz", FileExt("archive.tar.gz"))
	assert.Equal(t, "", FileExt("README"))
}

func TestGenerateObjectName(t *testing.T) {
	name := GenerateObjectName("Visa Scan.PDF")
	assert.True(t, strings.HasSuffix(name, ".pdf"), name)
	assert.NotEqual(t, name, GenerateObjectName("Visa Scan.PDF"))

	assert.NotContains(t, GenerateObjectName("noext"), ".")
}

func TestGenerateObjectNameSanitisesExtension(t *testing.T) {
	tests := []struct {
		fileName string
		wantExt  string
	}{
		{fileName: "scan.pdf?x", wantExt: ".pdfx"},
		{fileName: "a.pdf#1", wantExt: ".pdf1"},
		{fileName: "photo.J P/G", wantExt: ""},
		{fileName: "evil.%2e%2e", wantExt: ".2e2e"},
		{fileName: "dots.?#", wantExt: ""},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			name := GenerateObjectName(tt.fileName)
			assert.NotContainsf(t, name, "?", name)
			assert.NotContainsf(t, name, "#", name)
			assert.NotContainsf(t, name, "/", name)
			if tt.wantExt == "" {
				assert.NotContains(t, name, ".")
				return
			}
			assert.True(t, strings.HasSuffix(name, tt.wantExt), name)
		})
	}
}

func TestExceedsUploadLimit(t *testing.T) {
	assert.False(t, ExceedsUploadLimit(MaxUploadSize))
	assert.True(t, ExceedsUploadLimit(MaxUploadSize+1))
	assert.False(t, ExceedsUploadLimit(0))
}
