package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", resolveMimeType("application/pdf", nil))
	assert.Equal(t, "text/plain", resolveMimeType("text/plain; charset=utf-8", nil))
	assert.Equal(t, "image/png", resolveMimeType("", pngHeader))
	assert.Equal(t, "image/png", resolveMimeType("application/octet-stream", pngHeader))
	assert.Equal(t, "text/plain", resolveMimeType("", []byte("plain words")))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".pdf", extensionFor("Notes.PDF", "application/pdf"))
	assert.Equal(t, ".png", extensionFor("diagram", "image/png"))
	assert.Equal(t, "", extensionFor("blob", "application/x-unknown-thing"))
}

func TestAllowed(t *testing.T) {
	assert.True(t, allowed("anything/else", nil))
	assert.True(t, allowed("image/jpeg", []string{"image/*"}))
	assert.True(t, allowed("application/pdf", []string{" application/pdf"}))
	assert.False(t, allowed("video/mp4", []string{"image/*", "application/pdf"}))
}
