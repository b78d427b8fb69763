package media

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const genericMimeType = "application/octet-stream"

// resolveMimeType trusts the declared type unless it is missing or generic,
// in which case the content is sniffed.
func resolveMimeType(declared string, head []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != genericMimeType {
		return mt
	}
	detected := mimetype.Detect(head).String()
	if mt, _, err := mime.ParseMediaType(detected); err == nil {
		return mt
	}
	return genericMimeType
}

// extensionFor keeps the original file extension, falling back to the one
// registered for the MIME type.
func extensionFor(originalName, mimeType string) string {
	if ext := filepath.Ext(originalName); ext != "" && len(ext) <= 10 && !strings.ContainsAny(ext, `/\ `) {
		return strings.ToLower(ext)
	}
	if m := mimetype.Lookup(mimeType); m != nil {
		return m.Extension()
	}
	return ""
}

func allowed(mimeType string, allowList []string) bool {
	if len(allowList) == 0 {
		return true
	}
	for _, a := range allowList {
		a = strings.TrimSpace(a)
		if a == mimeType {
			return true
		}
		if strings.HasSuffix(a, "/*") && strings.HasPrefix(mimeType, strings.TrimSuffix(a, "*")) {
			return true
		}
	}
	return false
}
