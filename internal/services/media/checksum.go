package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/princekumarofficial/media-service/internal/types"
)

// sniffLen matches the prefix mimetype inspects by default.
const sniffLen = 3072

// spooled is an upload copied to a local temp file while its digest is
// computed, so the dedup decision is made before any blob store write.
type spooled struct {
	path string
	hash string
	size int64
	head []byte
}

func (s *spooled) remove() {
	_ = os.Remove(s.path)
}

type headBuffer struct {
	bytes.Buffer
}

func (h *headBuffer) Write(p []byte) (int, error) {
	if room := sniffLen - h.Len(); room > 0 {
		if len(p) > room {
			h.Buffer.Write(p[:room])
		} else {
			h.Buffer.Write(p)
		}
	}
	return len(p), nil
}

func spoolAndHash(reader io.Reader, dir string, maxBytes int64) (*spooled, error) {
	if reader == nil {
		return nil, types.ErrEmptyUpload
	}
	tempFile, err := os.CreateTemp(dir, "media-upload-*")
	if err != nil {
		return nil, &types.StorageWriteError{Op: "spool", Err: err}
	}
	tempPath := tempFile.Name()
	keepFile := false
	defer func() {
		_ = tempFile.Close()
		if !keepFile {
			_ = os.Remove(tempPath)
		}
	}()

	hasher := sha256.New()
	head := &headBuffer{}
	limited := &io.LimitedReader{R: reader, N: maxBytes + 1}
	written, err := io.Copy(io.MultiWriter(tempFile, hasher, head), limited)
	if err != nil {
		return nil, &types.StorageWriteError{Op: "read", Err: err}
	}
	if written > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", types.ErrTooLarge, maxBytes)
	}
	if written == 0 {
		return nil, types.ErrEmptyUpload
	}
	if err := tempFile.Sync(); err != nil {
		return nil, &types.StorageWriteError{Op: "spool", Path: tempPath, Err: err}
	}

	keepFile = true
	return &spooled{
		path: tempPath,
		hash: hex.EncodeToString(hasher.Sum(nil)),
		size: written,
		head: head.Bytes(),
	}, nil
}
