// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// SaveBody streams body into a uniquely named staging file next to destPath
// and renames it into place, replacing any existing file. The staging file
// is removed on any failure, so destPath is either complete or untouched.
func SaveBody(op, destPath string, body io.Reader) (int64, error) {
	dir, base := filepath.Split(destPath)
	partPath := filepath.Join(dir, "."+base+"."+uuid.NewString()[:8]+".part")

	f, err := os.Create(partPath)
	if err != nil {
		return 0, types.NewError(types.KindIO, op, "creating "+partPath, err)
	}

	n, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(partPath)
		if IsTimeout(copyErr) {
			return 0, types.NewError(types.KindTimeout, op, "reading response body timed out", copyErr)
		}
		return 0, types.NewError(types.KindIO, op, "failed to write "+base, copyErr)
	}
	if closeErr != nil {
		os.Remove(partPath)
		return 0, types.NewError(types.KindIO, op, "closing "+partPath, closeErr)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return 0, types.NewError(types.KindIO, op, "renaming into "+destPath, err)
	}
	return n, nil
}
