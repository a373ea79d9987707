package transfer

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathEscapesDestination is returned for blob keys that would land outside the download directory.
var ErrPathEscapesDestination = errors.New("blob key escapes destination directory")

// BlobName turns a local path into a bucket key by replacing backslashes with slashes.
func BlobName(localPath string) string {
	return strings.ReplaceAll(filepath.ToSlash(localPath), `\`, "/")
}

// CleanItem strips trailing separators from an upload item. A file item is
// uploaded under the cleaned path unchanged.
func CleanItem(item string) string {
	return strings.TrimRight(item, `/`+string(filepath.Separator))
}

// DefaultDownloadPath is where a blob lands when no local path is given: dir/<basename>.
func DefaultDownloadPath(dir, blobName string) string {
	return filepath.Join(dir, path.Base(blobName))
}

// LocalPath maps a blob key below destDir. Keys that resolve to destDir itself
// or outside of it are rejected.
func LocalPath(destDir, blobName string) (string, error) {
	base := filepath.Clean(destDir)
	full := filepath.Join(base, filepath.FromSlash(blobName))
	rel, err := filepath.Rel(base, full)
	if err != nil {
		return "", fmt.Errorf("%s: %w", blobName, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", blobName, ErrPathEscapesDestination)
	}
	return full, nil
}
