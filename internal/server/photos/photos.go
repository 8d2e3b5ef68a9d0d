// Package photos stores user and petition photo bytes behind a small Store
// interface, with a local filesystem backend and an S3-compatible one.
package photos

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/petitions/petitiond/internal/common"
)

// Owner kinds used as filename prefixes.
const (
	KindUser     = "user"
	KindPetition = "petition"
)

// Store persists photo bytes under a flat name such as "user_3.png".
// Get returns common.ErrNotFound when nothing is stored under name.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

var extByType = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
}

var typeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// Extension maps an accepted image content type to its file extension.
// Media type parameters are ignored; anything but png, jpeg or gif wraps
// common.ErrValidation.
func Extension(contentType string) (string, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: invalid content type %q", common.ErrValidation, contentType)
	}
	ext, ok := extByType[strings.ToLower(mt)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %q", common.ErrValidation, mt)
	}
	return ext, nil
}

// FileName returns the storage name for an owner's photo, e.g. "petition_4.jpg".
func FileName(kind string, id int64, contentType string) (string, error) {
	ext, err := Extension(contentType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d.%s", kind, id, ext), nil
}

// ContentTypeFor derives the MIME type from a stored filename's extension.
func ContentTypeFor(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	ct, ok := typeByExt[ext]
	if !ok {
		return "", fmt.Errorf("unknown photo extension %q", ext)
	}
	return ct, nil
}

// validName rejects names that could escape a flat namespace.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid photo name %q", common.ErrValidation, name)
	}
	return nil
}
