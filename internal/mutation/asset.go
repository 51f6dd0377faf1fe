package mutation

import (
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/Kerhoff/InSync/internal/fetcher"
)

// DefaultAssetField is the multipart field name the backend reads images from.
const DefaultAssetField = "photo"

// Asset is a binary payload referenced by a local URI. Open yields its bytes.
type Asset struct {
	URI  string
	Open func() (io.ReadCloser, error)
}

// FileName returns the last path segment of the URI, without query or fragment.
func (a Asset) FileName() string {
	raw := a.URI
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	name := path.Base(strings.TrimRight(raw, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// ContentType returns image/<ext>, with the extension lower-cased, or the bare
// type "image" when the name has no usable extension.
func (a Asset) ContentType() string {
	name := a.FileName()
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "image"
	}
	ext := strings.ToLower(name[i+1:])
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "image"
		}
	}
	return "image/" + ext
}

// Part opens the asset as a multipart file part under field.
func (a Asset) Part(field string) (fetcher.File, io.Closer, error) {
	rc, err := a.Open()
	if err != nil {
		return fetcher.File{}, nil, err
	}
	return fetcher.File{
		Field:       field,
		Name:        a.FileName(),
		ContentType: a.ContentType(),
		Reader:      rc,
	}, rc, nil
}
