// Package asset stores uploaded event images and returns their public URLs.
package asset

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// Upload is an image file supplied with an event create or update.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Store puts bytes under a path and returns the content URL. Delete of a
// missing object is not an error.
type Store interface {
	Put(ctx context.Context, objectPath string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// eventPrefix groups event images in the store.
const eventPrefix = "events"

// SanitizeFilename replaces every character outside [A-Za-z0-9.] with "_"
// and strips any directory part, so the result is a single safe path segment.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// RoutePrefix returns the URL path of baseURL, under which a file server for
// locally stored assets is mounted. "https://cdn.example/assets/" gives "/assets".
func RoutePrefix(baseURL string) string {
	p := baseURL
	if u, err := url.Parse(baseURL); err == nil {
		p = u.Path
	}
	return "/" + strings.Trim(p, "/")
}

// ObjectPath builds a collision-resistant key: events/<unix-millis>_<name>.
func ObjectPath(now time.Time, filename string) string {
	return fmt.Sprintf("%s/%d_%s", eventPrefix, now.UnixMilli(), SanitizeFilename(filename))
}
