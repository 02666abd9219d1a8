package storage

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// signedObjectPath matches download URLs of the form .../o/<percent-encoded-path>?...
var signedObjectPath = regexp.MustCompile(`/o/([^?#]+)`)

// ResolvePath turns a stored thumbnail reference into a storage-relative path. The
// reference may be a bare path, a signed download URL carrying the encoded path after
// "/o/", or a plain object URL.
func ResolvePath(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	if m := signedObjectPath.FindStringSubmatch(ref); m != nil {
		if decoded, err := url.PathUnescape(m[1]); err == nil {
			return decoded
		}
		return m[1]
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return ""
		}
		return strings.TrimPrefix(u.Path, "/")
	}

	return strings.TrimPrefix(ref, "/")
}

// ThumbnailPath builds thumbnails/{userId}/{timestamp}-{filename}.
func ThumbnailPath(userID, filename string, now time.Time) string {
	return fmt.Sprintf("thumbnails/%s/%d-%s", userID, now.UnixMilli(), cleanFilename(filename))
}

// InThumbnailDir reports whether p is a clean path under thumbnails/{userId}/.
func InThumbnailDir(p, userID string) bool {
	if p == "" || userID == "" || path.Clean(p) != p {
		return false
	}
	return strings.HasPrefix(p, "thumbnails/"+userID+"/")
}

// ProfilePhotoPath builds profile-photos/{userId}/{userId}.{ext}.
func ProfilePhotoPath(userID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "img"
	}
	return fmt.Sprintf("profile-photos/%s/%s.%s", userID, userID, ext)
}

func cleanFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" {
		stem = "file"
	}
	return stem + ext
}
