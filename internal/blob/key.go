package blob

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/anoixa/memlane/utils"
)

const (
	tokenLength     = 8
	maxBaseNameLen  = 64
	defaultBaseName = "file"
	defaultExt      = "bin"
)

// GenerateKey builds {unixMillis}-{token}-{sanitizedBaseName}.{ext}
func GenerateKey(now time.Time, filename, contentType string) (string, error) {
	token, err := utils.GenerateRandomToken(tokenLength)
	if err != nil {
		return "", err
	}

	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)

	return fmt.Sprintf("%d-%s-%s.%s", now.UnixMilli(), token, SanitizeBaseName(base), safeExt(ext, contentType)), nil
}

// SanitizeBaseName case folds and drops everything outside [a-z0-9]
func SanitizeBaseName(name string) string {
	if clean := alnum(name, maxBaseNameLen); clean != "" {
		return clean
	}
	return defaultBaseName
}

func alnum(s string, limit int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= limit {
				break
			}
		}
	}
	return b.String()
}

// safeExt prefers the filename extension, then the content type, then "bin"
func safeExt(ext, contentType string) string {
	if clean := alnum(ext, 8); clean != "" {
		return clean
	}
	if fromType := utils.GetSafeExtension(contentType); fromType != "" {
		return strings.TrimPrefix(fromType, ".")
	}
	return defaultExt
}

// NormalizeKey accepts a raw key or a public URL and returns the object key.
// URLs under publicBaseURL have the prefix stripped; other URLs are matched on
// a "/{bucket}/" path segment so legacy URL shapes keep working.
func NormalizeKey(keyOrURL, publicBaseURL, bucket string) string {
	s := strings.TrimSpace(keyOrURL)
	if s == "" {
		return ""
	}

	if base := strings.TrimRight(publicBaseURL, "/"); base != "" && strings.HasPrefix(s, base+"/") {
		return unescape(stripQuery(strings.TrimPrefix(s, base+"/")))
	}

	if !strings.Contains(s, "://") {
		return strings.TrimLeft(stripQuery(s), "/")
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	if bucket != "" {
		marker := "/" + bucket + "/"
		if i := strings.LastIndex(p, marker); i >= 0 {
			return unescape(p[i+len(marker):])
		}
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return unescape(p[i+1:])
	}
	return unescape(p)
}

func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
