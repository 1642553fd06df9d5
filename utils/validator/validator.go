package validator

import (
	"io"

	"github.com/anoixa/memlane/utils"
)

// DefaultAllowedTypes image types accepted when no list is configured
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// DetectAllowedImage sniffs file and reports its content type and whether it is in allowed
func DetectAllowedImage(file io.ReadSeeker, allowed []string) (string, bool, error) {
	mimeType, err := utils.SniffContentType(file)
	if err != nil {
		return "", false, err
	}

	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	for _, a := range allowed {
		if utils.NormalizeMimeType(a) == mimeType {
			return mimeType, true, nil
		}
	}
	return mimeType, false, nil
}
