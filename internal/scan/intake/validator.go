// Package intake decides whether a selected file may be submitted as a scan.
package intake

import (
	"strings"

	"github.com/romariotrain/eyescan/internal/scan/models"
)

// Validate checks the declared type first and the size second; only the first
// failing check is reported. The candidate is returned untouched when accepted.
func Validate(c models.UploadCandidate) models.ValidationOutcome {
	if !IsImageType(c.DeclaredMimeType) {
		return models.Reject(models.NotAnImage)
	}
	if c.SizeBytes > models.MaxUploadBytes {
		return models.Reject(models.TooLarge)
	}
	return models.Accept(c)
}

// IsImageType reports whether a MIME type names an image, ignoring parameters and case.
func IsImageType(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	sub, ok := strings.CutPrefix(mt, "image/")
	return ok && sub != ""
}
