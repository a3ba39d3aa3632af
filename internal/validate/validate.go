// Package validate holds the pure input checks for the intake flow.
package validate

import (
	"regexp"

	"intake-agent/internal/domain"
)

// Accepted resume MIME types and the upload size cap.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	MaxFileSize = 2 * 1024 * 1024
)

// emailRx requires a non-whitespace run, "@", a non-whitespace run, "." and a
// final non-whitespace run somewhere in the input. Deliberately loose; the
// confirmation email is the real reachability check.
var emailRx = regexp.MustCompile(`\S+@\S+\.\S+`)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailRx.MatchString(s)
}

// File reports whether the uploaded document is an acceptable resume:
// PDF or DOCX, no larger than MaxFileSize. Checked before any network or
// disk I/O is attempted.
func File(f domain.FileMeta) bool {
	if f.SizeBytes > MaxFileSize {
		return false
	}
	return f.MimeType == MimePDF || f.MimeType == MimeDOCX
}
