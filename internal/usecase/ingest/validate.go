package ingest

import (
	"fmt"
	"strings"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

const maxFilenameLength = 255

// supportedExtensions lists accepted extensions in the order used for the
// validation error message.
var supportedExtensions = []string{"pdf", "docx", "txt", "md", "html", "htm", "xlsx", "csv"}

// supportedMIMETypes maps each extension to the content types accepted for
// it. application/octet-stream is always accepted since many clients send it
// for anything binary.
var supportedMIMETypes = map[string][]string{
	"pdf":  {"application/pdf"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"txt":  {"text/plain"},
	"md":   {"text/markdown", "text/x-markdown", "text/plain"},
	"html": {"text/html"},
	"htm":  {"text/html"},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	"csv":  {"text/csv", "application/csv", "text/plain"},
}

// Tier names with predefined quota limits.
const (
	TierBasic        = "basic"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

var unlimitedStorage = (*int)(nil)

var tierLimits = map[string]domain.TierLimits{
	TierBasic:        {StorageLimitMB: intPtr(50), MaxFileSizeMB: 50, MaxPDFPages: 1000},
	TierProfessional: {StorageLimitMB: unlimitedStorage, MaxFileSizeMB: 100, MaxPDFPages: 2000},
	TierEnterprise:   {StorageLimitMB: unlimitedStorage, MaxFileSizeMB: 100, MaxPDFPages: 2000},
}

// LimitsForTier returns the quota limits for a named tier. Unknown tiers get
// the basic limits.
func LimitsForTier(tier string) domain.TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[TierBasic]
}

// ValidateFile checks a file against the type allow-list and quota limits
// before any bytes are processed. Pure; safe to call concurrently.
func ValidateFile(
	filename string, fileSize int64, contentType string,
	limits domain.TierLimits, currentStorageMB float64,
) domain.ValidationResult {
	ext := fileExtension(filename)
	if ext == "" {
		return invalid("File must have an extension")
	}

	validMIMEs, ok := supportedMIMETypes[ext]
	if !ok {
		return invalid("Unsupported file type. Supported: " + strings.Join(supportedExtensions, ", "))
	}

	if contentType != "application/octet-stream" && !contains(validMIMEs, contentType) {
		return invalid(fmt.Sprintf("Invalid content type for %s file", ext))
	}

	maxFileSizeBytes := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if fileSize > maxFileSizeBytes {
		return invalid(fmt.Sprintf("File too large. Maximum: %dMB", limits.MaxFileSizeMB))
	}

	if limits.StorageLimitMB != nil {
		fileSizeMB := float64(fileSize) / (1024 * 1024)
		if currentStorageMB+fileSizeMB > float64(*limits.StorageLimitMB) {
			return invalid(fmt.Sprintf("Storage limit exceeded. Maximum: %dMB", *limits.StorageLimitMB))
		}
	}

	if len(filename) > maxFilenameLength {
		return invalid(fmt.Sprintf("Filename too long. Maximum: %d characters", maxFilenameLength))
	}

	return domain.ValidationResult{IsValid: true}
}

func invalid(msg string) domain.ValidationResult {
	return domain.ValidationResult{IsValid: false, ErrorMessage: msg}
}

// fileExtension returns the lowercase extension without the dot, or "".
func fileExtension(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// ContentTypeFor maps a filename to its canonical MIME type, defaulting to
// application/octet-stream.
func ContentTypeFor(filename string) string {
	switch fileExtension(filename) {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "txt":
		return "text/plain"
	case "md":
		return "text/markdown"
	case "html", "htm":
		return "text/html"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func intPtr(v int) *int { return &v }
