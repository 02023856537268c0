package status

import (
	"fmt"
)

// FileFormatter defines how file operations and progress are rendered
type FileFormatter interface {
	// FormatFileOperation formats a file operation status message
	FormatFileOperation(path, kind string, status FileStatus) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file operation status message with emojis
func (f *DefaultFileFormatter) FormatFileOperation(path, kind string, status FileStatus) string {
	switch status {
	case StatusCreated:
		return fmt.Sprintf("✨ Created %s %s", kind, path)
	case StatusRewritten:
		return fmt.Sprintf("📝 Rewrote %s %s", kind, path)
	case StatusCopied:
		return fmt.Sprintf("📋 Copied %s %s", kind, path)
	case StatusMoved:
		return fmt.Sprintf("🚚 Moved %s %s", kind, path)
	case StatusRemoved:
		return fmt.Sprintf("🗑️  Removed %s %s", kind, path)
	case StatusRestored:
		return fmt.Sprintf("↩️  Restored %s %s", kind, path)
	default:
		return fmt.Sprintf("👍 Unchanged %s %s", kind, path)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
