package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateEventID validates an event identifier supplied on the query string.
// Event ids are Mongo object ids in practice, but the pipeline only requires
// a non-empty token free of path metacharacters.
func ValidateEventID(id string) error {
	if id == "" {
		return New(ErrCodeValidation, "Required Event Id")
	}

	if len(id) > 128 {
		return New(ErrCodeValidation, "event id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeValidation, "event id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return New(ErrCodeValidation, "event id contains invalid characters")
	}

	return nil
}

// ValidateFileName validates a template filename for safety.
// It ensures the filename is a simple basename without path components,
// since it is joined into an artifact-store path under the event namespace.
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeValidation, "template file name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeValidation, "template file name cannot contain path separators")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeValidation, "template file name cannot contain path traversal sequences")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeValidation, "template file name cannot be a hidden file")
	}

	return nil
}

// fontFamilyRegex matches font family names as accepted by the Google Fonts
// CSS endpoint: letters, digits, spaces and a few punctuation characters.
var fontFamilyRegex = regexp.MustCompile(`^[A-Za-z0-9 +._-]+$`)

// ValidateFontFamily validates a font family name before it is interpolated
// into a fonts service URL or a filesystem path.
func ValidateFontFamily(family string) error {
	if family == "" {
		return New(ErrCodeValidation, "font family cannot be empty")
	}

	if len(family) > 128 {
		return New(ErrCodeValidation, "font family too long (max 128 characters)")
	}

	if !fontFamilyRegex.MatchString(family) {
		return New(ErrCodeValidation, "invalid font family: %q", family)
	}

	return nil
}

// mobileNumberRegex matches guest mobile numbers: digits with an optional
// leading plus. Lengths are deliberately loose; rosters contain numbers from
// many regions and the number is only used as an identity key.
var mobileNumberRegex = regexp.MustCompile(`^\+?[0-9]{4,15}$`)

// ValidateMobileNumber validates a guest mobile number.
func ValidateMobileNumber(num string) error {
	if num == "" {
		return New(ErrCodeValidation, "guest mobile number cannot be empty")
	}

	if !mobileNumberRegex.MatchString(num) {
		return New(ErrCodeValidation, "invalid mobile number: %q", num)
	}

	return nil
}
