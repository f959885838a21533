package rules

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinAge             = 18
	MaxAge             = 120
	DefaultAge         = MinAge
	MaxDisplayNameLen  = 64
	MaxBioLen          = 500
	MaxInterests       = 20
	MaxInterestLen     = 32
	MinPasswordLen     = 6
	MaxPasswordLen     = 72
	MaxMessageLen      = 2000
	fallbackNamePrefix = "user"
)

var (
	ErrDisplayName = errors.New("display name must be 1-64 characters")
	ErrAge         = errors.New("age must be between 18 and 120")
	ErrBio         = errors.New("bio must be at most 500 characters")
	ErrInterests   = errors.New("too many or too long interests")
)

// DefaultDisplayName derives the initial profile name from the local part of an email.
func DefaultDisplayName(email string) string {
	local := strings.TrimSpace(email)
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}
	if local == "" {
		return fallbackNamePrefix
	}
	return truncateRunes(local, MaxDisplayNameLen)
}

func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return "", ErrDisplayName
	}
	return name, nil
}

func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return ErrAge
	}
	return nil
}

// NormalizeBio trims the bio; an empty bio clears the field.
func NormalizeBio(bio string) (*string, error) {
	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > MaxBioLen {
		return nil, ErrBio
	}
	if bio == "" {
		return nil, nil
	}
	return &bio, nil
}

// NormalizeInterests trims entries, drops blanks and case-insensitive duplicates.
func NormalizeInterests(items []string) ([]string, error) {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if utf8.RuneCountInString(item) > MaxInterestLen {
			return nil, ErrInterests
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	if len(out) > MaxInterests {
		return nil, ErrInterests
	}
	return out, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
