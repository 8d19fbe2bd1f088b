// Package normalize validates raw submissions and produces their canonical form.
package normalize

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/okian/guardian/internal/domain/model"
)

// Validation bounds for submission fields.
const (
	MinTitleLen       = 5
	MaxTitleLen       = 120
	MinDescriptionLen = 20
)

// ValidationError reports a single malformed submission field.
// Submissions failing validation never enter the pipeline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true,
}

// Clean collapses internal whitespace runs and trims the ends.
func Clean(text string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
}

// Metadata captures cheap text features extracted during normalization.
type Metadata struct {
	WordCount      int
	CharCount      int
	UppercaseRatio float64
	HasURLs        bool
}

var urlHint = regexp.MustCompile(`https?://`)

// ExtractMetadata computes text features over the combined title and description.
func ExtractMetadata(title, description string) Metadata {
	combined := title + " " + description
	upper := 0
	for _, c := range combined {
		if c >= 'A' && c <= 'Z' {
			upper++
		}
	}
	total := len(combined)
	if total == 0 {
		total = 1
	}
	return Metadata{
		WordCount:      len(strings.Fields(combined)),
		CharCount:      len(combined),
		UppercaseRatio: float64(upper) / float64(total),
		HasURLs:        urlHint.MatchString(combined),
	}
}

// Normalize validates a raw submission and returns its canonical form.
// No partial acceptance: the first violated constraint fails the whole
// submission.
func Normalize(raw model.Submission) (model.Submission, error) {
	s := raw
	s.Title = Clean(raw.Title)
	s.Description = Clean(raw.Description)

	if s.ID == "" {
		return model.Submission{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if n := len(s.Title); n < MinTitleLen || n > MaxTitleLen {
		return model.Submission{}, &ValidationError{
			Field:  "title",
			Reason: fmt.Sprintf("length must be between %d and %d characters", MinTitleLen, MaxTitleLen),
		}
	}
	if len(s.Description) < MinDescriptionLen {
		return model.Submission{}, &ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("must be at least %d characters", MinDescriptionLen),
		}
	}
	if !s.Geo.Empty() {
		if strings.TrimSpace(s.Geo.Country) == "" {
			return model.Submission{}, &ValidationError{Field: "geo.country", Reason: "must not be empty when a geo tag is present"}
		}
		if strings.TrimSpace(s.Geo.City) == "" {
			return model.Submission{}, &ValidationError{Field: "geo.city", Reason: "must not be empty when a geo tag is present"}
		}
	}

	media := make([]model.MediaRef, 0, len(raw.Media))
	for i, ref := range raw.Media {
		canonical, err := normalizeMedia(i, ref)
		if err != nil {
			return model.Submission{}, err
		}
		media = append(media, canonical)
	}
	if len(media) == 0 {
		media = nil
	}
	s.Media = media

	return s, nil
}

// normalizeMedia checks one media reference and resolves its kind from the
// URL extension when the caller did not set one.
func normalizeMedia(i int, ref model.MediaRef) (model.MediaRef, error) {
	field := fmt.Sprintf("media[%d]", i)
	u, err := url.Parse(strings.TrimSpace(ref.URL))
	if err != nil || u.Host == "" {
		return model.MediaRef{}, &ValidationError{Field: field, Reason: "must be a valid absolute URL"}
	}
	switch u.Scheme {
	case "http", "https", "s3":
	default:
		return model.MediaRef{}, &ValidationError{Field: field, Reason: "scheme must be http, https or s3"}
	}

	ext := strings.ToLower(path.Ext(u.Path))
	kind := ref.Kind
	if kind == "" {
		switch {
		case imageExtensions[ext]:
			kind = model.MediaImage
		case videoExtensions[ext]:
			kind = model.MediaVideo
		}
	}
	switch kind {
	case model.MediaImage:
		if ext != "" && !imageExtensions[ext] {
			return model.MediaRef{}, &ValidationError{Field: field, Reason: "extension does not match image kind"}
		}
	case model.MediaVideo:
		if ext != "" && !videoExtensions[ext] {
			return model.MediaRef{}, &ValidationError{Field: field, Reason: "extension does not match video kind"}
		}
	default:
		return model.MediaRef{}, &ValidationError{Field: field, Reason: "unrecognized media kind"}
	}

	return model.MediaRef{URL: u.String(), Kind: kind}, nil
}
