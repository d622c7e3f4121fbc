// Package placement decides where an uploaded file is stored.
//
// Keys have the shape YYYY-MM-DD/{owner}_{unix}_{name}: the UTC date of the
// upload, then the owner id, the upload second and the sanitized original
// name. Two uploads of the same name by the same owner within one second map
// to the same key; callers accept that.
package placement

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/markdave123-py/Docshelf/internal/core"
)

// AllowedExtensions is the upload allow-list, lower case without the dot.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"pdf":  true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Allowed reports whether name carries an allow-listed extension.
func Allowed(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return ext != "" && AllowedExtensions[strings.ToLower(ext)]
}

// Sanitize reduces name to an ASCII file name that cannot contain path
// separators or control characters. It may return "".
func Sanitize(name string) string {
	ascii := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	s, _, err := transform.String(ascii, name)
	if err != nil {
		return ""
	}
	s = strings.NewReplacer("/", " ", `\`, " ").Replace(s)
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}

// Validate checks the original name against the allow-list and returns the
// sanitized name to store it under.
func Validate(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: file name is required", core.ErrValidation)
	}
	if !Allowed(name) {
		return "", fmt.Errorf("%w: invalid file type", core.ErrValidation)
	}
	safe := Sanitize(name)
	if safe == "" || !Allowed(safe) {
		return "", fmt.Errorf("%w: invalid file name %q", core.ErrValidation, name)
	}
	return safe, nil
}

// Key returns the slash-separated storage key for an upload.
func Key(ownerID int64, name string, at time.Time) (string, error) {
	if ownerID <= 0 {
		return "", fmt.Errorf("%w: invalid owner id %d", core.ErrValidation, ownerID)
	}
	safe, err := Validate(name)
	if err != nil {
		return "", err
	}
	at = at.UTC()
	return path.Join(at.Format(time.DateOnly), fmt.Sprintf("%d_%d_%s", ownerID, at.Unix(), safe)), nil
}

// Place resolves Key under root and returns an absolute path.
func Place(root string, ownerID int64, name string, at time.Time) (string, error) {
	key, err := Key(ownerID, name, at)
	if err != nil {
		return "", err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve upload root: %w", err)
	}
	return filepath.Join(absRoot, filepath.FromSlash(key)), nil
}
