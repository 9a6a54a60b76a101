package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrEmptyURL is returned when the supplied target URL is empty after trimming.
var ErrEmptyURL = errors.New("URL cannot be empty")

// InvalidURLError is returned when a target URL fails syntax validation after
// scheme defaulting. Attempted carries the post-normalization URL so the
// caller can echo it back to the user.
type InvalidURLError struct {
	Attempted string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL format: %s", e.Attempted)
}

// knownSchemePattern matches URLs that already carry one of the fetchable
// schemes; anything else gets https:// prepended.
var knownSchemePattern = regexp.MustCompile(`(?i)^(?:f|ht)tps?://`)

// NormalizeTarget trims, scheme-defaults and validates a user-supplied target
// URL. The result always carries an http/https/ftp/ftps scheme. No network
// access happens here.
func NormalizeTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", ErrEmptyURL
	}

	if !knownSchemePattern.MatchString(target) {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" || u.Scheme == "" || strings.ContainsAny(target, " \t\n") {
		return "", &InvalidURLError{Attempted: target}
	}

	return target, nil
}
