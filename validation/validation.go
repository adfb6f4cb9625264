// Package validation checks identifiers and endpoints before they reach
// the YouTube and AI clients.
package validation

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/nijaru/golf-directory/errors"
)

var (
	channelIDPattern = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ChannelID accepts canonical UC-prefixed channel ids. Handles and legacy
// usernames are rejected; the API needs the id.
func ChannelID(id string) error {
	const op = "validation.ChannelID"

	if id == "" {
		return errors.InvalidInput(op, nil, "channel id is required")
	}
	if !channelIDPattern.MatchString(id) {
		return errors.InvalidInput(op, nil, fmt.Sprintf("invalid channel id %q", id))
	}
	return nil
}

func VideoID(id string) error {
	const op = "validation.VideoID"

	if id == "" {
		return errors.InvalidInput(op, nil, "video id is required")
	}
	if !videoIDPattern.MatchString(id) {
		return errors.InvalidInput(op, nil, fmt.Sprintf("invalid video id %q", id))
	}
	return nil
}

// Whitelist checks every id and rejects duplicates.
func Whitelist(ids []string) error {
	const op = "validation.Whitelist"

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if err := ChannelID(id); err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return errors.InvalidInput(op, nil, fmt.Sprintf("channel %s listed twice", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// BaseURL checks an API endpoint override. Empty means "use the default".
func BaseURL(name, raw string) error {
	const op = "validation.BaseURL"

	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.InvalidInput(op, err, fmt.Sprintf("%s is not a valid URL", name))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.InvalidInput(op, nil, fmt.Sprintf("%s must use http or https", name))
	}
	if u.Host == "" {
		return errors.InvalidInput(op, nil, fmt.Sprintf("%s must have a host", name))
	}
	return nil
}
