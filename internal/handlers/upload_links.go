package handlers

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const uploadsPrefix = "uploads/"

// normalizeUploadLinks accepts absolute http(s) URLs and relative paths under
// uploads/. Relative paths are cleaned and must not escape the uploads root.
func normalizeUploadLinks(links []string) ([]string, error) {
	out := make([]string, 0, len(links))
	for _, link := range links {
		trimmed := strings.TrimSpace(link)
		if trimmed == "" {
			continue
		}

		if u, err := url.Parse(trimmed); err == nil && u.IsAbs() {
			if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, fmt.Errorf("unsupported link: %s", link)
			}
			out = append(out, trimmed)
			continue
		}

		cleanRel := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
		cleanRel = strings.TrimPrefix(cleanRel, "/")
		if !strings.HasPrefix(cleanRel, uploadsPrefix) || cleanRel == strings.TrimSuffix(uploadsPrefix, "/") {
			return nil, fmt.Errorf("refusing non-upload path: %s", link)
		}
		out = append(out, cleanRel)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one link is required")
	}
	return out, nil
}
