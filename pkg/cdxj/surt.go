package cdxj

import (
	"fmt"
	"net/url"
	"strings"
)

// Key converts a URL into its Sort-friendly URI Reordering Transform: the
// scheme is dropped, the host segments are reversed and comma-joined, a ")"
// separates host from the original path and query, default ports are
// stripped, and the whole key is lowercased. Sorting keys lexicographically
// groups all entries for a host together, which is what makes prefix range
// queries over the serialized index work.
func Key(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%q is not a web url", rawurl)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%q has no host", rawurl)
	}

	segments := strings.Split(host, ".")
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	var b strings.Builder
	b.WriteString(strings.Join(segments, ","))

	if port := u.Port(); port != "" && port != defaultPort(u.Scheme) {
		b.WriteByte(':')
		b.WriteString(port)
	}

	b.WriteByte(')')
	if path := u.EscapedPath(); path != "" {
		b.WriteString(path)
	} else {
		b.WriteByte('/')
	}
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return strings.ToLower(b.String()), nil
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}
