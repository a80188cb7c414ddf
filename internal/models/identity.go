package models

import (
	"net/url"
	"sort"
	"strings"
)

// identityParams lists, per platform, the query parameters that act as the
// true record identifier in that platform's URLs. Every other query
// parameter is volatile (tracking, session, pagination state) and is
// stripped before a URL can serve as an identity. Platforms that route all
// listings through a generic redirect URL need their identifying parameter
// listed here or their URLs collapse into one key.
var identityParams = map[Platform][]string{
	PlatformIndeed:   {"jk", "vjk"},
	PlatformLinkedIn: {"currentJobId"},
}

// IdentityKey derives the deterministic identity string for a record, used
// for all dedup and delivery-ledger lookups. Derivation is pure and total:
// it never fails, and equal records always produce the same key.
//
// Precedence:
//  1. platform-native source ID
//  2. canonicalized source URL (volatile query params stripped)
//  3. adapter-supplied identity hints
//  4. normalized platform|company|title composite
func IdentityKey(rec *JobRecord) string {
	if id := collapse(rec.SourceID); id != "" {
		return string(rec.Platform) + ":id:" + id
	}

	if u := CanonicalURL(rec.Platform, rec.SourceURL); u != "" {
		return string(rec.Platform) + ":url:" + u
	}

	for _, hint := range rec.IdentityHints {
		if h := collapse(hint); h != "" {
			return string(rec.Platform) + ":hint:" + h
		}
	}

	company := collapse(rec.Company)
	parts := []string{string(rec.Platform), company, collapse(rec.Title)}
	if company == "" {
		// Without a company the composite is weak; fold in location to
		// keep distinct postings from colliding.
		parts = append(parts, collapse(rec.Location))
	}
	return strings.Join(parts, "|")
}

// CanonicalURL normalizes a listing URL for identity use. Scheme and host
// are lowercased, fragments and trailing slashes dropped, and the query
// string is reduced to the platform's identifying parameters (sorted for
// stability). Returns "" when the URL is absent or unparseable.
func CanonicalURL(platform Platform, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	allowed := identityParams[platform]
	query := u.Query()
	kept := url.Values{}
	for _, param := range allowed {
		if v := query.Get(param); v != "" {
			kept.Set(param, v)
		}
	}
	u.RawQuery = encodeSorted(kept)

	return u.String()
}

// encodeSorted encodes query values with deterministic parameter order.
func encodeSorted(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, val := range v[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

// collapse lowercases and collapses all interior whitespace to single
// spaces, trimming the ends. Used for every composite identity component.
func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
