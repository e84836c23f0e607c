package oauth1

import (
	"net"
	"net/url"
	"sort"
	"strings"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/pkg/errors"
)

const upperHex = "0123456789ABCDEF"

// PercentEncode encodes s per RFC 3986: the unreserved set A-Z a-z 0-9 - . _ ~ is
// kept, every other byte becomes %XX with uppercase hex.
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// NormalizeURL splits rawURL into the base string URI and its query parameters.
// Scheme and host are lower-cased, the default port is dropped and the fragment
// is discarded.
func NormalizeURL(rawURL string) (string, url.Values, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, errors.Wrapf(autherrors.ErrSignature, "parse url %q: %v", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", nil, errors.Wrapf(autherrors.ErrSignature, "url %q is not absolute", rawURL)
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", nil, errors.Wrapf(autherrors.ErrSignature, "parse query of %q: %v", rawURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path, query, nil
}

type pair struct {
	key, value string
}

// NormalizeParameters encodes every key and value, sorts by encoded key then
// encoded value and joins them as k=v&k=v.
func NormalizeParameters(params url.Values) string {
	pairs := make([]pair, 0, len(params))
	for k, values := range params {
		ek := PercentEncode(k)
		for _, v := range values {
			pairs = append(pairs, pair{key: ek, value: PercentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + "=" + p.value
	}
	return strings.Join(parts, "&")
}

// BaseString builds METHOD&enc(baseURL)&enc(normalized params). Query parameters
// on rawURL are merged into params.
func BaseString(method, rawURL string, params url.Values) (string, error) {
	baseURL, query, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	all := url.Values{}
	for k, v := range query {
		all[k] = append(all[k], v...)
	}
	for k, v := range params {
		all[k] = append(all[k], v...)
	}
	return strings.ToUpper(method) + "&" + PercentEncode(baseURL) + "&" + PercentEncode(NormalizeParameters(all)), nil
}
