// Package endpoints is the static catalog of backend operations: method,
// path template and header policy for each.
package endpoints

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint describes one backend operation. Slug is a path template whose
// ":name" segments are filled from request parameters.
type Endpoint struct {
	Name   string
	Method string
	Slug   string

	// Tracking endpoints carry device and locale headers.
	Tracking bool

	// GuestAllowed endpoints are still sent, without a bearer token, when
	// no user credential can be obtained.
	GuestAllowed bool
}

func (e Endpoint) String() string { return e.Name }

func (e Endpoint) SlugWithMethod() string {
	return e.Method + " " + e.Slug
}

// Placeholders lists the names of the ":name" segments in order.
func (e Endpoint) Placeholders() []string {
	var names []string
	for _, seg := range strings.Split(e.Slug, "/") {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			names = append(names, name)
		}
	}
	return names
}

// Path fills the template from params. Every placeholder must be present and
// non-empty; values are path-escaped.
func (e Endpoint) Path(params map[string]string) (string, error) {
	segs := strings.Split(e.Slug, "/")
	for i, seg := range segs {
		name, ok := strings.CutPrefix(seg, ":")
		if !ok {
			continue
		}
		v := params[name]
		if v == "" {
			return "", fmt.Errorf("endpoint %s: missing path parameter %q", e.Name, name)
		}
		segs[i] = url.PathEscape(v)
	}
	return strings.Join(segs, "/"), nil
}

// Match reports whether path is an instance of slug. Placeholder segments
// match any non-empty value; literal segments must be equal.
func Match(slug, path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	want := strings.Split(strings.Trim(slug, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}

	for i := range want {
		if strings.HasPrefix(want[i], ":") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// Lookup finds the catalog entry for a concrete request. Literal routes win
// over templated ones when both match.
func Lookup(method, path string) (Endpoint, bool) {
	var (
		found    Endpoint
		ok       bool
		wildcard = -1
	)
	for _, e := range catalog {
		if e.Method != method || !Match(e.Slug, path) {
			continue
		}
		n := len(e.Placeholders())
		if !ok || n < wildcard {
			found, ok, wildcard = e, true, n
		}
	}
	return found, ok
}
