// Package credkey derives the canonical lookup identity for a stored
// credential from an HTTP auth challenge (realm + request URI), folded
// through the configured alias rules.
package credkey

import (
	"fmt"
	"net/url"
	"strings"
)

// AliasRule folds many concrete hosts onto one stored credential identity.
// Prefix is the match pattern, "host[:port][/path]" with no scheme. Canonical,
// if set, is the identity stored under instead of the pattern itself, so
// several rules can fold distinct hosts onto one entry. Username, if set, is
// offered as the default account name when prompting.
type AliasRule struct {
	Name      string
	Prefix    string
	Canonical string
	Username  string
}

// CanonicalPrefix returns the identity this rule folds matches onto.
func (r AliasRule) CanonicalPrefix() string {
	if r.Canonical != "" {
		return stripScheme(r.Canonical)
	}
	return stripScheme(r.Prefix)
}

// Key is the canonicalized identity used for store lookups. Derivation is a
// pure function of (realm, URI, alias rules); two requests that fold to the
// same Prefix under the same Realm share one stored credential.
type Key struct {
	Realm  string
	Scheme string
	Host   string
	Port   string
	Path   string

	// Prefix is the canonical identity after alias folding:
	// "host[:port][/path]" when a rule matched, or the literal
	// "scheme://host[:port][/path]" when none did, so that distinct
	// schemes never share an entry by accident.
	Prefix string

	// Username is the default account name contributed by a matched alias
	// rule. Empty when no rule matched or the rule carries no username.
	Username string
}

// ID returns the stable string identity used as the backend storage key.
func (k Key) ID() string {
	return k.Realm + "@" + k.Prefix
}

// ServiceLabel returns the human-readable label for native keychain items,
// following the "product (user@host)" convention.
func (k Key) ServiceLabel(username string) string {
	return fmt.Sprintf("hgcred (%s@%s)", username, k.Host)
}

// HostPort returns "host" or "host:port" as it appeared in the request URI.
func (k Key) HostPort() string {
	if k.Port == "" {
		return k.Host
	}
	return k.Host + ":" + k.Port
}

// BuildKey derives the lookup key for an auth challenge. It is total: an
// unparsable URI degrades to treating the whole string as the host.
//
// Rule matching order: exact host:port rule first, then the longest-prefix
// rule without a port, then the literal scheme+host+port identity. A rule
// that names a port matches only that port; a rule without one matches any,
// so default-port and explicit-port URIs unify only through an alias.
func BuildKey(realm, uri string, rules []AliasRule) Key {
	k := parseURI(uri)
	k.Realm = realm
	k.Prefix = literalPrefix(k)

	var best *AliasRule
	bestScore := -1
	for i := range rules {
		score, ok := matchScore(k, rules[i].Prefix)
		if ok && score > bestScore {
			best, bestScore = &rules[i], score
		}
	}

	if best != nil {
		k.Prefix = best.CanonicalPrefix()
		k.Username = best.Username
	}

	return k
}

// parseURI extracts scheme/host/port/path, dropping query and fragment.
func parseURI(uri string) Key {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		// Not a URL we understand. Treat the raw string as a bare host so
		// that derivation still yields a usable (if odd) identity.
		return Key{Scheme: "https", Host: strings.TrimSuffix(stripScheme(uri), "/")}
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}

	return Key{
		Scheme: scheme,
		Host:   u.Hostname(),
		Port:   u.Port(),
		Path:   strings.TrimPrefix(u.EscapedPath(), "/"),
	}
}

// literalPrefix is the identity used when no alias rule matches. It keeps
// the scheme: only an alias rule may unify http and https deliberately.
func literalPrefix(k Key) string {
	p := k.Scheme + "://" + k.HostPort()
	if k.Path != "" {
		p += "/" + k.Path
	}
	return p
}

// matchScore reports whether the rule prefix matches the key, and how
// specifically. An explicit port match outranks any portless match; among
// rules of the same rank the longest prefix wins.
func matchScore(k Key, prefix string) (int, bool) {
	prefix = stripScheme(prefix)

	hostport := prefix
	path := ""
	if i := strings.IndexByte(prefix, '/'); i >= 0 {
		hostport, path = prefix[:i], strings.Trim(prefix[i+1:], "/")
	}

	host := hostport
	port := ""
	if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
		host, port = hostport[:i], hostport[i+1:]
	}

	if host != k.Host {
		return 0, false
	}
	if port != "" && port != k.Port {
		return 0, false
	}
	if !pathHasPrefix(k.Path, path) {
		return 0, false
	}

	score := len(prefix)
	if port != "" {
		// Exact host:port rules always beat portless prefix rules.
		score += 1 << 16
	}
	return score, true
}

// pathHasPrefix reports whether path falls under prefix on a segment
// boundary. An empty prefix matches every path.
func pathHasPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}

func stripScheme(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		return s[i+3:]
	}
	return s
}
