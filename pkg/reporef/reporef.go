// Package reporef parses textual repository references into owner/name
// pairs. It understands GitHub HTTPS and SSH remote URLs plus the bare
// "owner/name" shorthand used in allow-list files.
package reporef

import (
	"regexp"
	"strings"
)

// Ref identifies a repository by owner and short name.
type Ref struct {
	Owner string
	Name  string
}

// FullName returns the "owner/name" form.
func (r Ref) FullName() string {
	return r.Owner + "/" + r.Name
}

var (
	httpsRe = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	sshRe   = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	bareRe  = regexp.MustCompile(`^([^/\s]+)/([^/\s]+)$`)
)

// Parse extracts an owner/name pair from one line of text. Surrounding
// whitespace is ignored; blank lines and lines starting with "#" never
// match. A trailing ".git" is stripped from the name. The second return
// reports whether the line held a recognizable reference.
func Parse(line string) (Ref, bool) {
	raw := strings.TrimSpace(line)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return Ref{}, false
	}
	if m := httpsRe.FindStringSubmatch(raw); m != nil {
		return Ref{Owner: m[1], Name: m[2]}, true
	}
	if m := sshRe.FindStringSubmatch(raw); m != nil {
		return Ref{Owner: m[1], Name: m[2]}, true
	}
	if m := bareRe.FindStringSubmatch(raw); m != nil {
		return Ref{Owner: m[1], Name: strings.TrimSuffix(m[2], ".git")}, true
	}
	return Ref{}, false
}
