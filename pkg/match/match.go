// Package match builds the search patterns for a batch of repository
// names and resolves matched lines back to canonical repositories.
//
// Matching is two-stage: a coarse textual pattern set handed to the
// search backend, then structured extractors that re-examine each hit
// line. Both stages cover GitHub URLs (https and ssh), "org/name"
// shorthand, and Go module-path aliases.
package match

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/crossmaphq/crossmap/pkg/modalias"
)

// Target is one canonical repository reference resolved from a line.
// Owner is empty when the reference did not carry one.
type Target struct {
	Repo  string
	Owner string
}

// Extractor pairs a compiled pattern with the lookup needed to resolve
// its matches. aliasToRepo is nil for URL and org-shorthand extractors,
// whose matches carry the repository name directly.
type Extractor struct {
	re          *regexp.Regexp
	aliasToRepo map[string]string
	repoIdx     int
	ownerIdx    int
	aliasIdx    int
}

// BuildPatterns returns the coarse text patterns for one batch of
// repository names. Longer names sort first inside alternations so they
// win over shared prefixes. Returns nil when names is empty.
func BuildPatterns(names []string, org string, aliases modalias.Map) []string {
	alt := alternation(names)
	if alt == "" {
		return nil
	}

	patterns := []string{
		`github\.com[:/][A-Za-z0-9_.-]+/(` + alt + `)(?:\.git)?`,
	}
	if org != "" {
		patterns = append(patterns, `\b`+regexp.QuoteMeta(org)+`/(`+alt+`)(?:@[\w.\-]+)?\b`)
	}
	if aliasAlt := aliasAlternation(names, aliases); aliasAlt != "" {
		patterns = append(patterns, `\b(?:`+aliasAlt+`)(?:@[\w.\-]+)?\b`)
	}
	return patterns
}

// BuildExtractors returns the structured matchers paired with
// BuildPatterns, in the order the patterns are applied: URL first, then
// org shorthand, then module aliases. URL and org matches record the
// owner as written in the text; alias matches carry no owner.
func BuildExtractors(names []string, org string, aliases modalias.Map) ([]Extractor, error) {
	alt := alternation(names)
	if alt == "" {
		return nil, nil
	}

	urlRe, err := regexp.Compile(`(?i)github\.com[:/](?P<owner>[A-Za-z0-9_.-]+)/(?P<repo>` + alt + `)(?:\.git)?`)
	if err != nil {
		return nil, fmt.Errorf("compile url extractor: %w", err)
	}
	extractors := []Extractor{newExtractor(urlRe, nil)}

	if org != "" {
		orgRe, err := regexp.Compile(`(?i)\b(?P<owner>` + regexp.QuoteMeta(org) + `)/(?P<repo>` + alt + `)(?:@[\w.\-]+)?\b`)
		if err != nil {
			return nil, fmt.Errorf("compile org extractor: %w", err)
		}
		extractors = append(extractors, newExtractor(orgRe, nil))
	}

	aliasToRepo := make(map[string]string)
	for _, repo := range names {
		for _, alias := range aliases.Aliases(repo) {
			aliasToRepo[strings.ToLower(alias)] = repo
		}
	}
	if aliasAlt := aliasAlternation(names, aliases); aliasAlt != "" {
		aliasRe, err := regexp.Compile(`(?i)\b(?P<alias>` + aliasAlt + `)(?:@[\w.\-]+)?\b`)
		if err != nil {
			return nil, fmt.Errorf("compile alias extractor: %w", err)
		}
		extractors = append(extractors, newExtractor(aliasRe, aliasToRepo))
	}

	return extractors, nil
}

func newExtractor(re *regexp.Regexp, aliasToRepo map[string]string) Extractor {
	return Extractor{
		re:          re,
		aliasToRepo: aliasToRepo,
		repoIdx:     re.SubexpIndex("repo"),
		ownerIdx:    re.SubexpIndex("owner"),
		aliasIdx:    re.SubexpIndex("alias"),
	}
}

// Resolve returns the repositories referenced on line, deduplicated and
// sorted by name. When a repository is matched by several extractors, a
// concrete owner always wins over an absent one; the first concrete
// owner seen is kept.
func Resolve(line string, extractors []Extractor, known map[string]struct{}) []Target {
	ownersByRepo := make(map[string]string)

	for _, ex := range extractors {
		for _, m := range ex.re.FindAllStringSubmatch(line, -1) {
			var repo, owner string
			if ex.aliasToRepo == nil {
				repo = m[ex.repoIdx]
				if ex.ownerIdx > 0 {
					owner = m[ex.ownerIdx]
				}
			} else if alias := m[ex.aliasIdx]; alias != "" {
				repo = ex.aliasToRepo[strings.ToLower(alias)]
			}

			if repo == "" {
				continue
			}
			if _, ok := known[repo]; !ok {
				continue
			}

			existing, seen := ownersByRepo[repo]
			switch {
			case existing == "" && owner != "":
				ownersByRepo[repo] = owner
			case !seen:
				ownersByRepo[repo] = owner
			}
		}
	}

	if len(ownersByRepo) == 0 {
		return nil
	}
	out := make([]Target, 0, len(ownersByRepo))
	for repo, owner := range ownersByRepo {
		out = append(out, Target{Repo: repo, Owner: owner})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Repo < out[j].Repo })
	return out
}

// alternation joins quoted names longest-first, so alternatives with a
// shared prefix prefer the longer name.
func alternation(names []string) string {
	if len(names) == 0 {
		return ""
	}
	escaped := make([]string, 0, len(names))
	for _, name := range sortLongestFirst(names) {
		escaped = append(escaped, regexp.QuoteMeta(name))
	}
	return strings.Join(escaped, "|")
}

// aliasAlternation joins the deduplicated module-path aliases of the
// batch, longest-first. Returns "" when the batch has no aliases.
func aliasAlternation(names []string, aliases modalias.Map) string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, repo := range names {
		for _, alias := range aliases.Aliases(repo) {
			if _, dup := seen[alias]; dup {
				continue
			}
			seen[alias] = struct{}{}
			values = append(values, alias)
		}
	}
	if len(values) == 0 {
		return ""
	}
	escaped := make([]string, 0, len(values))
	for _, v := range sortLongestFirst(values) {
		escaped = append(escaped, regexp.QuoteMeta(v))
	}
	return strings.Join(escaped, "|")
}

// sortLongestFirst orders by descending length, breaking ties
// lexicographically, and leaves the input untouched.
func sortLongestFirst(items []string) []string {
	out := append([]string(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
