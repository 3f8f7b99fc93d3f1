// Package relation categorizes where in a repository a cross-repo
// reference was found, so declared dependencies can be told apart from
// incidental mentions in docs or scripts.
package relation

import "strings"

// Type labels the kind of file a reference appeared in.
type Type string

const (
	GoModule           Type = "go_module"
	NodeDependency     Type = "node_dependency"
	PythonDependency   Type = "python_dependency"
	GitSubmodule       Type = "git_submodule"
	GitHubAction       Type = "github_action"
	ContainerReference Type = "container_reference"
	Reference          Type = "reference"
)

// dependencyTypes are the relation types counted as declared build or
// runtime dependencies rather than loose mentions.
var dependencyTypes = map[Type]bool{
	GoModule:         true,
	NodeDependency:   true,
	PythonDependency: true,
	GitSubmodule:     true,
}

// IsDependency reports whether t denotes a declared dependency.
func IsDependency(t Type) bool {
	return dependencyTypes[t]
}

// Classify maps a repo-relative file path to its relation type. Paths may
// use either slash style; a leading "./" is tolerated. Classification is
// by base name first (manifest and lock files), then by location for
// workflow files, then by container file names. Everything else is a
// plain reference.
func Classify(path string) Type {
	rel := strings.ReplaceAll(path, "\\", "/")
	rel = strings.TrimPrefix(rel, "./")
	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}

	switch base {
	case "go.mod":
		return GoModule
	case "package.json", "package-lock.json", "pnpm-lock.yaml", "yarn.lock":
		return NodeDependency
	case "requirements.txt", "pyproject.toml", "poetry.lock", "Pipfile", "Pipfile.lock":
		return PythonDependency
	case ".gitmodules":
		return GitSubmodule
	}

	if strings.HasPrefix(rel, ".github/workflows/") {
		return GitHubAction
	}

	switch base {
	case "Dockerfile", "docker-compose.yaml", "docker-compose.yml":
		return ContainerReference
	}

	return Reference
}
