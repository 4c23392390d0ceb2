// Package manifest derives local project classification hints from
// recognized dependency manifests. It is the analyzer's fallback when the
// gateway cannot be reached, so it works entirely offline.
package manifest

import (
	"bytes"
	"strings"

	"github.com/aquasecurity/trivy/pkg/dependency/parser/golang/mod"
	"github.com/aquasecurity/trivy/pkg/dependency/parser/java/pom"
	"github.com/aquasecurity/trivy/pkg/dependency/parser/nodejs/npm"
	"github.com/aquasecurity/trivy/pkg/dependency/parser/nodejs/packagejson"
	"github.com/aquasecurity/trivy/pkg/dependency/parser/nodejs/yarn"
	"github.com/aquasecurity/trivy/pkg/dependency/parser/python/pip"
	"github.com/aquasecurity/trivy/pkg/dependency/parser/python/pipenv"
	"github.com/aquasecurity/trivy/pkg/dependency/parser/python/poetry"
	ftypes "github.com/aquasecurity/trivy/pkg/fanal/types"
	xio "github.com/aquasecurity/trivy/pkg/x/io"
	"go.uber.org/zap"

	"codeport-cli/internal/domain"
)

// Hints is a best-effort local classification.
type Hints struct {
	ProjectType     string
	PrimaryLanguage string
	Framework       string
}

// Found reports whether inspection produced anything usable.
func (h Hints) Found() bool {
	return h.ProjectType != ""
}

// Inspector parses dependency manifests with Trivy's parsers.
type Inspector struct {
	logger *zap.Logger
}

func NewInspector(logger *zap.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// manifestKind ties a recognized basename to its ecosystem. Order matters:
// the first manifest found in this priority wins.
type manifestKind struct {
	basename    string
	projectType string
	language    string
}

var manifestKinds = []manifestKind{
	{"package.json", "Node.js", "javascript"},
	{"package-lock.json", "Node.js", "javascript"},
	{"yarn.lock", "Node.js", "javascript"},
	{"go.mod", "Go Modules", "go"},
	{"pom.xml", "Maven", "java"},
	{"requirements.txt", "Python", "python"},
	{"Pipfile", "Python", "python"},
	{"poetry.lock", "Python", "python"},
}

// frameworkNames maps well-known dependency names to framework labels.
var frameworkNames = map[string]string{
	"react":                        "React",
	"next":                         "Next.js",
	"vue":                          "Vue.js",
	"@angular/core":                "Angular",
	"svelte":                       "Svelte",
	"express":                      "Express",
	"github.com/gin-gonic/gin":     "Gin",
	"github.com/labstack/echo/v4":  "Echo",
	"github.com/gofiber/fiber/v2":  "Fiber",
	"django":                       "Django",
	"flask":                        "Flask",
	"fastapi":                      "FastAPI",
}

// Inspect scans the loaded files for a recognized manifest and derives
// project type, primary language, and framework from it. Parse failures
// are logged and skipped; the zero Hints means nothing was recognized.
func (i *Inspector) Inspect(files []*domain.ProjectFile) Hints {
	for _, kind := range manifestKinds {
		for _, file := range files {
			if file.Name != kind.basename {
				continue
			}

			hints := Hints{
				ProjectType:     kind.projectType,
				PrimaryLanguage: kind.language,
			}
			hints.Framework = i.detectFramework(kind.basename, file)

			i.logger.Debug("Derived manifest hints",
				zap.String("manifest", file.Path),
				zap.String("project_type", hints.ProjectType),
				zap.String("framework", hints.Framework))

			return hints
		}
	}

	return Hints{}
}

// detectFramework parses the manifest and matches dependency names
// against the known framework table.
func (i *Inspector) detectFramework(basename string, file *domain.ProjectFile) string {
	names, err := i.dependencyNames(basename, []byte(file.Content))
	if err != nil {
		i.logger.Debug("Failed to parse manifest",
			zap.String("path", file.Path),
			zap.Error(err))
		return ""
	}

	for _, name := range names {
		if framework, ok := frameworkNames[name]; ok {
			return framework
		}
		// Maven coordinates carry the framework in the artifact name
		if strings.Contains(name, "spring-boot") {
			return "Spring Boot"
		}
	}

	return ""
}

// dependencyNames extracts declared dependency names using Trivy's
// per-ecosystem parsers.
func (i *Inspector) dependencyNames(basename string, content []byte) ([]string, error) {
	reader, err := xio.NewReadSeekerAt(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	switch basename {
	case "package.json":
		parser := packagejson.NewParser()
		pkg, err := parser.Parse(reader)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(pkg.Dependencies)+len(pkg.DevDependencies))
		for name := range pkg.Dependencies {
			names = append(names, name)
		}
		for name := range pkg.DevDependencies {
			names = append(names, name)
		}
		return names, nil
	case "package-lock.json":
		packages, _, err := npm.NewParser().Parse(reader)
		return packageNames(packages), err
	case "yarn.lock":
		packages, _, _, err := yarn.NewParser().Parse(reader)
		return packageNames(packages), err
	case "go.mod":
		packages, _, err := mod.NewParser(false, false).Parse(reader)
		return packageNames(packages), err
	case "pom.xml":
		packages, _, err := pom.NewParser("").Parse(reader)
		return packageNames(packages), err
	case "requirements.txt":
		packages, _, err := pip.NewParser(false).Parse(reader)
		return packageNames(packages), err
	case "Pipfile":
		packages, _, err := pipenv.NewParser().Parse(reader)
		return packageNames(packages), err
	case "poetry.lock":
		packages, _, err := poetry.NewParser().Parse(reader)
		return packageNames(packages), err
	default:
		return nil, nil
	}
}

func packageNames(packages []ftypes.Package) []string {
	names := make([]string, 0, len(packages))
	for i := range packages {
		names = append(names, packages[i].Name)
	}
	return names
}
