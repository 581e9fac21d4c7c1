// Reference integrity checking.
//
// A post-execution static scan over the files written this iteration:
// markup files are checked for script/stylesheet targets, source files
// for relative imports, against the set of paths created in the same
// batch. Findings are advisory; the loop feeds them back to the model
// rather than failing the iteration.

package agent

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/sitewright/sitewright/model"
)

// DanglingReference is one unresolved local reference found in a file
// written this iteration.
type DanglingReference struct {
	SourceFile string `json:"sourceFile"`
	Kind       string `json:"referenceKind"` // "script", "link" or "import"
	Target     string `json:"targetPath"`
}

func (d DanglingReference) String() string {
	return fmt.Sprintf("%s references %s (%s)", d.SourceFile, d.Target, d.Kind)
}

// sourceRoot is the conventional directory prefix tried when resolving
// relative imports against created paths.
const sourceRoot = "src"

// moduleExtensions are the recognized source extensions for the module
// pass, also used for import candidate expansion.
var moduleExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}

var (
	scriptSrcPattern  = regexp.MustCompile(`(?i)<script\b[^>]*\bsrc\s*=\s*["']([^"']+)["']`)
	stylesheetPattern = regexp.MustCompile(`(?i)<link\b[^>]*>`)
	linkHrefPattern   = regexp.MustCompile(`(?i)\bhref\s*=\s*["']([^"']+)["']`)
	linkRelPattern    = regexp.MustCompile(`(?i)\brel\s*=\s*["']stylesheet["']`)

	importFromPattern  = regexp.MustCompile(`(?m)\bimport\s+[^'"]*?\bfrom\s+['"]([^'"]+)['"]`)
	importBarePattern  = regexp.MustCompile(`(?m)\bimport\s+['"]([^'"]+)['"]`)
	exportFromPattern  = regexp.MustCompile(`(?m)\bexport\s+[^'"]*?\bfrom\s+['"]([^'"]+)['"]`)
	requireCallPattern = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
)

// CheckReferences scans this iteration's write/edit invocations for
// references to files absent from the created-path set. Error outcomes
// are skipped: a failed write created nothing worth scanning.
func CheckReferences(invocations []model.ToolInvocation, created map[string]struct{}, outcomes []model.ToolOutcome) []DanglingReference {
	failed := make(map[string]struct{})
	for _, outcome := range outcomes {
		if outcome.IsError {
			failed[outcome.ToolUseID] = struct{}{}
		}
	}

	var dangling []DanglingReference
	for _, inv := range invocations {
		if _, bad := failed[inv.ID]; bad {
			continue
		}

		switch inv.Name {
		case model.ToolWriteFile:
			var in model.WriteFileInput
			if err := json.Unmarshal(inv.Input, &in); err != nil {
				continue
			}
			if strings.EqualFold(path.Ext(in.Path), ".html") {
				dangling = append(dangling, checkMarkup(in.Path, in.Content, created)...)
			}
			if hasModuleExtension(in.Path) {
				dangling = append(dangling, checkImports(in.Path, in.Content, created)...)
			}
		case model.ToolEditFile:
			// Edit payloads are not guaranteed to contain the complete
			// file, so the markup pass skips them; the replacement text
			// is still scanned for newly introduced imports.
			var in model.EditFileInput
			if err := json.Unmarshal(inv.Input, &in); err != nil {
				continue
			}
			if hasModuleExtension(in.Path) {
				dangling = append(dangling, checkImports(in.Path, in.Replace, created)...)
			}
		}
	}
	return dangling
}

// checkMarkup extracts script src and stylesheet link href targets.
func checkMarkup(sourceFile, content string, created map[string]struct{}) []DanglingReference {
	var dangling []DanglingReference

	for _, match := range scriptSrcPattern.FindAllStringSubmatch(content, -1) {
		target := match[1]
		if isExternalTarget(target) {
			continue
		}
		if !markupTargetExists(target, created) {
			dangling = append(dangling, DanglingReference{SourceFile: sourceFile, Kind: "script", Target: target})
		}
	}

	for _, tag := range stylesheetPattern.FindAllString(content, -1) {
		if !linkRelPattern.MatchString(tag) {
			continue
		}
		href := linkHrefPattern.FindStringSubmatch(tag)
		if href == nil {
			continue
		}
		target := href[1]
		if isExternalTarget(target) {
			continue
		}
		if !markupTargetExists(target, created) {
			dangling = append(dangling, DanglingReference{SourceFile: sourceFile, Kind: "link", Target: target})
		}
	}

	return dangling
}

// isExternalTarget reports whether a markup target points outside the
// workspace (absolute URLs, protocol-relative URLs, data URIs).
func isExternalTarget(target string) bool {
	return strings.Contains(target, "://") ||
		strings.HasPrefix(target, "//") ||
		strings.HasPrefix(target, "data:") ||
		strings.HasPrefix(target, "mailto:")
}

// markupTargetExists accepts either the raw target or the target with
// a single leading "./" stripped.
func markupTargetExists(target string, created map[string]struct{}) bool {
	if pathCreated(target, created) {
		return true
	}
	return pathCreated(strings.TrimPrefix(target, "./"), created)
}

// checkImports extracts relative module specifiers and resolves them
// against the created set via candidate expansion. Bare and package
// specifiers are always ignored.
func checkImports(sourceFile, content string, created map[string]struct{}) []DanglingReference {
	seen := make(map[string]struct{})
	var dangling []DanglingReference

	for _, pattern := range []*regexp.Regexp{importFromPattern, importBarePattern, exportFromPattern, requireCallPattern} {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			target := match[1]
			if !strings.HasPrefix(target, ".") {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}

			if !importResolves(target, created) {
				dangling = append(dangling, DanglingReference{SourceFile: sourceFile, Kind: "import", Target: target})
			}
		}
	}

	return dangling
}

// importResolves tests an import specifier against the created set
// using the conventional candidate expansion: the bare path, extension
// variants, index variants, and the same set again under the source
// root.
func importResolves(target string, created map[string]struct{}) bool {
	normalized := strings.TrimPrefix(target, "./")

	candidates := []string{target, normalized}
	for _, ext := range moduleExtensions {
		candidates = append(candidates,
			normalized+ext,
			normalized+"/index"+ext,
		)
	}
	base := len(candidates)
	for i := 0; i < base; i++ {
		candidates = append(candidates, sourceRoot+"/"+strings.TrimPrefix(candidates[i], "/"))
	}

	for _, candidate := range candidates {
		if pathCreated(candidate, created) {
			return true
		}
	}
	return false
}

// pathCreated checks membership with and without a leading slash.
func pathCreated(p string, created map[string]struct{}) bool {
	if _, ok := created[p]; ok {
		return true
	}
	if strings.HasPrefix(p, "/") {
		_, ok := created[strings.TrimPrefix(p, "/")]
		return ok
	}
	_, ok := created["/"+p]
	return ok
}

// hasModuleExtension reports whether the path has a recognized source
// extension.
func hasModuleExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, known := range moduleExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// formatDanglingWarning renders the advisory appended to the last tool
// outcome when references dangle.
func formatDanglingWarning(refs []DanglingReference) string {
	var b strings.Builder
	b.WriteString("\n\nWarning: possible missing file references:")
	for _, ref := range refs {
		fmt.Fprintf(&b, "\n- %s", ref)
	}
	b.WriteString("\nCreate the missing files or correct the references.")
	return b.String()
}
