package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/mod/modfile"
)

// layerRule lists what files under internal/<layer>/ may not import.
// Internal entries are directory names below internal/, external entries
// are import path prefixes.
type layerRule struct {
	layer    string
	internal []string
	external []string
}

var (
	infraLibs = []string{
		"github.com/gin-gonic/",
		"github.com/redis/go-redis/",
		"github.com/neo4j/neo4j-go-driver/",
		"github.com/prometheus/",
		"github.com/golang-jwt/",
	}
	storageLibs = []string{"gorm.io/"}
)

var layerRules = []layerRule{
	{layer: "pkg", internal: []string{"platform", "domain", "data", "modules", "services", "http", "app"}, external: append(infraLibs, storageLibs...)},
	{layer: "domain", internal: []string{"platform", "data", "modules", "services", "http", "app"}, external: infraLibs},
	{layer: "platform", internal: []string{"data", "modules", "services", "http", "app"}},
	{layer: "modules", internal: []string{"data", "services", "http", "app"}, external: append(infraLibs, storageLibs...)},
	{layer: "data", internal: []string{"modules", "services", "http", "app"}},
	{layer: "services", internal: []string{"http", "app"}},
	{layer: "http", internal: []string{"data", "app"}},
}

// moduleImports maps every .go file under internal/ (slash separated,
// relative to the module root) to its import paths.
func moduleImports(t *testing.T) (modulePath string, imports map[string][]string) {
	t.Helper()

	root, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("go.mod not found above working directory")
		}
		root = parent
	}
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read go.mod: %v", err)
	}
	modulePath = modfile.ModulePath(data)
	if modulePath == "" {
		t.Fatalf("go.mod has no module path")
	}

	fset := token.NewFileSet()
	imports = map[string][]string{}
	err = filepath.WalkDir(filepath.Join(root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		for _, spec := range f.Imports {
			if imp, err := strconv.Unquote(spec.Path.Value); err == nil {
				imports[rel] = append(imports[rel], imp)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
	return modulePath, imports
}

func ruleFor(rel string) (layerRule, bool) {
	for _, r := range layerRules {
		if strings.HasPrefix(rel, "internal/"+r.layer+"/") {
			return r, true
		}
	}
	return layerRule{}, false
}

func TestImportBoundaries(t *testing.T) {
	modulePath, imports := moduleImports(t)

	var violations []string
	for rel, imps := range imports {
		rule, ok := ruleFor(rel)
		if !ok {
			continue
		}
		banned := make([]string, 0, len(rule.internal)+len(rule.external))
		for _, dir := range rule.internal {
			banned = append(banned, modulePath+"/internal/"+dir+"/")
		}
		if !strings.HasSuffix(rel, "_test.go") {
			banned = append(banned, rule.external...)
		}
		for _, imp := range imps {
			for _, prefix := range banned {
				if strings.HasPrefix(imp, prefix) {
					violations = append(violations, rel+" imports "+strconv.Quote(imp)+" ("+rule.layer+" may not import "+prefix+")")
					break
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("import boundary violations:\n- %s", strings.Join(violations, "\n- "))
	}
}

func TestEveryLayerIsScanned(t *testing.T) {
	_, imports := moduleImports(t)
	seen := map[string]bool{}
	for rel := range imports {
		if rule, ok := ruleFor(rel); ok {
			seen[rule.layer] = true
		}
	}
	for _, r := range layerRules {
		if !seen[r.layer] {
			t.Fatalf("layer %s: no go files found under internal/%s/", r.layer, r.layer)
		}
	}
}
