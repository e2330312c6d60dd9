package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"infra", InfraImportForbidden, "phreeqcore/internal/infra/blob/fs", true},
		{"infra facade", InfraImportForbidden, "phreeqcore/internal/blob", false},
		{"binding", EngineBindingForbidden, "phreeqcore/internal/solver/viphreeqc", true},
		{"sim", EngineBindingForbidden, "phreeqcore/internal/solver/sim", false},
		{"internal", InternalImportForbidden, "phreeqcore/internal/command", true},
		{"public", InternalImportForbidden, "phreeqcore/pkg/solver", false},
	}
	for _, c := range cases {
		if got := c.fn(c.in); got != c.want {
			t.Fatalf("%s(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, _ ...any) { r.msg = format }

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.go":      "package tmp\nimport \"phreeqcore/internal/infra/blob/fs\"\nvar _ = fs.New\n",
		"b.go":      "package tmp\nimport (\n\t\"fmt\"\n\t\"phreeqcore/internal/blob\"\n)\nvar _ = fmt.Sprint\nvar _ blob.Store\n",
		"a_test.go": "package tmp\nimport \"phreeqcore/internal/infra/persistence/memory\"\n",
		"notes.txt": "import \"phreeqcore/internal/infra/x\"",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.go"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "phreeqcore/internal/infra/blob/fs (in a.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}

	var r recorder
	failIfDirectViolations(&r, "facade only", viols)
	if r.msg == "" {
		t.Fatalf("expected failure to be reported")
	}
	r = recorder{}
	failIfDirectViolations(&r, "facade only", nil)
	failIfTransitiveViolations(&r, "none", nil)
	if r.msg != "" {
		t.Fatalf("unexpected failure %q", r.msg)
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	prev := goListDeps
	defer func() { goListDeps = prev }()
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nphreeqcore/pkg/solver\n\nphreeqcore/internal/solver/viphreeqc\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", EngineBindingForbidden)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	if len(viols) != 1 || viols[0] != "phreeqcore/internal/solver/viphreeqc" {
		t.Fatalf("unexpected violations %v", viols)
	}
}

func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, InfraImportForbidden, "none")
}
