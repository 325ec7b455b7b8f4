package interp

import (
	"os"
	"path/filepath"

	"github.com/loxi-lang/loxi/lexer"
	"github.com/loxi-lang/loxi/parser"
	"github.com/loxi-lang/loxi/resolver"
	"github.com/loxi-lang/loxi/token"
)

// ModuleLoader executes `import "path"` (spec.md §4.5, §5), guarding
// against import cycles with a set of in-progress paths and recording
// each completed module's absolute path so re-importing it is a no-op
// (SPEC_FULL.md §4 item 5).
//
// A relative path resolves against the importing file's own directory
// first (so a module can import a sibling regardless of the process's
// working directory), then against each directory in SearchPath, a
// LOXI_PATH-style list an embedding host can configure (SPEC_FULL.md
// §2 "Configuration").
type ModuleLoader struct {
	it         *Interpreter
	inProgress map[string]bool
	loaded     map[string]bool

	// SearchPath is consulted, in order, after the importing file's own
	// directory fails to resolve a relative import. Defaults to the
	// LOXI_PATH environment variable split on the OS list separator.
	SearchPath []string

	dirs []string // stack of importing-file directories, innermost last
}

func NewModuleLoader(it *Interpreter) *ModuleLoader {
	return &ModuleLoader{
		it:         it,
		inProgress: make(map[string]bool),
		loaded:     make(map[string]bool),
		SearchPath: loxiPathFromEnv(),
	}
}

func loxiPathFromEnv() []string {
	v := os.Getenv("LOXI_PATH")
	if v == "" {
		return nil
	}
	return filepath.SplitList(v)
}

// resolve turns an import path into an absolute file path: absolute
// paths pass through, relative paths are tried against the importing
// file's directory (or the working directory when there is no
// importing file), then each SearchPath entry. If none exists it falls
// back to that first candidate so the subsequent os.ReadFile reports a
// meaningful "file not found".
func (m *ModuleLoader) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	if len(m.dirs) > 0 {
		candidate := filepath.Join(m.dirs[len(m.dirs)-1], path)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	} else if _, err := os.Stat(path); err == nil {
		return filepath.Abs(path)
	}

	for _, dir := range m.SearchPath {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}

	if len(m.dirs) > 0 {
		return filepath.Abs(filepath.Join(m.dirs[len(m.dirs)-1], path))
	}
	return filepath.Abs(path)
}

func (m *ModuleLoader) Import(path string, into *Environment) error {
	abs, err := m.resolve(path)
	if err != nil {
		abs = path
	}

	if m.loaded[abs] {
		return nil
	}
	if m.inProgress[abs] {
		return RuntimeErrorf(token.Token{}, "import cycle detected: %s", path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return RuntimeErrorf(token.Token{}, "cannot read module %q: %v", path, err)
	}

	m.inProgress[abs] = true
	m.dirs = append(m.dirs, filepath.Dir(abs))
	defer func() {
		delete(m.inProgress, abs)
		m.dirs = m.dirs[:len(m.dirs)-1]
	}()

	tokens, err := lexer.Lex(string(data))
	if err != nil {
		return RuntimeErrorf(token.Token{}, "module %q: %v", path, err)
	}

	p := parser.NewParser(tokens)
	program, err := p.Parse()
	if err != nil || p.HasErrors() {
		return RuntimeErrorf(token.Token{}, "module %q: %v", path, err)
	}

	locals, err := resolver.Resolve(program)
	if err != nil {
		return RuntimeErrorf(token.Token{}, "module %q: %v", path, err)
	}

	previousLocals := m.it.locals
	previousEnv := m.it.env
	m.it.env = into
	defer func() {
		m.it.locals = previousLocals
		m.it.env = previousEnv
	}()

	for _, stmt := range program {
		m.it.locals = locals
		if err := m.it.execute(stmt); err != nil {
			return err
		}
	}

	m.loaded[abs] = true
	return nil
}
