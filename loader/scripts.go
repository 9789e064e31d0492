package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrScriptsDirNotFound = errors.New("scripts directory does not exist")
	ErrNoScripts          = errors.New("no .sql scripts found")
)

// Category is the kind of object a script defines. The order of the
// constants is the execution order.
type Category int

const (
	Domain Category = iota
	Table
	Procedure
	Unknown
)

func (c Category) String() string {
	switch c {
	case Domain:
		return "domain"
	case Table:
		return "table"
	case Procedure:
		return "procedure"
	default:
		return "unknown"
	}
}

// Script is one .sql file of a scripts directory.
type Script struct {
	Name     string
	Path     string
	Content  string // upper-cased, used for classification
	Source   string // original text, used for execution
	Category Category
}

// markers are checked in order; the first match wins.
var markers = []struct {
	keyword  string
	category Category
}{
	{"CREATE DOMAIN", Domain},
	{"CREATE TABLE", Table},
	{"CREATE PROCEDURE", Procedure},
}

// Classify returns the category of an upper-cased script.
func Classify(content string) Category {
	for _, m := range markers {
		if strings.Contains(content, m.keyword) {
			return m.category
		}
	}
	return Unknown
}

// LoadScripts reads every .sql file in dir and returns them in execution
// order: domains, tables, procedures, then everything else. Files of the same
// category keep directory order.
func LoadScripts(dir string) ([]Script, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrScriptsDirNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scripts dir: %w", err)
	}

	var scripts []Script
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", e.Name(), err)
		}

		source := string(data)
		content := strings.ToUpper(source)
		scripts = append(scripts, Script{
			Name:     e.Name(),
			Path:     path,
			Content:  content,
			Source:   source,
			Category: Classify(content),
		})
	}

	if len(scripts) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoScripts, dir)
	}

	return OrderScripts(scripts), nil
}

// OrderScripts stably sorts scripts by category.
func OrderScripts(scripts []Script) []Script {
	ordered := slices.Clone(scripts)
	slices.SortStableFunc(ordered, func(a, b Script) int {
		return int(a.Category) - int(b.Category)
	})
	return ordered
}
