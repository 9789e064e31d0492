package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ridoystarlord/fbmeta/schema"
)

const (
	DomainsFile    = "domains.sql"
	TablesFile     = "tables.sql"
	ProceduresFile = "procedures.sql"
)

// Source is the catalog side of an export.
type Source interface {
	GetDomains(ctx context.Context) ([]schema.Domain, error)
	GetTables(ctx context.Context) ([]schema.Table, error)
	GetProcedures(ctx context.Context) ([]schema.Procedure, error)
}

type ExportSummary struct {
	Domains    int
	Tables     int
	Procedures int
	Files      []string
}

// WriteScript saves content as a UTF-8 text file, replacing any existing one.
func WriteScript(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Export reads domains, tables and procedures from src and writes each kind
// to its own script in dir. A phase writes its file only after its read
// succeeded; files from earlier phases are left in place on failure.
func Export(ctx context.Context, src Source, dir string) (ExportSummary, error) {
	var summary ExportSummary

	if err := os.MkdirAll(dir, 0755); err != nil {
		return summary, fmt.Errorf("creating output directory: %w", err)
	}

	domains, err := src.GetDomains(ctx)
	if err != nil {
		return summary, fmt.Errorf("reading domains: %w", err)
	}
	if err := summary.write(dir, DomainsFile, GenerateDomains(domains)); err != nil {
		return summary, err
	}
	summary.Domains = len(domains)

	tables, err := src.GetTables(ctx)
	if err != nil {
		return summary, fmt.Errorf("reading tables: %w", err)
	}
	if err := summary.write(dir, TablesFile, GenerateTables(tables)); err != nil {
		return summary, err
	}
	summary.Tables = len(tables)

	procedures, err := src.GetProcedures(ctx)
	if err != nil {
		return summary, fmt.Errorf("reading procedures: %w", err)
	}
	if err := summary.write(dir, ProceduresFile, GenerateProcedures(procedures)); err != nil {
		return summary, err
	}
	summary.Procedures = len(procedures)

	return summary, nil
}

func (s *ExportSummary) write(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := WriteScript(path, content); err != nil {
		return err
	}
	s.Files = append(s.Files, path)
	return nil
}
