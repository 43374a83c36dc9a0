// Package queries holds the SQL text of the cross report.
package queries

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed cruce.sql
var embeddedCruce string

// Markers and placeholders the query builder relies on.
const (
	RefFilterMarker  = "/*__REF_FILTER__*/"
	StartDateToken   = ":fechaStart"
	MinQuantityToken = ":minCantidad"
	FinalAlias       = "Final2"
)

// TemplateSource supplies the opaque report template.
type TemplateSource interface {
	Template() (string, error)
}

// EmbeddedTemplate serves the T-SQL template compiled into the binary.
type EmbeddedTemplate struct{}

func (EmbeddedTemplate) Template() (string, error) {
	return embeddedCruce, nil
}

// FileTemplate reads the template from disk on every call, so edits apply without a restart.
type FileTemplate struct {
	Path string
}

func (f FileTemplate) Template() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", f.Path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("template %s is empty", f.Path)
	}
	return string(data), nil
}

// NewTemplateSource returns a FileTemplate when path is set, the embedded template otherwise.
func NewTemplateSource(path string) TemplateSource {
	if path != "" {
		return FileTemplate{Path: path}
	}
	return EmbeddedTemplate{}
}

// StaticTemplate is a fixed in-memory template.
type StaticTemplate string

func (s StaticTemplate) Template() (string, error) {
	return string(s), nil
}
