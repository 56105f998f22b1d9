package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/schema"
)

// GenerateMermaid produces a Mermaid erDiagram of a schema description. Every table is
// an entity whose first attribute is the id key; fields carry "required" and
// "default" annotations. Tables are independent, so no relationships are drawn.
func GenerateMermaid(d schema.Description) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	for _, t := range d.Tables {
		fmt.Fprintf(&sb, "    %s {\n", sanitizeMermaidID(t.Name))
		fmt.Fprintf(&sb, "        string %s PK\n", domain.IDField)
		for _, f := range t.Fields {
			line := fmt.Sprintf("        %s %s", mermaidType(f.Type), sanitizeMermaidID(f.Name))
			if note := annotation(f); note != "" {
				// Mermaid comments cannot contain double quotes.
				line += fmt.Sprintf(" \"%s\"", strings.ReplaceAll(note, "\"", "'"))
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("    }\n")
	}

	return sb.String()
}

func mermaidType(t schema.Type) string {
	switch t {
	case schema.Integer:
		return "int"
	case schema.Boolean:
		return "bool"
	default:
		return "string"
	}
}

func annotation(f schema.FieldDescription) string {
	var parts []string
	if f.Required {
		parts = append(parts, "required")
	}
	switch {
	case f.DefaultProducer:
		parts = append(parts, "default computed")
	case f.Default != nil:
		parts = append(parts, fmt.Sprintf("default %v", f.Default))
	}
	return strings.Join(parts, ", ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
