package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/relstore/pkg/schema"
)

// SchemaMarkdown renders a schema description as one markdown table per schema table.
func SchemaMarkdown(d schema.Description) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	fmt.Fprintf(&b, "Defaults apply when a field is **%s**.\n", d.Policy)

	for _, t := range d.Tables {
		fmt.Fprintf(&b, "\n## %s\n\n", t.Name)
		b.WriteString("| Field | Type | Required | Default | Constraints |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, f := range t.Fields {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				f.Name, f.Type, yesNo(f.Required), defaultCell(f), constraintsCell(f))
		}
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return ""
}

func defaultCell(f schema.FieldDescription) string {
	switch {
	case f.DefaultProducer:
		return "_computed_"
	case f.Default != nil:
		return fmt.Sprintf("`%v`", f.Default)
	default:
		return ""
	}
}

func constraintsCell(f schema.FieldDescription) string {
	parts := make([]string, 0, len(f.Constraints)+1)
	for _, c := range f.Constraints {
		if c.Kind == schema.ConstraintPresent {
			continue
		}
		parts = append(parts, formatConstraint(c))
	}
	if f.CustomValidators > 0 {
		parts = append(parts, fmt.Sprintf("%d custom", f.CustomValidators))
	}
	return strings.ReplaceAll(strings.Join(parts, ", "), "|", `\|`)
}

func formatConstraint(c schema.Constraint) string {
	if c.Kind == schema.ConstraintOr {
		branches, err := c.Branches()
		if err == nil {
			inner := make([]string, len(branches))
			for i, br := range branches {
				inner[i] = formatConstraint(br)
			}
			return strings.Join(inner, " or ")
		}
	}
	if c.Value == nil {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s %v", c.Kind, c.Value)
}
