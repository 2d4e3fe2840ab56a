package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/charsheet/pkg/domain"
)

// SheetMarkdown describes a snapshot as markdown: user values, feature sets and,
// when given, the values the sheet still needs.
func SheetMarkdown(title string, snap *domain.Snapshot, required []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## User values\n\n")
	values := snap.UserValueList()
	if len(values) == 0 {
		b.WriteString("_none_\n\n")
	} else {
		b.WriteString("| Name | Value |\n|---|---|\n")
		for _, nv := range values {
			fmt.Fprintf(&b, "| %s | `%s` |\n", nv.Name, nv.Value.String())
		}
		b.WriteString("\n")
	}

	b.WriteString("## Features\n\n")
	for _, fs := range snap.FeatureSets() {
		state := "inactive"
		if fs.Active {
			state = "active"
		}
		fmt.Fprintf(&b, "### %s (%s)\n\n", fs.Name, state)
		if fs.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", fs.Description)
		}
		for _, f := range fs.Features {
			fmt.Fprintf(&b, "- **%s** `%s`", f.Name, f.BaseType)
			if f.Description != "" {
				fmt.Fprintf(&b, ": %s", f.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if required != nil {
		b.WriteString("## Required user values\n\n")
		if len(required) == 0 {
			b.WriteString("_none_\n")
		}
		for _, name := range required {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return b.String()
}
