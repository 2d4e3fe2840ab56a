package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/charsheet/pkg/domain"
)

// Overlay marks properties on the graph.
type Overlay struct {
	// Missing are values the sheet needs but nobody provides.
	Missing []string
	// Changed are user values touched by the last update.
	Changed []string
}

// GenerateMermaid produces a Mermaid flowchart of the property dependencies of
// the active features. Shapes:
// - user value: [/Parallelogram/]
// - definition without a user value: [/Parallelogram/] as well, styled missing if listed
// - modified property: [Rectangle], static modifiers are annotated with their value
// Script dependencies become edges dependency --> property.
func GenerateMermaid(snap *domain.Snapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[string]bool)
	declare := func(name, opener, label, closer string) {
		id := sanitizeMermaidID(name)
		if declared[id] {
			return
		}
		declared[id] = true
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label, closer))
	}

	for _, nv := range snap.UserValueList() {
		declare(nv.Name, "[/", fmt.Sprintf("%s = %s", nv.Name, nv.Value.String()), "/]")
	}

	var edges []string
	for _, set := range snap.ActiveFeatures {
		for _, f := range set.Features {
			for _, def := range f.Definitions {
				declare(def.Name, "[/", def.Name, "/]")
			}
			for _, mod := range f.Modifiers {
				switch {
				case mod.Value.StaticValue != nil:
					declare(mod.Property, "[", fmt.Sprintf("%s <br/> %s", mod.Property, mod.Value.StaticValue.String()), "]")
				default:
					declare(mod.Property, "[", mod.Property, "]")
				}
				if mod.Value.Script == nil {
					continue
				}
				for _, dep := range mod.Value.Script.Dependencies {
					declare(dep, "[/", dep, "/]")
					edges = append(edges, fmt.Sprintf("    %s -- \"%s\" --> %s\n",
						sanitizeMermaidID(dep), sanitizeLabel(f.Name), sanitizeMermaidID(mod.Property)))
				}
			}
		}
	}

	sort.Strings(edges)
	for _, e := range edges {
		sb.WriteString(e)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast regardless of theme.
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef changed fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		writeClass(&sb, overlay.Missing, "missing")
		writeClass(&sb, overlay.Changed, "changed")
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, names []string, class string) {
	seen := make(map[string]bool)
	for _, name := range names {
		id := sanitizeMermaidID(name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", id, class))
	}
}

func sanitizeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
