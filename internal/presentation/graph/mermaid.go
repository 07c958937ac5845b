package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/esantoro/gaphor/pkg/domain"
)

// GraphOverlay marks elements to highlight, e.g. those created by the last run.
type GraphOverlay struct {
	Highlighted []string
}

// GenerateMermaid produces a Mermaid flowchart of a model snapshot.
// Elements become nodes labelled with kind and name; every collection entry becomes
// an edge labelled with the collection name. Shapes follow the element kind:
// - Package: [[Subroutine]]
// - Diagram: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(snap *domain.Snapshot, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if snap == nil {
		return sb.String()
	}

	for _, el := range snap.Elements {
		safeID := sanitizeMermaidID(el.ID)

		opener, closer := "[", "]"
		switch el.Kind {
		case "Package":
			opener, closer = "[[", "]]"
		case "Diagram":
			opener, closer = "[/", "/]"
		}

		label := el.Kind
		if name := el.Attributes["name"]; name != "" {
			label = fmt.Sprintf("%s <br/> %s", el.Kind, escapeLabel(name))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		colls := make([]string, 0, len(el.Collections))
		for name := range el.Collections {
			colls = append(colls, name)
		}
		slices.Sort(colls)
		for _, coll := range colls {
			for _, ref := range el.Collections[coll] {
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, escapeLabel(coll), sanitizeMermaidID(ref)))
			}
		}
	}

	if overlay != nil && len(overlay.Highlighted) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef highlighted fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Highlighted {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s highlighted;\n", safeID))
			}
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// sanitizeMermaidID makes element IDs (often UUIDs) valid Mermaid identifiers.
func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "e_" + s
	}
	return s
}
