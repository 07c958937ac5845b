package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/pkg/domain"
)

// Report renders the state of a document as markdown: its undo/redo status and a
// table of elements. created lists element IDs to mark as new.
func Report(status gaphor.Status, snap *domain.Snapshot, created []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Document `%s`\n\n", status.Document)

	sb.WriteString("## History\n\n")
	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Undo | %s (%d) |\n", yesNo(status.CanUndo), status.UndoDepth)
	fmt.Fprintf(&sb, "| Redo | %s (%d) |\n", yesNo(status.CanRedo), status.RedoDepth)
	if status.InTransaction {
		sb.WriteString("| Transaction | open |\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "## Elements (%d)\n\n", status.Elements)
	if snap == nil || len(snap.Elements) == 0 {
		sb.WriteString("_empty model_\n")
		return sb.String()
	}

	sb.WriteString("| ID | Kind | Attributes | Collections |\n|---|---|---|---|\n")
	for _, el := range snap.Elements {
		id := "`" + el.ID + "`"
		if slices.Contains(created, el.ID) {
			id += " *new*"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", id, el.Kind, attributes(el.Attributes), collections(el.Collections))
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func attributes(attrs map[string]string) string {
	keys := sortedKeys(attrs)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, escapeCell(attrs[k])))
	}
	return strings.Join(parts, ", ")
}

func collections(colls map[string][]string) string {
	keys := sortedKeys(colls)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, len(colls[k])))
	}
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
