package cfg

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a listing of f to w: every block with its predecessors,
// followed by its instructions.
func Fprint(w io.Writer, f Function) error {
	if _, err := fmt.Fprintf(w, "func %s\n", f.Name()); err != nil {
		return err
	}

	for _, b := range f.Blocks() {
		header := b.Name() + ":"
		if preds := b.Preds(); len(preds) > 0 {
			names := make([]string, 0, len(preds))
			for _, p := range preds {
				names = append(names, p.Name())
			}
			header += " ; preds: " + strings.Join(names, ", ")
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		for _, i := range b.Instructions() {
			if _, err := fmt.Fprintf(w, "  %s\n", i); err != nil {
				return err
			}
		}
	}

	return nil
}

// Sprint renders the listing of f as a string.
func Sprint(f Function) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}
