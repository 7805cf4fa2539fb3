package commands

import (
	"fmt"
	"sort"
	"strings"
)

// TaxonomiesCmd implements the 'taxonomies' command.
type TaxonomiesCmd struct {
	Content string `help:"Content directory (overrides content.dir)"`
}

func (t *TaxonomiesCmd) Run(g *Global, root *CLI) error {
	result, err := runCheck(g, root, t.Content)
	if err != nil {
		return err
	}

	w := g.out()
	registry := result.Registry
	types := registry.Types()
	if len(types) == 0 {
		_, _ = fmt.Fprintln(w, "No taxonomy terms")
		return nil
	}
	terms := registry.Terms()
	for _, typ := range types {
		list := terms[typ]
		_, _ = fmt.Fprintf(w, "%s (%d)\n", typ.Plural, len(list))
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Title()) < strings.ToLower(list[j].Title())
		})
		for _, term := range list {
			_, _ = fmt.Fprintf(w, "  %-24s %3d  %s\n", term.Title(), len(term.Children()), term.URL())
		}
	}
	return nil
}
