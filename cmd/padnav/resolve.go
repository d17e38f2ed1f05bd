package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/izzyreal/padnav/internal/resolver"
)

// runResolve prints the element a direction would activate in a saved page.
func runResolve(w io.Writer, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: padnav resolve <file.html> next|prev")
	}
	dir, err := resolver.ParseDirection(args[1])
	if err != nil {
		return err
	}
	doc, err := resolver.ParseFile(args[0])
	if err != nil {
		return err
	}
	el, err := resolver.Resolve(doc, dir)
	if errors.Is(err, resolver.ErrNotFound) {
		fmt.Fprintf(w, "%s: no target\n", dir)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: <%s> %q (%s %q)\n", dir, el.Tag(), el.Text(), el.Source, el.Token)
	return nil
}
