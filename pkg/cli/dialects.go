package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var dialectsCommand = &cli.Command{
	Name:   "dialects",
	Usage:  "List supported dialects in dispatch order",
	Action: runDialects,
}

func runDialects(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	w := c.App.Writer
	for _, spec := range s.registry.Specifications() {
		flows := "single-flow"
		if spec.MultiFlow {
			flows = "multi-flow"
		}
		fmt.Fprintf(w, "%s%-16s%s %-12s %s\n", color(colorBold), spec.Identifier, color(colorReset), flows, spec.Description)
	}
	return nil
}
