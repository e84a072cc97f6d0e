package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/flowdsl/pkg/catalog"
)

var stepsCommand = &cli.Command{
	Name:  "steps",
	Usage: "Query the step catalog",
	Description: `List known step kinds, optionally filtered.

Examples:
  flowdsl steps
  flowdsl steps --id log-sink
  flowdsl steps --name log --json
  flowdsl steps --dsl Integration --kind EIP`,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "Show the step with this id"},
		&cli.StringFlag{Name: "name", Usage: "Show steps with this name"},
		&cli.StringFlag{Name: "kind", Usage: "Only steps of this kind (Kamelet, Camel-Connector, EIP, Knative)"},
		&cli.StringFlag{Name: "dsl", Usage: "Only steps usable in this dialect"},
		&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
	},
	Action: runSteps,
}

func runSteps(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	var steps []catalog.Step
	switch {
	case c.IsSet("id"):
		if st, ok := s.catalog.ByID(c.String("id")); ok {
			steps = append(steps, st)
		}
	case c.IsSet("name"):
		steps = s.catalog.ByName(c.String("name"))
	default:
		steps = s.catalog.All()
	}
	steps = filterSteps(steps, c.String("kind"), c.String("dsl"))

	if c.Bool("json") {
		if steps == nil {
			steps = []catalog.Step{}
		}
		return writeJSON(c.App.Writer, steps)
	}
	if len(steps) == 0 {
		return fmt.Errorf("no matching steps")
	}
	for _, st := range steps {
		fmt.Fprintf(c.App.Writer, "%-28s %-16s %-7s %s\n", st.ID, st.Kind, st.Type, st.Title)
	}
	return nil
}

func filterSteps(steps []catalog.Step, kind, dsl string) []catalog.Step {
	var out []catalog.Step
	for _, st := range steps {
		if kind != "" && !strings.EqualFold(st.Kind, kind) {
			continue
		}
		if dsl != "" && !st.SupportsDSL(dsl) {
			continue
		}
		out = append(out, st)
	}
	return out
}
