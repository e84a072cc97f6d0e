package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var identifyCommand = &cli.Command{
	Name:      "identify",
	Usage:     "Print the dialect that accepts each file",
	ArgsUsage: "<file>...",
	Flags:     []cli.Flag{dslFlag},
	Action:    runIdentify,
}

func runIdentify(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one file is required")
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	w := c.App.Writer
	hint := s.hint(c)
	unknown := 0
	for _, file := range c.Args().Slice() {
		text, err := readInput(c.App.Reader, file)
		if err != nil {
			return err
		}
		res := s.registry.Resolve(hint, text)

		dialect := "unknown"
		if res.Spec != nil {
			dialect = res.Spec.Identifier
		} else {
			unknown++
		}
		line := fmt.Sprintf("%s: %s", file, dialect)
		if res.Mismatch {
			line += fmt.Sprintf(" %s(hint %q did not match)%s", color(colorYellow), hint, color(colorReset))
		}
		fmt.Fprintln(w, line)

		if c.Bool("verbose") {
			for _, p := range res.Probes {
				fmt.Fprintf(w, "  %s%-16s %s%s\n", color(colorGray), p.Identifier, p.Outcome, color(colorReset))
			}
		}
	}
	if unknown > 0 {
		return fmt.Errorf("%d files not recognized", unknown)
	}
	return nil
}
