package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

var renderCommand = &cli.Command{
	Name:      "render",
	Usage:     "Render a canonical JSON document back to dialect text",
	ArgsUsage: "<document.json> (\"-\" reads stdin)",
	Description: `Render a document produced by "convert" to YAML. Flows are grouped by
dialect; documents are separated by "---".

Examples:
  flowdsl render binding.json
  flowdsl convert binding.yaml | flowdsl render -`,
	Action: runRender,
}

func runRender(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document is required")
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	data, err := readInput(c.App.Reader, c.Args().First())
	if err != nil {
		return err
	}
	var doc flow.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	out, err := s.converter.Render(&doc)
	if err != nil {
		return err
	}
	_, err = io.WriteString(c.App.Writer, out)
	return err
}
