package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/flowdsl/pkg/logger"
	"github.com/devicelab-dev/flowdsl/pkg/report"
	"github.com/devicelab-dev/flowdsl/pkg/validator"
)

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "Check that flow files survive a convert/render round trip",
	ArgsUsage: "<file-or-folder>",
	Description: `Convert every YAML file and render it back. A file passes when a dialect
accepts it and rendering reproduces it after whitespace normalization.

Reports are written as report.json:
  - With --save-report: <home>/reports/<timestamp>/
  - With --report: <report>/<timestamp>/
  - With --report and --flatten: <report>/

The home directory is the config's home setting, $FLOWDSL_HOME, the
install prefix of the binary, or the current directory.

Examples:
  flowdsl check flows/
  flowdsl check flows/ --save-report
  flowdsl check flows/ --dsl Integration --report ./reports --diff`,
	Flags: []cli.Flag{
		dslFlag,
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON report under this directory",
		},
		&cli.BoolFlag{
			Name:  "save-report",
			Usage: "Write a JSON report under <home>/reports",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --report)",
		},
		&cli.BoolFlag{
			Name:  "diff",
			Usage: "Print the round-trip diff of failing files",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Only check files matching these patterns",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Skip files matching these patterns",
		},
	},
	Action: runCheck,
}

func runCheck(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file or folder is required")
	}
	if c.Bool("flatten") && c.String("report") == "" {
		return fmt.Errorf("--flatten requires --report to be specified")
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	if c.IsSet("include") {
		s.cfg.Include = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		s.cfg.Exclude = c.StringSlice("exclude")
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	path := c.Args().First()
	hint := s.hint(c)
	v := validator.New(s.converter,
		validator.WithHint(hint),
		validator.WithFilter(s.cfg.Selects),
		validator.WithParallel(s.parallel()),
		validator.WithLogger(s.log),
	)

	start := time.Now()
	result := v.Validate(c.Context, path)
	end := time.Now()

	w := c.App.Writer
	printCheckResults(w, result, c.Bool("diff"))
	printCheckSummary(w, result, end.Sub(start))

	dir := c.String("report")
	if dir == "" && c.Bool("save-report") {
		dir = s.home.ReportsDir()
	}
	if dir != "" {
		outDir := resolveReportDir(dir, c.Bool("flatten"), start)
		index := report.Build(result, report.BuilderConfig{
			Source:        path,
			Hint:          hint,
			RunnerName:    c.App.Name,
			RunnerVersion: Version,
			StartTime:     start,
			EndTime:       end,
		})
		reportPath, err := report.Write(outDir, index)
		if err != nil {
			logger.Error("failed to write report to %s: %v", outDir, err)
			return err
		}
		logger.Info("report written to %s", reportPath)
		fmt.Fprintf(w, "  Report: %s\n", reportPath)
	}

	if !result.IsValid() {
		return fmt.Errorf("%d of %d checks failed", len(result.Errors), max(len(result.Files), len(result.Errors)))
	}
	return nil
}

// resolveReportDir determines the report directory.
// - --report given: <report>/<timestamp>/
// - --report + --flatten: <report>/
func resolveReportDir(base string, flatten bool, now time.Time) string {
	if flatten {
		return filepath.Clean(base)
	}
	return filepath.Join(base, now.Format("2006-01-02_15-04-05"))
}

func printCheckResults(w io.Writer, result *validator.Result, showDiff bool) {
	for _, fr := range result.Checks {
		dsl := fr.DSL
		if dsl == "" {
			dsl = "-"
		}
		if fr.Passed() {
			fmt.Fprintf(w, "  %s✓%s %s %s(%s, %d flows)%s\n",
				color(colorGreen), color(colorReset), fr.File, color(colorGray), dsl, fr.Flows, color(colorReset))
			continue
		}
		fmt.Fprintf(w, "  %s✗%s %s %s(%s)%s\n",
			color(colorRed), color(colorReset), fr.File, color(colorGray), dsl, color(colorReset))
		fmt.Fprintf(w, "    %s╰─%s %s\n", color(colorGray), color(colorReset), fr.Err.Message)
		if showDiff && fr.Err.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(fr.Err.Diff, "\n"), "\n") {
				fmt.Fprintf(w, "      %s\n", colorDiffLine(line))
			}
		}
	}
	// Errors not tied to a checked file
	if len(result.Checks) == 0 {
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  %s✗%s %v\n", color(colorRed), color(colorReset), err)
		}
	}
}

func colorDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+"):
		return color(colorGreen) + line + color(colorReset)
	case strings.HasPrefix(line, "-"):
		return color(colorRed) + line + color(colorReset)
	}
	return line
}

func printCheckSummary(w io.Writer, result *validator.Result, elapsed time.Duration) {
	byDialect := make(map[string][2]int)
	var order []string
	passed := 0
	for _, fr := range result.Checks {
		dsl := fr.DSL
		if dsl == "" {
			dsl = "(unrecognized)"
		}
		if _, ok := byDialect[dsl]; !ok {
			order = append(order, dsl)
		}
		counts := byDialect[dsl]
		counts[0]++
		if fr.Passed() {
			counts[1]++
			passed++
		}
		byDialect[dsl] = counts
	}

	tableWidth := 60
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-32s %8s %8s %8s\n", "Dialect", "Files", "Pass", "Fail")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	for _, dsl := range order {
		counts := byDialect[dsl]
		fmt.Fprintf(w, "  %-32s %8d %8d %8d\n", truncate(dsl, 32), counts[0], counts[1], counts[0]-counts[1])
	}
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	statusColor := color(colorGreen)
	if passed < len(result.Checks) {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-32s%s %8d %s%8d%s %8d   %s\n",
		color(colorBold), "TOTAL", color(colorReset),
		len(result.Checks), statusColor, passed, color(colorReset), len(result.Checks)-passed,
		formatDuration(elapsed.Milliseconds()))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}
