package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/urfave/cli/v2"

	"variantmatch/pkg/driver"
	"variantmatch/pkg/evaluator"
	"variantmatch/pkg/match"
	"variantmatch/pkg/variant"
)

const cliToolVersion = "0.0.0-dev"

const (
	globalLogLevel = "log-level"
	globalNoColor  = "no-color"
	globalMetrics  = "metrics"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    globalLogLevel,
		Value:   "warn",
		Usage:   "Log level: debug, info, warn or error",
		EnvVars: []string{"VARIANTMATCH_LOG_LEVEL"},
	},
	&cli.BoolFlag{
		Name:  globalNoColor,
		Usage: "Disable ANSI styling even when stdout is a terminal",
	},
	&cli.BoolFlag{
		Name:  globalMetrics,
		Usage: "Write counters in Prometheus text format to stderr on exit",
	},
}

// session is the per-invocation state shared by commands.
type session struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logger  *slog.Logger
	color   bool
	metrics *metrics.Set
	dump    bool
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := &session{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		metrics: metrics.NewSet(),
	}
	app := s.newApp()
	err := app.Run(args)
	if s.dump {
		s.metrics.WritePrometheus(stderr)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (s *session) newApp() *cli.App {
	return &cli.App{
		Name:      "variantmatch",
		Usage:     "Sealed variant hierarchies with exhaustive pattern matching",
		Version:   cliToolVersion,
		Reader:    s.stdin,
		Writer:    s.stdout,
		ErrWriter: s.stderr,
		Flags:     globalFlags,
		Before:    s.before,
		// Errors are reported by run; the default handler would call os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the available demos",
				Action: s.listDemos,
			},
			{
				Name:      "run",
				Usage:     "Run one or more demos",
				ArgsUsage: "KEY...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Run every demo in menu order"},
				},
				Action: s.runDemos,
			},
			{
				Name:      "declare",
				Usage:     "Declare the hierarchies of a YAML manifest and print them",
				ArgsUsage: "FILE",
				Action:    s.declareManifest,
			},
			{
				Name:      "classify",
				Usage:     "Classify a JSON document read from FILE or stdin",
				ArgsUsage: "[FILE|-]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "echo", Usage: "Also print the document as compact JSON"},
				},
				Action: s.classify,
			},
		},
	}
}

func (s *session) before(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String(globalLogLevel))); err != nil {
		return fmt.Errorf("invalid --%s: %w", globalLogLevel, err)
	}
	s.logger = slog.New(slog.NewTextHandler(s.stderr, &slog.HandlerOptions{Level: level}))
	s.color = !c.Bool(globalNoColor) && os.Getenv("NO_COLOR") == "" && isTerminal(s.stdout)
	s.dump = c.Bool(globalMetrics)
	return nil
}

func (s *session) catalog() (*evaluator.Catalog, error) {
	return evaluator.NewCatalog(variant.NewRegistry(), match.WithLogger(s.logger))
}

func (s *session) listDemos(*cli.Context) error {
	t := &table{header: []string{"KEY", "HIERARCHY", "TITLE"}}
	for _, d := range demos {
		t.rows = append(t.rows, []string{d.Key, d.Hierarchy, d.Title})
	}
	return t.render(s.stdout, s.color)
}

func (s *session) runDemos(c *cli.Context) error {
	var selected []demo
	if c.Bool("all") {
		selected = demos
	} else {
		if c.NArg() == 0 {
			return errors.New("run requires at least one demo key or --all (see 'variantmatch list')")
		}
		for _, key := range c.Args().Slice() {
			d, ok := findDemo(key)
			if !ok {
				return fmt.Errorf("unknown demo %q (see 'variantmatch list')", key)
			}
			selected = append(selected, d)
		}
	}

	catalog, err := s.catalog()
	if err != nil {
		return err
	}
	for i, d := range selected {
		if i > 0 {
			fmt.Fprintln(s.stdout)
		}
		fmt.Fprintln(s.stdout, s.heading(fmt.Sprintf("== %s: %s ==", d.Key, d.Title)))
		s.metrics.GetOrCreateCounter(fmt.Sprintf(`variantmatch_demo_runs_total{demo=%q}`, d.Key)).Inc()
		if err := d.Run(catalog, s.stdout); err != nil {
			s.metrics.GetOrCreateCounter(fmt.Sprintf(`variantmatch_demo_errors_total{demo=%q}`, d.Key)).Inc()
			return fmt.Errorf("demo %s: %w", d.Key, err)
		}
		s.logger.Debug("demo finished", "demo", d.Key)
	}
	return nil
}

func (s *session) declareManifest(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("declare requires exactly one manifest path")
	}
	manifest, err := driver.LoadManifest(c.Args().First())
	if err != nil {
		return err
	}
	reg := variant.NewRegistry()
	declared, err := manifest.Declare(reg)
	s.metrics.GetOrCreateCounter("variantmatch_declared_hierarchies_total").Add(len(declared))
	if err != nil {
		return err
	}
	for _, h := range declared {
		fmt.Fprintln(s.stdout, s.heading(h.Name()))
		for _, name := range h.Variants() {
			v, _ := h.Variant(name)
			fields := make([]string, 0, v.Arity())
			for _, f := range v.Fields() {
				field := f.Name + " " + f.Type.String()
				if f.Optional {
					field += "?"
				}
				fields = append(fields, field)
			}
			fmt.Fprintf(s.stdout, "  %s(%s)\n", name, strings.Join(fields, ", "))
		}
	}
	s.logger.Info("manifest declared", "path", manifest.Path, "hierarchies", len(declared))
	return nil
}

func (s *session) classify(c *cli.Context) error {
	if c.NArg() > 1 {
		return errors.New("classify accepts at most one input path")
	}
	var (
		data []byte
		err  error
	)
	switch path := c.Args().First(); path {
	case "", "-":
		data, err = io.ReadAll(s.stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	catalog, err := s.catalog()
	if err != nil {
		return err
	}
	doc, err := catalog.JSON.Parse(string(data))
	if err != nil {
		s.metrics.GetOrCreateCounter("variantmatch_classify_errors_total").Inc()
		return err
	}
	result, err := catalog.JSON.Classify(doc)
	if err != nil {
		s.metrics.GetOrCreateCounter("variantmatch_classify_errors_total").Inc()
		return err
	}
	s.metrics.GetOrCreateCounter("variantmatch_classify_total").Inc()
	if c.Bool("echo") {
		text, err := catalog.JSON.Marshal(doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.stdout, text)
	}
	fmt.Fprintln(s.stdout, result)
	return nil
}

func (s *session) heading(text string) string {
	if s.color {
		return bold(text)
	}
	return text
}
