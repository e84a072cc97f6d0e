// Package catalog provides the read-only registry of known step kinds.
//
// A Catalog is loaded once, asynchronously, from the built-in descriptor
// file plus any extra directories. Callers start loading with WarmUp and
// block on WaitForWarmUp before the first lookup; after that the catalog
// is immutable and safe for concurrent use without locking.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed steps.yaml
var builtinSteps []byte

// ErrNotReady is returned by WaitForWarmUp when warm-up was never started.
var ErrNotReady = errors.New("catalog warm-up not started")

// Step describes one known step kind.
type Step struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Kind        string   `yaml:"kind" json:"kind"`
	Type        string   `yaml:"type" json:"type"` // Role hint: START, MIDDLE, END
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Group       string   `yaml:"group,omitempty" json:"group,omitempty"`
	Shorthand   string   `yaml:"shorthand,omitempty" json:"shorthand,omitempty"` // Parameter a scalar value expands to
	DSLs        []string `yaml:"dsls,omitempty" json:"dsls,omitempty"`
}

// SupportsDSL reports whether the step is usable in the given dialect.
// Steps without a dialect list are usable everywhere.
func (s Step) SupportsDSL(dsl string) bool {
	if len(s.DSLs) == 0 {
		return true
	}
	for _, d := range s.DSLs {
		if strings.EqualFold(d, dsl) {
			return true
		}
	}
	return false
}

type file struct {
	Steps []Step `yaml:"steps"`
}

// Catalog holds step descriptors indexed by id and name.
type Catalog struct {
	logger *zap.Logger
	dirs   []string

	once    sync.Once
	started chan struct{}
	ready   chan struct{}
	err     error

	byID   map[string]Step
	byName map[string][]Step
	all    []Step
}

// New creates an unloaded catalog reading the built-in descriptors and then
// every *.yaml/*.yml file of dirs, in order. Later entries override earlier
// ones with the same id. A nil logger is replaced by a no-op logger.
func New(logger *zap.Logger, dirs ...string) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		logger:  logger.With(zap.String("component", "catalog")),
		dirs:    dirs,
		started: make(chan struct{}),
		ready:   make(chan struct{}),
	}
}

// Load creates a catalog and waits for it to be ready.
func Load(ctx context.Context, logger *zap.Logger, dirs ...string) (*Catalog, error) {
	c := New(logger, dirs...)
	c.WarmUp(ctx)
	if err := c.WaitForWarmUp(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// WarmUp starts loading in the background. Only the first call has effect.
func (c *Catalog) WarmUp(ctx context.Context) {
	c.once.Do(func() {
		close(c.started)
		go func() {
			defer close(c.ready)
			c.err = c.load(ctx)
			if c.err != nil {
				c.logger.Error("catalog warm-up failed", zap.Error(c.err))
				return
			}
			c.logger.Debug("catalog ready", zap.Int("steps", len(c.all)))
		}()
	})
}

// WaitForWarmUp blocks until loading has finished and returns its error.
func (c *Catalog) WaitForWarmUp(ctx context.Context) error {
	select {
	case <-c.started:
	default:
		return ErrNotReady
	}
	select {
	case <-c.ready:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Catalog) isReady() bool {
	select {
	case <-c.ready:
		return c.err == nil
	default:
		return false
	}
}

// ByID returns the descriptor with the given id.
func (c *Catalog) ByID(id string) (Step, bool) {
	if !c.isReady() {
		return Step{}, false
	}
	s, ok := c.byID[id]
	return s, ok
}

// ByName returns every descriptor with the given name, in load order.
func (c *Catalog) ByName(name string) []Step {
	if !c.isReady() {
		return nil
	}
	return append([]Step(nil), c.byName[name]...)
}

// All returns every descriptor sorted by id.
func (c *Catalog) All() []Step {
	if !c.isReady() {
		return nil
	}
	return append([]Step(nil), c.all...)
}

func (c *Catalog) load(ctx context.Context) error {
	sources := [][]Step{nil}
	builtin, err := parseFile(builtinSteps)
	if err != nil {
		return fmt.Errorf("built-in catalog: %w", err)
	}
	sources[0] = builtin

	var files []string
	for _, dir := range c.dirs {
		found, err := collectFiles(dir)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	loaded := make([][]Step, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path) //#nosec G304 -- configured catalog directory
			if err != nil {
				return err
			}
			steps, err := parseFile(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			loaded[i] = steps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.index(append(sources, loaded...))
	return nil
}

func (c *Catalog) index(sources [][]Step) {
	c.byID = make(map[string]Step)
	var order []string
	for _, steps := range sources {
		for _, s := range steps {
			if _, seen := c.byID[s.ID]; !seen {
				order = append(order, s.ID)
			}
			c.byID[s.ID] = s
		}
	}

	c.byName = make(map[string][]Step)
	for _, id := range order {
		s := c.byID[id]
		c.byName[s.Name] = append(c.byName[s.Name], s)
		c.all = append(c.all, s)
	}
	sort.Slice(c.all, func(i, j int) bool { return c.all[i].ID < c.all[j].ID })
}

func parseFile(data []byte) ([]Step, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for i, s := range f.Steps {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("step %d: id and name are required", i)
		}
	}
	return f.Steps, nil
}

func collectFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
