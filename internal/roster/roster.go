// Package roster loads the characters that can be assigned to units.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tmoosting/tactical-tangle/internal/api"
	"github.com/tmoosting/tactical-tangle/internal/config"
	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// Provider yields the character dataset once at startup.
type Provider interface {
	Characters(ctx context.Context) ([]core.Character, error)
}

// Static serves a fixed slice.
type Static []core.Character

func (s Static) Characters(context.Context) ([]core.Character, error) {
	return append([]core.Character(nil), s...), nil
}

// File reads a JSON dataset from Path on every call.
type File struct {
	Path string
}

func (f File) Characters(context.Context) ([]core.Character, error) {
	return LoadFile(f.Path)
}

// LoadFile reads a JSON array of characters or an object with a
// "characters" array.
func LoadFile(path string) ([]core.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	chars, err := api.DecodeCharacters(data)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return chars, nil
}

// NewProvider picks the source named by roster.source. "none" yields an
// empty roster, which disables character assignment.
func NewProvider(cfg config.RosterConfig) (Provider, error) {
	switch cfg.Source {
	case "", "none":
		return Static(nil), nil
	case "file":
		if cfg.Path == "" {
			return nil, errors.New("roster source file needs roster.path")
		}
		return File{Path: cfg.Path}, nil
	case "api":
		return api.New(cfg.ServerURL, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown roster source: %s", cfg.Source)
	}
}

// filterEnv exposes character fields to filter expressions.
type filterEnv struct {
	ID          string `expr:"id"`
	Name        string `expr:"name"`
	Description string `expr:"description"`
}

// Compile checks a boolean filter such as `name startsWith "Leo"`.
func Compile(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return prog, nil
}

// Filter keeps the characters for which expression is true. An empty
// expression keeps everything.
func Filter(chars []core.Character, expression string) ([]core.Character, error) {
	if expression == "" {
		return chars, nil
	}
	prog, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	out := make([]core.Character, 0, len(chars))
	for _, c := range chars {
		res, err := expr.Run(prog, filterEnv{ID: c.ID, Name: c.Name, Description: c.Description})
		if err != nil {
			return nil, fmt.Errorf("run filter on %s: %w", c.ID, err)
		}
		if keep, _ := res.(bool); keep {
			out = append(out, c)
		}
	}
	return out, nil
}
