package query

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Dialect is one row of a dialect table. Each pattern is a regular expression
// in RE2 syntax.
type Dialect struct {
	Name    string `yaml:"name" validate:"required"`
	Match   string `yaml:"match" validate:"required,regexp"`
	Extract string `yaml:"extract" validate:"required,regexp"`
	Split   string `yaml:"split" validate:"required,regexp"`
}

// BuiltinDialects is the default dialect table.
//
// Match patterns are scoped to the host component of an absolute URI and
// require the query parameter to appear in the query component. The parameter
// must be a whole key, so "aq=" or "oq=" never stand in for "q=".
var BuiltinDialects = []Dialect{
	{
		Name:    "google",
		Match:   `^https?://[^/?#]*www\.google[^/?#]*(?:/[^?#]*)?\?(?:[^#]*&)?q=`,
		Extract: `[?&]q=([^&#]*)`,
		Split:   `\+|%20`,
	},
	{
		Name:    "bing",
		Match:   `^https?://[^/?#]*www\.bing\.com[^/?#]*(?:/[^?#]*)?\?(?:[^#]*&)?q=`,
		Extract: `[?&]q=([^&#]*)`,
		Split:   `\+`,
	},
	{
		Name:    "yahoo",
		Match:   `^https?://[^/?#]*search\.yahoo\.com[^/?#]*(?:/[^?#]*)?\?(?:[^#]*&)?p=`,
		Extract: `[?&]p=([^&#]*)`,
		Split:   `\+|%20`,
	},
	{
		Name:    "wikipedia",
		Match:   `^https?://[^/?#]*wikipedia\.org[^/?#]*(?:/[^?#]*)?\?(?:[^#]*&)?search=`,
		Extract: `[?&]search=([^&#]*)`,
		Split:   `\+`,
	},
}

// Compile produces a recognizer from the dialect.
func (d Dialect) Compile() (*PatternRecognizer, error) {
	match, err := regexp.Compile(d.Match)
	if err != nil {
		return nil, fmt.Errorf("dialect %s: match: %w", d.Name, err)
	}

	extract, err := regexp.Compile(d.Extract)
	if err != nil {
		return nil, fmt.Errorf("dialect %s: extract: %w", d.Name, err)
	}

	if extract.NumSubexp() != 1 {
		return nil, fmt.Errorf(
			"dialect %s: extract must have exactly one capture group, found %d",
			d.Name,
			extract.NumSubexp(),
		)
	}

	split, err := regexp.Compile(d.Split)
	if err != nil {
		return nil, fmt.Errorf("dialect %s: split: %w", d.Name, err)
	}

	return &PatternRecognizer{
		Name:      d.Name,
		MatchTest: match,
		Extractor: extract,
		Splitter:  split,
	}, nil
}

type dialectTable struct {
	Dialects []Dialect `yaml:"dialects" validate:"required,min=1,unique=Name,dive"`
}

// NewRegistry validates and compiles a dialect table, preserving its order.
func NewRegistry(dialects []Dialect) (Registry, error) {
	if err := validate.Struct(dialectTable{dialects}); err != nil {
		return nil, fmt.Errorf("invalid dialect table: %w", err)
	}

	var (
		registry Registry
		errs     error
	)

	for _, d := range dialects {
		rec, err := d.Compile()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		registry = append(registry, rec)
	}

	if errs != nil {
		return nil, errs
	}

	return registry, nil
}

// DefaultRegistry returns a registry built from BuiltinDialects.
func DefaultRegistry() Registry {
	registry, err := NewRegistry(BuiltinDialects)
	if err != nil {
		panic(err)
	}

	return registry
}

// LoadDialects reads a dialect table from a YAML file of the form:
//
//	dialects:
//	  - name: duckduckgo
//	    match: '^https?://duckduckgo\.com/\?(?:[^#]*&)?q='
//	    extract: '[?&]q=([^&#]*)'
//	    split: '\+'
func LoadDialects(path string) ([]Dialect, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read dialect table %s: %w", path, err)
	}

	var table dialectTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse dialect table %s: %w", path, err)
	}

	return table.Dialects, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}

	return v
}
