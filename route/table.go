package route

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/michaelquigley/alsaroute"
)

// DefaultTable names the fallback table used when no card id matches
const DefaultTable = "default"

//go:embed tables/*.yaml
var embedded embed.FS

// Devices selects the PCM devices a route opens on card 0
type Devices int

const (
	Devices0 Devices = iota
	Devices01
	Devices02
	Devices012
)

var deviceNames = map[string]Devices{
	"DEVICES_0":     Devices0,
	"DEVICES_0_1":   Devices01,
	"DEVICES_0_2":   Devices02,
	"DEVICES_0_1_2": Devices012,
}

// Has reports whether the set includes PCM device n
func (d Devices) Has(n int) bool {
	switch n {
	case 0:
		return true
	case 1:
		return d == Devices01 || d == Devices012
	case 2:
		return d == Devices02 || d == Devices012
	}
	return false
}

func (d Devices) String() string {
	for name, v := range deviceNames {
		if v == d {
			return name
		}
	}
	return "DEVICES_?"
}

func (d *Devices) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, found := deviceNames[strings.ToUpper(s)]
	if !found {
		return errors.Errorf("unknown device set %q", s)
	}
	*d = v
	return nil
}

// Control is one control setting of a route. Str selects an enumerated item;
// otherwise Ints holds the left value and an optional right value.
type Control struct {
	Name string  `yaml:"name"`
	Ints []int64 `yaml:"ints"`
	Str  string  `yaml:"str"`
}

// Config is the static configuration of one route
type Config struct {
	Card     int       `yaml:"card"`
	Devices  Devices   `yaml:"devices"`
	Controls []Control `yaml:"controls"`
}

// Table is a named set of route configurations for one codec
type Table struct {
	Name    string            `yaml:"name"`
	CardIDs []string          `yaml:"card_ids"`
	Routes  map[string]Config `yaml:"routes"`

	configs [MaxRoute]*Config
}

// IsDefault reports whether t is the fallback table
func (t *Table) IsDefault() bool {
	return t.Name == DefaultTable
}

// Config returns the configuration of route r
func (t *Table) Config(r Route) (*Config, error) {
	if !r.Valid() {
		return nil, errors.Wrapf(alsaroute.ErrInvalidArgument, "route %d", int(r))
	}
	cfg := t.configs[r]
	if cfg == nil {
		return nil, errors.Errorf("table %q has no config for %s", t.Name, r)
	}
	return cfg, nil
}

func (t *Table) index() error {
	keys := make(map[string]Route, MaxRoute)
	for _, r := range Routes() {
		keys[r.Key()] = r
	}

	for key, cfg := range t.Routes {
		r, found := keys[key]
		if !found {
			return errors.Errorf("table %q: unknown route %q", t.Name, key)
		}
		if cfg.Card < 0 || cfg.Card > 2 {
			return errors.Errorf("table %q: route %q: card %d out of range", t.Name, key, cfg.Card)
		}
		for i, ctl := range cfg.Controls {
			if err := ctl.validate(); err != nil {
				return errors.Wrapf(err, "table %q: route %q: control %d", t.Name, key, i)
			}
		}
		cfg := cfg
		t.configs[r] = &cfg
	}
	return nil
}

func (c Control) validate() error {
	if c.Name == "" {
		return errors.New("missing name")
	}
	if c.Str != "" && len(c.Ints) > 0 {
		return errors.Errorf("%q sets both str and ints", c.Name)
	}
	if c.Str == "" && (len(c.Ints) == 0 || len(c.Ints) > 2) {
		return errors.Errorf("%q needs str or one or two ints", c.Name)
	}
	return nil
}

// ParseTable decodes and indexes one YAML route table
func ParseTable(data []byte) (*Table, error) {
	t := &Table{}
	if err := yaml.UnmarshalStrict(data, t); err != nil {
		return nil, errors.Wrap(err, "decode route table")
	}
	if t.Name == "" {
		return nil, errors.New("route table without name")
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	return t, nil
}

// Registry holds the known route tables and picks one per card
type Registry struct {
	tables   []*Table
	fallback *Table
}

// LoadTables parses every *.yaml file in dir of fsys. One of them must be
// the default table.
func LoadTables(fsys fs.FS, dir string) (*Registry, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, errors.Wrap(err, "list route tables")
	}
	sort.Strings(names)

	reg := &Registry{}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		t, err := ParseTable(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
		if t.IsDefault() {
			reg.fallback = t
		} else {
			reg.tables = append(reg.tables, t)
		}
	}
	if reg.fallback == nil {
		return nil, errors.Errorf("no %q route table in %s", DefaultTable, dir)
	}
	return reg, nil
}

var (
	builtinOnce sync.Once
	builtin     *Registry
	builtinErr  error
)

// Builtin returns the registry of the tables compiled into the binary
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = LoadTables(embedded, "tables")
	})
	return builtin, builtinErr
}

// Select returns the first table whose card id occurs in cardID, or the
// default table
func (reg *Registry) Select(cardID string) *Table {
	if cardID != "" {
		for _, t := range reg.tables {
			for _, id := range t.CardIDs {
				if strings.Contains(cardID, id) {
					return t
				}
			}
		}
	}
	return reg.fallback
}

// Tables returns every table, the default one first
func (reg *Registry) Tables() []*Table {
	return append([]*Table{reg.fallback}, reg.tables...)
}
