package ratetable

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

// Provider hands out the published rate table for a calendar year.
type Provider interface {
	ForYear(year int) (RateTable, error)
}

// Tables is an immutable snapshot of all published rate tables, loaded once
// per settlement pass.
type Tables struct {
	byYear map[int]RateTable
}

func (t Tables) ForYear(year int) (RateTable, error) {
	rt, ok := t.byYear[year]
	if !ok {
		return RateTable{}, &InvalidRateTableError{year, "no rate table published for this year"}
	}
	return rt, nil
}

// NewTables builds a validated snapshot from already-parsed tables. Used by tests.
func NewTables(tables ...RateTable) (Tables, error) {
	byYear := make(map[int]RateTable, len(tables))
	for _, rt := range tables {
		if err := rt.Validate(); err != nil {
			return Tables{}, err
		}
		if _, exists := byYear[rt.Year]; exists {
			return Tables{}, &InvalidRateTableError{rt.Year, "duplicate rate table for year"}
		}
		byYear[rt.Year] = rt
	}
	return Tables{byYear: byYear}, nil
}

// Loader reads per-year rate table YAML files (<year>.yaml) from a directory.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load parses and validates every YAML file in the configured directory.
// Any invalid table aborts the load: a settlement pass must never start with a
// partially valid configuration.
func (l *Loader) Load() (Tables, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read rate table directory %s: %w", l.dir, err)
	}

	tables := make([]RateTable, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		rt, err := loadFile(path)
		if err != nil {
			return Tables{}, err
		}
		log.Debugf("loaded rate table for year %d from %s", rt.Year, path)
		tables = append(tables, rt)
	}
	if len(tables) == 0 {
		return Tables{}, fmt.Errorf("no rate tables found in %s", l.dir)
	}
	return NewTables(tables...)
}

func loadFile(path string) (RateTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return RateTable{}, fmt.Errorf("failed to load rate table %s: %w", path, err)
	}
	var rt RateTable
	if err := k.Unmarshal("", &rt); err != nil {
		return RateTable{}, fmt.Errorf("failed to parse rate table %s: %w", path, err)
	}
	return rt, nil
}
