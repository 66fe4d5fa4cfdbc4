package amendement

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Senateur is one entry of the author registry.
type Senateur struct {
	Matricule string
	Nom       string
	Prenom    string
	Groupe    string
}

// Registry resolves an author matricule.
type Registry interface {
	Lookup(matricule string) (Senateur, bool)
}

// Senateurs is an in-memory Registry keyed by matricule.
type Senateurs map[string]Senateur

// Lookup implements Registry.
func (s Senateurs) Lookup(matricule string) (Senateur, bool) {
	senateur, found := s[strings.ToUpper(matricule)]
	return senateur, found
}

// Registry export columns.
const (
	colMatricule = "Matricule"
	colNom       = "Nom usuel"
	colPrenom    = "Prénom usuel"
	colEtat      = "État"
	colGroupe    = "Groupe politique"
	etatActif    = "ACTIF"
)

// ParseSenateurs reads the senate registry export (UTF-8 CSV). Lines
// before the header row, which is found by its Matricule column, are
// ignored, as are senators that are no longer in office.
func ParseSenateurs(r io.Reader) (Senateurs, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var columns map[string]int
	senateurs := make(Senateurs)
	for lineIndex := 1; ; lineIndex++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading senateurs line %d: %w", lineIndex, err)
		}

		if columns == nil {
			columns = headerColumns(record)
			continue
		}

		field := func(name string) string {
			position, ok := columns[name]
			if !ok || position >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[position])
		}
		if field(colEtat) != etatActif {
			continue
		}
		matricule := strings.ToUpper(field(colMatricule))
		if matricule == "" {
			continue
		}
		senateurs[matricule] = Senateur{
			Matricule: matricule,
			Nom:       field(colNom),
			Prenom:    field(colPrenom),
			Groupe:    field(colGroupe),
		}
	}

	if columns == nil {
		return nil, fmt.Errorf("senateurs export has no %q header", colMatricule)
	}
	return senateurs, nil
}

// headerColumns returns the column positions of record if it is the
// header row, nil otherwise.
func headerColumns(record []string) map[string]int {
	columns := make(map[string]int, len(record))
	for position, name := range record {
		columns[strings.TrimSpace(name)] = position
	}
	if _, isHeader := columns[colMatricule]; !isHeader {
		return nil
	}
	return columns
}

// Loader fetches a fresh copy of the registry.
type Loader func(ctx context.Context) (Senateurs, error)

// RegistryCache owns a lazily loaded registry. The first Get loads it;
// later calls reuse it until Reload replaces it.
type RegistryCache struct {
	load Loader

	mu       sync.Mutex
	registry Senateurs
}

// NewRegistryCache returns an empty cache around load.
func NewRegistryCache(load Loader) *RegistryCache {
	return &RegistryCache{load: load}
}

// Get returns the cached registry, loading it on first use. A failed load
// is not cached.
func (c *RegistryCache) Get(ctx context.Context) (Senateurs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registry != nil {
		return c.registry, nil
	}
	return c.reloadLocked(ctx)
}

// Reload replaces the cached registry with a fresh copy. On failure the
// previous copy is kept.
func (c *RegistryCache) Reload(ctx context.Context) (Senateurs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked(ctx)
}

func (c *RegistryCache) reloadLocked(ctx context.Context) (Senateurs, error) {
	registry, err := c.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading senateurs: %w", err)
	}
	if registry == nil {
		registry = Senateurs{}
	}
	c.registry = registry
	return registry, nil
}
