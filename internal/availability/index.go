package availability

import (
	"context"
	"fmt"
	"sort"

	"github.com/MacJediWizard/availcheck/internal/models"
)

// BaselineReader is the read side of the baseline store.
type BaselineReader interface {
	ReadAll(ctx context.Context, os models.OperatingSystem) ([]models.BaselineRow, error)
}

// Index is a read-only snapshot of one operating system's baseline: domain to
// agent names, both in insertion order.
type Index struct {
	os      models.OperatingSystem
	domains []string
	agents  map[string][]string
	keys    map[models.AgentKey]struct{}
}

// NewIndex builds an index from baseline rows. Blank and repeated rows are
// skipped. It returns an *EmptyBaselineError when no usable row remains.
func NewIndex(os models.OperatingSystem, rows []models.BaselineRow) (*Index, error) {
	idx := &Index{
		os:     os,
		agents: make(map[string][]string),
		keys:   make(map[models.AgentKey]struct{}, len(rows)),
	}

	for _, row := range rows {
		key := models.NewAgentKey(os, row.Domain, row.AgentName)
		if key.Domain == "" || key.AgentName == "" {
			continue
		}
		if _, dup := idx.keys[key]; dup {
			continue
		}
		idx.keys[key] = struct{}{}

		if _, ok := idx.agents[key.Domain]; !ok {
			idx.domains = append(idx.domains, key.Domain)
		}
		idx.agents[key.Domain] = append(idx.agents[key.Domain], key.AgentName)
	}

	if len(idx.keys) == 0 {
		return nil, &EmptyBaselineError{OS: os}
	}
	return idx, nil
}

// BuildIndex reads one operating system's baseline and indexes it.
func BuildIndex(ctx context.Context, reader BaselineReader, os models.OperatingSystem) (*Index, error) {
	rows, err := reader.ReadAll(ctx, os)
	if err != nil {
		return nil, fmt.Errorf("read %s baseline: %w", os, err)
	}
	return NewIndex(os, rows)
}

// OS returns the operating system the index covers.
func (i *Index) OS() models.OperatingSystem {
	return i.os
}

// Domains returns the domains in ascending lexical order.
func (i *Index) Domains() []string {
	out := make([]string, len(i.domains))
	copy(out, i.domains)
	sort.Strings(out)
	return out
}

// Agents returns the agent names of a domain in baseline insertion order.
func (i *Index) Agents(domain string) []string {
	names := i.agents[domain]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Contains reports whether key is part of the baseline.
func (i *Index) Contains(key models.AgentKey) bool {
	_, ok := i.keys[key]
	return ok
}

// Len returns the number of agents in the baseline.
func (i *Index) Len() int {
	return len(i.keys)
}

func (i *Index) String() string {
	return fmt.Sprintf("%s baseline: %d agents in %d domains", i.os, len(i.keys), len(i.domains))
}
