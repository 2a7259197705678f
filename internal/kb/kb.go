// Package kb holds the malware knowledge base: reference data mapping
// malware family names and aliases to their documented ATT&CK techniques.
// The base is loaded once at process start, validated against the taxonomy,
// and shared read-only by all concurrent invocations.
package kb

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/taxonomy"
	"gopkg.in/yaml.v3"
)

// Entity is one malware family and its documented behavior.
type Entity struct {
	CanonicalName string   `yaml:"name" json:"name"`
	Aliases       []string `yaml:"aliases" json:"aliases,omitempty"`
	TechniqueIDs  []string `yaml:"techniques" json:"technique_ids"`
	TacticIDs     []string `yaml:"-" json:"tactic_ids,omitempty"` // Derived from techniques at load
}

// KnowledgeBase is the immutable alias-indexed reference store.
type KnowledgeBase struct {
	entities map[string]*Entity // canonical name, lowercased
	aliases  map[string]*Entity // every alias and canonical name, lowercased
}

// New builds a knowledge base from the built-in entity table, validated
// against the given taxonomy. A validation failure here is fatal at process
// start.
func New(tax *taxonomy.Taxonomy) (*KnowledgeBase, error) {
	return fromEntities(tax, builtinEntities, "")
}

// LoadFile loads a YAML overlay and merges it over the built-in table.
// Overlay entities with a name already present replace the built-in entry.
func LoadFile(tax *taxonomy.Taxonomy, path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.KnowledgeBaseLoadError{Path: path, Err: err}
	}

	var overlay struct {
		Entities []Entity `yaml:"malware"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, &model.KnowledgeBaseLoadError{Path: path, Err: err}
	}

	merged := mergeEntities(builtinEntities, overlay.Entities)
	return fromEntities(tax, merged, path)
}

// FromSTIX builds a knowledge base from malware records parsed out of an
// enterprise-attack bundle. Records whose techniques all fall outside the
// taxonomy would make the base useless, so unknown technique ids are a load
// error here too.
func FromSTIX(tax *taxonomy.Taxonomy, records []taxonomy.MalwareRecord) (*KnowledgeBase, error) {
	entities := make([]Entity, 0, len(records))
	for _, rec := range records {
		entities = append(entities, Entity{
			CanonicalName: rec.Name,
			Aliases:       rec.Aliases,
			TechniqueIDs:  rec.TechniqueIDs,
		})
	}
	return fromEntities(tax, entities, "")
}

// fromEntities validates and indexes an entity table.
func fromEntities(tax *taxonomy.Taxonomy, entities []Entity, path string) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		entities: make(map[string]*Entity, len(entities)),
		aliases:  make(map[string]*Entity),
	}

	for i := range entities {
		e := entities[i]
		if strings.TrimSpace(e.CanonicalName) == "" {
			return nil, &model.KnowledgeBaseLoadError{Path: path, Err: fmt.Errorf("entity %d has no name", i)}
		}

		tacticSet := make(map[string]struct{})
		for _, techID := range e.TechniqueIDs {
			if err := tax.ResolveTechnique(techID); err != nil {
				return nil, &model.KnowledgeBaseLoadError{Path: path, Err: fmt.Errorf("malware %q: %w", e.CanonicalName, err)}
			}
			for _, tacticID := range tax.TacticsFor(techID) {
				tacticSet[tacticID] = struct{}{}
			}
		}
		e.TacticIDs = sortedKeys(tacticSet)

		entity := &Entity{
			CanonicalName: e.CanonicalName,
			Aliases:       append([]string(nil), e.Aliases...),
			TechniqueIDs:  dedupeSorted(e.TechniqueIDs),
			TacticIDs:     e.TacticIDs,
		}

		kb.entities[strings.ToLower(e.CanonicalName)] = entity
		kb.aliases[strings.ToLower(e.CanonicalName)] = entity
		for _, alias := range e.Aliases {
			kb.aliases[strings.ToLower(alias)] = entity
		}
	}

	return kb, nil
}

// Lookup resolves a malware name or alias, case-insensitively.
func (kb *KnowledgeBase) Lookup(name string) (*Entity, bool) {
	e, ok := kb.aliases[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Names returns every known surface form (canonical names and aliases),
// lowercased, in stable order. The malware linker scans text against these.
func (kb *KnowledgeBase) Names() []string {
	names := make([]string, 0, len(kb.aliases))
	for name := range kb.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entities returns all entities in canonical-name order.
func (kb *KnowledgeBase) Entities() []*Entity {
	names := make([]string, 0, len(kb.entities))
	for name := range kb.entities {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Entity, 0, len(names))
	for _, name := range names {
		out = append(out, kb.entities[name])
	}
	return out
}

// Len returns the number of distinct entities.
func (kb *KnowledgeBase) Len() int {
	return len(kb.entities)
}

// mergeEntities overlays b on top of a, matching by canonical name.
func mergeEntities(a, b []Entity) []Entity {
	out := make([]Entity, 0, len(a)+len(b))
	replaced := make(map[string]int)

	for _, e := range a {
		replaced[strings.ToLower(e.CanonicalName)] = len(out)
		out = append(out, e)
	}
	for _, e := range b {
		if i, ok := replaced[strings.ToLower(e.CanonicalName)]; ok {
			out[i] = e
			continue
		}
		out = append(out, e)
	}
	return out
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
