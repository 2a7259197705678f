package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// MalwareRecord is a malware family recovered from a STIX bundle's malware
// objects and their "uses" relationships. The knowledge base consumes these.
type MalwareRecord struct {
	Name         string
	Aliases      []string
	TechniqueIDs []string
}

// STIX bundle wire structures (only the fields the parser needs).
type stixBundle struct {
	Objects []stixObject `json:"objects"`
}

type stixObject struct {
	Type             string          `json:"type"`
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Revoked          bool            `json:"revoked"`
	Deprecated       bool            `json:"x_mitre_deprecated"`
	ShortName        string          `json:"x_mitre_shortname"`
	IsSubTechnique   bool            `json:"x_mitre_is_subtechnique"`
	Aliases          []string        `json:"x_mitre_aliases"`
	ExternalRefs     []stixReference `json:"external_references"`
	KillChainPhases  []stixKillChain `json:"kill_chain_phases"`
	RelationshipType string          `json:"relationship_type"`
	SourceRef        string          `json:"source_ref"`
	TargetRef        string          `json:"target_ref"`
}

type stixReference struct {
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id"`
}

type stixKillChain struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// ParseBundle parses an enterprise-attack STIX bundle into a taxonomy plus
// the malware records needed by the knowledge base. Revoked and deprecated
// objects are skipped.
func ParseBundle(data []byte) (*Taxonomy, []MalwareRecord, error) {
	var bundle stixBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, nil, fmt.Errorf("parse STIX bundle: %w", err)
	}
	if len(bundle.Objects) == 0 {
		return nil, nil, fmt.Errorf("parse STIX bundle: no objects")
	}

	var tactics []Tactic
	phaseToTactic := make(map[string]string)
	for _, obj := range bundle.Objects {
		if obj.Type != "x-mitre-tactic" {
			continue
		}
		extID := mitreExternalID(obj.ExternalRefs)
		if extID == "" {
			continue
		}
		tactics = append(tactics, Tactic{ID: extID, Name: obj.Name, ShortName: obj.ShortName})
		phaseToTactic[obj.ShortName] = extID
	}

	var techniques []Technique
	stixToTechnique := make(map[string]string) // attack-pattern STIX id -> T-id
	for _, obj := range bundle.Objects {
		if obj.Type != "attack-pattern" || obj.Revoked || obj.Deprecated {
			continue
		}
		extID := mitreExternalID(obj.ExternalRefs)
		if extID == "" {
			continue
		}

		var tacticIDs []string
		for _, phase := range obj.KillChainPhases {
			if phase.KillChainName != "mitre-attack" {
				continue
			}
			if id, ok := phaseToTactic[phase.PhaseName]; ok {
				tacticIDs = append(tacticIDs, id)
			}
		}

		t := Technique{ID: extID, Name: obj.Name, TacticIDs: tacticIDs}
		if obj.IsSubTechnique {
			if dot := strings.IndexByte(extID, '.'); dot > 0 {
				t.ParentID = extID[:dot]
			}
		}
		techniques = append(techniques, t)
		stixToTechnique[obj.ID] = extID
	}

	malwareNames := make(map[string]*MalwareRecord) // STIX id -> record
	for _, obj := range bundle.Objects {
		if obj.Type != "malware" || obj.Revoked || obj.Deprecated {
			continue
		}
		rec := &MalwareRecord{Name: obj.Name}
		for _, alias := range obj.Aliases {
			if !strings.EqualFold(alias, obj.Name) {
				rec.Aliases = append(rec.Aliases, alias)
			}
		}
		malwareNames[obj.ID] = rec
	}

	for _, obj := range bundle.Objects {
		if obj.Type != "relationship" || obj.RelationshipType != "uses" {
			continue
		}
		rec, ok := malwareNames[obj.SourceRef]
		if !ok {
			continue
		}
		if techID, ok := stixToTechnique[obj.TargetRef]; ok {
			rec.TechniqueIDs = append(rec.TechniqueIDs, techID)
		}
	}

	tax, err := build(tactics, techniques)
	if err != nil {
		return nil, nil, err
	}

	records := make([]MalwareRecord, 0, len(malwareNames))
	for _, rec := range malwareNames {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	return tax, records, nil
}

// LoadBundleFile parses a STIX bundle from disk.
func LoadBundleFile(path string) (*Taxonomy, []MalwareRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read STIX bundle: %w", err)
	}
	return ParseBundle(data)
}

// mitreExternalID picks the mitre-attack external id (T1059, TA0002, S0154)
// out of an object's reference list.
func mitreExternalID(refs []stixReference) string {
	for _, ref := range refs {
		if ref.SourceName == "mitre-attack" && ref.ExternalID != "" {
			return ref.ExternalID
		}
	}
	return ""
}
