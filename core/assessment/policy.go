package assessment

import (
	"bytes"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/trezcool/kiongozi/fs"
)

const defaultPolicyFile = "data/leadership-policy.yaml"

type (
	Thresholds struct {
		Strength       float64 `yaml:"strength"`
		Weakness       float64 `yaml:"weakness"`
		LowSubSkill    float64 `yaml:"low_subskill"`
		BalancedSpread float64 `yaml:"balanced_spread"`
		InsightGap     float64 `yaml:"insight_gap"`
		Development    float64 `yaml:"development"`
	}

	// Persona is a leadership-style classification.
	Persona struct {
		ID            string   `json:"id" yaml:"id"`
		Label         string   `json:"label" yaml:"label"`
		Summary       string   `json:"summary" yaml:"summary"`
		Opportunities []string `json:"-" yaml:"opportunities"`
		Threats       []string `json:"-" yaml:"threats"`
	}

	CategoryPolicy struct {
		Key         string `yaml:"key"`
		Label       string `yaml:"label"`
		Persona     string `yaml:"persona"`
		Strength    string `yaml:"strength"`
		Weakness    string `yaml:"weakness"`
		Opportunity string `yaml:"opportunity"`
		Threat      string `yaml:"threat"`
		Development string `yaml:"development"`
	}

	// Policy holds the persona catalog, the category texts and the scoring thresholds.
	Policy struct {
		Thresholds      Thresholds       `yaml:"thresholds"`
		FallbackPersona string           `yaml:"fallback_persona"`
		BalancedPersona string           `yaml:"balanced_persona"`
		Personas        []Persona        `yaml:"personas"`
		Categories      []CategoryPolicy `yaml:"categories"`

		personas   map[string]Persona
		categories map[string]CategoryPolicy
	}
)

// LoadPolicy reads the policy file at path, or the embedded default policy when path is empty.
func LoadPolicy(path string) (*Policy, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = fs.ReadFile(appfs.FS, defaultPolicyFile)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading policy file")
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a YAML policy. Unknown keys are rejected.
func ParsePolicy(data []byte) (*Policy, error) {
	p := new(Policy)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "decoding policy")
	}
	if err := p.index(); err != nil {
		return nil, errors.Wrap(err, "invalid policy")
	}
	return p, nil
}

// index builds the lookup tables and checks that persona selection is total.
func (p *Policy) index() error {
	p.personas = make(map[string]Persona, len(p.Personas))
	for _, persona := range p.Personas {
		if persona.ID == "" {
			return errors.New("persona without id")
		}
		if _, dup := p.personas[persona.ID]; dup {
			return errors.Errorf("duplicate persona %q", persona.ID)
		}
		p.personas[persona.ID] = persona
	}

	p.categories = make(map[string]CategoryPolicy, len(p.Categories))
	for _, cat := range p.Categories {
		if categoryIndex(cat.Key) < 0 {
			return errors.Errorf("unknown category %q", cat.Key)
		}
		if _, dup := p.categories[cat.Key]; dup {
			return errors.Errorf("duplicate category %q", cat.Key)
		}
		if _, ok := p.personas[cat.Persona]; !ok {
			return errors.Errorf("category %q: unknown persona %q", cat.Key, cat.Persona)
		}
		p.categories[cat.Key] = cat
	}
	for _, key := range Categories {
		if _, ok := p.categories[key]; !ok {
			return errors.Errorf("missing category %q", key)
		}
	}

	if _, ok := p.personas[p.FallbackPersona]; !ok {
		return errors.Errorf("unknown fallback persona %q", p.FallbackPersona)
	}
	if _, ok := p.personas[p.BalancedPersona]; !ok {
		return errors.Errorf("unknown balanced persona %q", p.BalancedPersona)
	}

	t := p.Thresholds
	if t.Weakness >= t.Strength {
		return errors.New("weakness threshold must be below strength threshold")
	}
	if t.BalancedSpread < 0 || t.InsightGap <= 0 {
		return errors.New("balanced_spread must be >= 0 and insight_gap > 0")
	}
	return nil
}

func (p *Policy) Persona(id string) Persona {
	return p.personas[id]
}

func (p *Policy) Category(key string) CategoryPolicy {
	if cat, ok := p.categories[key]; ok {
		return cat
	}
	return CategoryPolicy{Key: key, Label: key}
}
