package choice

import (
	"gopkg.in/yaml.v3"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// yamlChoice mirrors the nested key/weight shape a catalog's XML choice
// trees naturally reduce to; it exists purely as a test/fixture loading
// convenience (§2.4), not as the production catalog format.
type yamlChoice struct {
	Name    string       `yaml:"name"`
	Weight  uint64       `yaml:"weight"`
	Value   *uint64      `yaml:"value,omitempty"`
	Range   *[2]uint64   `yaml:"range,omitempty"`
	Choices []yamlChoice `yaml:"choices,omitempty"`
}

type yamlTree struct {
	Choices []yamlChoice `yaml:"choices"`
}

// ParseYAML builds a Tree from a YAML document of the form:
//
//	choices:
//	  - name: alias
//	    weight: 3
//	    value: 1
//	  - name: sub_decision
//	    weight: 1
//	    choices:
//	      - name: a
//	        weight: 1
//	        range: [0, 15]
func ParseYAML(doc []byte) (*Tree, error) {
	var raw yamlTree
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, forceerr.Wrap(forceerr.ConstraintMalformed, "choice.ParseYAML", "invalid yaml document", err)
	}
	return buildTree(raw.Choices)
}

func buildTree(raw []yamlChoice) (*Tree, error) {
	choices := make([]Choice, 0, len(raw))
	for _, rc := range raw {
		c := Choice{Name: rc.Name, Weight: rc.Weight, Value: rc.Value, Range: rc.Range}
		if len(rc.Choices) > 0 {
			sub, err := buildTree(rc.Choices)
			if err != nil {
				return nil, err
			}
			c.Sub = sub
		}
		choices = append(choices, c)
	}
	return New(choices...)
}
