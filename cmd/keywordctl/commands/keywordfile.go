package commands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// keywordFile is the mapping form of a seed file
type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// parseKeywordFile reads either a plain YAML list or a mapping with a keywords list
func parseKeywordFile(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse keyword file: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("parse keyword list: %w", err)
		}
		return list, nil
	case yaml.MappingNode:
		var file keywordFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse keyword mapping: %w", err)
		}
		return file.Keywords, nil
	default:
		return nil, fmt.Errorf("keyword file must be a list or a mapping with a keywords list")
	}
}

func readKeywordFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword file: %w", err)
	}
	return parseKeywordFile(data)
}
