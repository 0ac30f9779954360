package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadSynthetic reads a hierarchy file. YAML and JSON files keep their
// document order; TOML files keep the key order recorded by the decoder.
// Mappings and sequences become branches, scalars become leaves, and every
// node's payload is its decoded value.
func LoadSynthetic(path string) (*SyntheticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}

	var roots []*Synthetic
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		roots, err = rootsFromYAML(data)
	case ".toml":
		roots, err = rootsFromTOML(data)
	default:
		return nil, fmt.Errorf("unsupported hierarchy format: %s (expected .yaml, .yml, .json or .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse hierarchy %s: %w", path, err)
	}
	return NewSyntheticSource(roots...)
}

func rootsFromYAML(data []byte) ([]*Synthetic, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}
	return yamlChildren(root)
}

func yamlChildren(n *yaml.Node) ([]*Synthetic, error) {
	var children []*Synthetic
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			child, err := yamlNode(n.Content[i].Value, n.Content[i+1])
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			child, err := yamlNode(strconv.Itoa(i), item)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
	}
	return children, nil
}

func yamlNode(name string, n *yaml.Node) (*Synthetic, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	var payload any
	if err := n.Decode(&payload); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}

	if n.Kind == yaml.ScalarNode {
		return Leaf(name, payload), nil
	}
	children, err := yamlChildren(n)
	if err != nil {
		return nil, err
	}
	return Branch(name, payload, children...), nil
}

func rootsFromTOML(data []byte) ([]*Synthetic, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}

	// md.Keys lists every key in document order; children of a table are
	// the keys one level below it.
	order := make(map[string][]string)
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		parent := strings.Join(key[:len(key)-1], "\x00")
		full := strings.Join(key, "\x00")
		if !seen[full] {
			seen[full] = true
			order[parent] = append(order[parent], key[len(key)-1])
		}
	}
	return tomlChildren(doc, "", order), nil
}

func tomlChildren(table map[string]any, path string, order map[string][]string) []*Synthetic {
	names := slices.Clone(order[path])
	var rest []string
	for name := range table {
		if !slices.Contains(names, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	names = append(names, rest...)

	var children []*Synthetic
	for _, name := range names {
		value, ok := table[name]
		if !ok {
			continue
		}
		childPath := name
		if path != "" {
			childPath = path + "\x00" + name
		}
		children = append(children, tomlNode(name, value, childPath, order))
	}
	return children
}

func tomlNode(name string, value any, path string, order map[string][]string) *Synthetic {
	switch v := value.(type) {
	case map[string]any:
		return Branch(name, v, tomlChildren(v, path, order)...)
	case []map[string]any:
		// Entries of an array of tables have no recorded key order.
		items := make([]*Synthetic, len(v))
		for i, item := range v {
			items[i] = Branch(strconv.Itoa(i), item, tomlChildren(item, "", nil)...)
		}
		return Branch(name, v, items...)
	case []any:
		items := make([]*Synthetic, len(v))
		for i, item := range v {
			items[i] = tomlNode(strconv.Itoa(i), item, "", nil)
		}
		return Branch(name, v, items...)
	default:
		return Leaf(name, v)
	}
}
