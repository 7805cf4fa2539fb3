package frontmatter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a structured metadata syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

var metadataExtensions = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
	".toml": FormatTOML,
}

// FormatForPath returns the metadata format of a file, by extension.
func FormatForPath(path string) (Format, bool) {
	f, ok := metadataExtensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Decode parses data as a metadata record in the given format. Keys keep the
// order in which the document lists them.
func Decode(format Format, data []byte) (*Record, error) {
	var (
		entries []entry
		err     error
	)
	switch format {
	case FormatYAML, FormatJSON:
		entries, err = decodeYAML(data)
	case FormatTOML:
		entries, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	rec := &Record{}
	for _, e := range entries {
		if err := rec.set(e.key, e.value); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// JSON documents are decoded by the YAML parser, which accepts them as flow style.
func decodeYAML(data []byte) ([]entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document must be a mapping", ErrDecodeFailed)
	}
	entries, ok := yamlValue(root).([]entry)
	if !ok {
		return nil, fmt.Errorf("%w: document must be a mapping", ErrDecodeFailed)
	}
	return entries, nil
}

func yamlValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if s, ok := yamlValue(item).(string); ok {
				out = append(out, s)
			}
		}
		return out
	case yaml.MappingNode:
		out := make([]entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out = append(out, entry{key: n.Content[i].Value, value: yamlValue(n.Content[i+1])})
		}
		return out
	default:
		return nil
	}
}

func decodeTOML(data []byte) ([]entry, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	// MetaData.Keys reports keys in document order, nested tables included.
	order := make(map[string]int)
	for i, key := range md.Keys() {
		order[strings.Join(key, ".")] = i
	}
	return tomlEntries(raw, "", order), nil
}

func tomlEntries(table map[string]any, prefix string, order map[string]int) []entry {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return order[prefix+keys[i]] < order[prefix+keys[j]]
	})

	out := make([]entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, entry{key: k, value: tomlValue(table[k], prefix+k+".", order)})
	}
	return out
}

func tomlValue(v any, prefix string, order map[string]int) any {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := tomlValue(item, prefix, order).(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		return tomlEntries(val, prefix, order)
	default:
		return fmt.Sprint(val)
	}
}
