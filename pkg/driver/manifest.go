package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"variantmatch/pkg/variant"
)

// Manifest represents the parsed contents of a hierarchy declaration file.
type Manifest struct {
	Path        string
	Hierarchies []*HierarchySpec
}

// HierarchySpec is one hierarchy declaration in file order.
type HierarchySpec struct {
	Name     string
	Variants []variant.VariantSpec
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses a manifest from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()
	return DecodeManifest(file, absPath)
}

// DecodeManifest parses and validates a manifest read from r. name is used
// in error messages and recorded as the manifest path.
func DecodeManifest(r io.Reader, name string) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", name)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", name, err)
	}

	manifest, issues := raw.toManifest(name)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return manifest, nil
}

// Declare declares every hierarchy into reg in file order. Hierarchies
// declared before a failure stay declared.
func (m *Manifest) Declare(reg *variant.Registry) ([]*variant.Hierarchy, error) {
	out := make([]*variant.Hierarchy, 0, len(m.Hierarchies))
	for _, spec := range m.Hierarchies {
		h, err := reg.Declare(spec.Name, spec.Variants...)
		if err != nil {
			return out, fmt.Errorf("manifest: declare %s: %w", spec.Name, err)
		}
		out = append(out, h)
	}
	return out, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseFieldType parses the manifest type grammar:
// bool | int | float | string | []T | map[T] | <Hierarchy>.
func ParseFieldType(input string) (variant.FieldType, error) {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return variant.FieldType{}, fmt.Errorf("empty type")
	case s == "bool":
		return variant.Bool(), nil
	case s == "int":
		return variant.Int(), nil
	case s == "float":
		return variant.Float(), nil
	case s == "string":
		return variant.String(), nil
	case strings.HasPrefix(s, "[]"):
		elem, err := ParseFieldType(s[2:])
		if err != nil {
			return variant.FieldType{}, fmt.Errorf("invalid element type in %q: %w", s, err)
		}
		return variant.SequenceOf(elem), nil
	case strings.HasPrefix(s, "map[") && strings.HasSuffix(s, "]"):
		elem, err := ParseFieldType(s[4 : len(s)-1])
		if err != nil {
			return variant.FieldType{}, fmt.Errorf("invalid element type in %q: %w", s, err)
		}
		return variant.MappingOf(elem), nil
	case identifierPattern.MatchString(s):
		return variant.Ref(s), nil
	default:
		return variant.FieldType{}, fmt.Errorf("unrecognised type %q", s)
	}
}

type manifestFile struct {
	Hierarchies []hierarchyYAML `yaml:"hierarchies"`
}

type hierarchyYAML struct {
	Name     string        `yaml:"name"`
	Variants []variantYAML `yaml:"variants"`
}

type variantYAML struct {
	Name   string
	Fields fieldList
}

type fieldYAML struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional"`
}

// fieldList accepts either a sequence of {name, type, optional} mappings or
// an ordered name: type mapping where a trailing `?` marks optional fields.
type fieldList []fieldYAML

// UnmarshalYAML accepts a bare variant name as well as a mapping.
func (v *variantYAML) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*v = variantYAML{Name: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		if err := checkKeys(value, "name", "fields"); err != nil {
			return err
		}
		var raw struct {
			Name   string    `yaml:"name"`
			Fields fieldList `yaml:"fields"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*v = variantYAML{Name: strings.TrimSpace(raw.Name), Fields: raw.Fields}
		return nil
	case yaml.AliasNode:
		return v.UnmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("manifest: expected variant name or mapping but found %s", value.ShortTag())
	}
}

func (l *fieldList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		return fmt.Errorf("manifest: fields must be a sequence or mapping")
	case yaml.SequenceNode:
		items := make([]fieldYAML, 0, len(value.Content))
		for _, node := range value.Content {
			if node.Kind == yaml.MappingNode {
				if err := checkKeys(node, "name", "type", "optional"); err != nil {
					return err
				}
			}
			var f fieldYAML
			if err := node.Decode(&f); err != nil {
				return err
			}
			items = append(items, f)
		}
		*l = items
		return nil
	case yaml.MappingNode:
		items := make([]fieldYAML, 0, len(value.Content)/2)
		for i := 0; i < len(value.Content); i += 2 {
			var name, typ string
			if err := value.Content[i].Decode(&name); err != nil {
				return err
			}
			if err := value.Content[i+1].Decode(&typ); err != nil {
				return fmt.Errorf("manifest: field %q: %w", name, err)
			}
			typ = strings.TrimSpace(typ)
			f := fieldYAML{Name: name, Type: typ}
			if strings.HasSuffix(typ, "?") {
				f.Type = strings.TrimSuffix(typ, "?")
				f.Optional = true
			}
			items = append(items, f)
		}
		*l = items
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("manifest: expected sequence or mapping for fields but found %s", value.ShortTag())
	}
}

// checkKeys rejects unknown mapping keys; nested decodes do not inherit the
// decoder's KnownFields setting.
func checkKeys(node *yaml.Node, allowed ...string) error {
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("manifest: line %d: field %s not found (expected one of %s)", node.Content[i].Line, key, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func (mf manifestFile) toManifest(path string) (*Manifest, []string) {
	var issues []string
	if len(mf.Hierarchies) == 0 {
		issues = append(issues, "hierarchies must list at least one hierarchy")
	}

	// Position of every hierarchy in the file, so forward references can be
	// reported before the registry sees them.
	position := make(map[string]int, len(mf.Hierarchies))
	for i, h := range mf.Hierarchies {
		name := strings.TrimSpace(h.Name)
		if _, seen := position[name]; !seen && name != "" {
			position[name] = i
		}
	}

	result := &Manifest{Path: path}
	seenHierarchies := make(map[string]struct{}, len(mf.Hierarchies))
	for i, h := range mf.Hierarchies {
		name := strings.TrimSpace(h.Name)
		where := fmt.Sprintf("hierarchies[%d]", i)
		if name != "" {
			where = fmt.Sprintf("%s (%s)", where, name)
		}
		switch {
		case name == "":
			issues = append(issues, where+": name must be provided")
		case !identifierPattern.MatchString(name):
			issues = append(issues, fmt.Sprintf("%s: name %q is not an identifier", where, name))
		}
		if _, dup := seenHierarchies[name]; dup && name != "" {
			issues = append(issues, fmt.Sprintf("%s: hierarchy %s is declared more than once", where, name))
		}
		seenHierarchies[name] = struct{}{}
		if len(h.Variants) == 0 {
			issues = append(issues, where+": variants must not be empty")
		}

		spec := &HierarchySpec{Name: name}
		seenVariants := make(map[string]struct{}, len(h.Variants))
		for j, v := range h.Variants {
			vwhere := fmt.Sprintf("%s.variants[%d]", where, j)
			if v.Name == "" {
				issues = append(issues, vwhere+": name must be provided")
			} else if !identifierPattern.MatchString(v.Name) {
				issues = append(issues, fmt.Sprintf("%s: name %q is not an identifier", vwhere, v.Name))
			}
			if _, dup := seenVariants[v.Name]; dup && v.Name != "" {
				issues = append(issues, fmt.Sprintf("%s: variant %s is declared more than once", vwhere, v.Name))
			}
			seenVariants[v.Name] = struct{}{}

			vs := variant.VariantSpec{Name: v.Name}
			seenFields := make(map[string]struct{}, len(v.Fields))
			for k, f := range v.Fields {
				fname := strings.TrimSpace(f.Name)
				fwhere := fmt.Sprintf("%s.fields[%d]", vwhere, k)
				if fname == "" {
					issues = append(issues, fwhere+": name must be provided")
				}
				if _, dup := seenFields[fname]; dup && fname != "" {
					issues = append(issues, fmt.Sprintf("%s: field %s is declared more than once", fwhere, fname))
				}
				seenFields[fname] = struct{}{}
				typ, err := ParseFieldType(f.Type)
				if err != nil {
					issues = append(issues, fmt.Sprintf("%s: %v", fwhere, err))
					continue
				}
				for _, ref := range typ.References() {
					if at, ok := position[ref]; ok && at > i {
						issues = append(issues, fmt.Sprintf("%s: references %s, which is declared later in the file", fwhere, ref))
					}
				}
				vs.Fields = append(vs.Fields, variant.FieldSpec{Name: fname, Type: typ, Optional: f.Optional})
			}
			spec.Variants = append(spec.Variants, vs)
		}
		result.Hierarchies = append(result.Hierarchies, spec)
	}
	return result, issues
}
