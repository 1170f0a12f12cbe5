package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/mtgrules/pkg/glossary"
	"github.com/coolbeans/mtgrules/pkg/history"
)

//go:embed data/rules.yaml
var bundledRules []byte

// ValidationError lists every problem found while loading a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid rules document: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid rules document: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

type problemList []string

func (p *problemList) add(format string, args ...interface{}) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problemList) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}

// Raw document shapes. Mapping nodes are kept as yaml.Node so that key
// order and key presence survive decoding.
type rawDocument struct {
	Versions        yaml.Node           `yaml:"versions"`
	CrossReferences map[string][]string `yaml:"cross_references"`
	Glossary        map[string]string   `yaml:"glossary"`
	History         []history.Entry     `yaml:"history"`
}

type rawVersion struct {
	Name     string    `yaml:"name"`
	Date     string    `yaml:"date"`
	Version  string    `yaml:"version"`
	Sections yaml.Node `yaml:"sections"`
}

type rawSection struct {
	Name        string    `yaml:"name"`
	Subsections yaml.Node `yaml:"subsections"`
}

type rawSubsection struct {
	Name     string    `yaml:"name"`
	Content  string    `yaml:"content"`
	Subrules yaml.Node `yaml:"subrules"`
	Related  []int     `yaml:"related"`
}

type mappingEntry struct {
	key   string
	value *yaml.Node
	line  int
}

// mappingEntries returns the key/value pairs of a mapping node in document
// order. An explicit null is treated as an empty mapping.
func mappingEntries(node *yaml.Node) ([]mappingEntry, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	entries := make([]mappingEntry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		entries = append(entries, mappingEntry{key: key.Value, value: node.Content[i+1], line: key.Line})
	}
	return entries, nil
}

// Default loads the rules document bundled with the binary.
func Default() (*Store, error) {
	return Load(bytes.NewReader(bundledRules))
}

// LoadFile reads and validates a rules document from disk. JSON documents
// are accepted as well since they are valid YAML.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules document: %w", err)
	}
	defer f.Close()

	store, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Load reads and validates a rules document. A malformed document fails
// with a *ValidationError listing every problem found.
func Load(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules document: %w", err)
	}

	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return build(&raw)
}

func build(raw *rawDocument) (*Store, error) {
	var problems problemList

	if raw.Versions.Kind == 0 {
		problems.add("document has no versions")
		return nil, problems.err()
	}
	entries, err := mappingEntries(&raw.Versions)
	if err != nil {
		problems.add("versions: %v", err)
		return nil, problems.err()
	}

	store := &Store{
		versions:        make(map[VersionKey]*Version, len(entries)),
		crossReferences: make(map[RuleID][]RuleID, len(raw.CrossReferences)),
		glossary:        glossary.New(raw.Glossary),
		history:         history.New(raw.History),
	}

	for _, entry := range entries {
		key, err := ParseVersionKey(entry.key)
		if err != nil {
			problems.add("line %d: %v", entry.line, err)
			continue
		}
		if _, dup := store.versions[key]; dup {
			problems.add("line %d: version %q defined twice", entry.line, entry.key)
			continue
		}
		var rv rawVersion
		if err := entry.value.Decode(&rv); err != nil {
			problems.add("version %q: %v", entry.key, err)
			continue
		}
		if version := buildVersion(key, &rv, &problems); version != nil {
			store.versions[key] = version
		}
	}

	for rule, targets := range raw.CrossReferences {
		refs := make([]RuleID, 0, len(targets))
		for _, target := range targets {
			refs = append(refs, RuleID(target))
		}
		store.crossReferences[RuleID(rule)] = refs
	}

	if err := problems.err(); err != nil {
		return nil, err
	}
	return store, nil
}

var subsectionKey = regexp.MustCompile(`^\d{3}$`)

func buildVersion(key VersionKey, rv *rawVersion, problems *problemList) *Version {
	if rv.Sections.Kind == 0 {
		problems.add("version %q has no sections", key)
		return nil
	}
	entries, err := mappingEntries(&rv.Sections)
	if err != nil {
		problems.add("version %q sections: %v", key, err)
		return nil
	}

	version := &Version{
		Key:   key,
		Name:  rv.Name,
		Date:  rv.Date,
		Label: rv.Version,
		index: make(map[SectionID]*Section, len(entries)),
	}
	owners := make(map[SubsectionID]SectionID)

	for _, entry := range entries {
		if n, err := strconv.Atoi(entry.key); err != nil || n < 0 {
			problems.add("version %q line %d: section key %q is not a non-negative integer", key, entry.line, entry.key)
			continue
		}
		id := SectionID(entry.key)
		if _, dup := version.index[id]; dup {
			problems.add("version %q line %d: section %s defined twice", key, entry.line, id)
			continue
		}
		var rs rawSection
		if err := entry.value.Decode(&rs); err != nil {
			problems.add("version %q section %s: %v", key, id, err)
			continue
		}
		section := buildSection(key, id, &rs, owners, problems)
		version.index[id] = section
		version.Sections = append(version.Sections, section)
	}

	sort.SliceStable(version.Sections, func(i, j int) bool {
		return CompareSectionIDs(version.Sections[i].ID, version.Sections[j].ID) < 0
	})
	return version
}

func buildSection(key VersionKey, id SectionID, rs *rawSection, owners map[SubsectionID]SectionID, problems *problemList) *Section {
	section := &Section{
		ID:    id,
		Name:  rs.Name,
		index: make(map[SubsectionID]*Subsection),
	}
	if rs.Subsections.Kind == 0 {
		return section
	}
	entries, err := mappingEntries(&rs.Subsections)
	if err != nil {
		problems.add("version %q section %s subsections: %v", key, id, err)
		return section
	}

	for _, entry := range entries {
		if !subsectionKey.MatchString(entry.key) {
			problems.add("version %q section %s line %d: subsection key %q is not a three digit numeral", key, id, entry.line, entry.key)
			continue
		}
		subID := SubsectionID(entry.key)
		if owner, dup := owners[subID]; dup {
			problems.add("version %q line %d: subsection %s appears in sections %s and %s", key, entry.line, subID, owner, id)
			continue
		}
		owners[subID] = id

		var rs rawSubsection
		if err := entry.value.Decode(&rs); err != nil {
			problems.add("version %q subsection %s: %v", key, subID, err)
			continue
		}
		sub := &Subsection{
			ID:      subID,
			Name:    rs.Name,
			Content: rs.Content,
		}
		for _, n := range rs.Related {
			sub.Related = append(sub.Related, relatedID(n))
		}
		sub.Subrules = buildSubrules(key, subID, &rs.Subrules, problems)

		section.index[subID] = sub
		section.Subsections = append(section.Subsections, sub)
	}

	sort.SliceStable(section.Subsections, func(i, j int) bool {
		return section.Subsections[i].ID < section.Subsections[j].ID
	})
	return section
}

func buildSubrules(key VersionKey, subID SubsectionID, node *yaml.Node, problems *problemList) []Subrule {
	if node.Kind == 0 {
		return nil
	}
	entries, err := mappingEntries(node)
	if err != nil {
		problems.add("version %q subsection %s subrules: %v", key, subID, err)
		return nil
	}

	prefix := string(subID) + "."
	seen := make(map[RuleID]bool, len(entries))
	subrules := make([]Subrule, 0, len(entries))
	for _, entry := range entries {
		ruleID := RuleID(entry.key)
		if !strings.HasPrefix(entry.key, prefix) || len(entry.key) == len(prefix) {
			problems.add("version %q line %d: subrule %q does not belong to subsection %s", key, entry.line, entry.key, subID)
			continue
		}
		if seen[ruleID] {
			problems.add("version %q line %d: subrule %s defined twice", key, entry.line, ruleID)
			continue
		}
		seen[ruleID] = true

		var text string
		if err := entry.value.Decode(&text); err != nil {
			problems.add("version %q subrule %s: %v", key, ruleID, err)
			continue
		}
		subrules = append(subrules, Subrule{ID: ruleID, Text: text})
	}
	return subrules
}
