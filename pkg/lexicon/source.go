package lexicon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// On-disk record shapes. Field names follow the canonical data files.

type dictionaryRecord struct {
	Type         string   `json:"type" yaml:"type"`
	PartOfSpeech string   `json:"part_of_speech" yaml:"part_of_speech"`
	Definitions  []string `json:"definitions" yaml:"definitions"`
	Examples     []string `json:"examples" yaml:"examples"`
}

type ruleRecord struct {
	Words    []string `json:"words" yaml:"words"`
	Suffixes []string `json:"suffixes" yaml:"suffixes"`
	Prefixes []string `json:"prefixes" yaml:"prefixes"`
}

type patternRecord struct {
	Name     string   `json:"name" yaml:"name"`
	Sequence []string `json:"sequence" yaml:"sequence"`
}

type learnedRecord struct {
	Type       string   `json:"type" yaml:"type"`
	Confidence *float64 `json:"confidence" yaml:"confidence"`
}

// defaultLearnedConfidence applies to learned rows stored without a confidence.
const defaultLearnedConfidence = 0.5

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// readSource reads the raw bytes of a table. A missing file is reported as
// SOURCE_UNAVAILABLE.
func readSource(table Table, path string) ([]byte, error) {
	if path == "" {
		return nil, &Error{Code: CodeSourceUnavailable, Table: table, Message: "no path configured"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: CodeSourceUnavailable, Table: table, Path: path, Cause: err}
	}
	return data, nil
}

func malformed(table Table, path string, cause error) error {
	return &Error{Code: CodeSourceMalformed, Table: table, Path: path, Cause: cause}
}

// decode unmarshals data as YAML or JSON depending on the path extension.
func decode(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// LoadDictionary reads the curated dictionary: word -> {type|part_of_speech, definitions, examples}.
func LoadDictionary(path string) (map[string]WordEntry, error) {
	data, err := readSource(TableDictionary, path)
	if err != nil {
		return nil, err
	}
	var raw map[string]dictionaryRecord
	if err := decode(path, data, &raw); err != nil {
		return nil, malformed(TableDictionary, path, err)
	}
	out := make(map[string]WordEntry, len(raw))
	for word, rec := range raw {
		key := Normalize(word)
		if key == "" {
			continue
		}
		tag := rec.Type
		if tag == "" {
			tag = rec.PartOfSpeech
		}
		cat, err := NewCategory(tag)
		if err != nil {
			cat = Unknown
		}
		out[key] = WordEntry{
			Category:    cat,
			Definitions: rec.Definitions,
			Examples:    rec.Examples,
		}
	}
	return out, nil
}

// LoadRules reads the heuristic rule table: category -> {words, suffixes, prefixes}.
// The order of categories in the file is the evaluation order.
func LoadRules(path string) ([]HeuristicRule, error) {
	data, err := readSource(TableRules, path)
	if err != nil {
		return nil, err
	}
	var (
		names   []string
		records []ruleRecord
	)
	if isYAML(path) {
		names, records, err = orderedYAMLRules(data)
	} else {
		names, records, err = orderedJSONRules(data)
	}
	if err != nil {
		return nil, malformed(TableRules, path, err)
	}

	rules := make([]HeuristicRule, 0, len(names))
	for i, name := range names {
		cat, err := NewCategory(name)
		if err != nil {
			return nil, malformed(TableRules, path, err)
		}
		rec := records[i]
		rule := HeuristicRule{
			Category: cat,
			Words:    make(map[string]struct{}, len(rec.Words)),
		}
		for _, w := range rec.Words {
			if w = Normalize(w); w != "" {
				rule.Words[w] = struct{}{}
			}
		}
		for _, s := range rec.Suffixes {
			if s = Normalize(s); s != "" {
				rule.Suffixes = append(rule.Suffixes, s)
			}
		}
		for _, p := range rec.Prefixes {
			if p = Normalize(p); p != "" {
				rule.Prefixes = append(rule.Prefixes, p)
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// orderedJSONRules streams the top-level object so key order survives decoding.
func orderedJSONRules(data []byte) ([]string, []ruleRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var (
		names   []string
		records []ruleRecord
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected category name, got %v", tok)
		}
		var rec ruleRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, nil, fmt.Errorf("rule %q: %w", name, err)
		}
		names = append(names, name)
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("trailing data after rule object")
	}
	return names, records, nil
}

func orderedYAMLRules(data []byte) ([]string, []ruleRecord, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("line %d: expected mapping", root.Line)
	}
	var (
		names   []string
		records []ruleRecord
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var rec ruleRecord
		if err := val.Decode(&rec); err != nil {
			return nil, nil, fmt.Errorf("rule %q: %w", key.Value, err)
		}
		names = append(names, key.Value)
		records = append(records, rec)
	}
	return names, records, nil
}

// LoadWordlist reads the external wordlist. The canonical shape is an object
// whose keys are words (values ignored); a plain array of words is accepted too.
func LoadWordlist(path string) (map[string]struct{}, error) {
	data, err := readSource(TableWordlist, path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{})

	var asObject map[string]any
	if err := decode(path, data, &asObject); err == nil {
		for w := range asObject {
			if k := Normalize(w); k != "" {
				out[k] = struct{}{}
			}
		}
		return out, nil
	}

	var asList []string
	if err := decode(path, data, &asList); err != nil {
		return nil, malformed(TableWordlist, path, fmt.Errorf("expected object or array of words: %w", err))
	}
	for _, w := range asList {
		if k := Normalize(w); k != "" {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

// LoadPatterns reads the syntax pattern list, either wrapped as
// {"patterns": [...]} or as a bare array.
func LoadPatterns(path string) ([]SyntaxPattern, error) {
	data, err := readSource(TablePatterns, path)
	if err != nil {
		return nil, err
	}

	var records []patternRecord
	var wrapped struct {
		Patterns []patternRecord `json:"patterns" yaml:"patterns"`
	}
	if err := decode(path, data, &wrapped); err == nil {
		records = wrapped.Patterns
	} else if err := decode(path, data, &records); err != nil {
		return nil, malformed(TablePatterns, path, fmt.Errorf("failed to parse patterns as object or array: %w", err))
	}

	out := make([]SyntaxPattern, 0, len(records))
	for i, rec := range records {
		p := SyntaxPattern{Name: rec.Name}
		if p.Name == "" {
			p.Name = fmt.Sprintf("pattern-%d", i+1)
		}
		for _, tag := range rec.Sequence {
			cat, err := NewCategory(tag)
			if err != nil {
				return nil, malformed(TablePatterns, path, fmt.Errorf("pattern %q: %w", p.Name, err))
			}
			p.Sequence = append(p.Sequence, cat)
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadLearned reads the learned-word table: word -> {type, confidence}.
func LoadLearned(path string) (map[string]LearnedEntry, error) {
	data, err := readSource(TableLearned, path)
	if err != nil {
		return nil, err
	}
	return decodeLearned(path, data)
}

func decodeLearned(path string, data []byte) (map[string]LearnedEntry, error) {
	var raw map[string]learnedRecord
	if err := decode(path, data, &raw); err != nil {
		return nil, malformed(TableLearned, path, err)
	}
	out := make(map[string]LearnedEntry, len(raw))
	for word, rec := range raw {
		key := Normalize(word)
		if key == "" {
			continue
		}
		cat, err := NewCategory(rec.Type)
		if err != nil {
			cat = Unknown
		}
		conf := defaultLearnedConfidence
		if rec.Confidence != nil {
			conf = *rec.Confidence
		}
		out[key] = LearnedEntry{Category: cat, Confidence: ClampConfidence(conf)}
	}
	return out, nil
}

// encodeLearned renders the learned table as indented JSON. Keys are sorted,
// so identical tables always produce identical bytes.
func encodeLearned(entries map[string]LearnedEntry) ([]byte, error) {
	raw := make(map[string]learnedRecord, len(entries))
	for word, e := range entries {
		conf := e.Confidence
		raw[word] = learnedRecord{Type: string(e.Category), Confidence: &conf}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
