package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/roach88/statkeys/internal/pattern"
)

// Field names understood by the compilers.
const (
	FieldKeys        = "keys"
	FieldRegexKeys   = "re-keys"
	FieldTags        = "tags"
	FieldSuper       = "super"
	FieldSub         = "sub"
	FieldSubsub      = "subsub"
	FieldDescription = "category description"
)

// Parse reads a rule source of the given kind.
func Parse(r io.Reader, file string, kind Kind) (*RuleSet, error) {
	blocks, err := ParseBlocks(r, file)
	if err != nil {
		return nil, err
	}
	return Compile(blocks, file, kind)
}

// ParseFile reads and parses the rule source at path.
func ParseFile(path string, kind Kind) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule source: %w", err)
	}
	return Parse(bytes.NewReader(data), path, kind)
}

// Compile turns parsed blocks into a rule set of the given kind.
func Compile(blocks []Block, file string, kind Kind) (*RuleSet, error) {
	set := &RuleSet{Kind: kind, Source: file}

	for i := range blocks {
		var (
			rules []Rule
			err   error
		)
		switch kind {
		case KindTag:
			rules, err = compileTagBlock(&blocks[i], file)
		case KindCategory:
			rules, err = compileCategoryBlock(&blocks[i], file)
		default:
			return nil, fmt.Errorf("unknown rule kind %q", kind)
		}
		if err != nil {
			return nil, err
		}
		set.Rules = append(set.Rules, rules...)
	}

	return set, nil
}

func compileTagBlock(b *Block, file string) ([]Rule, error) {
	tags := b.Field(FieldTags)
	if tags == nil || len(tags.Values) == 0 {
		return nil, blockError(file, b, "tag block declares no %q", FieldTags)
	}

	labels := make([]string, 0, len(tags.Values))
	for _, v := range tags.Values {
		labels = append(labels, v.Text)
	}

	attrs := make(map[string]string)
	for _, f := range b.Fields {
		switch f.Name {
		case FieldTags, FieldKeys:
			continue
		case FieldRegexKeys:
			return nil, fieldError(file, &f, "regular-expression keys are not supported, use wildcard patterns")
		}
		if len(f.Values) != 1 {
			return nil, fieldError(file, &f, "extra attribute %q must have exactly one value, got %d", f.Name, len(f.Values))
		}
		attrs[f.Name] = f.Values[0].Text
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	return compileKeys(b, file, func(p pattern.Pattern, line int) Rule {
		return Rule{
			Kind:       KindTag,
			Pattern:    p,
			Tags:       labels,
			Attrs:      attrs,
			Provenance: Provenance{File: file, Line: line},
		}
	})
}

func compileCategoryBlock(b *Block, file string) ([]Rule, error) {
	for _, f := range b.Fields {
		switch f.Name {
		case FieldSuper, FieldSub, FieldSubsub, FieldDescription, FieldKeys:
		case FieldRegexKeys:
			return nil, fieldError(file, &f, "regular-expression keys are not supported, use wildcard patterns")
		default:
			return nil, fieldError(file, &f, "invalid attribute %q in category definition", f.Name)
		}
	}

	cat := &Category{}
	var err error
	if cat.Super, err = single(b, file, FieldSuper, true); err != nil {
		return nil, err
	}
	if cat.Sub, err = single(b, file, FieldSub, false); err != nil {
		return nil, err
	}
	if cat.Subsub, err = single(b, file, FieldSubsub, false); err != nil {
		return nil, err
	}
	if cat.Description, err = single(b, file, FieldDescription, false); err != nil {
		return nil, err
	}
	if cat.Subsub != "" && cat.Sub == "" {
		return nil, fieldError(file, b.Field(FieldSubsub), "%q requires %q", FieldSubsub, FieldSub)
	}

	return compileKeys(b, file, func(p pattern.Pattern, line int) Rule {
		return Rule{
			Kind:       KindCategory,
			Pattern:    p,
			Category:   cat,
			Provenance: Provenance{File: file, Line: line},
		}
	})
}

// compileKeys builds one rule per value of the block's keys field.
func compileKeys(b *Block, file string, build func(pattern.Pattern, int) Rule) ([]Rule, error) {
	keys := b.Field(FieldKeys)
	if keys == nil {
		return nil, nil
	}

	rules := make([]Rule, 0, len(keys.Values))
	for _, v := range keys.Values {
		p, err := pattern.Parse(v.Text)
		if err != nil {
			return nil, &SyntaxError{File: file, Line: v.Line, Text: v.Text, Reason: err.Error()}
		}
		rules = append(rules, build(p, v.Line))
	}
	return rules, nil
}

// single returns the only value of a single-valued field.
func single(b *Block, file, name string, required bool) (string, error) {
	f := b.Field(name)
	if f == nil {
		if required {
			return "", blockError(file, b, "missing %q", name)
		}
		return "", nil
	}
	if len(f.Values) != 1 {
		return "", fieldError(file, f, "%q must have exactly one value, got %d", name, len(f.Values))
	}
	return f.Values[0].Text, nil
}

func blockError(file string, b *Block, format string, args ...any) error {
	return &SyntaxError{File: file, Line: b.Line, Reason: fmt.Sprintf(format, args...)}
}

func fieldError(file string, f *Field, format string, args ...any) error {
	return &SyntaxError{
		File:   file,
		Line:   f.Line,
		Text:   headingPrefix + f.Name,
		Reason: fmt.Sprintf(format, args...),
	}
}
