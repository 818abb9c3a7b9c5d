package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	PlaceholderFilename  = "filename"
	PlaceholderTimestamp = "timestamp"
	PlaceholderBr        = "br"

	TimestampLayout = "2006-01-02 15:04:05"
)

// Segment is one element of a comment template. Exactly one of Literal or
// Placeholder is meaningful: a non empty Placeholder marks a typed element.
type Segment struct {
	Literal     string
	Placeholder string
}

func Text(s string) Segment { return Segment{Literal: s} }
func Typed(name string) Segment { return Segment{Placeholder: name} }
func (s Segment) IsPlaceholder() bool { return s.Placeholder != "" }

// UnmarshalYAML accepts plain scalars as literals, local tags (!br, !filename,
// !timestamp) as placeholders and the {placeholder: name} mapping form.
func (s *Segment) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
			*s = Typed(strings.TrimPrefix(n.Tag, "!"))
			return nil
		}
		*s = Text(n.Value)
		return nil
	case yaml.MappingNode:
		var m struct {
			Placeholder string `yaml:"placeholder"`
		}
		if err := n.Decode(&m); err != nil {
			return err
		}
		if m.Placeholder == "" {
			return fmt.Errorf("line %d: comment element mapping without placeholder", n.Line)
		}
		*s = Typed(m.Placeholder)
		return nil
	}

	return fmt.Errorf("line %d: unsupported comment element", n.Line)
}

func (s Segment) MarshalYAML() (interface{}, error) {
	if s.IsPlaceholder() {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!" + s.Placeholder}, nil
	}

	return s.Literal, nil
}

type Comment []Segment

// Render expands the template for a published path. Unknown placeholders are
// logged and skipped.
func (c Comment) Render(filename string, now time.Time) string {
	var sb strings.Builder
	for _, s := range c {
		if !s.IsPlaceholder() {
			sb.WriteString(s.Literal)
			continue
		}

		switch s.Placeholder {
		case PlaceholderFilename:
			sb.WriteString(filename)
		case PlaceholderTimestamp:
			sb.WriteString(now.Format(TimestampLayout))
		case PlaceholderBr:
			sb.WriteString("\n")
		default:
			log.Error().Str("placeholder", s.Placeholder).Msg("unknown comment element")
		}
	}

	return sb.String()
}
