package config

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlexInt is an integer that also accepts quoted numeric values in yaml,
// which is how hand-edited settings files often arrive. A value that cannot
// be parsed decodes to zero and keeps the original text in Raw so the rule
// builder can report it.
type FlexInt struct {
	Value int64
	Raw   string // original text when parsing failed, empty otherwise
}

func (f *FlexInt) UnmarshalYAML(node *yaml.Node) error {
	*f = FlexInt{}

	var n int64
	if err := node.Decode(&n); err == nil {
		f.Value = n
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		f.Raw = node.Value
		return nil
	}

	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f.Raw = s
		return nil
	}
	f.Value = n
	return nil
}

func (f FlexInt) Int() int { return int(f.Value) }

func (f FlexInt) Int64() int64 { return f.Value }
