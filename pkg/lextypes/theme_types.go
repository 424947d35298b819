// Package lextypes defines theme configuration types for lexshell.
package lextypes

// ThemeConfig is a theme loaded from YAML.
type ThemeConfig struct {
	// Name is the theme identifier ("default", "dark", "light", "plain")
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Styles      ThemeStyles `yaml:"styles" json:"styles"`
}

// ThemeStyles holds the style of each semantic element the shell renders.
type ThemeStyles struct {
	// Title is used for section headers such as "Results" or the detail heading
	Title StyleConfig `yaml:"title" json:"title"`

	// User labels the user's own transcript entries
	User StyleConfig `yaml:"user" json:"user"`

	// Assistant labels assistant transcript entries
	Assistant StyleConfig `yaml:"assistant" json:"assistant"`

	// Meta is used for ids, years, counts and timestamps
	Meta StyleConfig `yaml:"meta" json:"meta"`

	Success   StyleConfig `yaml:"success" json:"success"`
	Error     StyleConfig `yaml:"error" json:"error"`
	Warning   StyleConfig `yaml:"warning" json:"warning"`
	Info      StyleConfig `yaml:"info" json:"info"`
	Highlight StyleConfig `yaml:"highlight" json:"highlight"`

	// Muted is used for hints and secondary text
	Muted StyleConfig `yaml:"muted" json:"muted"`

	// Tag is used for tags and active filter chips
	Tag StyleConfig `yaml:"tag" json:"tag"`

	// List styles list enumerators
	List StyleConfig `yaml:"list" json:"list"`
}

// StyleConfig is the styling of one semantic element.
// Colors are either a plain string (hex or ANSI code) or an adaptive
// {light, dark} mapping.
type StyleConfig struct {
	Foreground    interface{} `yaml:"foreground,omitempty" json:"foreground,omitempty"`
	Background    interface{} `yaml:"background,omitempty" json:"background,omitempty"`
	Bold          *bool       `yaml:"bold,omitempty" json:"bold,omitempty"`
	Italic        *bool       `yaml:"italic,omitempty" json:"italic,omitempty"`
	Underline     *bool       `yaml:"underline,omitempty" json:"underline,omitempty"`
	Strikethrough *bool       `yaml:"strikethrough,omitempty" json:"strikethrough,omitempty"`
}

// ThemeFile is the top level of a theme YAML file.
type ThemeFile struct {
	ThemeConfig `yaml:",inline" json:",inline"`
}
