// Package mdext configures goldmark for the Markdown view and adds the
// syntax it needs beyond GFM: ::: containers, $ math, GitHub alerts and
// {key=value} image attributes.
package mdext

import (
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Config toggles parser extensions. The zero value enables nothing beyond
// CommonMark; use DefaultConfig for the full set.
type Config struct {
	Tables          bool `yaml:"tables"`
	Strikethrough   bool `yaml:"strikethrough"`
	Linkify         bool `yaml:"linkify"`
	TaskList        bool `yaml:"task_list"`
	Footnotes       bool `yaml:"footnotes"`
	Emoji           bool `yaml:"emoji"`
	Math            bool `yaml:"math"`
	Containers      bool `yaml:"containers"`
	Alerts          bool `yaml:"alerts"`
	ImageAttributes bool `yaml:"image_attributes"`
}

// DefaultConfig enables every extension.
func DefaultConfig() Config {
	return Config{
		Tables:          true,
		Strikethrough:   true,
		Linkify:         true,
		TaskList:        true,
		Footnotes:       true,
		Emoji:           true,
		Math:            true,
		Containers:      true,
		Alerts:          true,
		ImageAttributes: true,
	}
}

// New builds a goldmark instance for cfg.
func New(cfg Config) goldmark.Markdown {
	var exts []goldmark.Extender
	add := func(on bool, e goldmark.Extender) {
		if on {
			exts = append(exts, e)
		}
	}
	add(cfg.Tables, extension.Table)
	add(cfg.Strikethrough, extension.Strikethrough)
	add(cfg.Linkify, extension.Linkify)
	add(cfg.TaskList, extension.TaskList)
	add(cfg.Footnotes, extension.Footnote)
	add(cfg.Emoji, emoji.Emoji)
	add(cfg.Math, Math)
	add(cfg.Containers, Containers)
	add(cfg.Alerts, Alerts)
	add(cfg.ImageAttributes, ImageAttributes)

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}
