// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package keyboard

import (
	"encoding/xml"
	"os"
	"strings"

	"github.com/linuxdeepin/go-lib/gettext"
	"github.com/linuxdeepin/go-lib/strv"
)

const (
	kbdTextDomain = "xkeyboard-config"
	layoutDelim   = "/"
)

type XKBConfigRegistry struct {
	Layouts []XLayout `xml:"layoutList>layout"`
}

type XLayout struct {
	ConfigItem XConfigItem   `xml:"configItem"`
	Variants   []XConfigItem `xml:"variantList>variant>configItem"`
}

type XConfigItem struct {
	Name             string   `xml:"name"`
	ShortDescription string   `xml:"shortDescription"`
	Description      string   `xml:"description"`
	Languages        []string `xml:"languageList>iso639Id"`
}

// Layout is one entry of the registry, a base layout when Variant is empty.
type Layout struct {
	Name             string
	Variant          string
	ShortDescription string
	Description      string
	Languages        []string
}

// Code returns the "layout" or "layout/variant" form used by SetLayout.
func (l Layout) Code() string {
	if l.Variant == "" {
		return l.Name
	}
	return l.Name + layoutDelim + l.Variant
}

// SplitCode is the inverse of Layout.Code.
func SplitCode(code string) (layout, variant string) {
	idx := strings.Index(code, layoutDelim)
	if idx < 0 {
		return code, ""
	}
	return code[:idx], code[idx+1:]
}

// Registry is the read-only xkeyboard-config database.
type Registry struct {
	layouts []Layout
	index   map[string]int
}

func LoadRegistry(filename string) (*Registry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(content)
}

func ParseRegistry(content []byte) (*Registry, error) {
	var v XKBConfigRegistry
	err := xml.Unmarshal(content, &v)
	if err != nil {
		return nil, err
	}
	return newRegistry(&v), nil
}

func newRegistry(v *XKBConfigRegistry) *Registry {
	r := &Registry{
		index: make(map[string]int),
	}
	for _, xl := range v.Layouts {
		item := xl.ConfigItem
		layoutDesc := gettext.DGettext(kbdTextDomain, item.Description)
		r.add(Layout{
			Name:             item.Name,
			ShortDescription: item.ShortDescription,
			Description:      layoutDesc,
			Languages:        item.Languages,
		})

		for _, xv := range xl.Variants {
			r.add(Layout{
				Name:             item.Name,
				Variant:          xv.Name,
				ShortDescription: xv.ShortDescription,
				Description:      layoutDesc + " - " + gettext.DGettext(kbdTextDomain, xv.Description),
				Languages:        xv.Languages,
			})
		}
	}
	return r
}

func (r *Registry) add(l Layout) {
	code := l.Code()
	if _, ok := r.index[code]; ok {
		return
	}
	r.index[code] = len(r.layouts)
	r.layouts = append(r.layouts, l)
}

// Layouts returns the codes of every layout and variant.
func (r *Registry) Layouts() []string {
	codes := make([]string, 0, len(r.layouts))
	for _, l := range r.layouts {
		codes = append(codes, l.Code())
	}
	return codes
}

// LayoutsByLanguage returns the base layouts that have the layout itself or
// one of its variants tagged with the ISO 639 code lang.
func (r *Registry) LayoutsByLanguage(lang string) []string {
	var result []string
	for _, l := range r.layouts {
		if !strv.Strv(l.Languages).Contains(lang) {
			continue
		}
		if !strv.Strv(result).Contains(l.Name) {
			result = append(result, l.Name)
		}
	}
	return result
}

// Variants returns the variants of layout, without the base layout.
func (r *Registry) Variants(layout string) []Layout {
	var result []Layout
	for _, l := range r.layouts {
		if l.Name == layout && l.Variant != "" {
			result = append(result, l)
		}
	}
	return result
}

func (r *Registry) Get(code string) (Layout, bool) {
	idx, ok := r.index[code]
	if !ok {
		return Layout{}, false
	}
	return r.layouts[idx], true
}

func (r *Registry) Description(code string) (string, bool) {
	l, ok := r.Get(code)
	if !ok {
		return "", false
	}
	return l.Description, true
}
