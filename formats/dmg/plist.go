// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/elliotnunn/lazysrc/attr"
	"github.com/elliotnunn/lazysrc/kind"
)

// parsePlist decodes an Apple-style property list (not strict XML) into an
// Attributes tree, per spec.md §4.6: <dict>, <array>, <key>, <string>,
// <data> with nested composition; unknown top-level declarations (prolog,
// DOCTYPE, <plist>) are skipped; <data> is base64. This is handwritten
// rather than built on a general XML engine, per spec.md §9's explicit
// guidance that Apple's plist dialect does not require one.
type plistParser struct {
	s   string
	pos int
}

func parsePlist(xmlText []byte) (*attr.Attributes, error) {
	p := &plistParser{s: string(xmlText)}
	p.skipProlog()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	root, ok := v.(*attr.Attributes)
	if !ok {
		return nil, kind.New(kind.CorruptMetadata, "dmg.parsePlist", "root element is not a dict")
	}
	return root, nil
}

func (p *plistParser) skipProlog() {
	for {
		p.skipSpace()
		if strings.HasPrefix(p.s[p.pos:], "<?") {
			end := strings.Index(p.s[p.pos:], "?>")
			if end < 0 {
				return
			}
			p.pos += end + 2
			continue
		}
		if strings.HasPrefix(p.s[p.pos:], "<!DOCTYPE") {
			end := strings.Index(p.s[p.pos:], ">")
			if end < 0 {
				return
			}
			p.pos += end + 1
			continue
		}
		if strings.HasPrefix(p.s[p.pos:], "<plist") {
			end := strings.Index(p.s[p.pos:], ">")
			if end < 0 {
				return
			}
			p.pos += end + 1
			continue
		}
		return
	}
}

func (p *plistParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// parseValue parses one of <dict>, <array>, <string>, <data>, <integer>,
// <true/>, <false/>, <real> at the current position.
func (p *plistParser) parseValue() (attr.Value, error) {
	p.skipSpace()
	if !strings.HasPrefix(p.s[p.pos:], "<") {
		return nil, kind.New(kind.CorruptMetadata, "dmg.parseValue", "expected element")
	}

	tag, selfClosed, err := p.peekTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case "dict":
		return p.parseDict()
	case "array":
		return p.parseArray()
	case "string":
		return p.parseText("string")
	case "data":
		text, err := p.parseRawText("data")
		if err != nil {
			return nil, err
		}
		clean := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, text)
		decoded, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return nil, kind.Wrap(kind.CorruptMetadata, "dmg.parseValue", "invalid base64 in <data>", err)
		}
		return decoded, nil
	case "integer":
		text, err := p.parseRawText("integer")
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, kind.Wrap(kind.CorruptMetadata, "dmg.parseValue", "invalid <integer>", err)
		}
		return n, nil
	case "true", "false":
		p.consumeTag(selfClosed)
		return tag == "true", nil
	case "real":
		text, err := p.parseRawText("real")
		if err != nil {
			return nil, err
		}
		return text, nil
	default:
		return nil, kind.New(kind.UnsupportedFormatFeature, "dmg.parseValue", "unrecognised plist element <"+tag+">")
	}
}

func (p *plistParser) peekTag() (name string, selfClosed bool, err error) {
	rest := p.s[p.pos:]
	if !strings.HasPrefix(rest, "<") {
		return "", false, kind.New(kind.CorruptMetadata, "dmg.peekTag", "expected '<'")
	}
	end := strings.IndexAny(rest, " \t\r\n/>")
	if end < 0 {
		return "", false, kind.New(kind.CorruptMetadata, "dmg.peekTag", "unterminated tag")
	}
	name = rest[1:end]
	closeIdx := strings.Index(rest, ">")
	if closeIdx < 0 {
		return "", false, kind.New(kind.CorruptMetadata, "dmg.peekTag", "unterminated tag")
	}
	selfClosed = rest[closeIdx-1] == '/'
	return name, selfClosed, nil
}

func (p *plistParser) consumeTag(selfClosed bool) {
	idx := strings.Index(p.s[p.pos:], ">")
	p.pos += idx + 1
}

// parseDict consumes <dict>...<key>...</key>value...</dict>.
func (p *plistParser) parseDict() (*attr.Attributes, error) {
	p.consumeOpenTag("dict")
	out := attr.New()
	for {
		p.skipSpace()
		if strings.HasPrefix(p.s[p.pos:], "</dict>") {
			p.pos += len("</dict>")
			return out, nil
		}
		key, err := p.parseText("key")
		if err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out.Set(key.(string), val)
	}
}

func (p *plistParser) parseArray() ([]attr.Value, error) {
	p.consumeOpenTag("array")
	var out []attr.Value
	for {
		p.skipSpace()
		if strings.HasPrefix(p.s[p.pos:], "</array>") {
			p.pos += len("</array>")
			return out, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (p *plistParser) consumeOpenTag(tag string) {
	idx := strings.Index(p.s[p.pos:], ">")
	p.pos += idx + 1
}

// parseText parses <tag>text</tag> and returns the text as a string Value.
func (p *plistParser) parseText(tag string) (attr.Value, error) {
	text, err := p.parseRawText(tag)
	if err != nil {
		return nil, err
	}
	return unescapeXML(text), nil
}

func (p *plistParser) parseRawText(tag string) (string, error) {
	open := "<" + tag
	rest := p.s[p.pos:]
	if !strings.HasPrefix(rest, open) {
		return "", kind.New(kind.CorruptMetadata, "dmg.parseRawText", "expected <"+tag+">")
	}
	closeIdx := strings.Index(rest, ">")
	if closeIdx < 0 {
		return "", kind.New(kind.CorruptMetadata, "dmg.parseRawText", "unterminated <"+tag+">")
	}
	if rest[closeIdx-1] == '/' { // self-closing, e.g. <string/>
		p.pos += closeIdx + 1
		return "", nil
	}
	p.pos += closeIdx + 1

	endTag := "</" + tag + ">"
	end := strings.Index(p.s[p.pos:], endTag)
	if end < 0 {
		return "", kind.New(kind.CorruptMetadata, "dmg.parseRawText", "missing </"+tag+">")
	}
	text := p.s[p.pos:][:end]
	p.pos += end + len(endTag)
	return text, nil
}

func unescapeXML(s string) string {
	r := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&apos;", "'",
	)
	return r.Replace(s)
}
