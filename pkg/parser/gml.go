package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
)

// gmlValue is either a scalar (text) or a nested key/value list
type gmlValue struct {
	text   string
	list   []gmlPair
	isList bool
}

type gmlPair struct {
	key   string
	value gmlValue
}

func (v gmlValue) get(key string) (gmlValue, bool) {
	for _, p := range v.list {
		if p.key == key {
			return p.value, true
		}
	}
	return gmlValue{}, false
}

// ReadGML decodes a graph in GML format. Node ids must be integers; edges
// are read as undirected regardless of the directed flag.
func ReadGML(r io.Reader) (*graph.Graph, error) {
	tokens, err := lexGML(r)
	if err != nil {
		return nil, err
	}

	pos := 0
	root, err := parseGMLList(tokens, &pos, false)
	if err != nil {
		return nil, err
	}

	graphValue, ok := root.get("graph")
	if !ok || !graphValue.isList {
		return nil, fmt.Errorf("gml: missing graph block")
	}

	index := newNodeIndex()
	labels := make(map[int]string)
	for _, p := range graphValue.list {
		if p.key != "node" {
			continue
		}
		if !p.value.isList {
			return nil, fmt.Errorf("gml: node is not a list")
		}
		id, err := gmlID(p.value, "id")
		if err != nil {
			return nil, err
		}
		idx, err := index.declare(id)
		if err != nil {
			return nil, fmt.Errorf("gml: %w", err)
		}
		if label, ok := p.value.get("label"); ok && !label.isList {
			labels[idx] = label.text
		}
	}

	var edges [][2]int
	for _, p := range graphValue.list {
		if p.key != "edge" {
			continue
		}
		if !p.value.isList {
			return nil, fmt.Errorf("gml: edge is not a list")
		}
		source, err := gmlID(p.value, "source")
		if err != nil {
			return nil, err
		}
		target, err := gmlID(p.value, "target")
		if err != nil {
			return nil, err
		}
		u, err := index.resolve(source)
		if err != nil {
			return nil, fmt.Errorf("gml: %w", err)
		}
		v, err := index.resolve(target)
		if err != nil {
			return nil, fmt.Errorf("gml: %w", err)
		}
		edges = append(edges, [2]int{u, v})
	}

	return index.build(edges, labels)
}

func gmlID(v gmlValue, key string) (string, error) {
	field, ok := v.get(key)
	if !ok || field.isList {
		return "", fmt.Errorf("gml: missing %s", key)
	}
	id, err := strconv.ParseInt(field.text, 10, 64)
	if err != nil {
		return "", fmt.Errorf("gml: %s %q is not an integer", key, field.text)
	}
	return strconv.FormatInt(id, 10), nil
}

type gmlToken struct {
	text   string
	quoted bool
}

func lexGML(r io.Reader) ([]gmlToken, error) {
	br := bufio.NewReader(r)
	var tokens []gmlToken
	var current strings.Builder
	lineStart := true

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, gmlToken{text: current.String()})
			current.Reset()
		}
	}

	for {
		ch, _, err := br.ReadRune()
		if err == io.EOF {
			flush()
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}

		switch {
		case ch == '#' && lineStart:
			if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
				return nil, err
			}
			continue
		case ch == '"':
			flush()
			s, err := br.ReadString('"')
			if err != nil {
				return nil, fmt.Errorf("gml: unterminated string")
			}
			tokens = append(tokens, gmlToken{text: strings.TrimSuffix(s, `"`), quoted: true})
		case ch == '[' || ch == ']':
			flush()
			tokens = append(tokens, gmlToken{text: string(ch)})
		case unicode.IsSpace(ch):
			flush()
		default:
			current.WriteRune(ch)
		}

		lineStart = ch == '\n' || (lineStart && (ch == ' ' || ch == '\t' || ch == '\r'))
	}
}

func parseGMLList(tokens []gmlToken, pos *int, nested bool) (gmlValue, error) {
	list := gmlValue{isList: true}
	for *pos < len(tokens) {
		tok := tokens[*pos]
		if !tok.quoted && tok.text == "]" {
			if !nested {
				return gmlValue{}, fmt.Errorf("gml: unexpected ]")
			}
			*pos++
			return list, nil
		}
		if tok.quoted || tok.text == "[" {
			return gmlValue{}, fmt.Errorf("gml: expected key, found %q", tok.text)
		}
		key := tok.text
		*pos++
		if *pos >= len(tokens) {
			return gmlValue{}, fmt.Errorf("gml: key %q has no value", key)
		}

		next := tokens[*pos]
		if !next.quoted && next.text == "[" {
			*pos++
			value, err := parseGMLList(tokens, pos, true)
			if err != nil {
				return gmlValue{}, err
			}
			list.list = append(list.list, gmlPair{key: key, value: value})
			continue
		}
		if !next.quoted && next.text == "]" {
			return gmlValue{}, fmt.Errorf("gml: key %q has no value", key)
		}
		list.list = append(list.list, gmlPair{key: key, value: gmlValue{text: next.text}})
		*pos++
	}

	if nested {
		return gmlValue{}, fmt.Errorf("gml: unterminated list")
	}
	return list, nil
}
