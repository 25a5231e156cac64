package parser

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
)

type graphMLDocument struct {
	XMLName xml.Name       `xml:"graphml"`
	Keys    []graphMLKey   `xml:"key"`
	Graphs  []graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// ReadGraphML decodes the first graph of a GraphML document. Node data
// declared with attr.name "label" or "name" is kept as the node label.
func ReadGraphML(r io.Reader) (*graph.Graph, error) {
	var doc graphMLDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("graphml: %w", err)
	}
	if len(doc.Graphs) == 0 {
		return nil, fmt.Errorf("graphml: document contains no graph")
	}

	labelKeys := make(map[string]bool)
	for _, k := range doc.Keys {
		if (k.For == "node" || k.For == "all" || k.For == "") && (k.AttrName == "label" || k.AttrName == "name") {
			labelKeys[k.ID] = true
		}
	}

	g := doc.Graphs[0]
	index := newNodeIndex()
	labels := make(map[int]string)
	for _, n := range g.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("graphml: node without id")
		}
		idx, err := index.declare(n.ID)
		if err != nil {
			return nil, fmt.Errorf("graphml: %w", err)
		}
		for _, d := range n.Data {
			if labelKeys[d.Key] {
				labels[idx] = d.Value
			}
		}
	}

	edges := make([][2]int, 0, len(g.Edges))
	for _, e := range g.Edges {
		u, err := index.resolve(e.Source)
		if err != nil {
			return nil, fmt.Errorf("graphml: %w", err)
		}
		v, err := index.resolve(e.Target)
		if err != nil {
			return nil, fmt.Errorf("graphml: %w", err)
		}
		edges = append(edges, [2]int{u, v})
	}

	return index.build(edges, labels)
}
