package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// GraphML attribute keys. Declared once in the header so downstream tools
// (yEd, Gephi) can type the data elements.
var graphmlKeys = []struct {
	id       string
	domain   string
	name     string
	attrType string
}{
	{"d0", "node", "path", "string"},
	{"d1", "node", "full_name", "string"},
	{"d2", "node", "owner", "string"},
	{"d3", "edge", "occurrences", "int"},
	{"d4", "edge", "dependency_occurrences", "int"},
	{"d5", "edge", "relation_types", "string"},
}

// GraphML renders the node and edge sets as a directed GraphML document.
func GraphML(result *Result) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("graphml")
	root.CreateAttr("xmlns", "http://graphml.graphdrawing.org/xmlns")

	for _, k := range graphmlKeys {
		key := root.CreateElement("key")
		key.CreateAttr("id", k.id)
		key.CreateAttr("for", k.domain)
		key.CreateAttr("attr.name", k.name)
		key.CreateAttr("attr.type", k.attrType)
	}

	graphEl := root.CreateElement("graph")
	graphEl.CreateAttr("id", "crossmap")
	graphEl.CreateAttr("edgedefault", "directed")

	for _, node := range result.Nodes {
		el := graphEl.CreateElement("node")
		el.CreateAttr("id", node.Name)
		addData(el, "d0", node.Path)
		if node.FullName != "" {
			addData(el, "d1", node.FullName)
		}
		if node.Owner != "" {
			addData(el, "d2", node.Owner)
		}
	}

	for _, edge := range result.Edges {
		el := graphEl.CreateElement("edge")
		el.CreateAttr("source", edge.Source)
		el.CreateAttr("target", edge.Target)
		addData(el, "d3", strconv.Itoa(edge.Occurrences))
		addData(el, "d4", strconv.Itoa(edge.DependencyOccurrences))

		counts := edge.SortedRelationCounts()
		labels := make([]string, 0, len(counts))
		for _, rc := range counts {
			labels = append(labels, fmt.Sprintf("%s:%d", rc.Type, rc.Count))
		}
		addData(el, "d5", strings.Join(labels, ";"))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize graphml: %w", err)
	}
	return out, nil
}

func addData(parent *etree.Element, key, value string) {
	data := parent.CreateElement("data")
	data.CreateAttr("key", key)
	data.SetText(value)
}
