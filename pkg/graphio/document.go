package graphio

import (
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// Document is the JSON form of a graph.
type Document struct {
	Type  string         `json:"type,omitempty"`
	Meta  graph.Metadata `json:"meta,omitempty"`
	Nodes []Node         `json:"nodes"`
	Links []Link         `json:"links"`
}

// Node is the JSON form of a node or group.
type Node struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	Type      string         `json:"type,omitempty"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Width     float64        `json:"width,omitempty"`
	Height    float64        `json:"height,omitempty"`
	ExtraRoot bool           `json:"extra_root,omitempty"`
	Pins      []Pin          `json:"pins,omitempty"`
	Contains  []string       `json:"contains,omitempty"`
	Meta      graph.Metadata `json:"meta,omitempty"`
}

// Pin is the JSON form of a pin.
type Pin struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Dir    string  `json:"dir"`
	Exec   bool    `json:"exec,omitempty"`
	Offset *Offset `json:"offset,omitempty"`
}

// Offset is a measured pin position relative to its node's top-left corner.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Link is a wire between an output pin and an input pin.
type Link struct {
	From string `json:"from"`
	To   string `json:"to"`
}
