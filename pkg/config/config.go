package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/nodeformat/pkg/geom"
)

// =============================================================================
// Enumerations
// =============================================================================

// Direction is the primary flow direction of a graph.
type Direction string

const (
	LeftToRight Direction = "left_to_right"
	TopToBottom Direction = "top_to_bottom"
)

// Orient returns the axis mapping for d.
func (d Direction) Orient() geom.Orient {
	if d == TopToBottom {
		return geom.Vertical
	}
	return geom.Horizontal
}

// WiringStyle controls how wires leaving one pin are grouped into tracks.
type WiringStyle string

const (
	// AlwaysMerge routes every destination of a pin through one shared track.
	AlwaysMerge WiringStyle = "always_merge"
	// MergeWhenNear shares a track only among destinations close to each other.
	MergeWhenNear WiringStyle = "merge_when_near"
	// SingleWire gives every destination its own track.
	SingleWire WiringStyle = "single_wire"
)

// FormatterKind selects the layout algorithm.
type FormatterKind string

const (
	// General is the two-axis solver for execution graphs with data clusters.
	General FormatterKind = "general"
	// Tree is a layered tidy-tree layout for hierarchical graphs.
	Tree FormatterKind = "tree"
	// Simple only assigns primary-axis coordinates.
	Simple FormatterKind = "simple"
)

// FormatAllStyle controls how independent subgraphs are arranged when the
// whole graph is formatted.
type FormatAllStyle string

const (
	// List stacks every subgraph in one column.
	List FormatAllStyle = "list"
	// Columns places event trees, other execution trees and data-only
	// clusters in separate columns.
	Columns FormatAllStyle = "columns"
)

// Vec2 is a serializable two-component vector.
type Vec2 struct {
	X float64 `toml:"x" yaml:"x" json:"x" validate:"gte=0"`
	Y float64 `toml:"y" yaml:"y" json:"y" validate:"gte=0"`
}

// Vec converts the value to a geometry vector.
func (v Vec2) Vec() geom.Vec { return geom.V(v.X, v.Y) }

// =============================================================================
// Config
// =============================================================================

// Config holds every tunable of the layout engine. The zero value is not
// meaningful; start from [Default] and override fields.
type Config struct {
	// Spacing
	Padding          Vec2    `toml:"padding" yaml:"padding" json:"padding"`
	ParameterPadding Vec2    `toml:"parameter_padding" yaml:"parameter_padding" json:"parameter_padding"`
	GroupPadding     Vec2    `toml:"group_padding" yaml:"group_padding" json:"group_padding"`
	GroupTitleHeight float64 `toml:"group_title_height" yaml:"group_title_height" json:"group_title_height" validate:"gte=0"`
	TrackSpacing     float64 `toml:"track_spacing" yaml:"track_spacing" json:"track_spacing" validate:"gt=0"`

	// Flow
	Direction           Direction `toml:"direction" yaml:"direction" json:"direction" validate:"oneof=left_to_right top_to_bottom"`
	CenterBranches      bool      `toml:"center_branches" yaml:"center_branches" json:"center_branches"`
	NumRequiredBranches int       `toml:"num_required_branches" yaml:"num_required_branches" json:"num_required_branches" validate:"gte=1"`
	ExpandInputClusters bool      `toml:"expand_input_clusters" yaml:"expand_input_clusters" json:"expand_input_clusters"`

	// Wiring and knots
	ParameterWiring       WiringStyle `toml:"parameter_wiring" yaml:"parameter_wiring" json:"parameter_wiring" validate:"oneof=always_merge merge_when_near single_wire"`
	ExecWiring            WiringStyle `toml:"exec_wiring" yaml:"exec_wiring" json:"exec_wiring" validate:"oneof=always_merge merge_when_near single_wire"`
	CreateKnots           bool        `toml:"create_knots" yaml:"create_knots" json:"create_knots"`
	KnotDistanceThreshold float64     `toml:"knot_distance_threshold" yaml:"knot_distance_threshold" json:"knot_distance_threshold" validate:"gte=0"`
	KnotMergeDistance     float64     `toml:"knot_merge_distance" yaml:"knot_merge_distance" json:"knot_merge_distance" validate:"gte=0"`
	KnotNearDistance      float64     `toml:"knot_near_distance" yaml:"knot_near_distance" json:"knot_near_distance" validate:"gte=0"`
	KnotOffset            float64     `toml:"knot_offset" yaml:"knot_offset" json:"knot_offset" validate:"gte=0"`
	KnotSize              Vec2        `toml:"knot_size" yaml:"knot_size" json:"knot_size"`

	// Grid
	GridSize   float64 `toml:"grid_size" yaml:"grid_size" json:"grid_size" validate:"gte=0"`
	SnapToGrid bool    `toml:"snap_to_grid" yaml:"snap_to_grid" json:"snap_to_grid"`

	// Data clusters
	EnableHelixing          bool    `toml:"enable_helixing" yaml:"enable_helixing" json:"enable_helixing"`
	HelixingHeightMax       float64 `toml:"helixing_height_max" yaml:"helixing_height_max" json:"helixing_height_max" validate:"gte=0"`
	SingleHelixingHeightMax float64 `toml:"single_helixing_height_max" yaml:"single_helixing_height_max" json:"single_helixing_height_max" validate:"gte=0"`

	// Passes
	MaxCollisionIterations int `toml:"max_collision_iterations" yaml:"max_collision_iterations" json:"max_collision_iterations" validate:"gte=1,lte=1000"`
	MaxFormatPasses        int `toml:"max_format_passes" yaml:"max_format_passes" json:"max_format_passes" validate:"gte=1,lte=100"`

	// Format all
	FormatAllStyle   FormatAllStyle `toml:"format_all_style" yaml:"format_all_style" json:"format_all_style" validate:"oneof=list columns"`
	FormatAllPadding Vec2           `toml:"format_all_padding" yaml:"format_all_padding" json:"format_all_padding"`

	// Formatter selection
	DefaultFormatter FormatterKind            `toml:"default_formatter" yaml:"default_formatter" json:"default_formatter" validate:"oneof=general tree simple"`
	Formatters       map[string]FormatterKind `toml:"formatters" yaml:"formatters" json:"formatters,omitempty" validate:"dive,oneof=general tree simple"`

	// Debug enables the overlay drawer and verbose pass logging.
	Debug bool `toml:"debug" yaml:"debug" json:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Padding:                 Vec2{X: 100, Y: 100},
		ParameterPadding:        Vec2{X: 40, Y: 25},
		GroupPadding:            Vec2{X: 30, Y: 30},
		GroupTitleHeight:        36,
		TrackSpacing:            26,
		Direction:               LeftToRight,
		CenterBranches:          false,
		NumRequiredBranches:     3,
		ExpandInputClusters:     true,
		ParameterWiring:         AlwaysMerge,
		ExecWiring:              MergeWhenNear,
		CreateKnots:             true,
		KnotDistanceThreshold:   800,
		KnotMergeDistance:       8,
		KnotNearDistance:        100,
		KnotOffset:              24,
		KnotSize:                Vec2{X: 16, Y: 16},
		GridSize:                8,
		SnapToGrid:              false,
		EnableHelixing:          false,
		HelixingHeightMax:       500,
		SingleHelixingHeightMax: 300,
		MaxCollisionIterations:  30,
		MaxFormatPasses:         3,
		FormatAllStyle:          Columns,
		FormatAllPadding:        Vec2{X: 600, Y: 200},
		DefaultFormatter:        General,
		Formatters: map[string]FormatterKind{
			"behavior_tree": Tree,
			"material":      Simple,
		},
	}
}

var validate = validator.New()

// Validate checks that every field is inside its allowed range.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Orient returns the axis mapping for the configured direction.
func (c Config) Orient() geom.Orient { return c.Direction.Orient() }

// FormatterFor returns the formatter configured for a graph type, falling
// back to DefaultFormatter.
func (c Config) FormatterFor(graphType string) FormatterKind {
	if k, ok := c.Formatters[graphType]; ok {
		return k
	}
	if c.DefaultFormatter == "" {
		return General
	}
	return c.DefaultFormatter
}
