// Package dendrogram computes a deterministic two-axis layout for a cluster
// tree: a breadth axis along which leaves are spaced, and a distance axis on
// which merge heights are plotted.
package dendrogram

// Mode selects how the distance axis is derived.
type Mode string

// Distance axis modes.
const (
	// ModeWeighted places nodes by their merge distance.
	ModeWeighted Mode = "weighted"
	// ModeEqual places nodes by their height above the deepest leaf.
	ModeEqual Mode = "equal"
)

// Default layout dimensions.
const (
	DefaultWidth            = 900
	DefaultNodeSpacing      = 15
	DefaultHorizontalMargin = 20
	DefaultAxisHeight       = 50
)

// Label placement relative to a node.
const (
	AnchorStart = "start"
	AnchorEnd   = "end"

	labelOffset = 6
)

// Config controls the layout. Non-positive Width or NodeSpacing and negative
// margins fall back to the defaults.
type Config struct {
	Mode              Mode    `json:"mode"                 yaml:"mode"`
	Width             float64 `json:"width"                yaml:"width"`
	NodeSpacing       float64 `json:"node_spacing"         yaml:"node_spacing"`
	HorizontalMargin  float64 `json:"horizontal_margin"    yaml:"horizontal_margin"`
	AxisHeight        float64 `json:"axis_height"          yaml:"axis_height"`
	ShowLabelsOnHover bool    `json:"show_labels_on_hover" yaml:"show_labels_on_hover"`
}

// DefaultConfig returns the weighted layout at the default dimensions.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeWeighted,
		Width:            DefaultWidth,
		NodeSpacing:      DefaultNodeSpacing,
		HorizontalMargin: DefaultHorizontalMargin,
		AxisHeight:       DefaultAxisHeight,
	}
}

// ModeFor maps the equal-distance toggle onto a Mode.
func ModeFor(equalDistance bool) Mode {
	if equalDistance {
		return ModeEqual
	}

	return ModeWeighted
}

func (c Config) normalized() Config {
	def := DefaultConfig()

	if c.Mode != ModeEqual {
		c.Mode = ModeWeighted
	}

	if c.Width <= 0 {
		c.Width = def.Width
	}

	if c.NodeSpacing <= 0 {
		c.NodeSpacing = def.NodeSpacing
	}

	if c.HorizontalMargin < 0 {
		c.HorizontalMargin = def.HorizontalMargin
	}

	if c.AxisHeight < 0 {
		c.AxisHeight = def.AxisHeight
	}

	return c
}

// PlotWidth is the extent of the distance axis.
func (c Config) PlotWidth() float64 {
	n := c.normalized()

	return max(n.Width-2*n.HorizontalMargin, 0)
}
