package jobclient

import (
	"errors"
	"fmt"
	"slices"
)

// Parameter validation errors.
var (
	ErrUnknownDistance = errors.New("unknown distance")
	ErrUnknownLinkage  = errors.New("unknown linkage")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Default job parameters.
const (
	DefaultDistance = "msm"
	DefaultLinkage  = "average"
	DefaultStrategy = "approx-distance-ascending"
)

// Distances lists the distance measures the server accepts.
func Distances() []string {
	return []string{"msm", "sbd", "dtw", "euclidean", "manhatten"}
}

// Linkages lists the linkage functions the server accepts.
func Linkages() []string {
	return []string{"single", "complete", "average", "weighted", "ward", "centroid"}
}

// Strategies lists the processing strategies the server accepts.
func Strategies() []string {
	return []string{"fcfs", "shortest-ts", "approx-distance-ascending", "approx-distance-descending", "pre-clustering"}
}

// Params are the clustering parameters of a job.
type Params struct {
	Distance string `json:"distanceName"`
	Linkage  string `json:"linkageName"`
	Strategy string `json:"strategy"`
}

// DefaultParams returns the parameters preselected by the dashboard.
func DefaultParams() Params {
	return Params{Distance: DefaultDistance, Linkage: DefaultLinkage, Strategy: DefaultStrategy}
}

// Validate checks every parameter against the accepted values.
func (p Params) Validate() error {
	if !slices.Contains(Distances(), p.Distance) {
		return fmt.Errorf("%w: %q", ErrUnknownDistance, p.Distance)
	}

	if !slices.Contains(Linkages(), p.Linkage) {
		return fmt.Errorf("%w: %q", ErrUnknownLinkage, p.Linkage)
	}

	if !slices.Contains(Strategies(), p.Strategy) {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, p.Strategy)
	}

	return nil
}
