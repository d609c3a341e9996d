// Package progress defines the job progress snapshot exchanged with the
// clustering server, its JSON schema, and the job phase model.
package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/dendrotime/pkg/convergence"
	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
)

// ErrDecode is returned when a snapshot is not valid JSON for the wire shape.
var ErrDecode = errors.New("decode progress snapshot")

// Record is one merge record in wire form.
type Record struct {
	Distance    *float64 `json:"distance"`
	LeftID      int      `json:"cId1"`
	RightID     int      `json:"cId2"`
	Cardinality int      `json:"cardinality"`
	Index       int      `json:"idx"`
}

// Hierarchy is the merge record list with the number of leaves.
type Hierarchy struct {
	Records   []Record `json:"hierarchy"`
	LeafCount int      `json:"n"`
}

// Snapshot is one progress report of a running job.
type Snapshot struct {
	State                 string    `json:"state"`
	Hierarchy             Hierarchy `json:"hierarchy"`
	Steps                 []int64   `json:"steps"`
	Timestamps            []int64   `json:"timestamps"`
	HierarchySimilarities []float64 `json:"hierarchySimilarities"`
	HierarchyQualities    []float64 `json:"hierarchyQualities"`
	ClusterQualities      []float64 `json:"clusterQualities"`
	Progress              float64   `json:"progress"`
}

// Decode reads one snapshot from r.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot

	err := json.NewDecoder(r).Decode(&snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return &snap, nil
}

// Parse decodes a snapshot from raw JSON.
func Parse(data []byte) (*Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

// MergeRecords converts the wire records. Array position is the identity;
// the wire idx is ignored.
func (s *Snapshot) MergeRecords() []hierarchy.MergeRecord {
	out := make([]hierarchy.MergeRecord, len(s.Hierarchy.Records))

	for i, rec := range s.Hierarchy.Records {
		out[i] = hierarchy.MergeRecord{
			LeftID:      rec.LeftID,
			RightID:     rec.RightID,
			Cardinality: rec.Cardinality,
			Distance:    rec.Distance,
		}
	}

	return out
}

// HasHierarchy reports whether the snapshot carries any merge records.
func (s *Snapshot) HasHierarchy() bool {
	return len(s.Hierarchy.Records) > 0
}

// MetricArrays returns the quality metrics keyed by their wire names.
func (s *Snapshot) MetricArrays() map[string][]float64 {
	return map[string][]float64{
		convergence.MetricHierarchySimilarities: s.HierarchySimilarities,
		convergence.MetricHierarchyQualities:    s.HierarchyQualities,
		convergence.MetricClusterQualities:      s.ClusterQualities,
	}
}

// Series aggregates the snapshot metrics into plot series.
func (s *Snapshot) Series(useTimestamps bool) []convergence.Series {
	return convergence.Aggregate(s.Steps, s.Timestamps, s.MetricArrays(), useTimestamps)
}

// Finished reports whether the job has completed.
func (s *Snapshot) Finished() bool {
	return Phase(s.State) == PhaseFinished
}
