package progress_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dendrotime/pkg/hierarchy"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

func TestValidate_Accepts(t *testing.T) {
	t.Parallel()

	require.NoError(t, progress.Validate(loadPartial(t)))
}

func TestValidate_ReportsViolations(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"hierarchy":{"hierarchy":[{"cId1":"a","cId2":1,"cardinality":0}],"n":-1},"state":"Finished","progress":140}`)

	err := progress.Validate(doc)
	require.ErrorIs(t, err, progress.ErrInvalidSnapshot)

	var verr *progress.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.GreaterOrEqual(t, len(verr.Violations), 4)
	assert.Contains(t, err.Error(), "progress")
}

func TestValidate_LeafCountLimit(t *testing.T) {
	t.Parallel()

	doc := func(n int) []byte {
		return fmt.Appendf(nil, `{"hierarchy":{"hierarchy":[],"n":%d},"state":"Initializing"}`, n)
	}

	require.NoError(t, progress.Validate(doc(hierarchy.MaxLeafCount)))

	err := progress.Validate(doc(hierarchy.MaxLeafCount + 1))
	require.ErrorIs(t, err, progress.ErrInvalidSnapshot)
	assert.Contains(t, err.Error(), "hierarchy.n")
}

func TestSchema_LeafMaximumMatchesBuilder(t *testing.T) {
	t.Parallel()

	var schema struct {
		Properties struct {
			Hierarchy struct {
				Properties struct {
					N struct {
						Maximum int `json:"maximum"`
					} `json:"n"`
				} `json:"properties"`
			} `json:"hierarchy"`
		} `json:"properties"`
	}

	require.NoError(t, json.Unmarshal(progress.Schema(), &schema))
	assert.Equal(t, hierarchy.MaxLeafCount, schema.Properties.Hierarchy.Properties.N.Maximum)
}

func TestValidate_MissingHierarchy(t *testing.T) {
	t.Parallel()

	err := progress.Validate([]byte(`{"state":"Initializing"}`))
	require.ErrorIs(t, err, progress.ErrInvalidSnapshot)
}

func TestValidate_MalformedJSON(t *testing.T) {
	t.Parallel()

	err := progress.Validate([]byte(`{`))
	require.ErrorIs(t, err, progress.ErrDecode)
}

func TestSchema_Embedded(t *testing.T) {
	t.Parallel()

	assert.Contains(t, string(progress.Schema()), `"hierarchySimilarities"`)
}
