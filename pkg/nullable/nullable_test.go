package nullable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patch struct {
	ParentID ID `json:"parentId"`
}

func TestID_TriState(t *testing.T) {
	var absent, null, value patch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"parentId":null}`), &null))
	require.NoError(t, json.Unmarshal([]byte(`{"parentId":12}`), &value))

	assert.False(t, absent.ParentID.Set)
	assert.True(t, null.ParentID.Set)
	assert.False(t, null.ParentID.Valid)
	assert.Nil(t, null.ParentID.Ptr())
	assert.Equal(t, Of(12), value.ParentID)
	assert.Equal(t, uint(12), *value.ParentID.Ptr())
}

func TestID_RejectsNonNumeric(t *testing.T) {
	var p patch
	assert.Error(t, json.Unmarshal([]byte(`{"parentId":"abc"}`), &p))
}
