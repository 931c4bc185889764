package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameRefAcceptsStringOrObject(t *testing.T) {
	cases := map[string]string{
		`{"userId":"u1","group1":"dev_team_1"}`:                                 "dev_team_1",
		`{"userId":"u1","group1":{"id":"g-1","name":"dev_team_1","path":"/x"}}`: "dev_team_1",
		`{"userId":"u1","group1":null}`:                                         "",
		`{"userId":"u1"}`:                                                       "",
	}
	for body, want := range cases {
		var req RemoveGroupRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.Equal(t, want, string(req.Group), body)
	}

	var bad RemoveRoleRequest
	assert.Error(t, json.Unmarshal([]byte(`{"role":42}`), &bad))
}
