package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listQuery struct {
	Page   int    `form:"page" binding:"omitempty,page"`
	Status string `form:"status" binding:"omitempty,planstatus"`
	Days   *int   `form:"days" binding:"omitempty,horizon"`
	Actor  string `json:"deletedBy" binding:"omitempty,actor"`
}

func TestToDetails_AliasesUseWireNames(t *testing.T) {
	Init()
	days := 400
	err := binding.Validator.ValidateStruct(&listQuery{Page: -1, Status: "pending", Days: &days, Actor: strings.Repeat("x", 101)})
	require.Error(t, err)

	d := ToDetails(err)
	assert.Equal(t, "must be a positive integer", d["page"])
	assert.Equal(t, "must be one of: active, expired", d["status"])
	assert.Equal(t, "must be between 0 and 366", d["days"])
	assert.Equal(t, "must be at most 100 characters long", d["deletedBy"])
}

func TestToDetails_Valid(t *testing.T) {
	Init()
	days := 0
	assert.NoError(t, binding.Validator.ValidateStruct(&listQuery{Page: 2, Status: "active", Days: &days}))
	assert.Nil(t, ToDetails(nil))
}

func TestToDetails_BadJSON(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte(`{"a":`), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}
