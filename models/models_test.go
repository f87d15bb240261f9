package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSet_AddRemove(t *testing.T) {
	s := NewUserSet("bob", "alice", "bob")
	assert.Equal(t, 2, s.Len())

	assert.False(t, s.Add("alice"))
	assert.True(t, s.Add("carol"))
	assert.Equal(t, []string{"alice", "bob", "carol"}, s.Slice())

	assert.True(t, s.Remove("bob"))
	assert.False(t, s.Remove("bob"))
	assert.False(t, s.Has("bob"))
}

func TestUserSet_ZeroValueReads(t *testing.T) {
	var s UserSet
	assert.False(t, s.Has("alice"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Slice())
}

func TestUserSet_ZeroValueAdd(t *testing.T) {
	var s UserSet
	assert.True(t, s.Add("bob"))
	assert.False(t, s.Add("bob"))
	assert.True(t, s.Has("bob"))
	assert.Equal(t, 1, s.Len())

	p := Post{}
	assert.True(t, p.LikedBy.Add("carol"))
	assert.True(t, p.LikedByUser("carol"))
}

func TestUserSet_JSON(t *testing.T) {
	data, err := json.Marshal(NewUserSet("b", "a"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(data))

	var s UserSet
	require.NoError(t, json.Unmarshal([]byte(`["x","x","y"]`), &s))
	assert.Equal(t, 2, s.Len())
}

func TestValidateCaption(t *testing.T) {
	assert.NoError(t, ValidateCaption(""))
	assert.NoError(t, ValidateCaption(strings.Repeat("é", MaxCaptionLength)))

	err := ValidateCaption(strings.Repeat("a", MaxCaptionLength+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestValidatePromptText(t *testing.T) {
	assert.NoError(t, ValidatePromptText("What made you smile today?"))
	assert.ErrorIs(t, ValidatePromptText("   "), ErrValidation)
	assert.ErrorIs(t, ValidatePromptText(strings.Repeat("a", MaxPromptLength+1)), ErrValidation)
}
