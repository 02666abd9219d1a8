package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLikes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Likes
	}{
		{name: "array", raw: `["a","b"]`, want: Likes{"a", "b"}},
		{name: "duplicates", raw: `["a","b","a",""]`, want: Likes{"a", "b"}},
		{name: "legacy counter", raw: `0`, want: Likes{}},
		{name: "legacy positive counter", raw: `12`, want: Likes{}},
		{name: "null", raw: `null`, want: Likes{}},
		{name: "object", raw: `{"a":true}`, want: Likes{}},
		{name: "empty", raw: ``, want: Likes{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLikes([]byte(tt.raw))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), got.Count())
		})
	}
}

func TestLikesScan(t *testing.T) {
	var l Likes
	require.NoError(t, l.Scan([]byte(`["u1","u1","u2"]`)))
	assert.Equal(t, Likes{"u1", "u2"}, l)

	require.NoError(t, l.Scan("7"))
	assert.Empty(t, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	assert.Error(t, l.Scan(42))
}

func TestLikesWithWithout(t *testing.T) {
	base := Likes{"a"}

	added := base.With("b")
	assert.Equal(t, Likes{"a", "b"}, added)
	assert.Equal(t, Likes{"a"}, base)

	assert.Equal(t, Likes{"a", "b"}, added.With("b"))
	assert.Equal(t, Likes{"a"}, added.Without("b"))
	assert.Equal(t, Likes{"a"}, base.Without("zzz"))
}

func TestProjectDecorate(t *testing.T) {
	p := Project{Likes: Likes{"u1", "u2", "u1"}}
	p.Decorate("u2")
	assert.Equal(t, 2, p.LikeCount)
	assert.True(t, p.IsLiked)
	assert.NotNil(t, p.Tags)

	p.Decorate("")
	assert.False(t, p.IsLiked)
}

func TestLikesJSON(t *testing.T) {
	var p Project
	require.NoError(t, p.Likes.UnmarshalJSON([]byte(`5`)))
	assert.Empty(t, p.Likes)

	b, err := Likes{"x", "x"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(b))
}

func TestFindColumnMismatches(t *testing.T) {
	got := FindColumnMismatches([]string{"id", "title", "legacy"}, []string{"id", "title"})
	assert.Equal(t, []string{"legacy"}, got)
	assert.Empty(t, FindColumnMismatches([]string{"id"}, []string{"id", "title"}))
}

func TestColumnFromGormTag(t *testing.T) {
	assert.Equal(t, "photo_url", columnFromGormTag("column:photo_url;type:text"))
	assert.Equal(t, "", columnFromGormTag("type:text;not null"))
}
