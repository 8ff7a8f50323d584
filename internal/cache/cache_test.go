package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := New(true)
	t.Cleanup(c.Close)
	now := time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	etag := c.Set("competitions", []byte(`[]`), time.Minute)
	data, got, ok := c.Get("competitions")
	assert.True(t, ok)
	assert.Equal(t, etag, got)
	assert.Equal(t, []byte(`[]`), data)

	now = now.Add(2 * time.Minute)
	_, _, ok = c.Get("competitions")
	assert.False(t, ok)
}

func TestCache_Disabled(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Hour)

	assert.NotEmpty(t, etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Flush(t *testing.T) {
	c := New(true)
	t.Cleanup(c.Close)
	c.Set("competition:PL", []byte("a"), time.Hour)
	c.Set("teams", []byte("c"), time.Hour)

	assert.Equal(t, 2, c.Flush())
	_, _, ok := c.Get("teams")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats()["total_keys"])
	assert.Equal(t, 0, c.Flush())
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))

	assert.False(t, CheckETagMatch("", etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch(`W/"deadbeef", `+etag, etag))
	assert.False(t, CheckETagMatch(`W/"deadbeef"`, etag))
}
