package objectstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLsRoundTrip(t *testing.T) {
	u := URLs{BaseURL: "https://brochures.s3.ap-south-1.amazonaws.com/"}

	public := u.PublicURL("book/spring/page 1.png")
	assert.Equal(t, "https://brochures.s3.ap-south-1.amazonaws.com/book/spring/page%201.png", public)

	key, ok := u.KeyFromURL(public)
	require.True(t, ok)
	assert.Equal(t, "book/spring/page 1.png", key)

	_, ok = u.KeyFromURL("https://elsewhere.example.com/book/spring/1.png")
	assert.False(t, ok)

	_, ok = u.KeyFromURL("not a url")
	assert.False(t, ok)
}

func TestURLsWithPathPrefix(t *testing.T) {
	u := URLs{BaseURL: "http://localhost:9000/flipbook"}
	key, ok := u.KeyFromURL(u.PublicURL("audio/spring/tts_male_abcd1234.mp3"))
	require.True(t, ok)
	assert.Equal(t, "audio/spring/tts_male_abcd1234.mp3", key)

	_, ok = u.KeyFromURL("http://localhost:9000/other/audio/x.mp3")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "book/spring/1.png", BrochureImageKey("spring", "1.png"))
	assert.Equal(t, "book/spring/evil.png", BrochureImageKey("spring", "../../evil.png"))
	assert.Equal(t, "audio/spring/", AudioPrefix("spring"))

	k := CategorizedKey("spring", CategoryVideos, "Intro Clip.MP4")
	assert.True(t, strings.HasPrefix(k, "spring/videos/Intro Clip_"), k)
	assert.True(t, strings.HasSuffix(k, ".mp4"), k)

	a := AudioKey("spring", "tts_female")
	assert.Regexp(t, `^audio/spring/tts_female_[0-9a-f]{8}\.mp3$`, a)
}

func TestContentTypes(t *testing.T) {
	assert.True(t, IsPageImage("image/PNG"))
	assert.True(t, IsPageImage("image/jpeg; charset=binary"))
	assert.False(t, IsPageImage("image/svg+xml"))
	assert.False(t, IsPageImage(""))

	assert.Equal(t, CategoryImages, CategoryFor("image/svg+xml"))
	assert.Equal(t, CategoryVideos, CategoryFor("video/mp4"))
	assert.Equal(t, CategoryAudio, CategoryFor("Audio/MPEG"))
	assert.Equal(t, CategoryFiles, CategoryFor("application/pdf"))
	assert.Equal(t, CategoryFiles, CategoryFor(""))
}

func TestMemoryGateway(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway("https://cdn.test")

	url, err := g.Put(ctx, "audio/foo/a.mp3", strings.NewReader("x"), 1, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/audio/foo/a.mp3", url)
	_, err = g.Put(ctx, "audio/foo-1/b.mp3", strings.NewReader("y"), 1, "audio/mpeg")
	require.NoError(t, err)

	keys, err := g.List(ctx, AudioPrefix("foo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"audio/foo/a.mp3"}, keys)

	data, ct, ok := g.Get("audio/foo/a.mp3")
	require.True(t, ok)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, "audio/mpeg", ct)

	g.FailDelete = func(key string) error {
		if key == "audio/foo-1/b.mp3" {
			return errors.New("denied")
		}
		return nil
	}
	require.NoError(t, g.Delete(ctx, "audio/foo/a.mp3"))
	require.Error(t, g.Delete(ctx, "audio/foo-1/b.mp3"))
	assert.False(t, g.Has("audio/foo/a.mp3"))
	assert.True(t, g.Has("audio/foo-1/b.mp3"))
	assert.Equal(t, []string{"audio/foo/a.mp3"}, g.Deleted())

	signed, err := g.PresignGet(ctx, "audio/foo-1/b.mp3", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "https://cdn.test/audio/foo-1/b.mp3?expires="))
}

func TestInstrumentedRecordsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	mem := NewMemoryGateway("https://cdn.test")
	mem.FailPut = func(key string) error {
		if strings.HasSuffix(key, "bad.png") {
			return errors.New("boom")
		}
		return nil
	}

	g, err := NewInstrumented(mem, reg)
	require.NoError(t, err)

	_, err = g.Put(context.Background(), "book/x/good.png", strings.NewReader("abc"), 3, "image/png")
	require.NoError(t, err)
	_, err = g.Put(context.Background(), "book/x/bad.png", strings.NewReader("abc"), 3, "image/png")
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(g.errors.WithLabelValues("put")))
	assert.Equal(t, float64(3), testutil.ToFloat64(g.bytes))

	// a second wrapper on the same registry reuses the collectors
	again, err := NewInstrumented(mem, reg)
	require.NoError(t, err)
	assert.Same(t, g.errors, again.errors)

	assert.Equal(t, "https://cdn.test/book/x/good.png", g.PublicURL("book/x/good.png"))
}
