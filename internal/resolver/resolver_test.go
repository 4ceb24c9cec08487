package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosummary/internal/httpclient"
	"videosummary/models"
)

func newUpstream(srv *httptest.Server, key string) Upstream {
	return Upstream{
		BaseURL: srv.URL,
		APIKey:  key,
		Client:  &httpclient.LimitedClient{Client: srv.Client(), Limiter: httpclient.NewHostRateLimiter(0, 0)},
	}
}

func TestAwemeResolver_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools/douyin/web/fetch_one_video_by_share_url", r.URL.Path)
		assert.Equal(t, "https://v.douyin.com/abc/", r.URL.Query().Get("share_url"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"aweme_details":[{
			"music":{"play_url":{"url_list":["https://cdn/music.mp3"]}},
			"video":{"play_addr":{"url_list":["https://cdn/video.mp4","https://cdn/backup.mp4"]}},
			"share_info":{"share_title":"A dance"}}]}}`))
	}))
	defer srv.Close()

	r := NewDouyinResolver(newUpstream(srv, "secret"), nil)
	res, err := r.Resolve(context.Background(), "https://v.douyin.com/abc/")
	require.NoError(t, err)
	assert.Equal(t, Resolution{MediaURL: "https://cdn/video.mp4", MusicURL: "https://cdn/music.mp3", Title: "A dance"}, res)
	assert.Equal(t, models.PlatformDouyin, r.Platform())
}

func TestAwemeResolver_EmptyDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"aweme_details":[]}}`))
	}))
	defer srv.Close()

	_, err := NewTikTokResolver(newUpstream(srv, "k"), nil).Resolve(context.Background(), "https://www.tiktok.com/@a/video/1")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolvers_MissingCredentialIsPermanent(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewYouTubeResolver(newUpstream(srv, ""), nil).Resolve(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.True(t, IsPermanent(err))
	assert.False(t, called)
}

func TestYouTubeResolver_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("video_id"))
		_, _ = w.Write([]byte(`{"data":{"title":"Talk","formats":[{"url":"https://rr.googlevideo.com/x"}]}}`))
	}))
	defer srv.Close()

	res, err := NewYouTubeResolver(newUpstream(srv, "k"), nil).Resolve(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://rr.googlevideo.com/x", res.MediaURL)
	assert.Equal(t, "Talk", res.Title)
}

func TestYouTubeResolver_UpstreamErrorIsUnresolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewYouTubeResolver(newUpstream(srv, "k"), nil).Resolve(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.False(t, IsPermanent(err))
}

func TestGenericResolver_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bilibili", r.URL.Query().Get("platform"))
		assert.Equal(t, "BV1xx", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"data":{"url":"https://upos.bilivideo.com/v.mp4"}}`))
	}))
	defer srv.Close()

	r := NewGenericResolver(models.PlatformBilibili, newUpstream(srv, "k"), nil)
	res, err := r.Resolve(context.Background(), "BV1xx")
	require.NoError(t, err)
	assert.Equal(t, "https://upos.bilivideo.com/v.mp4", res.MediaURL)

	_, err = r.Resolve(context.Background(), "")
	assert.NoError(t, err, "the endpoint decides what an empty id means")
}

func TestDirectResolver(t *testing.T) {
	var d DirectResolver
	res, err := d.Resolve(context.Background(), "https://x/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://x/a.mp3", res.MediaURL)
	assert.True(t, d.IsUsable(context.Background(), "anything"))

	_, err = d.Resolve(context.Background(), "")
	assert.True(t, errors.Is(err, ErrUnresolved))
}

func TestChecker_IsUsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/partial":
			assert.Equal(t, "bytes=0-1", r.Header.Get("Range"))
			w.WriteHeader(http.StatusPartialContent)
		case "/ok":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	p := NewChecker(srv.Client(), time.Second)
	ctx := context.Background()
	assert.True(t, p.IsUsable(ctx, srv.URL+"/partial"))
	assert.True(t, p.IsUsable(ctx, srv.URL+"/ok"))
	assert.False(t, p.IsUsable(ctx, srv.URL+"/expired"))
	assert.False(t, p.IsUsable(ctx, ""))
}

func TestRegistry_For(t *testing.T) {
	reg := NewRegistry(DirectResolver{}, NewYouTubeResolver(Upstream{}, nil))
	r, ok := reg.For(models.PlatformYouTube)
	require.True(t, ok)
	assert.Equal(t, models.PlatformYouTube, r.Platform())
	_, ok = reg.For(models.PlatformDouyin)
	assert.False(t, ok)
}
