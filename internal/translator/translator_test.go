package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosummary/internal/apperrors"
	"videosummary/models"
)

func makeSubs(n int) []models.Subtitle {
	subs := make([]models.Subtitle, n)
	for i := range subs {
		subs[i] = models.Subtitle{Index: i, StartTime: float64(i), End: float64(i) + 0.5, Text: fmt.Sprintf("line %d", i)}
	}
	return subs
}

// echoServer prefixes each text with the target language. Earlier batches
// answer slower so completion order differs from submission order.
func echoServer(t *testing.T, inFlight, peak *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt32(inFlight, 1)
		defer atomic.AddInt32(inFlight, -1)
		for {
			p := atomic.LoadInt32(peak)
			if cur <= p || atomic.CompareAndSwapInt32(peak, p, cur) {
				break
			}
		}

		var req translateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "", req.SourceLang)
		if len(req.Text) > 0 && req.Text[0] == "line 0" {
			time.Sleep(30 * time.Millisecond)
		}
		res := map[string][]map[string]string{"translations": {}}
		for _, txt := range req.Text {
			res["translations"] = append(res["translations"], map[string]string{"text": req.TargetLang + ":" + txt})
		}
		_ = json.NewEncoder(w).Encode(res)
	}))
}

func TestTranslate_PreservesOrderAndRecomputesEnds(t *testing.T) {
	var inFlight, peak int32
	srv := echoServer(t, &inFlight, &peak)
	defer srv.Close()

	tr := New(srv.URL, "", srv.Client(), 3, 2, nil)
	out, err := tr.Translate(context.Background(), makeSubs(10), "de")
	require.NoError(t, err)
	require.Len(t, out, 10)
	for i, s := range out {
		assert.Equal(t, fmt.Sprintf("DE:line %d", i), s.Text)
		assert.Equal(t, i, s.Index)
		if i < len(out)-1 {
			assert.Equal(t, out[i+1].StartTime, s.End)
		}
	}
	assert.Equal(t, 9.5, out[9].End, "last end is untouched")
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestTranslate_Empty(t *testing.T) {
	out, err := New("http://unused", "", http.DefaultClient, 0, 0, nil).Translate(context.Background(), nil, "fr")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTranslate_CountMismatchFailsWholeCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translations":[{"text":"only one"}]}`))
	}))
	defer srv.Close()

	src := makeSubs(4)
	_, err := New(srv.URL, "", srv.Client(), 2, 2, nil).Translate(context.Background(), src, "ja")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.TranslationFailure))
	assert.Equal(t, "line 0", src[0].Text, "input is never modified")
}

func TestTranslate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", srv.Client(), 100, 10, nil).Translate(context.Background(), makeSubs(3), "es")
	assert.True(t, apperrors.IsKind(err, apperrors.TranslationFailure))
}

func TestSplit(t *testing.T) {
	batches := split(makeSubs(250), 100)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[2], 50)
}
