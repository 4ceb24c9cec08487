// Package translator translates subtitle sequences in concurrent batches.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"videosummary/internal/apperrors"
	"videosummary/internal/httpclient"
	"videosummary/models"
)

const (
	DefaultBatchSize   = 100
	DefaultConcurrency = 10
)

type translateRequest struct {
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
	Text       []string `json:"text"`
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translator posts batches to {base}/deepl/v2/translate.
type Translator struct {
	BaseURL     string
	APIKey      string
	BatchSize   int
	Concurrency int
	HTTP        httpclient.Doer
	Logger      logrus.FieldLogger
}

func New(baseURL, apiKey string, doer httpclient.Doer, batchSize, concurrency int, logger logrus.FieldLogger) *Translator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Translator{BaseURL: baseURL, APIKey: apiKey, BatchSize: batchSize, Concurrency: concurrency, HTTP: doer, Logger: logger}
}

// Translate returns subs with every text translated to lang, in the original
// order, with End times recomputed from the following StartTime. Any failed
// batch fails the whole call.
func (t *Translator) Translate(ctx context.Context, subs []models.Subtitle, lang string) ([]models.Subtitle, error) {
	const op = "translator.Translate"
	if len(subs) == 0 {
		return []models.Subtitle{}, nil
	}

	batches := split(subs, t.BatchSize)
	results := make([][]models.Subtitle, len(batches))
	sem := semaphore.NewWeighted(int64(t.Concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i, batch := range batches {
		i, batch := i, batch
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			out, err := t.translateBatch(gctx, batch, lang)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.logger().WithFields(logrus.Fields{"language": lang, "batches": len(batches), "error": err}).Error("translation failed")
		return nil, apperrors.E(apperrors.TranslationFailure, op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.E(apperrors.TranslationFailure, op, err)
	}

	out := make([]models.Subtitle, 0, len(subs))
	for _, r := range results {
		out = append(out, r...)
	}
	models.RecomputeEnds(out)
	return out, nil
}

func (t *Translator) translateBatch(ctx context.Context, batch []models.Subtitle, lang string) ([]models.Subtitle, error) {
	texts := make([]string, len(batch))
	for i, s := range batch {
		texts[i] = s.Text
	}
	body, err := json.Marshal(translateRequest{TargetLang: strings.ToUpper(lang), Text: texts})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(t.BaseURL, "/") + "/deepl/v2/translate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	resp, err := t.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var res translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(res.Translations) != len(batch) {
		return nil, fmt.Errorf("got %d translations for %d subtitles", len(res.Translations), len(batch))
	}

	out := models.CloneSubtitles(batch)
	for i := range out {
		out[i].Text = res.Translations[i].Text
	}
	return out, nil
}

func (t *Translator) logger() logrus.FieldLogger {
	if t.Logger == nil {
		return logrus.StandardLogger()
	}
	return t.Logger
}

func split(subs []models.Subtitle, size int) [][]models.Subtitle {
	var batches [][]models.Subtitle
	for start := 0; start < len(subs); start += size {
		end := min(start+size, len(subs))
		batches = append(batches, subs[start:end])
	}
	return batches
}
