package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"videosummary/internal/chat"
	"videosummary/internal/httpclient"
	"videosummary/internal/notify"
	"videosummary/internal/resolver"
	"videosummary/internal/summary"
	"videosummary/internal/upload"
	"videosummary/models"
)

// SessionService defines the session operations handlers expect.
// The concrete implementation is provided by the service package.
type SessionService interface {
	Submit(ctx context.Context, rawURL string) (*models.VideoSession, error)
	History(ctx context.Context) ([]*models.VideoSession, error)
	Load(ctx context.Context, id string) (*models.VideoSession, error)
	Reopen(ctx context.Context, id string) (*models.VideoSession, error)
	Delete(ctx context.Context, id string) error
	SetLanguage(ctx context.Context, id, lang string) (*models.VideoSession, error)
	Translate(ctx context.Context, id, lang string) (*models.VideoSession, error)
	Subtitles(ctx context.Context, id, lang, query string) ([]models.Subtitle, error)
	EnsureMedia(ctx context.Context, id string, readOnly bool) (resolver.Outcome, error)
	GenerateBrief(ctx context.Context, id string, onEvent func(summary.Event) error) (string, error)
	GenerateDetail(ctx context.Context, id string, onEvent func(summary.Event) error) (string, error)
	SendChat(ctx context.Context, id, text string, onDelta func(string) error) (chat.Result, error)
	ResetChat(ctx context.Context, id string) (*models.VideoSession, error)
	ClearChat(ctx context.Context, id string) (*models.VideoSession, error)
	Notifications(id string) []notify.Notification
	Share(ctx context.Context, id string) (string, error)
	Upload(ctx context.Context, f upload.File, opts upload.Options) (*models.VideoSession, error)
}

// ShareStore reads and writes read-only session snapshots.
type ShareStore interface {
	Save(snap models.ShareSnapshot) (string, error)
	Load(id string) (*models.ShareSnapshot, error)
}

const defaultStreamTimeout = 5 * time.Minute

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Service  SessionService
	Shares   ShareStore
	Validate *validator.Validate
	Logger   logrus.FieldLogger
	// HTTP fetches upstream media for the video proxy.
	HTTP httpclient.Doer
	// StreamTimeout bounds one SSE generation.
	StreamTimeout time.Duration
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(svc SessionService, shares ShareStore, proxy httpclient.Doer, logger logrus.FieldLogger) *ApplicationHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ApplicationHandler{
		Service:       svc,
		Shares:        shares,
		Validate:      validator.New(),
		Logger:        logger,
		HTTP:          proxy,
		StreamTimeout: defaultStreamTimeout,
	}
}
