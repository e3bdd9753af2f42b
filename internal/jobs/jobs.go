// Package jobs holds the bodies of the recurring community jobs: the
// self-intro digest, the morning AI news push, the weekly interaction
// ranking, the exclusive content rotation, the achievement report, the
// consultation prompt and the event reminder scan. Every body reads shared
// state through the store, renders its message in DejiRyu's voice and pushes
// it through the dispatch interface.
package jobs

import (
	"context"
	"math/rand"
	"time"

	"github.com/dejikatsu/dejiryu/internal/clock"
	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/metrics"
	"github.com/dejikatsu/dejiryu/internal/news"
	"github.com/dejikatsu/dejiryu/internal/scheduler"
	"github.com/dejikatsu/dejiryu/internal/state"
)

// Message is one chat message as observed by the platform binding.
type Message struct {
	ID        int64
	ChannelID int64
	AuthorID  int64
	Text      string
	SentAt    time.Time
}

// Dispatcher pushes rendered text to a channel. Failures are reported, not
// retried here.
type Dispatcher interface {
	Send(ctx context.Context, channelID int64, text string) error
}

// History provides recently observed messages for digest windows and report
// lookups.
type History interface {
	MessagesBetween(channelID int64, start, end time.Time) []Message
	Lookup(channelID, messageID int64) (Message, bool)
}

// Mentioner renders a user reference for outbound text.
type Mentioner interface {
	Mention(userID int64) string
}

// NewsFetcher pulls headlines for the morning digest. An empty result is a
// valid answer, the digest then posts its fallback line.
type NewsFetcher interface {
	Fetch(ctx context.Context) ([]news.Article, error)
}

// Service owns the job bodies and their shared dependencies.
type Service struct {
	cfg     *config.Config
	store   *state.Store
	clock   clock.Clock
	logger  *logger.Logger
	metrics *metrics.Metrics
	sink    Dispatcher
	history History
	mention Mentioner
	news    NewsFetcher
	pick    func(n int) int
}

func New(
	cfg *config.Config,
	store *state.Store,
	clk clock.Clock,
	log *logger.Logger,
	m *metrics.Metrics,
	sink Dispatcher,
	history History,
	mention Mentioner,
	fetcher NewsFetcher,
) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		clock:   clk,
		logger:  log,
		metrics: m,
		sink:    sink,
		history: history,
		mention: mention,
		news:    fetcher,
		pick:    rand.Intn,
	}
}

// Jobs returns the full schedule. Anchors are wall-clock times in the bot's
// time zone; the reminder scan runs immediately and then every 15 minutes.
func (s *Service) Jobs() []scheduler.Job {
	return []scheduler.Job{
		{
			Name:   "self_intro_digest",
			Period: 96 * time.Hour,
			Anchor: &scheduler.Anchor{Hour: 15, Minute: 0},
			Run:    s.SelfIntroDigest,
		},
		{
			Name:   "ai_news",
			Period: 24 * time.Hour,
			Anchor: &scheduler.Anchor{Hour: 7, Minute: 0},
			Run:    s.AINewsDigest,
		},
		{
			Name:   "interaction_report",
			Period: 168 * time.Hour,
			Anchor: &scheduler.Anchor{Hour: 10, Minute: 0},
			Run:    s.InteractionReport,
		},
		{
			Name:   "exclusive_drop",
			Period: 24 * time.Hour,
			Anchor: &scheduler.Anchor{Hour: 21, Minute: 0},
			Run:    s.ExclusiveDrop,
		},
		{
			Name:   "achievement_report",
			Period: 168 * time.Hour,
			Anchor: &scheduler.Anchor{Hour: 20, Minute: 0},
			Run:    s.AchievementReport,
		},
		{
			Name:   "consultation_ping",
			Period: 120 * time.Hour,
			Anchor: &scheduler.Anchor{Hour: 12, Minute: 0},
			Run:    s.ConsultationPing,
		},
		{
			Name:   "event_reminder",
			Period: 15 * time.Minute,
			Run:    s.ReminderScan,
		},
	}
}
