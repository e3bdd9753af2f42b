package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dejikatsu/dejiryu/internal/clock"
	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/metrics"
	"github.com/dejikatsu/dejiryu/internal/news"
	"github.com/dejikatsu/dejiryu/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testSelfIntroChannel    = int64(-1001000000001)
	testAINewsChannel       = int64(-1001000000002)
	testInteractionChannel  = int64(-1001000000003)
	testExclusiveChannel    = int64(-1001000000004)
	testAchievementsChannel = int64(-1001000000005)
	testConsultationChannel = int64(-1001000000006)
	testEventsChannel       = int64(-1001000000007)
)

type sentMessage struct {
	channelID int64
	text      string
}

type fakeSink struct {
	mu       sync.Mutex
	sent     []sentMessage
	failWith error
}

func (f *fakeSink) Send(ctx context.Context, channelID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, text: text})

	return nil
}

func (f *fakeSink) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]sentMessage(nil), f.sent...)
}

type fakeHistory struct {
	entries []Message
}

func (f *fakeHistory) MessagesBetween(channelID int64, start, end time.Time) []Message {
	var out []Message
	for _, msg := range f.entries {
		if msg.ChannelID == channelID && msg.SentAt.After(start) && msg.SentAt.Before(end) {
			out = append(out, msg)
		}
	}

	return out
}

func (f *fakeHistory) Lookup(channelID, messageID int64) (Message, bool) {
	for _, msg := range f.entries {
		if msg.ChannelID == channelID && msg.ID == messageID {
			return msg, true
		}
	}

	return Message{}, false
}

type fakeMentions struct {
	names map[int64]string
}

func (f *fakeMentions) Mention(userID int64) string {
	if name, ok := f.names[userID]; ok {
		return name
	}

	return fmt.Sprintf("ID:%d", userID)
}

type fakeNews struct {
	articles []news.Article
	err      error
}

func (f *fakeNews) Fetch(ctx context.Context) ([]news.Article, error) {
	return f.articles, f.err
}

// fixture wires a Service against in-memory doubles and a movable clock.
type fixture struct {
	service   *Service
	cfg       *config.Config
	store     *state.Store
	statePath string
	sink      *fakeSink
	history   *fakeHistory
	mentions  *fakeMentions
	news      *fakeNews
	loc       *time.Location
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixtureWithState(t, filepath.Join(t.TempDir(), "state.json"))
}

// newFixtureWithState reuses an existing state file, simulating a restart.
func newFixtureWithState(t *testing.T, statePath string) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	store, err := state.NewStore(statePath, log)
	require.NoError(t, err)

	f := &fixture{
		store:     store,
		statePath: statePath,
		sink:      &fakeSink{},
		history:   &fakeHistory{},
		mentions:  &fakeMentions{names: map[int64]string{}},
		news:      &fakeNews{},
		loc:       loc,
		now:       time.Date(2025, time.March, 10, 12, 0, 0, 0, loc),
	}

	f.cfg = &config.Config{
		Channels: config.ChannelsConfig{
			SelfIntro:    testSelfIntroChannel,
			AINews:       testAINewsChannel,
			Interaction:  testInteractionChannel,
			Exclusive:    testExclusiveChannel,
			Achievements: testAchievementsChannel,
			Consultation: testConsultationChannel,
			Events:       testEventsChannel,
		},
		Rotation: config.RotationConfig{
			PeriodDays: 7,
			Items: []config.RotationItem{
				{Title: "限定ワークシート", Description: "今週のワークだぞ", URL: "https://example.com/sheet"},
				{Title: "限定ラジオ", Description: "音声コンテンツだ"},
				{Title: "限定テンプレ", Description: "使い倒してくれ", URL: "https://example.com/tpl"},
			},
		},
		Consultation: config.ConsultationConfig{
			Mention: "@ai_mentors",
			Variations: []string{
				"質問はないか？デジリューの診察時間だぞ。遠慮なく呼んでくれよな！",
				"困ったらデジリューがいる。相談室でみんなの知恵を借りていこうぜ！",
			},
		},
	}

	clk := clock.Func(func() time.Time { return f.now })
	f.service = New(f.cfg, store, clk, log, metrics.New("test", prometheus.NewRegistry()),
		f.sink, f.history, f.mentions, f.news)
	f.service.pick = func(n int) int { return 0 }

	return f
}

// at moves the fixture clock.
func (f *fixture) at(year int, month time.Month, day, hour, minute int) {
	f.now = time.Date(year, month, day, hour, minute, 0, 0, f.loc)
}
