package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveDrop_CyclesThroughItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Four drops eight days apart walk the three items and wrap around.
	days := []int{1, 9, 17, 25}
	for _, day := range days {
		f.at(2025, time.March, day, 21, 0)
		require.NoError(t, f.service.ExclusiveDrop(ctx))
	}

	sent := f.sink.messages()
	require.Len(t, sent, 4)
	assert.Contains(t, sent[0].text, "【限定ワークシート】")
	assert.Contains(t, sent[1].text, "【限定ラジオ】")
	assert.Contains(t, sent[2].text, "【限定テンプレ】")
	assert.Contains(t, sent[3].text, "【限定ワークシート】")

	for _, msg := range sent {
		assert.Equal(t, testExclusiveChannel, msg.channelID)
		assert.Contains(t, msg.text, "デジリューの極秘コンテンツ搬入だぞ🔥")
		assert.Contains(t, msg.text, "感想や活用例をスレッドで自慢してくれよな！")
	}

	assert.Contains(t, sent[0].text, "アクセスはこちら👉 https://example.com/sheet")
	assert.NotContains(t, sent[1].text, "アクセスはこちら", "items without a url get no link line")
}

func TestExclusiveDrop_FirstDropAlwaysProceeds(t *testing.T) {
	f := newFixture(t)
	f.at(2025, time.March, 1, 21, 0)

	require.NoError(t, f.service.ExclusiveDrop(context.Background()))

	require.Len(t, f.sink.messages(), 1)
	assert.Equal(t, 1, f.store.RotationIndex())

	last := f.store.LastExclusiveDrop()
	require.NotNil(t, last)
	assert.True(t, last.Equal(f.now))
}

func TestExclusiveDrop_CooldownGateSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.at(2025, time.March, 1, 21, 0)
	require.NoError(t, f.service.ExclusiveDrop(ctx))
	firstDrop := f.now

	// The daily tick lands again before the seven-day period has passed.
	f.at(2025, time.March, 5, 21, 0)
	require.NoError(t, f.service.ExclusiveDrop(ctx))

	require.Len(t, f.sink.messages(), 1)
	assert.Equal(t, 1, f.store.RotationIndex())
	assert.True(t, f.store.LastExclusiveDrop().Equal(firstDrop))
}

func TestExclusiveDrop_SkipsSilentlyWhenUnconfigured(t *testing.T) {
	t.Run("no channel", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.Channels.Exclusive = 0

		require.NoError(t, f.service.ExclusiveDrop(context.Background()))
		assert.Empty(t, f.sink.messages())
	})

	t.Run("no items", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.Rotation.Items = nil

		require.NoError(t, f.service.ExclusiveDrop(context.Background()))
		assert.Empty(t, f.sink.messages())
	})
}

func TestExclusiveDrop_SendFailureLeavesCursor(t *testing.T) {
	f := newFixture(t)
	f.at(2025, time.March, 1, 21, 0)
	f.sink.failWith = errors.New("telegram unavailable")

	require.Error(t, f.service.ExclusiveDrop(context.Background()))
	assert.Zero(t, f.store.RotationIndex())
	assert.Nil(t, f.store.LastExclusiveDrop())
}

func TestExclusiveDrop_SurvivesCursorBeyondItemCount(t *testing.T) {
	f := newFixture(t)
	f.at(2025, time.March, 1, 21, 0)

	// A shrunk item list must not panic on an old larger cursor.
	require.NoError(t, f.store.AdvanceRotation(7, f.now.Add(-30*24*time.Hour)))
	f.cfg.Rotation.Items = []config.RotationItem{
		{Title: "限定ワークシート", Description: "今週のワークだぞ"},
		{Title: "限定ラジオ", Description: "音声コンテンツだ"},
	}

	require.NoError(t, f.service.ExclusiveDrop(context.Background()))

	sent := f.sink.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].text, "【限定ラジオ】", "cursor 7 mod 2 picks the second item")
	assert.Equal(t, 2, f.store.RotationIndex())
}
