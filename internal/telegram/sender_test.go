package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/retry"
	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T) *Sender {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	sender := NewSender(log)
	sender.retryCfg = retry.Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}

	return sender
}

func TestSender_SendDeliversText(t *testing.T) {
	sender := newTestSender(t)

	mockBot := new(MockBot)
	mockBot.On("SendMessage", mock.Anything, mock.MatchedBy(func(params *telego.SendMessageParams) bool {
		return params.ChatID.ID == int64(-1001) && params.Text == "おはデジー！"
	})).Return(&telego.Message{MessageID: 1}, nil)
	sender.SetBot(mockBot)

	require.NoError(t, sender.Send(context.Background(), -1001, "おはデジー！"))
	mockBot.AssertExpectations(t)
}

func TestSender_SendRetriesTransientFailure(t *testing.T) {
	sender := newTestSender(t)

	mockBot := new(MockBot)
	mockBot.On("SendMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("telegram: status 502")).Once()
	mockBot.On("SendMessage", mock.Anything, mock.Anything).
		Return(&telego.Message{MessageID: 1}, nil).Once()
	sender.SetBot(mockBot)

	require.NoError(t, sender.Send(context.Background(), -1001, "再送だぞ"))
	mockBot.AssertNumberOfCalls(t, "SendMessage", 2)
}

func TestSender_SendDoesNotRetryClientError(t *testing.T) {
	sender := newTestSender(t)

	mockBot := new(MockBot)
	mockBot.On("SendMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("telegram: status 400, chat not found"))
	sender.SetBot(mockBot)

	err := sender.Send(context.Background(), -1001, "どこへ？")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	mockBot.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestSender_SendWithoutBotFails(t *testing.T) {
	sender := newTestSender(t)

	err := sender.Send(context.Background(), -1001, "まだ早い")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
