package telegram

import (
	"fmt"
	"sync"
	"time"

	"github.com/dejikatsu/dejiryu/internal/jobs"
	"github.com/mymmrac/telego"
)

// defaultRecorderLimit bounds the per-channel message buffer. The digest
// windows span at most a week, so the cap only matters in very busy chats.
const defaultRecorderLimit = 4096

// Recorder keeps a bounded in-memory copy of the messages seen in the
// tracked channels, plus a display-name cache for mentions. The Bot API has
// no history lookup, so digests and reports can only quote what the process
// observed since it started.
type Recorder struct {
	mu        sync.RWMutex
	limit     int
	byChannel map[int64][]jobs.Message
	names     map[int64]string
}

// NewRecorder creates a recorder keeping at most limit messages per channel.
// A non-positive limit selects the default.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultRecorderLimit
	}

	return &Recorder{
		limit:     limit,
		byChannel: map[int64][]jobs.Message{},
		names:     map[int64]string{},
	}
}

// Record stores one observed message, evicting the oldest entry of its
// channel when the buffer is full.
func (r *Recorder) Record(msg jobs.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buffer := append(r.byChannel[msg.ChannelID], msg)
	if len(buffer) > r.limit {
		buffer = append(buffer[:0], buffer[len(buffer)-r.limit:]...)
	}
	r.byChannel[msg.ChannelID] = buffer
}

// RememberUser caches the best display handle for a user: the @username when
// set, otherwise the first name.
func (r *Recorder) RememberUser(user *telego.User) {
	if user == nil {
		return
	}

	handle := user.FirstName
	if user.Username != "" {
		handle = "@" + user.Username
	}
	if handle == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[user.ID] = handle
}

// MessagesBetween returns the recorded messages of a channel inside the
// half-open window (start, end), in arrival order.
func (r *Recorder) MessagesBetween(channelID int64, start, end time.Time) []jobs.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []jobs.Message
	for _, msg := range r.byChannel[channelID] {
		if msg.SentAt.After(start) && msg.SentAt.Before(end) {
			out = append(out, msg)
		}
	}

	return out
}

// Lookup finds one recorded message by id.
func (r *Recorder) Lookup(channelID, messageID int64) (jobs.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, msg := range r.byChannel[channelID] {
		if msg.ID == messageID {
			return msg, true
		}
	}

	return jobs.Message{}, false
}

// Mention renders a user reference from the name cache, falling back to the
// raw id for users the process never saw.
func (r *Recorder) Mention(userID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if handle, ok := r.names[userID]; ok {
		return handle
	}

	return fmt.Sprintf("ID:%d", userID)
}
