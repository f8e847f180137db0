package sync

import (
	"context"
	"encoding/json"
	stdsync "sync"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/service"
)

// MessageStream is the ordered in-memory view of one group's messages.
// Rows are kept sorted by (created at, id) ascending and deduplicated
// by id, so applying the same message twice, or out of order, always
// converges to the same stream.
type MessageStream struct {
	groupID uint
	log     *observability.SyncLogger

	mu       stdsync.Mutex
	messages []models.Message
	seen     map[uint]struct{}
}

// NewMessageStream returns an empty stream for a group.
func NewMessageStream(groupID uint) *MessageStream {
	return &MessageStream{
		groupID: groupID,
		log:     observability.NewSyncLogger("message_stream"),
		seen:    make(map[uint]struct{}),
	}
}

// GroupID reports which group this stream belongs to.
func (s *MessageStream) GroupID() uint {
	return s.groupID
}

// Replace swaps in a full history snapshot, discarding the current
// view. The snapshot is re-sorted locally, so callers need not trust
// the input order.
func (s *MessageStream) Replace(ctx context.Context, rows []models.Message) {
	sorted := make([]models.Message, 0, len(rows))
	seen := make(map[uint]struct{}, len(rows))
	for _, m := range rows {
		if m.GroupID != s.groupID {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		sorted = insertOrdered(sorted, m)
	}

	s.mu.Lock()
	s.messages = sorted
	s.seen = seen
	s.mu.Unlock()

	s.log.LogRefresh(ctx, len(sorted))
}

// Apply inserts one message at its ordered position. Messages for other
// groups and already-seen ids are ignored.
func (s *MessageStream) Apply(ctx context.Context, m models.Message) {
	if m.GroupID != s.groupID {
		return
	}

	s.mu.Lock()
	_, dup := s.seen[m.ID]
	if !dup {
		s.seen[m.ID] = struct{}{}
		s.messages = insertOrdered(s.messages, m)
	}
	s.mu.Unlock()

	outcome := "applied"
	if dup {
		outcome = "noop"
	}
	observability.ReconcilerApplies.WithLabelValues("message_stream", outcome).Inc()
	s.log.LogApply(ctx, string(realtime.OpInsert), m.ID, outcome)
}

// Messages returns a copy of the stream in order.
func (s *MessageStream) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of messages in the view.
func (s *MessageStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// insertOrdered places m at its sorted position. Appending is the
// common case since messages usually arrive in order.
func insertOrdered(messages []models.Message, m models.Message) []models.Message {
	if n := len(messages); n == 0 || messages[n-1].Before(&m) {
		return append(messages, m)
	}

	lo, hi := 0, len(messages)
	for lo < hi {
		mid := (lo + hi) / 2
		if messages[mid].Before(&m) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	messages = append(messages, models.Message{})
	copy(messages[lo+1:], messages[lo:])
	messages[lo] = m
	return messages
}

// Streams manages one MessageStream per open group, each backed by a
// router subscription on the group's message topic. At most one
// subscription exists per group no matter how often Open is called.
type Streams struct {
	userID  uint
	service *service.MessageService
	router  *Router

	mu   stdsync.Mutex
	open map[uint]*openStream
}

type openStream struct {
	stream *MessageStream
	cancel func()
}

// NewStreams returns a stream manager for the given user.
func NewStreams(userID uint, svc *service.MessageService, router *Router) *Streams {
	return &Streams{
		userID:  userID,
		service: svc,
		router:  router,
		open:    make(map[uint]*openStream),
	}
}

// Open fetches a group's history and subscribes to its message topic.
// Reopening an already open group returns the existing stream.
func (s *Streams) Open(ctx context.Context, groupID uint) (*MessageStream, error) {
	s.mu.Lock()
	if existing, ok := s.open[groupID]; ok {
		s.mu.Unlock()
		return existing.stream, nil
	}
	s.mu.Unlock()

	stream := NewMessageStream(groupID)

	refresh := func(ctx context.Context) error {
		history, err := s.service.History(ctx, s.userID, groupID)
		if err != nil {
			return err
		}
		stream.Replace(ctx, history)
		return nil
	}

	apply := func(ctx context.Context, ev realtime.Event) {
		if ev.Op != realtime.OpInsert {
			return
		}
		var m models.Message
		if err := json.Unmarshal(ev.Row, &m); err != nil {
			observability.Logger.Warn("dropping malformed message event",
				"group_id", groupID, "error", err)
			return
		}
		stream.Apply(ctx, m)
	}

	// Subscribe before the initial fetch so nothing published in
	// between is lost; duplicates are absorbed by the id set.
	cancel, err := s.router.Subscribe(ctx, "message_stream", realtime.GroupMessagesTopic(groupID), apply, refresh)
	if err != nil {
		return nil, err
	}

	if err := refresh(ctx); err != nil {
		cancel()
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.open[groupID]; ok {
		// Lost a concurrent open race; keep the winner.
		s.mu.Unlock()
		cancel()
		return existing.stream, nil
	}
	s.open[groupID] = &openStream{stream: stream, cancel: cancel}
	s.mu.Unlock()

	return stream, nil
}

// Close drops a group's stream and its subscription. Closing a group
// that is not open is a no-op.
func (s *Streams) Close(groupID uint) {
	s.mu.Lock()
	entry, ok := s.open[groupID]
	delete(s.open, groupID)
	s.mu.Unlock()

	if ok {
		entry.cancel()
	}
}

// CloseAll drops every open stream.
func (s *Streams) CloseAll() {
	s.mu.Lock()
	entries := make([]*openStream, 0, len(s.open))
	for _, e := range s.open {
		entries = append(entries, e)
	}
	s.open = make(map[uint]*openStream)
	s.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}
}

// Send persists a message through the service and applies the stored
// row to the open stream directly, so the sender sees their own message
// even if the pushed copy never arrives. The group need not be open.
func (s *Streams) Send(ctx context.Context, groupID uint, content, attachmentURL string) (*models.Message, error) {
	msg, err := s.service.Send(ctx, s.userID, groupID, content, attachmentURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entry, ok := s.open[groupID]
	s.mu.Unlock()
	if ok {
		entry.stream.Apply(ctx, *msg)
	}
	return msg, nil
}

// Stream returns the open stream for a group, if any.
func (s *Streams) Stream(groupID uint) (*MessageStream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.open[groupID]
	if !ok {
		return nil, false
	}
	return entry.stream, true
}
