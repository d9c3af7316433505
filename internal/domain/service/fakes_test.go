package service_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
)

func newTestLogger() *types.Logger {
	return &types.Logger{SugaredLogger: zap.NewNop().Sugar(), Name: "test"}
}

// fakeEventStorage is an in-memory stand-in for the postgres event storage. It
// mimics the same filters the SQL queries apply.
type fakeEventStorage struct {
	events       map[string]*entity.Event
	participants map[string][]int64
	seq          int
}

func newFakeEventStorage() *fakeEventStorage {
	return &fakeEventStorage{
		events:       make(map[string]*entity.Event),
		participants: make(map[string][]int64),
	}
}

// put stores an event as-is, without the force-complete side effect.
func (s *fakeEventStorage) put(event entity.Event) *entity.Event {
	if event.ID == "" {
		s.seq++
		event.ID = fmt.Sprintf("event-%d", s.seq)
	}
	s.events[event.ID] = &event
	return &event
}

func (s *fakeEventStorage) CreateExclusive(_ context.Context, event *entity.Event, now time.Time) (*entity.Event, error) {
	for _, existing := range s.events {
		if existing.CompletedAt == nil {
			completedAt := now
			existing.CompletedAt = &completedAt
		}
	}
	s.seq++
	event.ID = fmt.Sprintf("event-%d", s.seq)
	event.CreatedAt = now
	stored := *event
	s.events[event.ID] = &stored
	return event, nil
}

func (s *fakeEventStorage) Get(_ context.Context, id string) (*entity.Event, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, errorz.NotFound
	}
	return s.withParticipants(event), nil
}

func (s *fakeEventStorage) Save(_ context.Context, event *entity.Event) (*entity.Event, error) {
	stored := *event
	s.events[event.ID] = &stored
	return event, nil
}

func (s *fakeEventStorage) MarkReminderSent(_ context.Context, eventID string) error {
	event, ok := s.events[eventID]
	if !ok {
		return errorz.NotFound
	}
	event.ReminderSent = true
	return nil
}

func (s *fakeEventStorage) MarkStartSent(_ context.Context, eventID string) error {
	event, ok := s.events[eventID]
	if !ok {
		return errorz.NotFound
	}
	event.StartSent = true
	return nil
}

func (s *fakeEventStorage) AddParticipant(_ context.Context, eventID string, userID int64, _ time.Time) error {
	for _, id := range s.participants[eventID] {
		if id == userID {
			return errorz.AlreadyJoined
		}
	}
	s.participants[eventID] = append(s.participants[eventID], userID)
	return nil
}

func (s *fakeEventStorage) GetEventsStartingSoon(_ context.Context, windowStart, windowEnd time.Time) ([]entity.Event, error) {
	var events []entity.Event
	for _, event := range s.events {
		if event.ReminderSent || event.CompletedAt != nil {
			continue
		}
		if event.StartAt.Before(windowStart) || event.StartAt.After(windowEnd) {
			continue
		}
		events = append(events, *s.withParticipants(event))
	}
	sortByStart(events)
	return events, nil
}

func (s *fakeEventStorage) GetEventsStartingNow(_ context.Context, now time.Time) ([]entity.Event, error) {
	var events []entity.Event
	for _, event := range s.events {
		if event.StartSent || event.CompletedAt != nil || event.StartAt.After(now) {
			continue
		}
		events = append(events, *s.withParticipants(event))
	}
	sortByStart(events)
	return events, nil
}

func (s *fakeEventStorage) GetActiveEvents(_ context.Context, now time.Time) ([]entity.Event, error) {
	var events []entity.Event
	for _, event := range s.events {
		if !event.StartSent || event.CompletedAt != nil || event.StartAt.After(now) {
			continue
		}
		events = append(events, *s.withParticipants(event))
	}
	sortByStart(events)
	return events, nil
}

func (s *fakeEventStorage) GetActiveEventsByParticipant(ctx context.Context, userID int64, now time.Time) ([]entity.Event, error) {
	active, err := s.GetActiveEvents(ctx, now)
	if err != nil {
		return nil, err
	}
	var events []entity.Event
	for _, event := range active {
		if event.HasParticipant(userID) {
			events = append(events, event)
		}
	}
	return events, nil
}

func (s *fakeEventStorage) GetCurrentActiveEvent(_ context.Context) (*entity.Event, error) {
	var events []entity.Event
	for _, event := range s.events {
		if !event.StartSent || event.CompletedAt != nil {
			continue
		}
		events = append(events, *s.withParticipants(event))
	}
	if len(events) == 0 {
		return nil, errorz.NotFound
	}
	sortByStart(events)
	return &events[0], nil
}

func (s *fakeEventStorage) GetUncompletedEvents(_ context.Context) ([]entity.Event, error) {
	var events []entity.Event
	for _, event := range s.events {
		if event.CompletedAt != nil {
			continue
		}
		events = append(events, *s.withParticipants(event))
	}
	sortByStart(events)
	return events, nil
}

func (s *fakeEventStorage) withParticipants(event *entity.Event) *entity.Event {
	clone := *event
	clone.ParticipantIDs = append([]int64(nil), s.participants[event.ID]...)
	return &clone
}

func sortByStart(events []entity.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].StartAt.Before(events[j].StartAt) })
}

// fakePushUpStorage keeps rows in memory and filters by created_at the way the
// SQL range queries do.
type fakePushUpStorage struct {
	rows []entity.PushUp
	seq  int
	now  func() time.Time
}

func newFakePushUpStorage(now func() time.Time) *fakePushUpStorage {
	return &fakePushUpStorage{now: now}
}

func (s *fakePushUpStorage) Create(_ context.Context, pushUp *entity.PushUp) (*entity.PushUp, error) {
	s.seq++
	pushUp.ID = fmt.Sprintf("pushup-%d", s.seq)
	if pushUp.CreatedAt.IsZero() {
		pushUp.CreatedAt = s.now()
		pushUp.UpdatedAt = pushUp.CreatedAt
	}
	s.rows = append(s.rows, *pushUp)
	return pushUp, nil
}

func (s *fakePushUpStorage) GetByUserAndDateRange(_ context.Context, userID int64, begin, end time.Time) ([]entity.PushUp, error) {
	var rows []entity.PushUp
	for _, row := range s.rows {
		if row.UserID != userID || row.CreatedAt.Before(begin) || row.CreatedAt.After(end) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

func (s *fakePushUpStorage) GetByUsersAndDateRange(_ context.Context, userIDs []int64, begin, end time.Time) ([]entity.PushUp, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ids := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		ids[id] = true
	}
	var rows []entity.PushUp
	for _, row := range s.rows {
		if !ids[row.UserID] || row.CreatedAt.Before(begin) || row.CreatedAt.After(end) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

// fakeUserStorage is an in-memory user table.
type fakeUserStorage struct {
	users map[int64]*entity.User
}

func newFakeUserStorage(users ...entity.User) *fakeUserStorage {
	s := &fakeUserStorage{users: make(map[int64]*entity.User)}
	for _, user := range users {
		user := user
		s.users[user.ID] = &user
	}
	return s
}

func (s *fakeUserStorage) Create(_ context.Context, user *entity.User) (*entity.User, error) {
	stored := *user
	s.users[user.ID] = &stored
	return user, nil
}

func (s *fakeUserStorage) Get(_ context.Context, userID int64) (*entity.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, errorz.NotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeUserStorage) Update(_ context.Context, user *entity.User) (*entity.User, error) {
	stored := *user
	s.users[user.ID] = &stored
	return user, nil
}

func (s *fakeUserStorage) GetAll(_ context.Context) ([]entity.User, error) {
	var users []entity.User
	for _, user := range s.users {
		if user.Banned {
			continue
		}
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *fakeUserStorage) GetMany(_ context.Context, ids []int64) ([]entity.User, error) {
	var users []entity.User
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (s *fakeUserStorage) GetVerified(_ context.Context) ([]entity.User, error) {
	var users []entity.User
	for _, user := range s.users {
		if !user.Verified || user.Banned {
			continue
		}
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// fakeChatStorage is an in-memory chat table.
type fakeChatStorage struct {
	chats map[int64]*entity.Chat
}

func newFakeChatStorage(chats ...entity.Chat) *fakeChatStorage {
	s := &fakeChatStorage{chats: make(map[int64]*entity.Chat)}
	for _, chat := range chats {
		chat := chat
		s.chats[chat.ID] = &chat
	}
	return s
}

func (s *fakeChatStorage) Upsert(_ context.Context, chat *entity.Chat) (*entity.Chat, error) {
	stored := *chat
	s.chats[chat.ID] = &stored
	return chat, nil
}

func (s *fakeChatStorage) Get(_ context.Context, chatID int64) (*entity.Chat, error) {
	chat, ok := s.chats[chatID]
	if !ok {
		return nil, errorz.NotFound
	}
	clone := *chat
	return &clone, nil
}

func (s *fakeChatStorage) Update(_ context.Context, chat *entity.Chat) (*entity.Chat, error) {
	stored := *chat
	s.chats[chat.ID] = &stored
	return chat, nil
}

func (s *fakeChatStorage) GetActive(_ context.Context) ([]entity.Chat, error) {
	var chats []entity.Chat
	for _, chat := range s.chats {
		if !chat.Active {
			continue
		}
		chats = append(chats, *chat)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].ID < chats[j].ID })
	return chats, nil
}

// recordingNotifier captures every send and can be told to fail for specific
// recipients.
type recordingNotifier struct {
	sends []sentMessage
	fail  map[int64]error
}

type sentMessage struct {
	chatID int64
	what   interface{}
	opts   []interface{}
}

func (n *recordingNotifier) Send(chatID int64, what interface{}, opts ...interface{}) error {
	n.sends = append(n.sends, sentMessage{chatID: chatID, what: what, opts: opts})
	if err, ok := n.fail[chatID]; ok {
		return err
	}
	return nil
}

func (n *recordingNotifier) textsTo(chatID int64) []string {
	var texts []string
	for _, send := range n.sends {
		if send.chatID != chatID {
			continue
		}
		if text, ok := send.what.(string); ok {
			texts = append(texts, text)
		} else {
			texts = append(texts, fmt.Sprintf("%T", send.what))
		}
	}
	return texts
}

// fakeLayout renders every template as its key, so tests assert on keys.
type fakeLayout struct{}

func (fakeLayout) TextLocale(_, key string, _ ...interface{}) string { return key }

func (fakeLayout) MarkupLocale(_, _ string, _ ...interface{}) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{}
}
