package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/asheshgoplani/conf-deck/internal/schedule"
)

// ReminderPayload is the JSON body delivered to the push endpoint.
type ReminderPayload struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	SessionID string    `json:"session_id"`
	StartsAt  time.Time `json:"starts_at"`
}

// Reminder picks bookmarked sessions that start within the lead window and
// delivers one push per session per run of the program.
type Reminder struct {
	store      *SubscriptionStore
	lead       time.Duration
	subject    string
	publicKey  string
	privateKey string

	mu   sync.Mutex
	sent map[string]struct{}
}

// NewReminder creates a reminder sender. Keys come from EnsureVAPIDKeys.
func NewReminder(store *SubscriptionStore, lead time.Duration, subject, publicKey, privateKey string) *Reminder {
	return &Reminder{
		store:      store,
		lead:       lead,
		subject:    subject,
		publicKey:  publicKey,
		privateKey: privateKey,
		sent:       make(map[string]struct{}),
	}
}

// Due returns the bookmarked sessions whose start falls inside (now,
// now+lead] and that have not been reminded yet. Pure selection: nothing
// is marked as sent until Send succeeds for at least one subscriber.
func (r *Reminder) Due(now time.Time, sessions []schedule.Session, bookmarks []string) []schedule.Session {
	marked := make(map[string]struct{}, len(bookmarks))
	for _, id := range bookmarks {
		marked[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var due []schedule.Session
	deadline := now.Add(r.lead)
	for _, s := range sessions {
		if _, ok := marked[s.ID]; !ok {
			continue
		}
		if _, done := r.sent[s.ID]; done {
			continue
		}
		if s.SlotStart.After(now) && !s.SlotStart.After(deadline) {
			due = append(due, s)
		}
	}
	return due
}

// Send pushes a reminder for the session to every subscriber and marks it
// sent once any delivery succeeds. Delivery failures are logged, never
// fatal.
func (r *Reminder) Send(s schedule.Session) {
	subs := r.store.List()
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(ReminderPayload{
		Title:     "Starting soon",
		Body:      fmt.Sprintf("%s at %s", s.Title, s.SlotStart.Format("15:04")),
		SessionID: s.ID,
		StartsAt:  s.SlotStart,
	})
	if err != nil {
		return
	}

	delivered := 0
	for _, sub := range subs {
		resp, err := webpush.SendNotification(payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.Keys.P256DH,
				Auth:   sub.Keys.Auth,
			},
		}, &webpush.Options{
			Subscriber:      r.subject,
			VAPIDPublicKey:  r.publicKey,
			VAPIDPrivateKey: r.privateKey,
			TTL:             pushTTLSeconds,
		})
		if err != nil {
			notifyLog.Warn("push_failed",
				slog.String("session", s.ID),
				slog.String("error", err.Error()))
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == 404 || resp.StatusCode == 410 {
			// Endpoint gone: drop the subscription
			_ = r.store.Remove(sub.Endpoint)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		r.mu.Lock()
		r.sent[s.ID] = struct{}{}
		r.mu.Unlock()
		notifyLog.Info("reminder_sent",
			slog.String("session", s.ID),
			slog.Int("subscribers", delivered))
	}
}

// MarkSent records a session as reminded without sending, used when the
// reminder fired through another channel.
func (r *Reminder) MarkSent(id string) {
	r.mu.Lock()
	r.sent[id] = struct{}{}
	r.mu.Unlock()
}
