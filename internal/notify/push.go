// Package notify sends web push reminders shortly before bookmarked
// sessions start.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/asheshgoplani/conf-deck/internal/logging"
)

var notifyLog = logging.ForComponent(logging.CompNotify)

const (
	subscriptionsFileName = "push_subscriptions.json"
	vapidKeysFileName     = "push_vapid_keys.json"
	pushTTLSeconds        = 300
)

// Subscription is one browser push endpoint registered for reminders.
type Subscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

// SubscriptionKeys carries the client's encryption material.
type SubscriptionKeys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}

func (s Subscription) normalize() Subscription {
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	s.Keys.P256DH = strings.TrimSpace(s.Keys.P256DH)
	s.Keys.Auth = strings.TrimSpace(s.Keys.Auth)
	return s
}

func (s Subscription) validate() error {
	sub := s.normalize()
	if sub.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if sub.Keys.P256DH == "" {
		return fmt.Errorf("keys.p256dh is required")
	}
	if sub.Keys.Auth == "" {
		return fmt.Errorf("keys.auth is required")
	}
	return nil
}

type subscriptionFile struct {
	UpdatedAt     time.Time      `json:"updatedAt"`
	Subscriptions []Subscription `json:"subscriptions"`
}

// SubscriptionStore persists push subscriptions as a JSON file in the
// conf-deck directory.
type SubscriptionStore struct {
	path string
	mu   sync.Mutex
}

// NewSubscriptionStore creates a store rooted at dir.
func NewSubscriptionStore(dir string) *SubscriptionStore {
	return &SubscriptionStore{path: filepath.Join(dir, subscriptionsFileName)}
}

// List returns all registered subscriptions. A missing or unreadable file
// yields an empty list.
func (s *SubscriptionStore) List() []Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.readLocked()
	out := make([]Subscription, len(data.Subscriptions))
	copy(out, data.Subscriptions)
	return out
}

// Upsert adds or replaces a subscription by endpoint.
func (s *SubscriptionStore) Upsert(sub Subscription) error {
	sub = sub.normalize()
	if err := sub.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.readLocked()
	replaced := false
	for i := range data.Subscriptions {
		if data.Subscriptions[i].Endpoint == sub.Endpoint {
			data.Subscriptions[i] = sub
			replaced = true
			break
		}
	}
	if !replaced {
		data.Subscriptions = append(data.Subscriptions, sub)
	}
	return s.writeLocked(data)
}

// Remove deletes the subscription with the given endpoint, if present.
func (s *SubscriptionStore) Remove(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.readLocked()
	kept := data.Subscriptions[:0]
	for _, sub := range data.Subscriptions {
		if sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	data.Subscriptions = kept
	return s.writeLocked(data)
}

func (s *SubscriptionStore) readLocked() *subscriptionFile {
	data := &subscriptionFile{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return data
	}
	if err := json.Unmarshal(raw, data); err != nil {
		notifyLog.Warn("subscriptions_unreadable", slog.String("error", err.Error()))
		return &subscriptionFile{}
	}
	return data
}

func (s *SubscriptionStore) writeLocked(data *subscriptionFile) error {
	data.UpdatedAt = time.Now().UTC()
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create notify dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("write subscriptions: %w", err)
	}
	return os.Rename(tmp, s.path)
}

type vapidKeysFile struct {
	PublicKey  string    `json:"publicKey"`
	PrivateKey string    `json:"privateKey"`
	Subject    string    `json:"subject,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EnsureVAPIDKeys returns the persisted VAPID keypair from dir, generating
// and storing one on first use.
func EnsureVAPIDKeys(dir, subject string) (publicKey, privateKey string, err error) {
	path := filepath.Join(dir, vapidKeysFileName)
	subject = strings.TrimSpace(subject)

	raw, err := os.ReadFile(path)
	if err == nil {
		var file vapidKeysFile
		if err := json.Unmarshal(raw, &file); err == nil && file.PublicKey != "" {
			return file.PublicKey, file.PrivateKey, nil
		}
		// Corrupt key file: regenerate below
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("read vapid keys: %w", err)
	}

	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate vapid keypair: %w", err)
	}

	file := vapidKeysFile{
		PublicKey:  strings.TrimSpace(publicKey),
		PrivateKey: strings.TrimSpace(privateKey),
		Subject:    subject,
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode vapid keys: %w", err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", "", fmt.Errorf("create notify dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", "", fmt.Errorf("write vapid keys: %w", err)
	}

	return file.PublicKey, file.PrivateKey, nil
}
