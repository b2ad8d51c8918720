package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/storage"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// fakeDialer fails for every channel name listed in failing and records the
// order of attempts.
type fakeDialer struct {
	failing  map[string]bool
	attempts []string
}

func (d *fakeDialer) DialAndSend(ch EmailChannel, m *gomail.Message) error {
	d.attempts = append(d.attempts, ch.Name)
	if d.failing[ch.Name] {
		return errors.New("connection refused")
	}
	return nil
}

type fakeQueueRepo struct {
	entries   []model.EmailQueueEntry
	createErr error
}

func (r *fakeQueueRepo) Create(ctx context.Context, e *model.EmailQueueEntry) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeQueueRepo) ListPending(ctx context.Context) ([]model.EmailQueueEntry, error) {
	return r.entries, nil
}

func (r *fakeQueueRepo) MarkResolved(ctx context.Context, id string) error { return nil }

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, filename string, data []byte) error {
	s.objects[filename] = data
	return nil
}

func (s *fakeStore) Get(ctx context.Context, filename string) ([]byte, error) {
	data, ok := s.objects[filename]
	if !ok {
		return nil, storage.ErrArtifactNotFound
	}
	return data, nil
}

func (s *fakeStore) Delete(ctx context.Context, filename string) error {
	delete(s.objects, filename)
	return nil
}

func (s *fakeStore) Count(ctx context.Context) (int, error) { return len(s.objects), nil }

func testChannels() []EmailChannel {
	return []EmailChannel{
		{Name: "smtp1", Host: "mail1.example.com", Port: 587, From: "noreply@example.com"},
		{Name: "smtp2", Host: "mail2.example.com", Port: 587, From: "noreply@example.com"},
		{Name: "smtp3", Host: "mail3.example.com", Port: 465, From: "noreply@example.com"},
	}
}

func newTestDelivery(dialer channelDialer, queue *fakeQueueRepo, store *fakeStore) *deliveryService {
	return &deliveryService{
		channels:  testChannels(),
		dialer:    dialer,
		queueRepo: queue,
		store:     store,
		logger:    zerolog.Nop(),
	}
}

func testOutfit() *model.OutfitRequest {
	return &model.OutfitRequest{
		ID:         "req-1",
		Atmosphere: "champetre",
		SuitType:   "Costume 2 pièces",
	}
}

func TestSendArtifactNoRecipient(t *testing.T) {
	dialer := &fakeDialer{}
	svc := newTestDelivery(dialer, &fakeQueueRepo{}, newFakeStore())

	status, msg := svc.SendArtifact(context.Background(), "", testOutfit(), []byte("png"))
	if status != DeliveryNotRequested {
		t.Fatalf("expected status %q, got %q", DeliveryNotRequested, status)
	}
	if msg != "" {
		t.Fatalf("expected empty message, got %q", msg)
	}
	if len(dialer.attempts) != 0 {
		t.Fatalf("expected no delivery attempts, got %v", dialer.attempts)
	}
}

func TestSendArtifactFallsBackToThirdChannel(t *testing.T) {
	dialer := &fakeDialer{failing: map[string]bool{"smtp1": true, "smtp2": true}}
	queue := &fakeQueueRepo{}
	svc := newTestDelivery(dialer, queue, newFakeStore())

	status, _ := svc.SendArtifact(context.Background(), "client@example.com", testOutfit(), []byte("png"))
	if status != DeliverySent {
		t.Fatalf("expected status %q, got %q", DeliverySent, status)
	}
	want := []string{"smtp1", "smtp2", "smtp3"}
	if len(dialer.attempts) != len(want) {
		t.Fatalf("expected attempts %v, got %v", want, dialer.attempts)
	}
	for i, name := range want {
		if dialer.attempts[i] != name {
			t.Fatalf("expected attempts %v, got %v", want, dialer.attempts)
		}
	}
	if len(queue.entries) != 0 {
		t.Fatalf("expected empty queue after successful delivery, got %d entries", len(queue.entries))
	}
}

func TestSendArtifactQueuesOnExhaustion(t *testing.T) {
	dialer := &fakeDialer{failing: map[string]bool{"smtp1": true, "smtp2": true, "smtp3": true}}
	queue := &fakeQueueRepo{}
	svc := newTestDelivery(dialer, queue, newFakeStore())

	status, msg := svc.SendArtifact(context.Background(), "client@example.com", testOutfit(), []byte("png"))
	if status != DeliveryQueued {
		t.Fatalf("expected status %q, got %q", DeliveryQueued, status)
	}
	if msg == "" {
		t.Fatal("expected a queue notice message")
	}
	if len(queue.entries) != 1 {
		t.Fatalf("expected exactly one queue entry, got %d", len(queue.entries))
	}
	entry := queue.entries[0]
	if entry.Email != "client@example.com" {
		t.Fatalf("unexpected queued email: %q", entry.Email)
	}
	if entry.RequestID != "req-1" {
		t.Fatalf("unexpected queued request ID: %q", entry.RequestID)
	}
	if entry.Status != model.EmailQueueStatusPending {
		t.Fatalf("expected pending status, got %q", entry.Status)
	}
	if string(entry.ImageData) != "png" {
		t.Fatal("expected image bytes to be preserved in the queue entry")
	}
}

func TestSendArtifactFailsWhenQueueWriteFails(t *testing.T) {
	dialer := &fakeDialer{failing: map[string]bool{"smtp1": true, "smtp2": true, "smtp3": true}}
	queue := &fakeQueueRepo{createErr: errors.New("db down")}
	svc := newTestDelivery(dialer, queue, newFakeStore())

	status, msg := svc.SendArtifact(context.Background(), "client@example.com", testOutfit(), []byte("png"))
	if status != DeliveryFailed {
		t.Fatalf("expected status %q, got %q", DeliveryFailed, status)
	}
	if msg == "" {
		t.Fatal("expected a failure message")
	}
}

func TestSendMultipleSkipsMissingArtifacts(t *testing.T) {
	dialer := &fakeDialer{}
	store := newFakeStore()
	store.objects[model.ArtifactFilename("a")] = []byte("img-a")
	store.objects[model.ArtifactFilename("c")] = []byte("img-c")
	svc := newTestDelivery(dialer, &fakeQueueRepo{}, store)

	sent, err := svc.SendMultiple(context.Background(), "client@example.com", "Vos images", "Bonjour", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("SendMultiple returned error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 attachments sent, got %d", sent)
	}
	// Batch sends use the primary channel only.
	if len(dialer.attempts) != 1 || dialer.attempts[0] != "smtp1" {
		t.Fatalf("expected a single attempt on smtp1, got %v", dialer.attempts)
	}
}

func TestSendMultipleAllMissing(t *testing.T) {
	svc := newTestDelivery(&fakeDialer{}, &fakeQueueRepo{}, newFakeStore())

	if _, err := svc.SendMultiple(context.Background(), "client@example.com", "", "", []string{"a"}); err == nil {
		t.Fatal("expected error when no artifact can be resolved")
	}
}

func TestSendMultiplePrimaryFailureIsAnError(t *testing.T) {
	dialer := &fakeDialer{failing: map[string]bool{"smtp1": true}}
	store := newFakeStore()
	store.objects[model.ArtifactFilename("a")] = []byte("img-a")
	svc := newTestDelivery(dialer, &fakeQueueRepo{}, store)

	if _, err := svc.SendMultiple(context.Background(), "client@example.com", "", "", []string{"a"}); err == nil {
		t.Fatal("expected error when the primary channel fails")
	}
	if len(dialer.attempts) != 1 {
		t.Fatalf("expected no fallback for batch sends, got attempts %v", dialer.attempts)
	}
}

func TestGomailDialerTimeout(t *testing.T) {
	d := &gomailDialer{timeout: 50 * time.Millisecond}
	ch := EmailChannel{Name: "smtp1", Host: "10.255.255.1", Port: 587}
	m := gomail.NewMessage()
	m.SetHeader("From", "a@example.com")
	m.SetHeader("To", "b@example.com")
	m.SetBody("text/plain", "x")

	start := time.Now()
	if err := d.DialAndSend(ch, m); err == nil {
		t.Fatal("expected error from unreachable host")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("dial was not bounded by the timeout, took %s", elapsed)
	}
}
