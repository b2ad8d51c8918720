package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// DeliveryStatus is the outcome of one delivery attempt as reported to the
// client.
type DeliveryStatus string

const (
	// DeliveryNotRequested means no recipient was given; nothing was sent.
	DeliveryNotRequested DeliveryStatus = "not_requested"
	// DeliverySent means one of the channels accepted the message.
	DeliverySent DeliveryStatus = "sent"
	// DeliveryQueued means every channel failed and the message was stored
	// for manual processing.
	DeliveryQueued DeliveryStatus = "queued"
	// DeliveryFailed means every channel failed and the queue write failed
	// too; the request itself still succeeds.
	DeliveryFailed DeliveryStatus = "failed"
)

// Sent reports whether the artifact actually went out by email.
func (s DeliveryStatus) Sent() bool { return s == DeliverySent }

// EmailChannel is one SMTP configuration, tried in priority order.
type EmailChannel struct {
	Name     string
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailChannelsFromConfig assembles the ordered channel list, skipping
// unconfigured slots.
func EmailChannelsFromConfig(cfg *config.Config) []EmailChannel {
	candidates := []EmailChannel{
		{Name: "smtp1", Host: cfg.SMTP1Host, Port: cfg.SMTP1Port, Username: cfg.SMTP1Username, Password: cfg.SMTP1Password, From: cfg.SMTP1From},
		{Name: "smtp2", Host: cfg.SMTP2Host, Port: cfg.SMTP2Port, Username: cfg.SMTP2Username, Password: cfg.SMTP2Password, From: cfg.SMTP2From},
		{Name: "smtp3", Host: cfg.SMTP3Host, Port: cfg.SMTP3Port, Username: cfg.SMTP3Username, Password: cfg.SMTP3Password, From: cfg.SMTP3From},
	}
	var channels []EmailChannel
	for _, c := range candidates {
		if c.Host == "" {
			continue
		}
		if c.From == "" {
			c.From = c.Username
		}
		channels = append(channels, c)
	}
	return channels
}

// channelDialer sends one message through one channel. Abstracted so tests
// can simulate per-channel failures.
type channelDialer interface {
	DialAndSend(ch EmailChannel, m *gomail.Message) error
}

type gomailDialer struct {
	timeout time.Duration
}

func (d *gomailDialer) DialAndSend(ch EmailChannel, m *gomail.Message) error {
	dialer := gomail.NewDialer(ch.Host, ch.Port, ch.Username, ch.Password)
	if ch.Port == 465 {
		dialer.SSL = true
	}

	// gomail has no dial timeout of its own; bound each attempt so a dead
	// server cannot stall the whole fallback loop.
	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(m)
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(d.timeout):
		return fmt.Errorf("channel %s timed out after %s", ch.Name, d.timeout)
	}
}

type DeliveryService interface {
	// SendArtifact tries every channel in priority order and queues the
	// message on exhaustion. It never returns an error to the caller: the
	// outcome is fully described by the status and message.
	SendArtifact(ctx context.Context, recipient string, outfit *model.OutfitRequest, imageData []byte) (DeliveryStatus, string)
	// SendMultiple sends several stored artifacts as one message through the
	// primary channel only. Missing artifacts are skipped, not fatal.
	SendMultiple(ctx context.Context, recipient, subject, body string, requestIDs []string) (int, error)
}

type deliveryService struct {
	channels  []EmailChannel
	dialer    channelDialer
	queueRepo repository.EmailQueueRepository
	store     storage.ArtifactStore
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

func NewDeliveryService(
	channels []EmailChannel,
	timeout time.Duration,
	queueRepo repository.EmailQueueRepository,
	store storage.ArtifactStore,
	publisher pubsub.Publisher,
	topic string,
	logger zerolog.Logger,
) DeliveryService {
	return &deliveryService{
		channels:  channels,
		dialer:    &gomailDialer{timeout: timeout},
		queueRepo: queueRepo,
		store:     store,
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "DeliveryService").Logger(),
	}
}

var errNoChannels = errors.New("no delivery channels configured")

func (s *deliveryService) SendArtifact(ctx context.Context, recipient string, outfit *model.OutfitRequest, imageData []byte) (DeliveryStatus, string) {
	if recipient == "" {
		return DeliveryNotRequested, ""
	}

	err := s.attemptAll(recipient, artifactSubject, artifactBody(outfit), []attachment{
		{filename: model.ArtifactFilename(outfit.ID), data: imageData},
	})
	if err == nil {
		return DeliverySent, fmt.Sprintf("Email envoyé avec succès à %s", recipient)
	}

	// All channels exhausted; persist for manual processing.
	details, _ := json.Marshal(outfit)
	entry := &model.EmailQueueEntry{
		ID:            uuid.NewString(),
		Email:         recipient,
		RequestID:     outfit.ID,
		OutfitDetails: string(details),
		ImageData:     imageData,
		Status:        model.EmailQueueStatusPending,
	}
	if qErr := s.queueRepo.Create(ctx, entry); qErr != nil {
		s.logger.Error().Err(qErr).Str("recipient", recipient).Msg("Failed to queue undeliverable email")
		return DeliveryFailed, "L'envoi de l'email a échoué et n'a pas pu être mis en attente. Veuillez réessayer."
	}
	s.logger.Warn().Err(err).Str("recipient", recipient).Str("queue_id", entry.ID).Msg("All delivery channels failed, email queued")
	s.notifyQueued(ctx, entry)

	return DeliveryQueued, "L'envoi de l'email a échoué. Votre demande a été enregistrée et sera traitée manuellement sous 24h."
}

func (s *deliveryService) SendMultiple(ctx context.Context, recipient, subject, body string, requestIDs []string) (int, error) {
	if len(s.channels) == 0 {
		return 0, errNoChannels
	}

	var attachments []attachment
	for _, id := range requestIDs {
		filename := model.ArtifactFilename(id)
		data, err := s.store.Get(ctx, filename)
		if err != nil {
			// A missing artifact must not sink the whole batch.
			s.logger.Warn().Err(err).Str("request_id", id).Msg("Skipping unresolvable artifact")
			continue
		}
		attachments = append(attachments, attachment{filename: filename, data: data})
	}
	if len(attachments) == 0 {
		return 0, errors.New("none of the requested images could be resolved")
	}

	// Narrower guarantee than the single-image path: only the primary
	// channel is tried, with no queue fallback.
	primary := s.channels[0]
	msg := buildMessage(primary.From, recipient, subject, body, attachments)
	if err := s.dialer.DialAndSend(primary, msg); err != nil {
		return 0, fmt.Errorf("sending batch through %s: %w", primary.Name, err)
	}
	return len(attachments), nil
}

// attemptAll walks the ordered channel list until one accepts the message.
// Per-channel failures are swallowed so the next channel gets its turn.
func (s *deliveryService) attemptAll(recipient, subject, body string, attachments []attachment) error {
	if len(s.channels) == 0 {
		return errNoChannels
	}
	var lastErr error
	for _, ch := range s.channels {
		msg := buildMessage(ch.From, recipient, subject, body, attachments)
		if err := s.dialer.DialAndSend(ch, msg); err != nil {
			s.logger.Warn().Err(err).Str("channel", ch.Name).Str("recipient", recipient).Msg("Delivery channel failed")
			lastErr = err
			continue
		}
		s.logger.Info().Str("channel", ch.Name).Str("recipient", recipient).Msg("Email delivered")
		return nil
	}
	return lastErr
}

// notifyQueued publishes a best-effort event for queued emails so operators
// can react without polling the admin dashboard.
func (s *deliveryService) notifyQueued(ctx context.Context, entry *model.EmailQueueEntry) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"queue_id":   entry.ID,
		"email":      entry.Email,
		"request_id": entry.RequestID,
	})
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish email-queued event")
	}
}

type attachment struct {
	filename string
	data     []byte
}

const artifactSubject = "Votre visualisation de tenue de mariage"

func artifactBody(outfit *model.OutfitRequest) string {
	return fmt.Sprintf(`Bonjour,

Merci d'avoir utilisé notre service de visualisation de tenue !

Les détails de votre tenue :
- Ambiance : %s
- Costume : %s
- Revers : %s
- Poches : %s
- Chaussures : %s
- Accessoire : %s

Vous trouverez votre visualisation en pièce jointe.

Bien cordialement,
L'équipe TailorView`,
		outfit.Atmosphere, outfit.SuitType, outfit.LapelType, outfit.PocketType,
		outfit.ShoeType, outfit.AccessoryType)
}

func buildMessage(from, to, subject, body string, attachments []attachment) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	for _, att := range attachments {
		data := att.data
		m.Attach(att.filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return m
}
