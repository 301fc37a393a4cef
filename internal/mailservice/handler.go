package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/sushihentaime/postline/internal/common"
	"golang.org/x/exp/rand"
)

const (
	commentTemplate = "comment_notification.html"
	maxRetries      = 5
	baseDelay       = 500 * time.Millisecond
)

// NewMailService sends notification mails. baseURL is the public site root used to build
// links to posts.
func NewMailService(mb common.MessageConsumer, cfg MailConfig, baseURL string, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:      mb,
		m:       NewMailer(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Sender, NewTemplate()),
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SendCommentNotifications mails post authors about new comments until Close is called.
func (s *MailService) SendCommentNotifications() {
	msgs, err := s.mb.Consume(common.CommentCreatedKey, common.CommentExchange, common.CommentCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var ev common.CommentCreated

				err := json.Unmarshal(msg.Body, &ev)
				if err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					msg.Ack(false)
					continue
				}

				payload := commentNotification{
					PostTitle: ev.PostTitle,
					PostURL:   s.baseURL + "/posts/" + ev.PostSlug,
					Commenter: ev.Commenter,
					Content:   ev.Content,
				}

				if s.deliver(ev.RecipientEmail, payload, commentTemplate) {
					s.logger.Info("comment notification sent", slog.String("email", ev.RecipientEmail))
				} else {
					s.logger.Error("could not send comment notification", slog.String("email", ev.RecipientEmail))
				}

				msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendCommentNotifications due to context cancellation")
				return
			}
		}
	}()
}

// deliver sends with exponential backoff and jitter. It gives up after maxRetries attempts
// or when the service is closed.
func (s *MailService) deliver(recipient string, data any, templateFile string) bool {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.send(recipient, data, templateFile)
		if err == nil {
			return true
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying email", slog.String("email", recipient), slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return false
		}
	}

	return false
}

func (s *MailService) Close() {
	s.cancel()
}
