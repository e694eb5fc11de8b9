package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"courtslot/internal/logger"
	"courtslot/internal/metrics"
	"courtslot/internal/reservation"
)

const (
	queueKey  = "emails"
	failedKey = "emails:failed"

	maxTries = 3
)

type EmailJob struct {
	ID      string    `json:"id"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(rdb *redis.Client, fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass string) *Service {
	return &Service{
		redis:    rdb,
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

// Send queues an email job; the worker loop delivers it.
func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	job := EmailJob{
		ID:      uuid.NewString(),
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		return err
	}

	logger.Infof("Email %s queued: %s to %s", job.ID, subject, to)
	return nil
}

// BookingConfirmed emails the customer once their payment lands. Rows
// without an email address are skipped silently.
func (s *Service) BookingConfirmed(ctx context.Context, rows []reservation.Reservation) {
	if len(rows) == 0 {
		return
	}

	first := rows[0]
	if first.CustomerEmail == nil || *first.CustomerEmail == "" {
		return
	}

	var lines []string
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("- %s (%s)", row.TimeSlot, row.Sport))
	}

	body := fmt.Sprintf("Hi %s,\n\nYour booking is confirmed:\n%s\n\nSee you on court!",
		first.CustomerName, strings.Join(lines, "\n"))

	if err := s.Send(ctx, *first.CustomerEmail, first.CustomerName, "Booking confirmed", body); err != nil {
		metrics.RecordEmail("booking_confirmed", "queue_failed")
		return
	}
	metrics.RecordEmail("booking_confirmed", "queued")
}

// Start drains the queue until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email %s to %s (attempt %d): %v", job.ID, job.To, job.Tries, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
		} else {
			metrics.RecordEmail("delivery", "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail("delivery", "sent")
	logger.Infof("Email sent to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	if s.smtpHost == "" {
		return fmt.Errorf("smtp not configured")
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", s.fromName, s.from),
		fmt.Sprintf("To: %s <%s>", job.Name, job.To),
		fmt.Sprintf("Subject: %s", job.Subject),
		"",
		job.Body,
	}, "\r\n")

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	addr := s.smtpHost + ":" + s.smtpPort

	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(msg))
}

func (s *Service) saveFailed(job EmailJob, sendErr error) {
	data, err := json.Marshal(map[string]interface{}{
		"job":    job,
		"error":  sendErr.Error(),
		"failed": time.Now(),
	})
	if err != nil {
		return
	}
	s.redis.LPush(context.Background(), failedKey, string(data))
}

func (s *Service) Close() error {
	return s.redis.Close()
}
