package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lifecycle states of a queued report.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// ErrUnknownReport marks an identifier that was never queued or whose
// artefacts already expired.
var ErrUnknownReport = errors.New("report: unknown report id")

// Store keeps report statuses and rendered PDFs in Redis, both expiring
// after the configured TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs the store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func statusKey(id string) string { return fmt.Sprintf("refis:report:%s:status", id) }
func pdfKey(id string) string    { return fmt.Sprintf("refis:report:%s:pdf", id) }

// SetStatus records the lifecycle state of a report.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	return s.client.Set(ctx, statusKey(id), status, s.ttl).Err()
}

// Status reads the lifecycle state of a report.
func (s *Store) Status(ctx context.Context, id string) (string, error) {
	status, err := s.client.Get(ctx, statusKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownReport
	}
	return status, err
}

// SavePDF stores the rendered document and flips the status to done.
func (s *Store) SavePDF(ctx context.Context, id string, pdf []byte) error {
	if err := s.client.Set(ctx, pdfKey(id), pdf, s.ttl).Err(); err != nil {
		return err
	}
	return s.SetStatus(ctx, id, StatusDone)
}

// PDF fetches the rendered document. ErrUnknownReport means it is not
// there, which the caller disambiguates through Status.
func (s *Store) PDF(ctx context.Context, id string) ([]byte, error) {
	pdf, err := s.client.Get(ctx, pdfKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUnknownReport
	}
	return pdf, err
}
