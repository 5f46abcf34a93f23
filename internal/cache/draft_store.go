package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizdeck/assessment-service/internal/models"
)

// ErrDraftNotFound is returned when no draft exists for the assignment.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is a student's unsubmitted in-progress answer set. Drafts are
// ephemeral client state keyed by assignment id; they are not part of the
// durable submission record and expire on their own.
type Draft struct {
	AssignmentID    uint             `json:"assignment_id"`
	Answers         models.AnswerMap `json:"answers"`
	CurrentQuestion int              `json:"current_question"`
	SavedAt         time.Time        `json:"saved_at"`
}

// DraftStore is the explicit progress cache: load, save, clear.
type DraftStore interface {
	LoadDraft(ctx context.Context, assignmentID uint) (*Draft, error)
	SaveDraft(ctx context.Context, draft *Draft) error
	ClearDraft(ctx context.Context, assignmentID uint) error
}

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisDraftStore{client: client, ttl: ttl}
}

func draftKey(assignmentID uint) string {
	return fmt.Sprintf("quiz:draft:%d", assignmentID)
}

func (s *redisDraftStore) LoadDraft(ctx context.Context, assignmentID uint) (*Draft, error) {
	payload, err := s.client.Get(ctx, draftKey(assignmentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &draft, nil
}

func (s *redisDraftStore) SaveDraft(ctx context.Context, draft *Draft) error {
	draft.SavedAt = time.Now().UTC()
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return s.client.Set(ctx, draftKey(draft.AssignmentID), payload, s.ttl).Err()
}

func (s *redisDraftStore) ClearDraft(ctx context.Context, assignmentID uint) error {
	return s.client.Del(ctx, draftKey(assignmentID)).Err()
}
