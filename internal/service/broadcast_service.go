package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/shred03/filestore-bot/internal/domain/repository"
)

// broadcastPageSize is how many users are loaded from the store per page
// during a fan-out.
const broadcastPageSize = 100

// MessageCopier copies an existing message to another chat, preserving its
// content without a forward header.
type MessageCopier interface {
	CopyTo(ctx context.Context, toChatID, fromChatID int64, messageID int) error
}

// BroadcastReport summarizes one completed broadcast.
type BroadcastReport struct {
	JobID   string
	Total   int
	Success int
	Failed  int
}

// BroadcastService copies an admin's message to every known user.
type BroadcastService struct {
	userRepo repository.UserRepository
}

// NewBroadcastService создает новый сервис рассылки
func NewBroadcastService(userRepo repository.UserRepository) (*BroadcastService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &BroadcastService{userRepo: userRepo}, nil
}

// Run fans the message out to all users. Per-user failures (blocked bot,
// deleted account) are counted and skipped. progress, if non-nil, is invoked
// every ten deliveries and once at the end.
func (s *BroadcastService) Run(
	ctx context.Context,
	copier MessageCopier,
	fromChatID int64,
	messageID int,
	progress func(done, total int),
) (*BroadcastReport, error) {
	total, err := s.userRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count broadcast recipients: %w", err)
	}

	report := &BroadcastReport{
		JobID: uuid.NewString(),
		Total: int(total),
	}
	log.Printf("[BroadcastService] job %s: broadcasting to %d users", report.JobID, report.Total)

	offset := 0
	for {
		users, err := s.userRepo.List(broadcastPageSize, offset)
		if err != nil {
			return report, fmt.Errorf("failed to list broadcast recipients: %w", err)
		}
		if len(users) == 0 {
			break
		}

		for _, user := range users {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			if err := copier.CopyTo(ctx, user.UserID, fromChatID, messageID); err != nil {
				log.Printf("[BroadcastService] job %s: failed to send to %d: %v", report.JobID, user.UserID, err)
				report.Failed++
			} else {
				report.Success++
			}

			done := report.Success + report.Failed
			if progress != nil && done%10 == 0 {
				progress(done, report.Total)
			}
		}
		offset += len(users)
	}

	if progress != nil {
		progress(report.Success+report.Failed, report.Total)
	}
	log.Printf("[BroadcastService] job %s: completed, success=%d failed=%d", report.JobID, report.Success, report.Failed)
	return report, nil
}
