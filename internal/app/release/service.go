// internal/app/release/service.go
//
// Package release controls whether applicants can see their decisions,
// the bulk end-of-cycle operations, and the email queue flushes that
// go with them.
package release

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/domain/models"

	"github.com/dalemusser/hackhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// QueueSender delivers one queue's worth of email. The mailer satisfies
// it; tests swap in a recorder.
type QueueSender interface {
	SendQueue(ctx context.Context, kind models.EmailKind, recipients []string) int
}

type Service struct {
	users    *userstore.Store
	settings *settingsstore.Store
	mail     QueueSender
	audit    *auditlog.Logger
	log      *zap.Logger

	// tracks in-flight queue flushes so shutdown (and tests) can wait
	wg sync.WaitGroup
}

func NewService(users *userstore.Store, settings *settingsstore.Store, mail QueueSender, auditLog *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		settings: settings,
		mail:     mail,
		audit:    auditLog,
		log:      logger,
	}
}

// SetReleased shows or hides one user's decision. Releasing also drains
// the user's pending notification emails: whatever queues hold their
// address get flushed for them right away, so the decision email lands
// with the decision. A drain failure is reported but the status stays
// released.
func (s *Service) SetReleased(ctx context.Context, actorID, userID primitive.ObjectID, released bool) error {
	if err := s.users.SetStatusReleased(ctx, userID, released); err != nil {
		return err
	}
	s.audit.StatusRelease(ctx, actorID, userID, released)
	if !released {
		return nil
	}
	return s.drainUserQueues(ctx, userID)
}

// drainUserQueues pulls one user out of every email queue holding their
// address and sends each pending notification immediately.
func (s *Service) drainUserQueues(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user for queue drain: %w", err)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load queues for drain: %w", err)
	}

	var drainErr error
	for _, kind := range models.EmailKinds {
		if !slices.Contains(settings.EmailQueues[kind].Recipients, user.Email) {
			continue
		}
		if err := s.settings.QueuePull(ctx, kind, user.Email); err != nil {
			s.log.Error("queue pull on release failed",
				zap.String("kind", string(kind)),
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
			drainErr = errors.Join(drainErr, err)
			continue
		}
		s.mail.SendQueue(ctx, kind, []string{user.Email})
	}
	return drainErr
}

// ReleaseAll makes every hidden status visible, decided or not.
// Returns how many users were released.
func (s *Service) ReleaseAll(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	count, err := s.users.ReleaseAllStatuses(ctx)
	if err != nil {
		return 0, err
	}
	s.audit.BulkRelease(ctx, actorID, audit.EventBulkRelease, count)
	s.log.Info("released all statuses", zap.Int64("count", count))
	return count, nil
}

// ReleaseAccepted makes every hidden admit visible.
func (s *Service) ReleaseAccepted(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	count, err := s.users.ReleaseAdmitted(ctx)
	if err != nil {
		return 0, err
	}
	s.audit.BulkRelease(ctx, actorID, audit.EventAdmitsReleased, count)
	s.log.Info("released admitted statuses", zap.Int64("count", count))
	return count, nil
}

// ReleaseWaitlisted makes every hidden waitlist placement visible.
func (s *Service) ReleaseWaitlisted(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	count, err := s.users.ReleaseWaitlisted(ctx)
	if err != nil {
		return 0, err
	}
	s.audit.BulkRelease(ctx, actorID, audit.EventWaitlistReleased, count)
	s.log.Info("released waitlisted statuses", zap.Int64("count", count))
	return count, nil
}

// ReleaseRejected makes every hidden rejection visible.
func (s *Service) ReleaseRejected(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	count, err := s.users.ReleaseRejected(ctx)
	if err != nil {
		return 0, err
	}
	s.audit.BulkRelease(ctx, actorID, audit.EventRejectsReleased, count)
	s.log.Info("released rejected statuses", zap.Int64("count", count))
	return count, nil
}

// HideAll takes every released status back out of sight. Staff accounts
// are left alone.
func (s *Service) HideAll(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	count, err := s.users.HideAllReleased(ctx)
	if err != nil {
		return 0, err
	}
	s.audit.BulkRelease(ctx, actorID, audit.EventBulkHide, count)
	s.log.Info("hid released statuses", zap.Int64("count", count))
	return count, nil
}

// PushBackRejected returns every rejected-but-unreleased user to the
// undecided pool, pulling each from the pending email queues. Rejected
// users whose status already went out stay rejected.
func (s *Service) PushBackRejected(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	users, err := s.users.FindRejectedUnreleased(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, u := range users {
		if _, err := s.users.ResetAdmissionState(ctx, u.ID); err != nil {
			s.log.Error("push-back reset failed",
				zap.String("user_id", u.ID.Hex()), zap.Error(err))
			continue
		}
		if err := s.settings.QueuePullAll(ctx, u.Email); err != nil {
			s.log.Error("push-back queue pull failed",
				zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		count++
	}

	s.audit.BulkRelease(ctx, actorID, audit.EventRejectedPushed, count)
	s.log.Info("pushed rejected users back to undecided", zap.Int64("count", count))
	return count, nil
}

// RejectUndecided rejects every verified applicant still without a
// decision, with their status left unreleased. Staff are excluded.
func (s *Service) RejectUndecided(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	count, err := s.users.RejectUndecided(ctx)
	if err != nil {
		return 0, err
	}
	s.audit.BulkRelease(ctx, actorID, audit.EventUndecidedRejected, count)
	s.log.Info("rejected undecided applicants", zap.Int64("count", count))
	return count, nil
}

// QueueLaggers sweeps for accounts with an unfinished step and puts
// each on the lagger queue: unsubmitted applications, unconfirmed
// admits, and confirmed users missing a waiver.
func (s *Service) QueueLaggers(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	unsubmitted, unconfirmed, unwaivered, err := s.users.FindLaggers(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, group := range [][]models.User{unsubmitted, unconfirmed, unwaivered} {
		for _, u := range group {
			if err := s.settings.QueuePush(ctx, models.EmailLagger, u.Email); err != nil {
				s.log.Error("lagger queue push failed",
					zap.String("user_id", u.ID.Hex()), zap.Error(err))
				continue
			}
			count++
		}
	}

	s.audit.BulkRelease(ctx, actorID, audit.EventLaggersQueued, count)
	return count, nil
}

// FlushQueue drains one email queue and sends its stock message to
// every recipient. Returns how many were queued for sending.
func (s *Service) FlushQueue(ctx context.Context, kind models.EmailKind) (int, error) {
	recipients, err := s.settings.QueueDrain(ctx, kind)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sent := s.mail.SendQueue(context.WithoutCancel(ctx), kind, recipients)
		s.log.Info("email queue flushed",
			zap.String("kind", string(kind)),
			zap.Int("recipients", len(recipients)),
			zap.Int("sent", sent))
	}()
	return len(recipients), nil
}

// Wait blocks until in-flight queue flushes finish. Called on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}
