// internal/app/admission/service.go
//
// Package admission holds the voting state machine: reviewer ballots,
// the quorum decision, capacity-aware admits, and the reset paths that
// put an applicant back in the undecided pool.
package admission

import (
	"context"
	"errors"
	"time"

	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/app/system/events"
	"github.com/dalemusser/hackhub/internal/domain/models"

	"github.com/dalemusser/hackhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// VoteQuorum is how many ballots close the vote on an applicant.
	VoteQuorum = 3

	// AdmitAuthority is recorded as the admitting party when the system
	// decides without a single responsible reviewer (quorum, team
	// propagation).
	AdmitAuthority = "HackHub Admission Authority"

	// ConfirmGrace is the minimum time an admit gets to confirm, even
	// when the event-wide confirmation deadline is closer than that.
	ConfirmGrace = 7 * 24 * time.Hour
)

// ErrCannotVote is returned when a ballot does not land: the applicant
// is unverified, already decided, or this reviewer already voted.
var ErrCannotVote = errors.New("unable to record vote for this applicant")

type Service struct {
	users    *userstore.Store
	settings *settingsstore.Store
	audit    *auditlog.Logger
	bus      *events.Dispatcher
	log      *zap.Logger
}

func NewService(users *userstore.Store, settings *settingsstore.Store, auditLog *auditlog.Logger, bus *events.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		settings: settings,
		audit:    auditLog,
		bus:      bus,
		log:      logger,
	}
}

// Vote records one reviewer ballot and, once one side of the ballot
// holds a quorum of votes, closes the vote with a decision. Returns the
// applicant as they stand after the ballot (and any decision it
// triggered).
func (s *Service) Vote(ctx context.Context, reviewerID primitive.ObjectID, reviewerEmail string, userID primitive.ObjectID, kind userstore.VoteKind) (*models.User, error) {
	user, err := s.users.PushVote(ctx, userID, reviewerEmail, kind)
	if err != nil {
		if errors.Is(err, userstore.ErrNoMatch) {
			return nil, ErrCannotVote
		}
		return nil, err
	}

	s.audit.Vote(ctx, reviewerID, userID, string(kind), user.NumVotes)
	s.bus.Publish(events.VoteRecorded{UserID: userID, Reviewer: reviewerEmail, NumVotes: user.NumVotes})

	if user.NumVotes < VoteQuorum {
		return user, nil
	}

	// The ballot itself landed; a decision that cannot be recorded
	// (capacity lookups failing, a concurrent decision racing this
	// one) must not bounce the vote back to the reviewer.
	decided, err := s.closeVote(ctx, user)
	if err != nil {
		s.log.Error("vote resolution failed",
			zap.String("user_id", userID.Hex()), zap.Error(err))
		return user, nil
	}
	return decided, nil
}

// closeVote decides an applicant whose ballot has a quorum of votes on
// one side. Three rejects reject; three admits admit, subject to the
// participant cap. A split ballot stays open for more reviewers.
func (s *Service) closeVote(ctx context.Context, user *models.User) (*models.User, error) {
	switch {
	case len(user.ApplicationReject) >= VoteQuorum:
		return s.reject(ctx, user.ID, AdmitAuthority)
	case len(user.ApplicationAdmit) >= VoteQuorum:
		return s.AdmitWithCapacity(ctx, user.ID, AdmitAuthority)
	}
	return user, nil
}

// AdmitWithCapacity admits the user if a spot is open and waitlists
// them otherwise. Team propagation and manual overrides come through
// here too, so the cap holds no matter who decides.
func (s *Service) AdmitWithCapacity(ctx context.Context, userID primitive.ObjectID, admittedBy string) (*models.User, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	admits, err := s.users.CountActiveAdmits(ctx)
	if err != nil {
		return nil, err
	}
	if admits >= int64(settings.MaxParticipants) {
		return s.waitlist(ctx, userID, admittedBy)
	}
	return s.admit(ctx, userID, admittedBy, settings.TimeConfirm)
}

// Admit is the manual staff decision. The participant cap still
// applies, so an admit at capacity lands on the waitlist.
func (s *Service) Admit(ctx context.Context, decidedBy string, userID primitive.ObjectID) (*models.User, error) {
	return s.AdmitWithCapacity(ctx, userID, decidedBy)
}

// Reject is the manual staff rejection.
func (s *Service) Reject(ctx context.Context, decidedBy string, userID primitive.ObjectID) (*models.User, error) {
	return s.reject(ctx, userID, decidedBy)
}

// Waitlist parks an applicant on the waitlist by staff decision.
func (s *Service) Waitlist(ctx context.Context, decidedBy string, userID primitive.ObjectID) (*models.User, error) {
	return s.waitlist(ctx, userID, decidedBy)
}

func (s *Service) admit(ctx context.Context, userID primitive.ObjectID, admittedBy string, timeConfirm time.Time) (*models.User, error) {
	confirmBy := confirmDeadline(timeConfirm, time.Now().UTC())
	user, err := s.users.Admit(ctx, userID, admittedBy, confirmBy)
	if err != nil {
		return nil, err
	}

	s.audit.Decision(ctx, userID, audit.EventUserAdmitted, admittedBy)
	s.queueEmail(ctx, models.EmailAcceptance, user.Email)
	s.bus.Publish(events.UserAdmitted{UserID: userID, TeamCode: user.TeamCode})
	s.log.Info("user admitted",
		zap.String("user_id", userID.Hex()),
		zap.String("admitted_by", admittedBy))
	return user, nil
}

func (s *Service) reject(ctx context.Context, userID primitive.ObjectID, decidedBy string) (*models.User, error) {
	user, err := s.users.Reject(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.audit.Decision(ctx, userID, audit.EventUserRejected, decidedBy)
	s.queueEmail(ctx, models.EmailRejection, user.Email)
	return user, nil
}

func (s *Service) waitlist(ctx context.Context, userID primitive.ObjectID, decidedBy string) (*models.User, error) {
	user, err := s.users.Waitlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.audit.Decision(ctx, userID, audit.EventUserWaitlisted, decidedBy)
	s.queueEmail(ctx, models.EmailWaitlist, user.Email)
	s.log.Info("user waitlisted", zap.String("user_id", userID.Hex()))
	return user, nil
}

// confirmDeadline picks the event-wide confirmation deadline, but never
// less than the grace window from now.
func confirmDeadline(timeConfirm, now time.Time) time.Time {
	min := now.Add(ConfirmGrace)
	if timeConfirm.After(min) {
		return timeConfirm
	}
	return min
}

// ResetVotes wipes an undecided applicant's ballot so review can start
// over without disturbing any waitlist placement or release state.
func (s *Service) ResetVotes(ctx context.Context, actorID, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.ResetVotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmission,
		EventType: audit.EventVotesReset,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
	})
	return user, nil
}

// Reset puts a user back in the undecided pool: decision flags, ballot,
// and released status all cleared, and their address pulled out of
// every pending email queue so stale notices don't go out.
func (s *Service) Reset(ctx context.Context, actorID, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.ResetAdmissionState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.settings.QueuePullAll(ctx, user.Email); err != nil {
		s.log.Error("failed to pull reset user from email queues",
			zap.String("user_id", userID.Hex()), zap.Error(err))
	}
	s.audit.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmission,
		EventType: audit.EventAdmissionReset,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
	})
	return user, nil
}

// Confirm locks in an admitted user's spot. Fails once the confirmation
// deadline has passed or the spot was declined.
func (s *Service) Confirm(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.Confirm(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.audit.Confirmation(ctx, userID, audit.EventUserConfirmed)
	return user, nil
}

// Decline gives an admitted spot up, freeing it for the waitlist.
func (s *Service) Decline(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.Decline(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.audit.Confirmation(ctx, userID, audit.EventUserDeclined)
	return user, nil
}

// ResetInvitation re-opens a lapsed or declined admit with a fresh
// confirmation deadline.
func (s *Service) ResetInvitation(ctx context.Context, actorID, userID primitive.ObjectID) (*models.User, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	confirmBy := confirmDeadline(settings.TimeConfirm, time.Now().UTC())
	user, err := s.users.ResetInvitation(ctx, userID, confirmBy)
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmission,
		EventType: audit.EventInvitationReset,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
	})
	return user, nil
}

func (s *Service) queueEmail(ctx context.Context, kind models.EmailKind, email string) {
	if err := s.settings.QueuePush(ctx, kind, email); err != nil {
		s.log.Error("failed to queue email",
			zap.String("kind", string(kind)),
			zap.String("email", email),
			zap.Error(err))
	}
}
