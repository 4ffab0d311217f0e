// internal/app/teamops/service.go
//
// Package teamops covers the team lifecycle (create, join, leave,
// deactivate) and the admission side effects of membership: when
// enough of a team is already in, the rest of the submitted members
// ride along.
package teamops

import (
	"context"
	"errors"

	"github.com/dalemusser/hackhub/internal/app/admission"
	teamstore "github.com/dalemusser/hackhub/internal/app/store/teams"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/app/system/events"
	"github.com/dalemusser/hackhub/internal/domain/models"

	"github.com/dalemusser/hackhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Auto-admit thresholds. A team qualifies when it has more than
// autoAdmitMinTeamSize members, at least autoAdmitMinAdmitted of them
// already admitted, and more than autoAdmitMinSubmitted with submitted
// applications.
const (
	autoAdmitMinTeamSize  = 2
	autoAdmitMinAdmitted  = 2
	autoAdmitMinSubmitted = 2
)

// ErrAlreadyOnTeam is returned when a user who is on a team tries to
// create or join another one.
var ErrAlreadyOnTeam = errors.New("user is already on a team")

type Service struct {
	teams     *teamstore.Store
	users     *userstore.Store
	admission *admission.Service
	audit     *auditlog.Logger
	bus       *events.Dispatcher
	log       *zap.Logger
}

func NewService(teams *teamstore.Store, users *userstore.Store, adm *admission.Service, auditLog *auditlog.Logger, bus *events.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		teams:     teams,
		users:     users,
		admission: adm,
		audit:     auditLog,
		bus:       bus,
		log:       logger,
	}
}

// SubscribeEvents hooks the auto-admit propagation up to the event bus.
// Call once during startup, after the dispatcher exists.
func (s *Service) SubscribeEvents() {
	s.bus.Subscribe(func(ctx context.Context, event any) {
		switch ev := event.(type) {
		case events.UserAdmitted:
			if ev.TeamCode != "" {
				s.propagateAdmission(ctx, ev.TeamCode)
			}
		case events.TeamMembershipChanged:
			s.propagateAdmission(ctx, ev.TeamCode)
		}
	})
}

// Create makes a new team with the given user as its first member.
func (s *Service) Create(ctx context.Context, userID primitive.ObjectID, name string) (models.Team, error) {
	created, err := s.teams.Create(ctx, name)
	if err != nil {
		return models.Team{}, err
	}
	team, err := s.enroll(ctx, created.Code, userID)
	if err != nil {
		// The fresh team is empty; fold it back up.
		if _, derr := s.teams.DeleteIfEmpty(ctx, created.Code); derr != nil {
			s.log.Error("failed to remove abandoned team", zap.String("code", created.Code), zap.Error(derr))
		}
		return models.Team{}, err
	}

	s.audit.TeamEvent(ctx, userID, audit.EventTeamCreated, team.Code)
	s.bus.Publish(events.TeamMembershipChanged{TeamCode: team.Code})
	return team, nil
}

// Join adds the user to the team with the given code.
func (s *Service) Join(ctx context.Context, userID primitive.ObjectID, code string) (models.Team, error) {
	team, err := s.enroll(ctx, code, userID)
	if err != nil {
		return models.Team{}, err
	}

	s.audit.TeamEvent(ctx, userID, audit.EventTeamJoined, code)
	s.bus.Publish(events.TeamMembershipChanged{TeamCode: code})
	return team, nil
}

// enroll puts the user on the team and stamps the code on their user
// record. The stamp is conditional on the user being teamless; when it
// fails the roster entry is rolled back.
func (s *Service) enroll(ctx context.Context, code string, userID primitive.ObjectID) (models.Team, error) {
	team, err := s.teams.AddMember(ctx, code, userID)
	if err != nil {
		return models.Team{}, err
	}
	if err := s.users.SetTeamCode(ctx, userID, code); err != nil {
		if _, rerr := s.teams.RemoveMember(ctx, code, userID); rerr != nil {
			s.log.Error("failed to roll back roster entry",
				zap.String("code", code), zap.String("user_id", userID.Hex()), zap.Error(rerr))
		}
		if errors.Is(err, userstore.ErrNoMatch) {
			return models.Team{}, ErrAlreadyOnTeam
		}
		return models.Team{}, err
	}
	return team, nil
}

// Leave removes the user from their current team. The last member out
// deletes the team.
func (s *Service) Leave(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TeamCode == "" {
		return teamstore.ErrNotMember
	}

	team, err := s.teams.RemoveMember(ctx, user.TeamCode, userID)
	if err != nil {
		return err
	}
	if err := s.users.ClearTeamCode(ctx, userID); err != nil {
		return err
	}

	s.audit.TeamEvent(ctx, userID, audit.EventTeamLeft, user.TeamCode)

	if team.Size() == 0 {
		deleted, err := s.teams.DeleteIfEmpty(ctx, user.TeamCode)
		if err != nil {
			return err
		}
		if deleted {
			s.audit.TeamEvent(ctx, userID, audit.EventTeamDeleted, user.TeamCode)
		}
	}
	return nil
}

// Deactivate retires a team. The roster stays on the team record, but
// every member's team code is cleared so they can regroup.
func (s *Service) Deactivate(ctx context.Context, actorID primitive.ObjectID, code string) (models.Team, error) {
	team, err := s.teams.Deactivate(ctx, code)
	if err != nil {
		return models.Team{}, err
	}
	cleared, err := s.users.ClearTeamCodeByTeam(ctx, code)
	if err != nil {
		return models.Team{}, err
	}

	s.audit.TeamEvent(ctx, actorID, audit.EventTeamDeactivated, code)
	s.log.Info("team deactivated",
		zap.String("code", code),
		zap.Int64("members_released", cleared))
	return team, nil
}

// DeactivateAll retires every active team. Per-team failures are
// logged and skipped so one bad record does not stop the sweep.
func (s *Service) DeactivateAll(ctx context.Context, actorID primitive.ObjectID) (int, error) {
	teams, err := s.teams.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	var done int
	for _, t := range teams {
		if _, err := s.Deactivate(ctx, actorID, t.Code); err != nil {
			s.log.Error("deactivate-all: team failed",
				zap.String("code", t.Code),
				zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}

// Delete removes a team entirely: members' team codes are cleared
// first, then the record goes. Unlike Deactivate, nothing survives.
func (s *Service) Delete(ctx context.Context, actorID primitive.ObjectID, code string) error {
	if _, err := s.teams.GetByCode(ctx, code); err != nil {
		return err
	}
	cleared, err := s.users.ClearTeamCodeByTeam(ctx, code)
	if err != nil {
		return err
	}
	if err := s.teams.Delete(ctx, code); err != nil {
		return err
	}

	s.audit.TeamEvent(ctx, actorID, audit.EventTeamDeleted, code)
	s.log.Info("team deleted",
		zap.String("code", code),
		zap.Int64("members_released", cleared))
	return nil
}

// SweepAutoAdmit runs the auto-admit check over every active team and
// returns how many teams were scanned. Individual team failures are
// logged inside the check and do not abort the sweep.
func (s *Service) SweepAutoAdmit(ctx context.Context, actorID primitive.ObjectID) (int, error) {
	teams, err := s.teams.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	for _, t := range teams {
		s.propagateAdmission(ctx, t.Code)
	}
	s.log.Info("auto-admit sweep finished",
		zap.String("actor_id", actorID.Hex()),
		zap.Int("teams", len(teams)))
	return len(teams), nil
}

// AwardPoints puts an entry on the team ledger and fans the same award
// out to every current member's personal ledger.
func (s *Service) AwardPoints(ctx context.Context, actorID primitive.ObjectID, code string, amount int, notes string) error {
	entry := models.PointsEntry{Amount: amount, AwardedBy: actorID, Notes: notes}
	if err := s.teams.AddPoints(ctx, code, entry); err != nil {
		return err
	}

	team, err := s.teams.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	for _, memberID := range team.MemberIDs {
		if err := s.users.AddPoints(ctx, memberID, entry); err != nil {
			s.log.Error("failed to fan points out to member",
				zap.String("code", code),
				zap.String("user_id", memberID.Hex()),
				zap.Error(err))
		}
	}

	s.audit.PointsAwarded(ctx, actorID, code, amount)
	return nil
}

// propagateAdmission admits the remaining submitted members of an
// active team once enough of it is already in. Each admit re-enters
// through the event bus; the pass converges because admitted members
// stop matching.
func (s *Service) propagateAdmission(ctx context.Context, code string) {
	team, err := s.teams.GetByCode(ctx, code)
	if err != nil {
		s.log.Error("auto-admit team lookup failed", zap.String("code", code), zap.Error(err))
		return
	}
	if !team.Active {
		return
	}

	members, err := s.users.ByTeamCode(ctx, code)
	if err != nil {
		s.log.Error("auto-admit scan failed", zap.String("code", code), zap.Error(err))
		return
	}

	var admitted, submitted int
	for _, m := range members {
		if m.Status.Admitted {
			admitted++
		}
		if m.Status.SubmittedApplication {
			submitted++
		}
	}
	if len(members) <= autoAdmitMinTeamSize ||
		admitted < autoAdmitMinAdmitted ||
		submitted <= autoAdmitMinSubmitted {
		return
	}

	for _, m := range members {
		if !m.Status.SubmittedApplication || m.Decided() {
			continue
		}
		if _, err := s.admission.AdmitWithCapacity(ctx, m.ID, admission.AdmitAuthority); err != nil {
			s.log.Error("auto-admit failed",
				zap.String("code", code),
				zap.String("user_id", m.ID.Hex()),
				zap.Error(err))
			continue
		}
		s.log.Info("team member auto-admitted",
			zap.String("code", code),
			zap.String("user_id", m.ID.Hex()))
	}
}
