package teams_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dalemusser/hackhub/internal/app/admission"
	"github.com/dalemusser/hackhub/internal/app/features/teams"
	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	teamstore "github.com/dalemusser/hackhub/internal/app/store/teams"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/events"
	"github.com/dalemusser/hackhub/internal/app/teamops"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/dalemusser/hackhub/internal/testutil"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type teamsHarness struct {
	handler  *teams.Handler
	teams    *teamstore.Store
	users    *userstore.Store
	fixtures *testutil.Fixtures
}

func newTeamsHarness(t *testing.T, db *mongo.Database) *teamsHarness {
	users := userstore.New(db)
	teamsStore := teamstore.New(db)
	settings := settingsstore.New(db)
	bus := events.NewSyncDispatcher(zap.NewNop())
	adm := admission.NewService(users, settings, nil, bus, zap.NewNop())
	ops := teamops.NewService(teamsStore, users, adm, nil, bus, zap.NewNop())
	ops.SubscribeEvents()
	return &teamsHarness{
		handler:  teams.NewHandler(teamsStore, users, ops, zap.NewNop()),
		teams:    teamsStore,
		users:    users,
		fixtures: testutil.NewFixtures(t, db),
	}
}

func memberAs(u models.User) testutil.TestUser {
	return testutil.TestUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName(),
		Email: u.Email,
		Level: models.LevelHacker,
	}
}

func decodeTeam(t *testing.T, rec *testutil.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCreate_MakesTeamWithCreatorOnRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := h.fixtures.CreateApplicant(ctx, "Cap", "Tain", "cap@example.com")

	req := testutil.NewJSONRequest("POST", "/teams", `{"name":"Bit Lords"}`)
	req = testutil.WithUser(req, memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	body := decodeTeam(t, rec)
	code, _ := body["code"].(string)
	if len(code) != 7 {
		t.Fatalf("expected 7-char join code, got %q", code)
	}

	got, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.TeamCode != code {
		t.Errorf("team code not stamped on user: got %q want %q", got.TeamCode, code)
	}
}

func TestCreate_DuplicateNameConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h.fixtures.CreateTeam(ctx, "Bit Lords")
	user := h.fixtures.CreateApplicant(ctx, "Cap", "Tain", "cap@example.com")

	req := testutil.NewJSONRequest("POST", "/teams", `{"name":"bit lords"}`)
	req = testutil.WithUser(req, memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestCreate_WhileOnTeamConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := h.fixtures.CreateApplicant(ctx, "Cap", "Tain", "cap@example.com")
	team := h.fixtures.CreateTeam(ctx, "First Team", user.ID)
	if err := h.users.SetTeamCode(ctx, user.ID, team.Code); err != nil {
		t.Fatalf("stamp team code: %v", err)
	}

	req := testutil.NewJSONRequest("POST", "/teams", `{"name":"Second Team"}`)
	req = testutil.WithUser(req, memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusConflict)

	if _, err := h.teams.GetByCode(ctx, team.Code); err != nil {
		t.Errorf("original team should be untouched: %v", err)
	}
}

func TestJoin_AddsMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := h.fixtures.CreateTeam(ctx, "Bit Lords")
	user := h.fixtures.CreateApplicant(ctx, "Joi", "Ner", "joi@example.com")

	req := testutil.NewJSONRequest("POST", "/teams/join", `{"code":"`+team.Code+`"}`)
	req = testutil.WithUser(req, memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeJoin(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	got, err := h.teams.GetByCode(ctx, team.Code)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if !got.HasMember(user.ID) {
		t.Error("user should be on the roster")
	}
}

func TestJoin_FullTeamConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	members := make([]models.User, 0, models.MaxTeamSize)
	for i := 0; i < models.MaxTeamSize; i++ {
		members = append(members, h.fixtures.CreateApplicant(ctx, "Mem", string(rune('A'+i)), string(rune('a'+i))+"@example.com"))
	}
	team := h.fixtures.CreateTeam(ctx, "Full House", members[0].ID, members[1].ID, members[2].ID, members[3].ID)

	late := h.fixtures.CreateApplicant(ctx, "Too", "Late", "late@example.com")
	req := testutil.NewJSONRequest("POST", "/teams/join", `{"code":"`+team.Code+`"}`)
	req = testutil.WithUser(req, memberAs(late))
	rec := testutil.NewRecorder()
	h.handler.ServeJoin(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "full")
}

func TestJoin_UnknownCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := h.fixtures.CreateApplicant(ctx, "Joi", "Ner", "joi@example.com")

	req := testutil.NewJSONRequest("POST", "/teams/join", `{"code":"0000000"}`)
	req = testutil.WithUser(req, memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeJoin(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestLeave_LastMemberOutDeletesTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := h.fixtures.CreateApplicant(ctx, "Solo", "Member", "solo@example.com")
	team := h.fixtures.CreateTeam(ctx, "Short Lived", user.ID)
	if err := h.users.SetTeamCode(ctx, user.ID, team.Code); err != nil {
		t.Fatalf("stamp team code: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("POST", "/teams/leave", memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeLeave(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	if _, err := h.teams.GetByCode(ctx, team.Code); err != teamstore.ErrNotFound {
		t.Errorf("empty team should be deleted, got err=%v", err)
	}
	got, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.TeamCode != "" {
		t.Errorf("team code should be cleared, got %q", got.TeamCode)
	}
}

func TestLeave_NotOnTeamConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := h.fixtures.CreateApplicant(ctx, "No", "Team", "noteam@example.com")

	req := testutil.NewAuthenticatedRequest("POST", "/teams/leave", memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeLeave(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestMine_ReturnsOwnTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := h.fixtures.CreateApplicant(ctx, "Mem", "Ber", "mem@example.com")
	team := h.fixtures.CreateTeam(ctx, "Bit Lords", user.ID)
	if err := h.users.SetTeamCode(ctx, user.ID, team.Code); err != nil {
		t.Fatalf("stamp team code: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/teams/mine", memberAs(user))
	rec := testutil.NewRecorder()
	h.handler.ServeMine(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, team.Code)
	rec.AssertContains(t, "Bit Lords")
}

func TestDeactivate_ReleasesMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := h.fixtures.CreateApplicant(ctx, "Mem", "Ber", "mem@example.com")
	team := h.fixtures.CreateTeam(ctx, "Bit Lords", user.ID)
	if err := h.users.SetTeamCode(ctx, user.ID, team.Code); err != nil {
		t.Fatalf("stamp team code: %v", err)
	}

	admin := testutil.AdminUser()
	req := testutil.NewAuthenticatedRequest("POST", "/teams/"+team.Code+"/deactivate", admin)
	req = testutil.WithChiURLParam(req, "code", team.Code)
	rec := testutil.NewRecorder()
	h.handler.ServeDeactivate(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"active":false`)

	got, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.TeamCode != "" {
		t.Errorf("member should be released from deactivated team, got %q", got.TeamCode)
	}
}

func TestPoints_FanOutToMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := h.fixtures.CreateApplicant(ctx, "Mem", "A", "a@example.com")
	b := h.fixtures.CreateApplicant(ctx, "Mem", "B", "b@example.com")
	team := h.fixtures.CreateTeam(ctx, "Bit Lords", a.ID, b.ID)

	admin := testutil.AdminUser()
	req := testutil.NewJSONRequest("POST", "/teams/"+team.Code+"/points", `{"amount":25,"notes":"best demo"}`)
	req = testutil.WithUser(req, admin)
	req = testutil.WithChiURLParam(req, "code", team.Code)
	rec := testutil.NewRecorder()
	h.handler.ServePoints(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	gotTeam, err := h.teams.GetByCode(ctx, team.Code)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if gotTeam.PointsTotal() != 25 {
		t.Errorf("team points: got %d, want 25", gotTeam.PointsTotal())
	}
	gotA, err := h.users.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if gotA.PointsTotal() != 25 {
		t.Errorf("member points: got %d, want 25", gotA.PointsTotal())
	}
}

func TestAutoAdmit_FollowsQualifyingJoin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTeamsHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h.fixtures.CreateSettings(ctx, 100)

	adm1 := h.fixtures.CreateAdmittedUser(ctx, "Adm", "One", "adm1@example.com")
	adm2 := h.fixtures.CreateAdmittedUser(ctx, "Adm", "Two", "adm2@example.com")
	pending := h.fixtures.CreateApplicant(ctx, "Pen", "Ding", "pending@example.com")

	team := h.fixtures.CreateTeam(ctx, "Stacked", adm1.ID, adm2.ID)
	for _, u := range []models.User{adm1, adm2} {
		if err := h.users.SetTeamCode(ctx, u.ID, team.Code); err != nil {
			t.Fatalf("stamp team code: %v", err)
		}
	}

	req := testutil.NewJSONRequest("POST", "/teams/join", `{"code":"`+team.Code+`"}`)
	req = testutil.WithUser(req, memberAs(pending))
	rec := testutil.NewRecorder()
	h.handler.ServeJoin(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	got, err := h.users.GetByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("reload joiner: %v", err)
	}
	if !got.Status.Admitted {
		t.Error("submitted member of a qualifying team should be auto-admitted")
	}
	if got.Status.AdmittedBy != admission.AdmitAuthority {
		t.Errorf("admitted_by: got %q, want %q", got.Status.AdmittedBy, admission.AdmitAuthority)
	}
}
