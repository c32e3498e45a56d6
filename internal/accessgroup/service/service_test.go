package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"stewardship/internal/accessgroup/models"
	"stewardship/internal/accessgroup/service/mocks"
	"stewardship/internal/accessgroup/store"
	dirservice "stewardship/internal/directory/service"
	dirstore "stewardship/internal/directory/store"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/tx"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/testutil"
)

type recordingListener struct {
	changed []id.CustomGroupID
}

func (l *recordingListener) GroupChanged(_ context.Context, groupID id.CustomGroupID) {
	l.changed = append(l.changed, groupID)
}

// commitFailingRunner runs the unit of work and then fails as a commit would.
type commitFailingRunner struct{}

func (commitFailingRunner) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return dErrors.New(dErrors.CodeInternal, "commit failed")
}

type AccessGroupSuite struct {
	suite.Suite
	now       time.Time
	directory *dirservice.Service
	listener  *recordingListener
	service   *Service
	manager   id.ActorID
	alice     id.ActorID
	bob       id.ActorID
	admin     id.ActorID
}

func TestAccessGroupSuite(t *testing.T) {
	suite.Run(t, new(AccessGroupSuite))
}

func (s *AccessGroupSuite) SetupTest() {
	s.now = testutil.FixedNow
	s.directory = dirservice.New(dirstore.NewInMemory())
	s.listener = &recordingListener{}
	s.service = New(store.NewInMemory(), s.directory, tx.NewShardedRunner(time.Second), WithListener(s.listener))
	s.manager = s.register("Maya Manager", false)
	s.alice = s.register("Alice", false)
	s.bob = s.register("Bob", false)
	s.admin = s.register("Ada Admin", true)
}

func (s *AccessGroupSuite) register(name string, admin bool) id.ActorID {
	actor, err := s.directory.RegisterActor(context.Background(), dirservice.RegisterActorCommand{Name: name, Admin: admin})
	s.Require().NoError(err)
	return actor.ID
}

func (s *AccessGroupSuite) as(actor id.ActorID) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithActorID(ctx, actor)
}

func (s *AccessGroupSuite) assertCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *AccessGroupSuite) group(name string, members ...id.ActorID) *models.Group {
	g, err := s.service.Create(s.as(s.manager), CreateCommand{Name: name, Members: members})
	s.Require().NoError(err)
	return g
}

func (s *AccessGroupSuite) TestCreate() {
	g, err := s.service.Create(s.as(s.manager), CreateCommand{
		Name:        "  Release crew ",
		Description: "people shipping 2.0",
		Members:     []id.ActorID{s.alice, s.bob, s.alice},
	})
	s.Require().NoError(err)

	s.Equal("Release crew", g.Name)
	s.Equal(models.TypeGeneral, g.Type)
	s.True(g.Active)
	s.Equal([]id.ActorID{s.alice, s.bob}, g.Members)
	s.Equal([]id.ActorID{s.manager}, g.Managers, "the creator manages the group")
	s.Equal("Release crew (2 users)", g.DisplayName())

	stored, err := s.service.Get(s.as(s.alice), g.ID)
	s.Require().NoError(err)
	s.Equal(g.Members, stored.Members)

	byName, err := s.service.FindByName(s.as(s.alice), "release CREW")
	s.Require().NoError(err)
	s.Equal(g.ID, byName.ID)
}

func (s *AccessGroupSuite) TestCreateRejections() {
	s.group("Release crew", s.alice)
	past := s.now.Add(-time.Hour)

	_, err := s.service.Create(s.as(s.manager), CreateCommand{Name: "RELEASE CREW", Members: []id.ActorID{s.bob}})
	s.assertCode(err, dErrors.CodeConflict)

	_, err = s.service.Create(s.as(s.manager), CreateCommand{Name: "Nobody"})
	s.assertCode(err, dErrors.CodeInvalidState)

	_, err = s.service.Create(s.as(s.manager), CreateCommand{Name: "Ghosts", Members: []id.ActorID{id.ActorID(uuid.New())}})
	s.assertCode(err, dErrors.CodeInvalidReference)

	_, err = s.service.Create(s.as(s.manager), CreateCommand{Name: "Contractors", Type: models.TypeTemporary, Members: []id.ActorID{s.bob}})
	s.assertCode(err, dErrors.CodeInvalidInput)

	_, err = s.service.Create(s.as(s.manager), CreateCommand{Name: "Contractors", Type: models.TypeTemporary, ExpiresAt: &past, Members: []id.ActorID{s.bob}})
	s.assertCode(err, dErrors.CodeInvalidInput)

	_, err = s.service.Create(s.as(s.manager), CreateCommand{Name: "Apollo", Type: models.TypeProject, Members: []id.ActorID{s.bob}})
	s.assertCode(err, dErrors.CodeInvalidInput)
}

func (s *AccessGroupSuite) TestTemplates() {
	team, err := s.service.CreateProjectTeam(s.as(s.manager), "Apollo", []id.ActorID{s.alice})
	s.Require().NoError(err)
	s.Equal("Project Team - Apollo", team.Name)
	s.Equal(models.TypeProject, team.Type)
	s.Equal("Apollo", team.ProjectName)

	dept, err := s.service.CreateDepartment(s.as(s.manager), "Finance", []id.ActorID{s.bob})
	s.Require().NoError(err)
	s.Equal("Department - Finance", dept.Name)
	s.Equal("Access group for Finance department", dept.Description)

	_, err = s.service.CreateProjectTeam(s.as(s.manager), " ", []id.ActorID{s.alice})
	s.assertCode(err, dErrors.CodeInvalidInput)
}

func (s *AccessGroupSuite) TestMembership() {
	g := s.group("Release crew", s.alice)

	updated, err := s.service.AddMembers(s.as(s.manager), g.ID, []id.ActorID{s.alice, s.bob}, "joining")
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.alice, s.bob}, updated.Members)
	s.Equal([]id.CustomGroupID{g.ID}, s.listener.changed)

	// already a member: nothing stored, nobody notified
	_, err = s.service.AddMember(s.as(s.manager), g.ID, s.bob, "")
	s.Require().NoError(err)
	s.Len(s.listener.changed, 1)

	updated, err = s.service.RemoveMember(s.as(s.manager), g.ID, s.alice, "")
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.bob}, updated.Members)

	_, err = s.service.RemoveMembers(s.as(s.manager), g.ID, []id.ActorID{s.bob}, "")
	s.assertCode(err, dErrors.CodeInvalidState)

	_, err = s.service.AddMembers(s.as(s.manager), g.ID, nil, "")
	s.assertCode(err, dErrors.CodeInvalidInput)

	_, err = s.service.AddMember(s.as(s.manager), g.ID, id.ActorID(uuid.New()), "")
	s.assertCode(err, dErrors.CodeInvalidReference)
}

func (s *AccessGroupSuite) TestListenersWaitForCommit() {
	groups := store.NewInMemory()
	listener := &recordingListener{}
	svc := New(groups, s.directory, commitFailingRunner{}, WithListener(listener))
	soon := s.now.Add(time.Hour)
	g, err := svc.Create(s.as(s.manager), CreateCommand{
		Name:      "Night shift",
		Type:      models.TypeTemporary,
		ExpiresAt: &soon,
		Members:   []id.ActorID{s.alice},
	})
	s.Require().NoError(err)

	_, err = svc.AddMember(s.as(s.manager), g.ID, s.bob, "")
	s.assertCode(err, dErrors.CodeInternal)
	s.Empty(listener.changed)

	s.now = s.now.Add(2 * time.Hour)
	n, err := svc.ExpireDue(s.as(s.manager))
	s.assertCode(err, dErrors.CodeInternal)
	s.Zero(n)
	s.Empty(listener.changed)
}

func (s *AccessGroupSuite) TestOnlyManagersChangeGroups() {
	g := s.group("Release crew", s.alice)

	_, err := s.service.AddMember(s.as(s.alice), g.ID, s.bob, "")
	s.assertCode(err, dErrors.CodeForbidden)

	_, err = s.service.AddMember(s.as(s.admin), g.ID, s.bob, "")
	s.Require().NoError(err)

	_, err = s.service.AddManagers(s.as(s.manager), g.ID, []id.ActorID{s.alice})
	s.Require().NoError(err)
	_, err = s.service.RemoveMember(s.as(s.alice), g.ID, s.bob, "")
	s.Require().NoError(err)
}

func (s *AccessGroupSuite) TestLastManagerCannotBeRemoved() {
	g := s.group("Release crew", s.alice)

	_, err := s.service.RemoveManagers(s.as(s.manager), g.ID, []id.ActorID{s.manager})
	s.assertCode(err, dErrors.CodeInvalidState)

	_, err = s.service.AddManagers(s.as(s.manager), g.ID, []id.ActorID{s.bob})
	s.Require().NoError(err)
	updated, err := s.service.RemoveManagers(s.as(s.manager), g.ID, []id.ActorID{s.manager})
	s.Require().NoError(err)
	s.Equal([]id.ActorID{s.bob}, updated.Managers)
	s.True(updated.IsManager(s.manager), "the creator keeps managing the group")
}

func (s *AccessGroupSuite) TestUpdate() {
	g := s.group("Release crew", s.alice)
	name := "Launch crew"
	later := s.now.Add(48 * time.Hour)

	updated, err := s.service.Update(s.as(s.manager), g.ID, UpdateCommand{Name: &name, ExpiresAt: &later})
	s.Require().NoError(err)
	s.Equal("Launch crew", updated.Name)
	s.Equal(later, *updated.ExpiresAt)

	s.group("Ops", s.bob)
	taken := "ops"
	_, err = s.service.Update(s.as(s.manager), g.ID, UpdateCommand{Name: &taken})
	s.assertCode(err, dErrors.CodeConflict)

	blank := " "
	_, err = s.service.Update(s.as(s.manager), g.ID, UpdateCommand{Name: &blank})
	s.assertCode(err, dErrors.CodeInvalidInput)
}

func (s *AccessGroupSuite) TestDuplicate() {
	g := s.group("Release crew", s.alice, s.bob)

	withMembers, err := s.service.Duplicate(s.as(s.admin), g.ID, "Release crew 2", true)
	s.Require().NoError(err)
	s.True(withMembers.Active)
	s.Equal(g.Members, withMembers.Members)
	s.Equal(s.admin, withMembers.CreatedBy)
	s.ElementsMatch([]id.ActorID{s.admin, s.manager}, withMembers.Managers)

	empty, err := s.service.Duplicate(s.as(s.manager), g.ID, "", false)
	s.Require().NoError(err)
	s.Equal("Release crew (copy)", empty.Name)
	s.False(empty.Active, "an empty copy starts archived")
	s.Empty(empty.Members)

	_, err = s.service.Reactivate(s.as(s.manager), empty.ID)
	s.assertCode(err, dErrors.CodeInvalidState)
	_, err = s.service.AddMember(s.as(s.manager), empty.ID, s.alice, "")
	s.Require().NoError(err)
	reactivated, err := s.service.Reactivate(s.as(s.manager), empty.ID)
	s.Require().NoError(err)
	s.True(reactivated.Active)

	_, err = s.service.Duplicate(s.as(s.alice), g.ID, "Mine", true)
	s.assertCode(err, dErrors.CodeForbidden)
}

func (s *AccessGroupSuite) TestArchive() {
	g := s.group("Release crew", s.alice)

	archived, err := s.service.Archive(s.as(s.manager), g.ID, "project over")
	s.Require().NoError(err)
	s.False(archived.Active)
	s.Equal(s.now, *archived.ArchivedAt)
	s.Empty(archived.ActiveMembers())

	// archived groups may be emptied
	_, err = s.service.RemoveMember(s.as(s.manager), g.ID, s.alice, "")
	s.Require().NoError(err)

	active, err := s.service.List(s.as(s.manager), models.Filter{ActiveOnly: true})
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *AccessGroupSuite) TestExpireDue() {
	soon := s.now.Add(time.Hour)
	temp, err := s.service.Create(s.as(s.manager), CreateCommand{
		Name:      "Auditors",
		Type:      models.TypeTemporary,
		ExpiresAt: &soon,
		Members:   []id.ActorID{s.alice},
	})
	s.Require().NoError(err)
	s.group("Permanent", s.bob)

	n, err := s.service.ExpireDue(s.as(s.manager))
	s.Require().NoError(err)
	s.Zero(n)

	s.now = s.now.Add(2 * time.Hour)
	n, err = s.service.ExpireDue(s.as(s.manager))
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal([]id.CustomGroupID{temp.ID}, s.listener.changed)

	n, err = s.service.ExpireDue(s.as(s.manager))
	s.Require().NoError(err)
	s.Zero(n, "archived groups do not expire twice")

	stored, err := s.service.Get(s.as(s.manager), temp.ID)
	s.Require().NoError(err)
	s.False(stored.Active)

	_, err = s.service.Reactivate(s.as(s.manager), temp.ID)
	s.assertCode(err, dErrors.CodeInvalidState)
}

func (s *AccessGroupSuite) TestNameLengthLimit() {
	_, err := s.service.Create(s.as(s.manager), CreateCommand{Name: strings.Repeat("n", 101), Members: []id.ActorID{s.alice}})
	s.assertCode(err, dErrors.CodeValidation)
}

func (s *AccessGroupSuite) TestStoreFailures() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	svc := New(st, s.directory, tx.NewShardedRunner(time.Second))
	boom := errors.New("connection reset")

	st.EXPECT().FindByID(gomock.Any(), testutil.TestIDs.CustomGroupID1).Return(nil, boom)
	_, err := svc.Get(s.as(s.manager), testutil.TestIDs.CustomGroupID1)
	s.assertCode(err, dErrors.CodeInternal)

	st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)
	_, err = svc.Create(s.as(s.manager), CreateCommand{Name: "Crew", Members: []id.ActorID{s.alice}})
	s.assertCode(err, dErrors.CodeInternal)

	st.EXPECT().List(gomock.Any(), models.Filter{ActiveOnly: true}).Return(nil, boom)
	_, err = svc.ExpireDue(s.as(s.manager))
	s.assertCode(err, dErrors.CodeInternal)
}
