package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

func validGroup() *Group {
	actor := id.ActorID(uuid.New())
	return &Group{
		ID:       id.CustomGroupID(uuid.New()),
		Name:     "Release crew",
		Type:     TypeGeneral,
		Members:  []id.ActorID{actor},
		Managers: []id.ActorID{actor},
		Active:   true,
	}
}

func TestValidate(t *testing.T) {
	expiry := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(g *Group)
		code   dErrors.Code
	}{
		{"valid", func(*Group) {}, ""},
		{"blank name", func(g *Group) { g.Name = "  " }, dErrors.CodeInvalidInput},
		{"long name", func(g *Group) { g.Name = strings.Repeat("x", 101) }, dErrors.CodeValidation},
		{"unknown type", func(g *Group) { g.Type = "club" }, dErrors.CodeInvalidInput},
		{"temporary without expiry", func(g *Group) { g.Type = TypeTemporary }, dErrors.CodeInvalidInput},
		{"temporary with expiry", func(g *Group) { g.Type = TypeTemporary; g.ExpiresAt = &expiry }, ""},
		{"project without project name", func(g *Group) { g.Type = TypeProject }, dErrors.CodeInvalidInput},
		{"project named inline", func(g *Group) { g.Type = TypeProject; g.Name = "Project: Apollo" }, ""},
		{"department with name", func(g *Group) { g.Type = TypeDepartment; g.DepartmentName = "Finance" }, ""},
		{"active without members", func(g *Group) { g.Members = nil }, dErrors.CodeInvalidState},
		{"archived without members", func(g *Group) { g.Members = nil; g.Active = false }, ""},
		{"active without managers", func(g *Group) { g.Managers = nil }, dErrors.CodeInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGroup()
			tt.mutate(g)
			err := g.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeGeneral, typ)

	typ, err = ParseType("Temporary")
	require.NoError(t, err)
	assert.Equal(t, TypeTemporary, typ)

	_, err = ParseType("club")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDerivedState(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	g := validGroup()
	g.Members = append(g.Members, id.ActorID(uuid.New()))

	assert.Equal(t, "Release crew (2 users)", g.DisplayName())
	assert.Len(t, g.ActiveMembers(), 2)
	assert.False(t, g.IsExpired(now))

	past := now.Add(-time.Minute)
	g.ExpiresAt = &past
	assert.True(t, g.IsExpired(now))

	g.Active = false
	assert.False(t, g.IsExpired(now), "archived groups are not expired again")
	assert.Empty(t, g.ActiveMembers())
}

func TestCloneIsDeep(t *testing.T) {
	g := validGroup()
	cp := g.Clone()
	cp.Members[0] = id.ActorID(uuid.New())
	cp.Managers = append(cp.Managers, id.ActorID(uuid.New()))

	assert.NotEqual(t, g.Members[0], cp.Members[0])
	assert.Len(t, g.Managers, 1)
}

func TestFilter(t *testing.T) {
	g := validGroup()
	member := g.Members[0]
	other := id.ActorID(uuid.New())

	assert.True(t, Filter{}.Matches(g))
	assert.True(t, Filter{ActiveOnly: true, Type: TypeGeneral, Member: &member}.Matches(g))
	assert.False(t, Filter{Member: &other}.Matches(g))
	assert.False(t, Filter{Manager: &other}.Matches(g))
	g.CreatedBy = other
	assert.True(t, Filter{Manager: &other}.Matches(g), "the creator manages the group")
	assert.False(t, Filter{Type: TypeExternal}.Matches(g))

	g.Active = false
	assert.False(t, Filter{ActiveOnly: true}.Matches(g))
}

func TestTemplateNames(t *testing.T) {
	assert.Equal(t, "Project Team - Apollo", ProjectTeamName(" Apollo "))
	assert.Equal(t, "Access group for Apollo project team members", ProjectTeamDescription("Apollo"))
	assert.Equal(t, "Department - Finance", DepartmentName("Finance"))
	assert.Equal(t, "Access group for Finance department", DepartmentDescription("Finance"))
}
