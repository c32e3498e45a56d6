// Package models defines the custom access group: a user-managed set of
// actors that can be granted access to records as a unit.
package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/platform/validation"
)

type Type string

const (
	TypeGeneral    Type = "general"
	TypeProject    Type = "project"
	TypeDepartment Type = "department"
	TypeTemporary  Type = "temporary"
	TypeExternal   Type = "external"
	TypeCustom     Type = "custom"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeGeneral, TypeProject, TypeDepartment, TypeTemporary, TypeExternal, TypeCustom:
		return true
	}
	return false
}

// ParseType defaults an empty value to general.
func ParseType(s string) (Type, error) {
	if s == "" {
		return TypeGeneral, nil
	}
	t := Type(strings.ToLower(s))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid group type: "+s)
	}
	return t, nil
}

// Group is a custom access group. While active it always has at least one
// member and at least one manager.
type Group struct {
	ID             id.CustomGroupID `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Type           Type             `json:"type"`
	ProjectName    string           `json:"project_name,omitempty"`
	DepartmentName string           `json:"department_name,omitempty"`
	Members        []id.ActorID     `json:"members"`
	Managers       []id.ActorID     `json:"managers"`
	Active         bool             `json:"active"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	CreatedBy      id.ActorID       `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	ArchivedAt     *time.Time       `json:"archived_at,omitempty"`
}

// Validate checks the invariants that hold on every stored group.
func (g *Group) Validate() error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "group name cannot be empty")
	}
	if err := validation.CheckStringLength("name", name, validation.MaxGroupNameLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("description", g.Description, validation.MaxDescriptionLength); err != nil {
		return err
	}
	if !g.Type.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid group type: "+string(g.Type))
	}
	switch g.Type {
	case TypeTemporary:
		if g.ExpiresAt == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "temporary groups require an expiry date")
		}
	case TypeProject:
		if strings.TrimSpace(g.ProjectName) == "" && !strings.Contains(name, "Project:") {
			return dErrors.New(dErrors.CodeInvalidInput, "project groups require a project name")
		}
	case TypeDepartment:
		if strings.TrimSpace(g.DepartmentName) == "" && !strings.Contains(name, "Department:") {
			return dErrors.New(dErrors.CodeInvalidInput, "department groups require a department name")
		}
	}
	if g.Active && len(g.Members) == 0 {
		return dErrors.New(dErrors.CodeInvalidState, "active access groups must have at least one member")
	}
	if g.Active && len(g.Managers) == 0 {
		return dErrors.New(dErrors.CodeInvalidState, "active access groups must have at least one manager")
	}
	return nil
}

func (g *Group) IsMember(actor id.ActorID) bool {
	return slices.Contains(g.Members, actor)
}

// IsManager is true for the creator and the explicit managers. Platform
// admins manage every group; the service checks that.
func (g *Group) IsManager(actor id.ActorID) bool {
	return g.CreatedBy == actor || slices.Contains(g.Managers, actor)
}

func (g *Group) MemberCount() int {
	return len(g.Members)
}

// IsExpired is true for an active group whose expiry has passed.
func (g *Group) IsExpired(now time.Time) bool {
	return g.Active && g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// DisplayName renders the group with its member count.
func (g *Group) DisplayName() string {
	return fmt.Sprintf("%s (%d users)", g.Name, len(g.Members))
}

// ActiveMembers returns the members that grant access: none for an
// archived group.
func (g *Group) ActiveMembers() []id.ActorID {
	if !g.Active {
		return nil
	}
	return g.Members
}

func (g *Group) Clone() *Group {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	cp.Managers = slices.Clone(g.Managers)
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		cp.ExpiresAt = &t
	}
	if g.ArchivedAt != nil {
		t := *g.ArchivedAt
		cp.ArchivedAt = &t
	}
	return &cp
}

// ProjectTeamName and DepartmentName build the names of template groups.
func ProjectTeamName(project string) string {
	return "Project Team - " + strings.TrimSpace(project)
}

func DepartmentName(department string) string {
	return "Department - " + strings.TrimSpace(department)
}

func ProjectTeamDescription(project string) string {
	return "Access group for " + strings.TrimSpace(project) + " project team members"
}

func DepartmentDescription(department string) string {
	return "Access group for " + strings.TrimSpace(department) + " department"
}

// Filter narrows group listings.
type Filter struct {
	ActiveOnly bool
	Type       Type
	Member     *id.ActorID
	Manager    *id.ActorID
}

// Matches reports whether g passes the filter.
func (f Filter) Matches(g *Group) bool {
	if f.ActiveOnly && !g.Active {
		return false
	}
	if f.Type != "" && g.Type != f.Type {
		return false
	}
	if f.Member != nil && !g.IsMember(*f.Member) {
		return false
	}
	if f.Manager != nil && !g.IsManager(*f.Manager) {
		return false
	}
	return true
}
