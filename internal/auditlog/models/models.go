package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

// Kind selects one of the four audit logs.
type Kind string

const (
	KindOwnership      Kind = "ownership"
	KindAssignment     Kind = "assignment"
	KindAccess         Kind = "access"
	KindResponsibility Kind = "responsibility"
)

// AllKinds lists the log kinds in display order.
var AllKinds = []Kind{KindOwnership, KindAssignment, KindAccess, KindResponsibility}

func (k Kind) IsValid() bool {
	_, ok := actionLabels[k]
	return ok
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid log kind: "+s)
	}
	return k, nil
}

// Action is a closed per-kind enumeration of logged operations.
type Action string

// Ownership actions.
const (
	ActionTransfer            Action = "transfer"
	ActionRelease             Action = "release"
	ActionClaim               Action = "claim"
	ActionAddCoOwner          Action = "add_co_owner"
	ActionRemoveCoOwner       Action = "remove_co_owner"
	ActionAddMultipleCoOwners Action = "add_multiple_co_owners"
	ActionRemoveAllCoOwners   Action = "remove_all_co_owners"
)

// Assignment actions.
const (
	ActionAssign           Action = "assign"
	ActionUnassign         Action = "unassign"
	ActionReassign         Action = "reassign"
	ActionStart            Action = "start"
	ActionComplete         Action = "complete"
	ActionCancel           Action = "cancel"
	ActionAssignMultiple   Action = "assign_multiple"
	ActionReassignMultiple Action = "reassign_multiple"
	ActionAddAssignee      Action = "add_assignee"
	ActionRemoveAssignee   Action = "remove_assignee"
	ActionUnassignAll      Action = "unassign_all"
)

// Access actions.
const (
	ActionGrantUser               Action = "grant_user"
	ActionRevokeUser              Action = "revoke_user"
	ActionGrantGroup              Action = "grant_group"
	ActionRevokeGroup             Action = "revoke_group"
	ActionGrantCustomGroup        Action = "grant_custom_group"
	ActionRevokeCustomGroup       Action = "revoke_custom_group"
	ActionCreateAssignCustomGroup Action = "create_assign_custom_group"
	ActionChangeLevel             Action = "change_level"
	ActionChangeDuration          Action = "change_duration"
	ActionBulkGrantUsers          Action = "bulk_grant_users"
	ActionBulkRevokeUsers         Action = "bulk_revoke_users"
	ActionReplaceCustomGroups     Action = "replace_custom_groups"
	ActionClearCustomGroups       Action = "clear_custom_groups"
)

// Responsibility actions. Assign and transfer share names with the
// assignment and ownership logs; the kind disambiguates them.
const (
	ActionDelegate          Action = "delegate"
	ActionRevoke            Action = "revoke"
	ActionEscalate          Action = "escalate"
	ActionAddSecondary      Action = "add_secondary"
	ActionRemoveSecondary   Action = "remove_secondary"
	ActionAssignSecondary   Action = "assign_secondary"
	ActionDelegateMultiple  Action = "delegate_multiple"
	ActionTransferMultiple  Action = "transfer_multiple"
	ActionDelegateSecondary Action = "delegate_secondary"
	ActionTransferSecondary Action = "transfer_secondary"
	ActionAddResponsible    Action = "add_responsible"
	ActionRemoveResponsible Action = "remove_responsible"
	ActionRevokeAll         Action = "revoke_all"
)

var actionLabels = map[Kind]map[Action]string{
	KindOwnership: {
		ActionTransfer:            "Transfer",
		ActionRelease:             "Release",
		ActionClaim:               "Claim",
		ActionAddCoOwner:          "Add Co-owner",
		ActionRemoveCoOwner:       "Remove Co-owner",
		ActionAddMultipleCoOwners: "Add Multiple Co-owners",
		ActionRemoveAllCoOwners:   "Remove All Co-owners",
	},
	KindAssignment: {
		ActionAssign:           "Assign",
		ActionUnassign:         "Unassign",
		ActionReassign:         "Reassign",
		ActionStart:            "Start",
		ActionComplete:         "Complete",
		ActionCancel:           "Cancel",
		ActionAssignMultiple:   "Assign Multiple",
		ActionReassignMultiple: "Reassign Multiple",
		ActionAddAssignee:      "Add Assignee",
		ActionRemoveAssignee:   "Remove Assignee",
		ActionUnassignAll:      "Unassign All",
	},
	KindAccess: {
		ActionGrantUser:               "Grant User Access",
		ActionRevokeUser:              "Revoke User Access",
		ActionGrantGroup:              "Grant Group Access",
		ActionRevokeGroup:             "Revoke Group Access",
		ActionGrantCustomGroup:        "Grant Custom Group Access",
		ActionRevokeCustomGroup:       "Revoke Custom Group Access",
		ActionCreateAssignCustomGroup: "Create and Assign Custom Group",
		ActionChangeLevel:             "Change Access Level",
		ActionChangeDuration:          "Change Access Duration",
		ActionBulkGrantUsers:          "Bulk Grant User Access",
		ActionBulkRevokeUsers:         "Bulk Revoke User Access",
		ActionReplaceCustomGroups:     "Replace Custom Groups",
		ActionClearCustomGroups:       "Clear Custom Groups",
	},
	KindResponsibility: {
		ActionAssign:            "Assign",
		ActionDelegate:          "Delegate",
		ActionRevoke:            "Revoke",
		ActionTransfer:          "Transfer",
		ActionEscalate:          "Escalate",
		ActionAddSecondary:      "Add Secondary",
		ActionRemoveSecondary:   "Remove Secondary",
		ActionAssignMultiple:    "Assign Multiple",
		ActionAssignSecondary:   "Assign Secondary",
		ActionDelegateMultiple:  "Delegate Multiple",
		ActionTransferMultiple:  "Transfer Multiple",
		ActionDelegateSecondary: "Delegate Secondary",
		ActionTransferSecondary: "Transfer Secondary",
		ActionAddResponsible:    "Add Responsible",
		ActionRemoveResponsible: "Remove Responsible",
		ActionRevokeAll:         "Revoke All",
	},
}

// Allows reports whether action belongs to the kind's enumeration.
func (k Kind) Allows(a Action) bool {
	_, ok := actionLabels[k][a]
	return ok
}

// Label is the human-readable action name for the kind.
func (k Kind) Label(a Action) string {
	if label, ok := actionLabels[k][a]; ok {
		return label
	}
	return string(a)
}

// Change is what a mutation reports to the log. Identity, timing and
// request metadata are stamped by the log service.
type Change struct {
	Kind         Kind
	Action       Action
	OldActors    []id.ActorID
	NewActors    []id.ActorID
	Groups       []id.GroupID
	CustomGroups []id.CustomGroupID
	ExtraInfo    string
	Reason       string
}

// Entry is an immutable audit log row. OldActor and NewActor hold the first
// affected actor on each side; the full sets are kept in OldActors and
// NewActors so multi-actor changes stay queryable.
type Entry struct {
	ID           id.EntryID         `json:"id"`
	Kind         Kind               `json:"kind"`
	TargetModel  string             `json:"target_model"`
	TargetID     id.RecordID        `json:"target_id"`
	Action       Action             `json:"action"`
	OldActor     *id.ActorID        `json:"old_actor,omitempty"`
	NewActor     *id.ActorID        `json:"new_actor,omitempty"`
	OldActors    []id.ActorID       `json:"old_actors,omitempty"`
	NewActors    []id.ActorID       `json:"new_actors,omitempty"`
	Groups       []id.GroupID       `json:"groups,omitempty"`
	CustomGroups []id.CustomGroupID `json:"custom_groups,omitempty"`
	ExtraInfo    string             `json:"extra_info,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	PerformedBy  id.ActorID         `json:"performed_by"`
	Timestamp    time.Time          `json:"timestamp"`
	RequestID    string             `json:"request_id,omitempty"`
	Client       string             `json:"client,omitempty"`
}

// NewEntry validates the change and builds the row for it.
func NewEntry(entryID id.EntryID, model string, recordID id.RecordID, performedBy id.ActorID, c Change, now time.Time) (*Entry, error) {
	if !c.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid log kind: "+string(c.Kind))
	}
	if !c.Kind.Allows(c.Action) {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("action %q is not defined for the %s log", c.Action, c.Kind))
	}
	if model == "" || recordID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "log entry target is required")
	}
	e := &Entry{
		ID:           entryID,
		Kind:         c.Kind,
		TargetModel:  model,
		TargetID:     recordID,
		Action:       c.Action,
		OldActors:    c.OldActors,
		NewActors:    c.NewActors,
		Groups:       c.Groups,
		CustomGroups: c.CustomGroups,
		ExtraInfo:    c.ExtraInfo,
		Reason:       c.Reason,
		PerformedBy:  performedBy,
		Timestamp:    now,
	}
	if len(c.OldActors) > 0 {
		first := c.OldActors[0]
		e.OldActor = &first
	}
	if len(c.NewActors) > 0 {
		first := c.NewActors[0]
		e.NewActor = &first
	}
	return e, nil
}

// DisplayLabel combines target, action and date, e.g.
// "project.task 42 - Transfer (2025-03-14 09:26)".
func (e *Entry) DisplayLabel() string {
	return fmt.Sprintf("%s %s - %s (%s)", e.TargetModel, e.TargetID, e.Kind.Label(e.Action), e.Timestamp.Format("2006-01-02 15:04"))
}

// Involves reports whether actor performed or was affected by the change.
func (e *Entry) Involves(actor id.ActorID) bool {
	return e.PerformedBy == actor ||
		slices.Contains(e.OldActors, actor) ||
		slices.Contains(e.NewActors, actor)
}

// Filter narrows log listings. Zero values match everything.
type Filter struct {
	Kinds    []Kind
	Model    string
	TargetID *id.RecordID
	Actor    *id.ActorID
	Actions  []Action
	From     *time.Time
	To       *time.Time
	Limit    int
}

func (f Filter) Matches(e *Entry) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	if f.Model != "" && e.TargetModel != f.Model {
		return false
	}
	if f.TargetID != nil && e.TargetID != *f.TargetID {
		return false
	}
	if f.Actor != nil && !e.Involves(*f.Actor) {
		return false
	}
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, e.Action) {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.Timestamp.Before(*f.To) {
		return false
	}
	return true
}

// Navigation describes how to open the live target of an entry.
type Navigation struct {
	Model    string      `json:"model"`
	RecordID id.RecordID `json:"record_id"`
	Path     string      `json:"path"`
}

// ChangeSummary renders the before and after actor names of a change as
// "Previous: a, b | New: c". Either side may be empty.
func ChangeSummary(oldNames, newNames []string) string {
	var parts []string
	if len(oldNames) > 0 {
		parts = append(parts, "Previous: "+strings.Join(oldNames, ", "))
	}
	if len(newNames) > 0 {
		parts = append(parts, "New: "+strings.Join(newNames, ", "))
	}
	return strings.Join(parts, " | ")
}
