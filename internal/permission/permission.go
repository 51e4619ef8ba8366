package permission

import "slices"

// Entry associates one application with the roles a user holds in it.
type Entry struct {
	AppID string   `json:"appId"`
	Roles []string `json:"roles"`
}

// List is a user's permission list. It holds at most one entry per AppID and
// never an entry without roles.
//
// The mutating operations below are pure: they return a new List and leave the
// receiver untouched.
type List []Entry

// Clone returns a deep copy of l. A nil list clones to an empty one so that it
// serializes as [] rather than null.
func (l List) Clone() List {
	out := make(List, len(l))
	for i, e := range l {
		out[i] = Entry{AppID: e.AppID, Roles: slices.Clone(e.Roles)}
		if out[i].Roles == nil {
			out[i].Roles = []string{}
		}
	}
	return out
}

// Index returns the position of the entry for appID, or -1.
func (l List) Index(appID string) int {
	return slices.IndexFunc(l, func(e Entry) bool { return e.AppID == appID })
}

// Roles returns the roles held for appID.
func (l List) Roles(appID string) []string {
	if i := l.Index(appID); i != -1 {
		return slices.Clone(l[i].Roles)
	}
	return nil
}

func (l List) HasRole(appID, role string) bool {
	i := l.Index(appID)
	return i != -1 && slices.Contains(l[i].Roles, role)
}

// Grant adds role to the entry for appID, creating the entry when needed.
// Granting a role already held returns an equal list.
func (l List) Grant(appID, role string) List {
	out := l.Clone()
	i := out.Index(appID)
	if i == -1 {
		return append(out, Entry{AppID: appID, Roles: []string{role}})
	}
	if !slices.Contains(out[i].Roles, role) {
		out[i].Roles = append(out[i].Roles, role)
	}
	return out
}

// Replace removes the first occurrence of oldRole from the entry for appID and
// appends newRole. newRole is appended even when oldRole was not held.
func (l List) Replace(appID, oldRole, newRole string) List {
	out := l.Clone()
	i := out.Index(appID)
	if i == -1 {
		return append(out, Entry{AppID: appID, Roles: []string{newRole}})
	}
	if j := slices.Index(out[i].Roles, oldRole); j != -1 {
		out[i].Roles = slices.Delete(out[i].Roles, j, j+1)
	}
	out[i].Roles = append(out[i].Roles, newRole)
	return out
}

// Revoke removes the first occurrence of role from the entry for appID and
// drops the entry once it has no roles left. Unknown apps or roles leave the
// list unchanged.
func (l List) Revoke(appID, role string) List {
	out := l.Clone()
	i := out.Index(appID)
	if i == -1 {
		return out
	}
	j := slices.Index(out[i].Roles, role)
	if j == -1 {
		return out
	}
	out[i].Roles = slices.Delete(out[i].Roles, j, j+1)
	if len(out[i].Roles) == 0 {
		out = slices.Delete(out, i, i+1)
	}
	return out
}

// Operation is a single mutation applied to a permission list on behalf of an
// application.
type Operation interface {
	Apply(l List, appID string) List
	Name() string
}

type GrantOp struct{ Role string }

func (o GrantOp) Apply(l List, appID string) List { return l.Grant(appID, o.Role) }
func (GrantOp) Name() string { return "grant" }

type ReplaceOp struct{ OldRole, NewRole string }

func (o ReplaceOp) Apply(l List, appID string) List { return l.Replace(appID, o.OldRole, o.NewRole) }
func (ReplaceOp) Name() string { return "replace" }

type RevokeOp struct{ Role string }

func (o RevokeOp) Apply(l List, appID string) List { return l.Revoke(appID, o.Role) }
func (RevokeOp) Name() string { return "revoke" }
