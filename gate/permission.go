package gate

import "strings"

// Permission represents an allowed action on a resource type.
// Format: "resource:action" (e.g., "client:view", "user:add").
type Permission string

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// FromCodename converts an "<action>_<resource>" codename such as
// "view_client" or "delete_user" into a Permission.
// It returns "" when the codename has no underscore.
func FromCodename(codename string) Permission {
	action, resource, ok := strings.Cut(codename, "_")
	if !ok || action == "" || resource == "" {
		return ""
	}
	return NewPermission(resource, Action(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Codename returns the "<action>_<resource>" form of the permission.
func (p Permission) Codename() string {
	res, act := p.Parse()
	if res == "" {
		return ""
	}
	return string(act) + "_" + res
}

// Wildcards for super permissions
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// Matches checks if this permission covers a requested permission.
// "*:*" matches everything and "client:*" matches every client action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}
