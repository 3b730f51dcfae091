package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Document is a JSON record in a named collection of the document store.
type Document struct {
	ID          string          `json:"$id"`
	Collection  string          `json:"$collection"`
	Data        json.RawMessage `json:"data"`
	Permissions []string        `json:"$permissions"`
	CreatedAt   time.Time       `json:"$createdAt"`
	UpdatedAt   time.Time       `json:"$updatedAt"`
}

// Decode unmarshals the document data into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decoding document %s: %w", d.ID, err)
	}
	return nil
}

type DocumentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// Filter compares one top-level string field of the document data.
type Filter struct {
	Field string
	Value string
}

// Query selects documents of one collection. Equal filters must all match;
// when AnyOf is set at least one of its filters must match; Search matches
// a case-insensitive substring. Results are in insertion order, starting
// after CursorAfter when set.
type Query struct {
	Equal       []Filter
	AnyOf       []Filter
	Search      *Filter
	Limit       int
	CursorAfter string
}

const DefaultQueryLimit = 25

func (q Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultQueryLimit
	}
	return q.Limit
}

// Matches evaluates the filters of q against decoded document fields.
func (q Query) Matches(fields map[string]any) bool {
	for _, f := range q.Equal {
		if fieldString(fields, f.Field) != f.Value {
			return false
		}
	}
	if len(q.AnyOf) > 0 {
		matched := false
		for _, f := range q.AnyOf {
			if fieldString(fields, f.Field) == f.Value {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if q.Search != nil {
		v := strings.ToLower(fieldString(fields, q.Search.Field))
		if !strings.Contains(v, strings.ToLower(q.Search.Value)) {
			return false
		}
	}
	return true
}

func fieldString(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Actions a permission can grant.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Roles a permission can be granted to.
func RoleAny() string { return "any" }

func RoleUsers() string { return "users" }

func RoleUser(userID string) string { return "user:" + userID }

func PermissionCreate(role string) string { return permission(ActionCreate, role) }

func PermissionRead(role string) string { return permission(ActionRead, role) }

func PermissionUpdate(role string) string { return permission(ActionUpdate, role) }

func PermissionDelete(role string) string { return permission(ActionDelete, role) }

func permission(action, role string) string {
	return fmt.Sprintf("%s(%q)", action, role)
}

// Allows reports whether userID may perform action given the document
// permissions. An empty userID is a guest.
func Allows(permissions []string, action, userID string) bool {
	for _, p := range permissions {
		switch p {
		case permission(action, RoleAny()):
			return true
		case permission(action, RoleUsers()):
			if userID != "" {
				return true
			}
		}
		if userID != "" && p == permission(action, RoleUser(userID)) {
			return true
		}
	}
	return false
}
