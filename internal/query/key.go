// Package query is a small client-side cache for backend reads: typed keys,
// staleness windows, bounded retries, invalidating mutations and pollers.
package query

import "strings"

type Resource string

const (
	ResourceActivities    Resource = "activities"
	ResourceAdmin         Resource = "admin"
	ResourceCommunity     Resource = "community"
	ResourceMessages      Resource = "messages"
	ResourceNotifications Resource = "notifications"
	ResourceSubscription  Resource = "subscription"
	ResourceProfile       Resource = "profile"
	ResourceMe            Resource = "me"
)

// Key identifies a cached read. Fields are unexported so keys can only be
// built through NewKey and WithID; Key is comparable and usable as a map key.
type Key struct {
	resource Resource
	scope    string
	id       string
}

func NewKey(resource Resource, scope string) Key {
	return Key{resource: resource, scope: scope}
}

// WithID narrows k to a single entity.
func (k Key) WithID(id string) Key {
	k.id = id
	return k
}

func (k Key) Resource() Resource { return k.resource }
func (k Key) Scope() string      { return k.scope }
func (k Key) ID() string         { return k.id }

// Matches reports whether prefix selects k. Empty scope or id on prefix
// match anything.
func (k Key) Matches(prefix Key) bool {
	if k.resource != prefix.resource {
		return false
	}
	if prefix.scope != "" && k.scope != prefix.scope {
		return false
	}
	if prefix.id != "" && k.id != prefix.id {
		return false
	}
	return true
}

func (k Key) String() string {
	parts := []string{string(k.resource)}
	if k.scope != "" {
		parts = append(parts, k.scope)
	}
	if k.id != "" {
		parts = append(parts, k.id)
	}
	return strings.Join(parts, "/")
}
