// Package models defines the persisted entities shared by the stores,
// the session hub, and the HTTP surface.
package models

import "time"

// Site is the immutable metadata record for one chat-enabled site.
// ActiveConstraintsJSON is an optional structured payload stored as raw
// JSON text; it is nil for sites created without constraints.
type Site struct {
	SiteID                string    `json:"site_id"`
	Name                  string    `json:"name"`
	Timezone              string    `json:"timezone"`
	ActiveConstraintsJSON *string   `json:"active_constraints_json"`
	CreatedAt             time.Time `json:"created_at"`
}
