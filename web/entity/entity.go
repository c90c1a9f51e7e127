// Package entity holds the response shapes shared by the controllers.
package entity

import "time"

// Msg is the JSON envelope for simple outcomes.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// ActionData is returned when a form submission is rejected. Fields echoes the
// submitted values for re-display and never contains the password.
type ActionData struct {
	FormError   string            `json:"formError,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func (d *ActionData) HasErrors() bool {
	return d.FormError != "" || len(d.FieldErrors) > 0
}

// PostView is a post as shown on its detail page.
type PostView struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UserId    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	IsOwner   bool      `json:"isOwner"`
}

// HealthStatus is served by /healthz.
type HealthStatus struct {
	Status   string   `json:"status"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Uptime   uint64   `json:"uptime"`
	Requests int64    `json:"requests"`
	Database string   `json:"database"`
	Cache    string   `json:"cache"`
	Mem      MemInfo  `json:"mem"`
	Logs     []string `json:"logs,omitempty"`
}

type MemInfo struct {
	Current uint64 `json:"current"`
	Total   uint64 `json:"total"`
	Human   string `json:"human"`
}
