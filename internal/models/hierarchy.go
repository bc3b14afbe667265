package models

import "time"

// Diocese is the top level of the targeting hierarchy.
type Diocese struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Region    *string   `db:"region" json:"region,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Church belongs to exactly one diocese.
type Church struct {
	ID        string    `db:"id" json:"id"`
	DioceseID string    `db:"diocese_id" json:"diocese_id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Class is a Sunday-school class within a church.
type Class struct {
	ID        string    `db:"id" json:"id"`
	ChurchID  string    `db:"church_id" json:"church_id"`
	Name      string    `db:"name" json:"name"`
	Grade     *string   `db:"grade" json:"grade,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HierarchyFilter narrows church and class listings by their parent.
type HierarchyFilter struct {
	DioceseID string
	ChurchID  string
	Search    string
	Page      int
	PageSize  int
}

// ChurchRef and ClassRef carry the parent links the scope resolver needs to
// cascade selections without loading full rows.
type ChurchRef struct {
	ID        string `db:"id" json:"id"`
	DioceseID string `db:"diocese_id" json:"diocese_id"`
}

type ClassRef struct {
	ID       string `db:"id" json:"id"`
	ChurchID string `db:"church_id" json:"church_id"`
}
