package models

import "time"

// Course holds the minimum course data the settlement and certificate flows
// need; authoring and catalogue management live outside this service.
type Course struct {
	ID           string    `db:"id" json:"id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Title        string    `db:"title" json:"title"`
	Price        float64   `db:"price" json:"price"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
