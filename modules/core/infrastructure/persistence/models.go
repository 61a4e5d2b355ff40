package persistence

import "time"

type userRow struct {
	ID            int64
	Name          string
	Email         string
	InstitutionID *int64
	PasswordHash  *string
	Active        bool
	Locked        bool
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type roleRow struct {
	ID   int64
	Name string
}
