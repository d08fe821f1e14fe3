package models

import "time"

type User struct {
	ID           string
	Email        string
	Username     string
	USN          string
	Branch       string
	Section      string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity strips credentials from the user.
func (u User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		USN:      u.USN,
		Branch:   u.Branch,
		Section:  u.Section,
	}
}
