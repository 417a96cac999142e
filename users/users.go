package users

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a ClingClang account role
type RoleType string

const (
	RoleUser  RoleType = "user"  // Regular member
	RoleAdmin RoleType = "admin" // Can moderate users and reach the admin endpoints
)

// Profile is the user snapshot cached next to the access token. It is what the
// server returns as `user` from the login and refresh endpoints.
type Profile struct {
	ID              string   `json:"id"`
	Nickname        string   `json:"nickname"`
	Email           string   `json:"email,omitempty"`
	Role            RoleType `json:"role"`
	Blocked         bool     `json:"isBlocked,omitempty"`
	Verified        bool     `json:"isVerified,omitempty"`
	ProfileComplete bool     `json:"isProfileComplete,omitempty"`
}

// IsAdmin returns true if the profile carries the admin role
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User is the server-side account record
type User struct {
	ID           string    `json:"id,omitempty"`
	Email        string    `json:"email,omitempty"`
	Nickname     string    `json:"nickname,omitempty"`
	PasswordHash string    `json:"-"` // never serialize
	Role         RoleType  `json:"role,omitempty"`
	DateJoined   time.Time `json:"date_joined,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`

	Verified        bool `json:"verified,omitempty"`
	Blocked         bool `json:"blocked,omitempty"`
	ProfileComplete bool `json:"profile_complete,omitempty"`

	Location *Location `json:"location,omitempty"`
}

// Location is the optional place a user has shared for matching
type Location struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the city is set and the coordinates are on the globe
func (l Location) Validate() error {
	if strings.TrimSpace(l.City) == "" {
		return fmt.Errorf("city is required")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", l.Longitude)
	}
	return nil
}

// Profile returns the client-facing snapshot of the user
func (u *User) Profile() Profile {
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	return Profile{
		ID:              u.ID,
		Nickname:        u.Nickname,
		Email:           u.Email,
		Role:            role,
		Blocked:         u.Blocked,
		Verified:        u.Verified,
		ProfileComplete: u.ProfileComplete,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
