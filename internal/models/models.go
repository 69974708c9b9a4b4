package models

import "time"

// User represents an account within the friendgraph platform.
type User struct {
	ID          string
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile returns the public fields of the user.
func (u User) Profile() Profile {
	return Profile{UserID: u.ID, FullName: u.FullName, PhoneNumber: u.PhoneNumber}
}

// FriendshipStatus is the state of a single directed friendship edge.
type FriendshipStatus string

const (
	FriendshipRequested FriendshipStatus = "requested"
	FriendshipAccepted  FriendshipStatus = "accepted"
	FriendshipDeclined  FriendshipStatus = "declined"
)

// Valid reports whether s is one of the known statuses.
func (s FriendshipStatus) Valid() bool {
	switch s {
	case FriendshipRequested, FriendshipAccepted, FriendshipDeclined:
		return true
	}
	return false
}

// Friendship is a directed edge: UserID's stance toward FriendUserID.
// The pair (UserID, FriendUserID) is unique.
type Friendship struct {
	UserID       string           `json:"userId"`
	FriendUserID string           `json:"friendUserId"`
	Status       FriendshipStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Profile holds the user fields visible to friends.
type Profile struct {
	UserID      string `json:"userId"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

// FriendSummary is a friend's profile decorated with graph counts relative to a viewer.
type FriendSummary struct {
	Profile
	TotalFriendCount  int `json:"totalFriendCount"`
	MutualFriendCount int `json:"mutualFriendCount"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
