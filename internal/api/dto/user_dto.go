package dto

import "time"

// UpdateUserRequest payload for partial profile updates. Phone and address
// are pointers so an explicit empty string clears the field.
type UpdateUserRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// QuotaInfo is the quota status projection embedded in profile responses.
type QuotaInfo struct {
	RemainingRequests int       `json:"remainingRequests"`
	TotalQuota        int       `json:"totalQuota"`
	LastResetTime     time.Time `json:"lastResetTime"`
	MinutesUntilReset int64     `json:"minutesUntilReset"`
}

// RequestLogEntry is one admitted call in the history listing.
type RequestLogEntry struct {
	RequestedAt time.Time `json:"requestedAt"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// UserProfileResponse is the full profile payload.
type UserProfileResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	UserType       string    `json:"userType"`
	DocumentNumber string    `json:"documentNumber"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	Quota          QuotaInfo `json:"quota"`
}
