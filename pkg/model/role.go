package model

import "strings"

// Role represents a principal's permission level.
type Role int

const (
	RoleCandidate   Role = iota // Interviewee under proctoring; joins sessions as candidate
	RoleInterviewer             // Conducts interviews; receives alerts, raises flags, controls sessions
	RoleAdmin                   // Interviewer permissions across the platform
)

func (r Role) String() string {
	switch r {
	case RoleCandidate:
		return "candidate"
	case RoleInterviewer:
		return "interviewer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts a string to a Role. Matching is case-insensitive so both
// the JWT convention ("CANDIDATE") and the wire convention ("candidate") parse.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "interviewer":
		return RoleInterviewer
	default:
		return RoleCandidate
	}
}

// Valid returns true if the role is a recognised value.
func (r Role) Valid() bool {
	return r >= RoleCandidate && r <= RoleAdmin
}
