// Package rbac provides role-based access control checks.
package rbac

import "github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"

// permissionMatrix maps roles to their allowed permissions.
var permissionMatrix = map[model.Role]map[Permission]bool{
	model.RoleCandidate: {
		PermJoinAsCandidate: true,
		PermReportDetection: true,
		PermPublishStream:   true,
	},
	model.RoleInterviewer: {
		PermJoinAsInterviewer: true,
		PermRaiseFlag:         true,
		PermSessionControl:    true,
		PermRecordingControl:  true,
		PermPublishStream:     true,
	},
	model.RoleAdmin: {
		PermJoinAsInterviewer: true,
		PermRaiseFlag:         true,
		PermSessionControl:    true,
		PermRecordingControl:  true,
		PermPublishStream:     true,
	},
}

// Permission represents a specific action checked against a role.
type Permission int

const (
	PermJoinAsCandidate Permission = iota
	PermJoinAsInterviewer
	PermReportDetection
	PermRaiseFlag
	PermSessionControl
	PermRecordingControl
	PermPublishStream
)

// HasPermission checks if a role has a specific permission.
func HasPermission(role model.Role, perm Permission) bool {
	perms, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	return perms[perm]
}

// RequirePermission returns an error message if the role lacks the permission,
// or empty string if allowed.
func RequirePermission(role model.Role, perm Permission) string {
	if HasPermission(role, perm) {
		return ""
	}
	return "permission denied: " + permName(perm) + " not allowed for role " + role.String()
}

// JoinPermission resolves the permission required to occupy a role slot in a
// session.
func JoinPermission(slot model.Role) Permission {
	if slot == model.RoleCandidate {
		return PermJoinAsCandidate
	}
	return PermJoinAsInterviewer
}

func permName(p Permission) string {
	switch p {
	case PermJoinAsCandidate:
		return "join_as_candidate"
	case PermJoinAsInterviewer:
		return "join_as_interviewer"
	case PermReportDetection:
		return "report_detection"
	case PermRaiseFlag:
		return "raise_flag"
	case PermSessionControl:
		return "session_control"
	case PermRecordingControl:
		return "recording_control"
	case PermPublishStream:
		return "publish_stream"
	default:
		return "unknown"
	}
}
