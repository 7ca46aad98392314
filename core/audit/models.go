package audit

import "time"

// Actions
const (
	ActionProfileUpdate          = "profile_update"
	ActionActivityApprove        = "activity_approve"
	ActionActivityReject         = "activity_reject"
	ActionCourseCompleted        = "course_completed"
	ActionCertificateIssued      = "certificate_issued"
	ActionAdminCertificateIssued = "admin_certificate_issued"
	ActionRoleChange             = "role_change"
	ActionAdminCreateUser        = "admin_create_user"
	ActionPasswordReset          = "password_reset"
)

// Entity types
const (
	EntityUser        = "user"
	EntityProfile     = "student_profile"
	EntityActivity    = "activity"
	EntityCourse      = "course"
	EntityCertificate = "certificate"
)

// DefaultLimit is the number of entries returned by Service.Recent when no limit is given.
const DefaultLimit = 200

type Details map[string]interface{}

// Entry is an append-only record of a privileged action.
type Entry struct {
	ID          string    `json:"id"`
	ActorUserID string    `json:"actorUserId"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	Details     Details   `json:"details"`
	CreatedAt   time.Time `json:"createdAt"`

	// read-only, joined from the actor's user
	ActorName string `json:"actorName,omitempty"`
}
