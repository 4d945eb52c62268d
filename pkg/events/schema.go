package events

import (
	"github.com/Ramsey-B/sage/pkg/models"
)

type EventType string

const (
	EventTypeProfileImported      EventType = "profile.imported"
	EventTypeNotificationRaised   EventType = "notification.raised"
	EventTypeNotificationResolved EventType = "notification.resolved"
	EventTypeSkillRenamed         EventType = "skill.renamed"
)

// ProfileImportedData carries the reconciled profile.
type ProfileImportedData struct {
	Updated            bool           `json:"updated"`
	NotificationsCount int            `json:"notifications_count"`
	Profile            models.Profile `json:"profile"`
}

// NotificationResolvedData describes an executed admin action.
type NotificationResolvedData struct {
	Action           string                    `json:"action"`
	Notification     models.NotificationRecord `json:"notification"`
	AffectedProfiles []int64                   `json:"affected_profiles"`
}

type SkillRenamedData struct {
	OldName          string  `json:"old_name"`
	NewName          string  `json:"new_name"`
	AffectedProfiles []int64 `json:"affected_profiles"`
}

func profileIDs(profiles []models.Profile) []int64 {
	ids := make([]int64, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}
