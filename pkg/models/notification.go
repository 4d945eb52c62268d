package models

import "time"

type NotificationKind string

const (
	KindProfileEntry   NotificationKind = "ProfileEntryNotification"
	KindSkill          NotificationKind = "SkillNotification"
	KindProfileUpdated NotificationKind = "ProfileUpdatedNotification"
	KindProject        NotificationKind = "ProjectNotification"
)

type Reason string

const (
	ReasonProfileUpdated   Reason = "PROFILE_UPDATED"
	ReasonNameEntityAdded  Reason = "NAME_ENTITY_ADDED"
	ReasonSkillUnknown     Reason = "DANGEROUS_SKILL_ADDED_UNKNOWN"
	ReasonSkillBlacklisted Reason = "DANGEROUS_SKILL_ADDED_BLACKLISTED"
)

type NotificationStatus string

const (
	StatusAlive   NotificationStatus = "ALIVE"
	StatusTrashed NotificationStatus = "TRASHED"
)

// NotificationHeader is the part every notification variant shares.
type NotificationHeader struct {
	ID         int64
	ProfileID  int64
	Reason     Reason
	Status     NotificationStatus
	OccurredAt time.Time
}

// Notification is a queued anomaly awaiting administrator review. Variants
// carry only their own payload.
type Notification interface {
	Header() *NotificationHeader
	Kind() NotificationKind
}

func newHeader(profileID int64, reason Reason) NotificationHeader {
	return NotificationHeader{
		ProfileID:  profileID,
		Reason:     reason,
		Status:     StatusAlive,
		OccurredAt: time.Now().UTC(),
	}
}

// ProfileEntryNotification flags a reference value created while importing
// the entry with EntryID.
type ProfileEntryNotification struct {
	NotificationHeader
	EntryID    int64
	NameEntity NameEntity
}

func NewProfileEntryNotification(profileID, entryID int64, ne NameEntity) *ProfileEntryNotification {
	return &ProfileEntryNotification{
		NotificationHeader: newHeader(profileID, ReasonNameEntityAdded),
		EntryID:            entryID,
		NameEntity:         ne,
	}
}

func (n *ProfileEntryNotification) Header() *NotificationHeader { return &n.NotificationHeader }
func (n *ProfileEntryNotification) Kind() NotificationKind      { return KindProfileEntry }

// SkillNotification flags a skill the classifier does not know or has
// blacklisted. NewName is the proposed replacement name for an edit.
type SkillNotification struct {
	NotificationHeader
	Skill   Skill
	NewName string
}

func NewSkillNotification(profileID int64, skill Skill, reason Reason) *SkillNotification {
	return &SkillNotification{
		NotificationHeader: newHeader(profileID, reason),
		Skill:              skill,
		NewName:            skill.Name,
	}
}

func (n *SkillNotification) Header() *NotificationHeader { return &n.NotificationHeader }
func (n *SkillNotification) Kind() NotificationKind      { return KindSkill }

type ProfileUpdatedNotification struct {
	NotificationHeader
}

func NewProfileUpdatedNotification(profileID int64) *ProfileUpdatedNotification {
	return &ProfileUpdatedNotification{NotificationHeader: newHeader(profileID, ReasonProfileUpdated)}
}

func (n *ProfileUpdatedNotification) Header() *NotificationHeader { return &n.NotificationHeader }
func (n *ProfileUpdatedNotification) Kind() NotificationKind      { return KindProfileUpdated }

type ProjectNotification struct {
	NotificationHeader
	ProjectID  int64
	NameEntity *NameEntity
}

func NewProjectNotification(profileID, projectID int64, ne *NameEntity) *ProjectNotification {
	return &ProjectNotification{
		NotificationHeader: newHeader(profileID, ReasonNameEntityAdded),
		ProjectID:          projectID,
		NameEntity:         ne,
	}
}

func (n *ProjectNotification) Header() *NotificationHeader { return &n.NotificationHeader }
func (n *ProjectNotification) Kind() NotificationKind      { return KindProject }

// NotificationRecord is the flat wire and storage form of every variant.
type NotificationRecord struct {
	ID             int64              `json:"id"`
	Type           NotificationKind   `json:"type" validate:"required,oneof=ProfileEntryNotification SkillNotification ProfileUpdatedNotification ProjectNotification"`
	ProfileID      int64              `json:"profileId"`
	Reason         Reason             `json:"reason"`
	Status         NotificationStatus `json:"status"`
	OccurredAt     time.Time          `json:"occurrence"`
	ProfileEntryID int64              `json:"profileEntryId,omitempty"`
	NameEntity     *NameEntity        `json:"nameEntity,omitempty"`
	Skill          *Skill             `json:"skill,omitempty"`
	NewName        string             `json:"newName,omitempty"`
	ProjectID      int64              `json:"projectId,omitempty"`
}

func ToRecord(n Notification) NotificationRecord {
	h := n.Header()
	rec := NotificationRecord{
		ID:         h.ID,
		Type:       n.Kind(),
		ProfileID:  h.ProfileID,
		Reason:     h.Reason,
		Status:     h.Status,
		OccurredAt: h.OccurredAt,
	}
	switch v := n.(type) {
	case *ProfileEntryNotification:
		rec.ProfileEntryID = v.EntryID
		ne := v.NameEntity
		rec.NameEntity = &ne
	case *SkillNotification:
		s := v.Skill.Clone()
		rec.Skill = &s
		rec.NewName = v.NewName
	case *ProjectNotification:
		rec.ProjectID = v.ProjectID
		rec.NameEntity = cloneNameEntity(v.NameEntity)
	}
	return rec
}

// ToNotification rebuilds the typed variant. It returns false for an unknown
// type tag.
func (r NotificationRecord) ToNotification() (Notification, bool) {
	h := NotificationHeader{
		ID:         r.ID,
		ProfileID:  r.ProfileID,
		Reason:     r.Reason,
		Status:     r.Status,
		OccurredAt: r.OccurredAt,
	}
	switch r.Type {
	case KindProfileEntry:
		n := &ProfileEntryNotification{NotificationHeader: h, EntryID: r.ProfileEntryID}
		if r.NameEntity != nil {
			n.NameEntity = *r.NameEntity
		}
		return n, true
	case KindSkill:
		n := &SkillNotification{NotificationHeader: h, NewName: r.NewName}
		if r.Skill != nil {
			n.Skill = r.Skill.Clone()
		}
		if n.NewName == "" {
			n.NewName = n.Skill.Name
		}
		return n, true
	case KindProfileUpdated:
		return &ProfileUpdatedNotification{NotificationHeader: h}, true
	case KindProject:
		return &ProjectNotification{NotificationHeader: h, ProjectID: r.ProjectID, NameEntity: cloneNameEntity(r.NameEntity)}, true
	default:
		return nil, false
	}
}
