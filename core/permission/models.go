package permission

import (
	"time"

	"github.com/inksight/backend/core/user"
)

type (
	// Flags is the flat capability set carried by a ledger Entry.
	Flags struct {
		CanView              bool `json:"can_view"`
		CanEdit              bool `json:"can_edit"`
		CanApprove           bool `json:"can_approve"`
		SubmitRequest        bool `json:"submit_request"`
		GrantRecordingAccess bool `json:"grant_recording_access"`
		RecordContent        bool `json:"record_content"`
		ConvertContent       bool `json:"convert_content"`
		EditNotes            bool `json:"edit_notes"`
		ProofreadNotes       bool `json:"proofread_notes"`
		AccessDigitalTwin    bool `json:"access_digital_twin"`
		AccessProfPortal     bool `json:"access_prof_portal"`
		AccessSDSPortal      bool `json:"access_sds_portal"`
		DownloadNotes        bool `json:"download_notes"`
	}

	// Entry is one ledger row per identity, keyed by the typed
	// (subject_role, subject_id) pair rather than an untyped generic reference.
	Entry struct {
		ID          string    `json:"id"`
		SubjectRole user.Role `json:"subject_role"`
		SubjectID   string    `json:"subject_id"`
		Flags
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// DefaultFlags is the fixed per-role capability template.
func DefaultFlags(role user.Role) Flags {
	switch role {
	case user.RoleStudent:
		return Flags{
			CanView:        true,
			SubmitRequest:  true,
			RecordContent:  true,
			ConvertContent: true,
			DownloadNotes:  true,
		}
	case user.RoleProfessor:
		return Flags{
			CanView:              true,
			CanEdit:              true,
			CanApprove:           true,
			GrantRecordingAccess: true,
			RecordContent:        true,
			EditNotes:            true,
			ProofreadNotes:       true,
			AccessProfPortal:     true,
			AccessDigitalTwin:    true,
		}
	case user.RoleTeacherAssistant:
		return Flags{
			CanView:          true,
			CanEdit:          true,
			ProofreadNotes:   true,
			AccessProfPortal: true,
		}
	case user.RoleSDSCoordinator:
		return Flags{
			CanView:              true,
			CanEdit:              true,
			CanApprove:           true,
			GrantRecordingAccess: true,
			AccessSDSPortal:      true,
		}
	}
	return Flags{}
}
