package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/user"
)

type permissionRepository struct {
	db *sqlx.DB
}

var _ permission.Repository = (*permissionRepository)(nil) // interface compliance check

func NewPermissionRepository(db *sqlx.DB) *permissionRepository {
	return &permissionRepository{db: db}
}

type permissionRow struct {
	ID          string `db:"id"`
	SubjectRole string `db:"subject_role"`
	SubjectID   string `db:"subject_id"`

	CanView              bool `db:"can_view"`
	CanEdit              bool `db:"can_edit"`
	CanApprove           bool `db:"can_approve"`
	SubmitRequest        bool `db:"submit_request"`
	GrantRecordingAccess bool `db:"grant_recording_access"`
	RecordContent        bool `db:"record_content"`
	ConvertContent       bool `db:"convert_content"`
	EditNotes            bool `db:"edit_notes"`
	ProofreadNotes       bool `db:"proofread_notes"`
	AccessDigitalTwin    bool `db:"access_digital_twin"`
	AccessProfPortal     bool `db:"access_prof_portal"`
	AccessSDSPortal      bool `db:"access_sds_portal"`
	DownloadNotes        bool `db:"download_notes"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func rowFromEntry(ent permission.Entry) permissionRow {
	return permissionRow{
		ID:          ent.ID,
		SubjectRole: string(ent.SubjectRole),
		SubjectID:   ent.SubjectID,

		CanView:              ent.CanView,
		CanEdit:              ent.CanEdit,
		CanApprove:           ent.CanApprove,
		SubmitRequest:        ent.SubmitRequest,
		GrantRecordingAccess: ent.GrantRecordingAccess,
		RecordContent:        ent.RecordContent,
		ConvertContent:       ent.ConvertContent,
		EditNotes:            ent.EditNotes,
		ProofreadNotes:       ent.ProofreadNotes,
		AccessDigitalTwin:    ent.AccessDigitalTwin,
		AccessProfPortal:     ent.AccessProfPortal,
		AccessSDSPortal:      ent.AccessSDSPortal,
		DownloadNotes:        ent.DownloadNotes,

		CreatedAt: ent.CreatedAt.UTC(),
		UpdatedAt: ent.UpdatedAt.UTC(),
	}
}

func (r permissionRow) toDomain() permission.Entry {
	return permission.Entry{
		ID:          r.ID,
		SubjectRole: user.Role(r.SubjectRole),
		SubjectID:   r.SubjectID,
		Flags: permission.Flags{
			CanView:              r.CanView,
			CanEdit:              r.CanEdit,
			CanApprove:           r.CanApprove,
			SubmitRequest:        r.SubmitRequest,
			GrantRecordingAccess: r.GrantRecordingAccess,
			RecordContent:        r.RecordContent,
			ConvertContent:       r.ConvertContent,
			EditNotes:            r.EditNotes,
			ProofreadNotes:       r.ProofreadNotes,
			AccessDigitalTwin:    r.AccessDigitalTwin,
			AccessProfPortal:     r.AccessProfPortal,
			AccessSDSPortal:      r.AccessSDSPortal,
			DownloadNotes:        r.DownloadNotes,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const permissionFlagColumns = `can_view, can_edit, can_approve, submit_request, grant_recording_access,
	record_content, convert_content, edit_notes, proofread_notes, access_digital_twin,
	access_prof_portal, access_sds_portal, download_notes`

func (repo permissionRepository) UpsertEntry(ctx context.Context, ent permission.Entry) (permission.Entry, error) {
	ent.ID = uuid.New().String()
	row := rowFromEntry(ent)

	// the (subject_role, subject_id) pair is the logical key; on conflict the
	// flags are replaced wholesale and the original id and created_at survive.
	var saved permissionRow
	rows, err := repo.db.NamedQueryContext(ctx,
		`INSERT INTO permissions (id, subject_role, subject_id, `+permissionFlagColumns+`, created_at, updated_at)
		VALUES (:id, :subject_role, :subject_id,
			:can_view, :can_edit, :can_approve, :submit_request, :grant_recording_access,
			:record_content, :convert_content, :edit_notes, :proofread_notes, :access_digital_twin,
			:access_prof_portal, :access_sds_portal, :download_notes, :created_at, :updated_at)
		ON CONFLICT (subject_role, subject_id) DO UPDATE SET
			can_view = EXCLUDED.can_view, can_edit = EXCLUDED.can_edit, can_approve = EXCLUDED.can_approve,
			submit_request = EXCLUDED.submit_request, grant_recording_access = EXCLUDED.grant_recording_access,
			record_content = EXCLUDED.record_content, convert_content = EXCLUDED.convert_content,
			edit_notes = EXCLUDED.edit_notes, proofread_notes = EXCLUDED.proofread_notes,
			access_digital_twin = EXCLUDED.access_digital_twin, access_prof_portal = EXCLUDED.access_prof_portal,
			access_sds_portal = EXCLUDED.access_sds_portal, download_notes = EXCLUDED.download_notes,
			updated_at = EXCLUDED.updated_at
		RETURNING *`,
		row,
	)
	if err != nil {
		return permission.Entry{}, errors.Wrap(err, "upserting permissions entry")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return permission.Entry{}, errors.New("upserting permissions entry: no row returned")
	}
	if err = rows.StructScan(&saved); err != nil {
		return permission.Entry{}, errors.Wrap(err, "upserting permissions entry")
	}
	return saved.toDomain(), nil
}

func (repo permissionRepository) GetEntryByID(ctx context.Context, id string) (permission.Entry, error) {
	var row permissionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM permissions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return permission.Entry{}, permission.ErrNotFound
		}
		return permission.Entry{}, errors.Wrap(err, "getting permissions entry")
	}
	return row.toDomain(), nil
}

func (repo permissionRepository) GetEntryForSubject(ctx context.Context, role user.Role, subjectID string) (permission.Entry, error) {
	var row permissionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM permissions WHERE subject_role = $1 AND subject_id = $2`, string(role), subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return permission.Entry{}, permission.ErrNotFound
		}
		return permission.Entry{}, errors.Wrap(err, "getting permissions entry")
	}
	return row.toDomain(), nil
}

func (repo permissionRepository) QueryEntries(ctx context.Context) ([]permission.Entry, error) {
	var rows []permissionRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM permissions ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying permissions entries")
	}
	entries := make([]permission.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

func (repo permissionRepository) UpdateEntry(ctx context.Context, ent permission.Entry) (permission.Entry, error) {
	row := rowFromEntry(ent)
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE permissions SET
			can_view = :can_view, can_edit = :can_edit, can_approve = :can_approve,
			submit_request = :submit_request, grant_recording_access = :grant_recording_access,
			record_content = :record_content, convert_content = :convert_content,
			edit_notes = :edit_notes, proofread_notes = :proofread_notes,
			access_digital_twin = :access_digital_twin, access_prof_portal = :access_prof_portal,
			access_sds_portal = :access_sds_portal, download_notes = :download_notes,
			updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return permission.Entry{}, errors.Wrap(err, "updating permissions entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return permission.Entry{}, permission.ErrNotFound
	}
	return ent, nil
}
