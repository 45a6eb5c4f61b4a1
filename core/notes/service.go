package notes

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound        = errors.New("notes packet not found")
	ErrStudentNotFound = errors.New("student note packet not found")
)

type (
	Repository interface {
		CreatePacket(ctx context.Context, pkt NotesPacket) (NotesPacket, error)
		GetPacketByID(ctx context.Context, id string) (NotesPacket, error)
		QueryPackets(ctx context.Context, filter *QueryFilter) ([]NotesPacket, error)
		UpdatePacket(ctx context.Context, pkt NotesPacket) (NotesPacket, error)

		CreateStudentPacket(ctx context.Context, pkt StudentNotePacket) (StudentNotePacket, error)
		GetStudentPacketByID(ctx context.Context, id string) (StudentNotePacket, error)
		QueryStudentPacketsForStudent(ctx context.Context, studentID string) ([]StudentNotePacket, error)
		UpdateStudentPacket(ctx context.Context, pkt StudentNotePacket) (StudentNotePacket, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePacket creates a packet in "draft" status.
func (svc *Service) CreatePacket(ctx context.Context, np NewPacket) (NotesPacket, error) {
	now := time.Now().UTC()
	pkt := NotesPacket{
		Notes:            np.Notes,
		CourseID:         np.CourseID,
		LectureSessionID: np.LectureSessionID,
		Status:           StatusDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreatePacket(ctx, pkt)
}

func (svc *Service) GetPacketByID(ctx context.Context, id string) (NotesPacket, error) {
	return svc.repo.GetPacketByID(ctx, id)
}

func (svc *Service) QueryPackets(ctx context.Context, filter *QueryFilter) ([]NotesPacket, error) {
	return svc.repo.QueryPackets(ctx, filter)
}

// UpdateStatus overwrites the packet status; free text like the source of truth.
func (svc *Service) UpdateStatus(ctx context.Context, id, status string) (NotesPacket, error) {
	pkt, err := svc.repo.GetPacketByID(ctx, id)
	if err != nil {
		return NotesPacket{}, err
	}
	pkt.Status = status
	pkt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePacket(ctx, pkt)
}

func (svc *Service) UpdateNotes(ctx context.Context, id string, content json.RawMessage) (NotesPacket, error) {
	pkt, err := svc.repo.GetPacketByID(ctx, id)
	if err != nil {
		return NotesPacket{}, err
	}
	pkt.Notes = content
	pkt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePacket(ctx, pkt)
}

// PublishedForCourse lists only the packets a student may download.
func (svc *Service) PublishedForCourse(ctx context.Context, courseID string) ([]NotesPacket, error) {
	return svc.repo.QueryPackets(ctx, &QueryFilter{CourseID: courseID, PublishedOnly: true})
}

func (svc *Service) CreateStudentPacket(ctx context.Context, studentID string, nsp NewStudentPacket) (StudentNotePacket, error) {
	pkt := StudentNotePacket{
		StudentID:        studentID,
		LectureSessionID: nsp.LectureSessionID,
		Title:            nsp.Title,
		Time:             time.Now().UTC(),
		Notes:            nsp.Notes,
	}
	return svc.repo.CreateStudentPacket(ctx, pkt)
}

func (svc *Service) GetStudentPacketByID(ctx context.Context, id string) (StudentNotePacket, error) {
	return svc.repo.GetStudentPacketByID(ctx, id)
}

func (svc *Service) StudentPacketsForStudent(ctx context.Context, studentID string) ([]StudentNotePacket, error) {
	return svc.repo.QueryStudentPacketsForStudent(ctx, studentID)
}

func (svc *Service) UpdateStudentPacketNotes(ctx context.Context, id string, content json.RawMessage) (StudentNotePacket, error) {
	pkt, err := svc.repo.GetStudentPacketByID(ctx, id)
	if err != nil {
		return StudentNotePacket{}, err
	}
	pkt.Notes = content
	return svc.repo.UpdateStudentPacket(ctx, pkt)
}
