package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/inksight/backend/core/notes"
)

type notesRepository struct {
	db *DB
}

var _ notes.Repository = (*notesRepository)(nil) // interface compliance check

func NewNotesRepository(db *DB) *notesRepository {
	return &notesRepository{db: db}
}

func (repo *notesRepository) CreatePacket(ctx context.Context, pkt notes.NotesPacket) (notes.NotesPacket, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pkt.ID = uuid.New().String()
	repo.db.packets[pkt.ID] = pkt
	return pkt, nil
}

func (repo *notesRepository) GetPacketByID(ctx context.Context, id string) (notes.NotesPacket, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pkt, ok := repo.db.packets[id]; ok {
		return pkt, nil
	}
	return notes.NotesPacket{}, notes.ErrNotFound
}

func (repo *notesRepository) QueryPackets(ctx context.Context, filter *notes.QueryFilter) ([]notes.NotesPacket, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var pkts []notes.NotesPacket
	for _, pkt := range repo.db.packets {
		if filter != nil {
			if filter.CourseID != "" && pkt.CourseID != filter.CourseID {
				continue
			}
			if filter.LectureSessionID != "" && pkt.LectureSessionID != filter.LectureSessionID {
				continue
			}
			if filter.PublishedOnly && pkt.Status != notes.StatusPublished {
				continue
			}
		}
		pkts = append(pkts, pkt)
	}
	sort.Slice(pkts, func(i, j int) bool { return pkts[i].CreatedAt.After(pkts[j].CreatedAt) })
	return pkts, nil
}

func (repo *notesRepository) UpdatePacket(ctx context.Context, pkt notes.NotesPacket) (notes.NotesPacket, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.packets[pkt.ID]; !ok {
		return notes.NotesPacket{}, notes.ErrNotFound
	}
	repo.db.packets[pkt.ID] = pkt
	return pkt, nil
}

func (repo *notesRepository) CreateStudentPacket(ctx context.Context, pkt notes.StudentNotePacket) (notes.StudentNotePacket, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pkt.ID = uuid.New().String()
	repo.db.studentPackets[pkt.ID] = pkt
	return pkt, nil
}

func (repo *notesRepository) GetStudentPacketByID(ctx context.Context, id string) (notes.StudentNotePacket, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pkt, ok := repo.db.studentPackets[id]; ok {
		return pkt, nil
	}
	return notes.StudentNotePacket{}, notes.ErrStudentNotFound
}

func (repo *notesRepository) QueryStudentPacketsForStudent(ctx context.Context, studentID string) ([]notes.StudentNotePacket, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var pkts []notes.StudentNotePacket
	for _, pkt := range repo.db.studentPackets {
		if pkt.StudentID == studentID {
			pkts = append(pkts, pkt)
		}
	}
	sort.Slice(pkts, func(i, j int) bool { return pkts[i].Time.After(pkts[j].Time) })
	return pkts, nil
}

func (repo *notesRepository) UpdateStudentPacket(ctx context.Context, pkt notes.StudentNotePacket) (notes.StudentNotePacket, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.studentPackets[pkt.ID]; !ok {
		return notes.StudentNotePacket{}, notes.ErrStudentNotFound
	}
	repo.db.studentPackets[pkt.ID] = pkt
	return pkt, nil
}
