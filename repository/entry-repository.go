package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EntryStatus string

const (
	EntryNew       EntryStatus = "new"
	EntryInvited   EntryStatus = "invited"
	EntrySubmitted EntryStatus = "submitted"
	EntryApproved  EntryStatus = "approved"
	EntryWithdrawn EntryStatus = "withdrawn"
)

// Entry is a competing group's registration for one session.
type Entry struct {
	ID        int         `gorm:"primaryKey"`
	SessionID int         `gorm:"not null;index"`
	EntityID  int         `gorm:"not null;index"`
	Name      string      `gorm:"not null"`
	Draw      int         `gorm:"not null;default:0"`
	Status    EntryStatus `gorm:"not null;default:new"`
}

type EntryRepository struct {
	DB *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{DB: db}
}

func (r *EntryRepository) GetEntryById(entryId int) (*Entry, error) {
	var entry Entry
	result := r.DB.First(&entry, entryId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

func (r *EntryRepository) GetEntryForUpdate(entryId int) (*Entry, error) {
	var entry Entry
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, entryId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

func (r *EntryRepository) GetEntriesForSession(sessionId int) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	result := r.DB.Where("session_id = ?", sessionId).Order("draw, name, id").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// GetApprovedEntries returns the session's approved entries ordered by draw then name.
func (r *EntryRepository) GetApprovedEntries(sessionId int) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	result := r.DB.Where("session_id = ? AND status = ?", sessionId, EntryApproved).
		Order("draw, name, id").
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load approved entries: %w", result.Error)
	}
	return entries, nil
}

func (r *EntryRepository) Save(entry *Entry) (*Entry, error) {
	result := r.DB.Save(entry)
	if result.Error != nil {
		return nil, result.Error
	}
	return entry, nil
}
