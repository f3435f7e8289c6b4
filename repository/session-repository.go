package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionKind int

const (
	SessionKindChorus  SessionKind = 32
	SessionKindQuartet SessionKind = 41
	SessionKindMixed   SessionKind = 42
)

func (k SessionKind) String() string {
	switch k {
	case SessionKindChorus:
		return "chorus"
	case SessionKindQuartet:
		return "quartet"
	case SessionKindMixed:
		return "mixed"
	}
	return fmt.Sprintf("SessionKind(%d)", int(k))
}

func ParseSessionKind(s string) (SessionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chorus":
		return SessionKindChorus, nil
	case "quartet":
		return SessionKindQuartet, nil
	case "mixed":
		return SessionKindMixed, nil
	}
	return 0, fmt.Errorf("unknown session kind %q", s)
}

// Admits reports whether awards of the given kind are contested in sessions of this kind.
func (k SessionKind) Admits(kind AwardKind) bool {
	switch k {
	case SessionKindMixed:
		return kind == AwardKindChorus || kind == AwardKindQuartet
	case SessionKindChorus:
		return kind == AwardKindChorus
	case SessionKindQuartet:
		return kind == AwardKindQuartet
	}
	return false
}

type SessionStatus string

const (
	SessionNew      SessionStatus = "new"
	SessionBuilt    SessionStatus = "built"
	SessionOpened   SessionStatus = "opened"
	SessionClosed   SessionStatus = "closed"
	SessionStarted  SessionStatus = "started"
	SessionFinished SessionStatus = "finished"
	SessionVerified SessionStatus = "verified"
)

type Session struct {
	ID           int           `gorm:"primaryKey"`
	ConventionID int           `gorm:"not null;index"`
	Kind         SessionKind   `gorm:"not null"`
	NumRounds    int           `gorm:"not null;default:1"`
	Status       SessionStatus `gorm:"not null;default:new"`
	Rounds       []*Round      `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Entries      []*Entry      `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Contests     []*Contest    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) GetSessionById(sessionId int, preloads ...string) (*Session, error) {
	var session Session
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&session, sessionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &session, nil
}

func (r *SessionRepository) GetSessionForUpdate(sessionId int) (*Session, error) {
	var session Session
	result := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, sessionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &session, nil
}

func (r *SessionRepository) GetSessionsForConvention(conventionId int) ([]*Session, error) {
	sessions := make([]*Session, 0)
	result := r.DB.Where("convention_id = ?", conventionId).Order("kind, id").Find(&sessions)
	if result.Error != nil {
		return nil, result.Error
	}
	return sessions, nil
}

func (r *SessionRepository) Save(session *Session) (*Session, error) {
	result := r.DB.Save(session)
	if result.Error != nil {
		return nil, result.Error
	}
	return session, nil
}

func (r *SessionRepository) CreateSessions(sessions []*Session) error {
	if len(sessions) == 0 {
		return nil
	}
	result := r.DB.Create(&sessions)
	if result.Error != nil {
		return fmt.Errorf("failed to create sessions: %w", result.Error)
	}
	return nil
}
