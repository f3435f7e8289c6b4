package service

import (
	"context"

	"scorekeeper/repository"
	"scorekeeper/utils"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

type EntryService struct {
	db              *gorm.DB
	machine         *workflow.Machine[repository.EntryStatus, *workflow.EntrySubject]
	dispatcher      *Dispatcher
	entryRepository *repository.EntryRepository
}

func NewEntryService(db *gorm.DB, dispatcher *Dispatcher) *EntryService {
	return &EntryService{
		db:              db,
		machine:         workflow.NewEntryMachine(),
		dispatcher:      dispatcher,
		entryRepository: repository.NewEntryRepository(db),
	}
}

func (s *EntryService) GetEntryById(entryId int) (*repository.Entry, error) {
	return s.entryRepository.GetEntryById(entryId)
}

func (s *EntryService) GetEntriesForSession(sessionId int) ([]*repository.Entry, error) {
	return s.entryRepository.GetEntriesForSession(sessionId)
}

func (s *EntryService) CreateEntry(entry *repository.Entry) (*repository.Entry, error) {
	entry.ID = 0
	entry.Status = repository.EntryNew
	if _, err := repository.NewSessionRepository(s.db).GetSessionById(entry.SessionID); err != nil {
		return nil, err
	}
	if _, err := repository.NewEntityRepository(s.db).GetEntityById(entry.EntityID); err != nil {
		return nil, err
	}
	return s.entryRepository.Save(entry)
}

// Transition fires action on the entry. Approval enters the entry into every included contest
// of its session.
func (s *EntryService) Transition(ctx context.Context, entryId int, action workflow.Action, actor string) (entry *repository.Entry, err error) {
	ctx, span := startSpan(ctx, "EntryService.Transition", entryId, action)
	defer func() { endSpan(span, err) }()

	var transition *workflow.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entryRepository := repository.NewEntryRepository(tx)
		entry, err = entryRepository.GetEntryForUpdate(entryId)
		if err != nil {
			return err
		}
		session, err := repository.NewSessionRepository(tx).GetSessionById(entry.SessionID)
		if err != nil {
			return err
		}
		subject := &workflow.EntrySubject{Entry: entry, SessionStatus: session.Status}
		transition, err = s.machine.Fire(subject, entry.Status, action, actor)
		if err != nil {
			return err
		}
		entry.Status = repository.EntryStatus(transition.To)
		if action == workflow.ActionApprove {
			contestRepository := repository.NewContestRepository(tx)
			contests, err := contestRepository.GetIncludedContests(session.ID)
			if err != nil {
				return err
			}
			contestIds := utils.Map(contests, func(contest *repository.Contest) int { return contest.ID })
			if err := contestRepository.EnterContests(entry.ID, contestIds); err != nil {
				return err
			}
		}
		if _, err := entryRepository.Save(entry); err != nil {
			return err
		}
		return appendStateLog(tx, TypeEntry, entry.ID, transition)
	})
	observe("entry", transition, err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
