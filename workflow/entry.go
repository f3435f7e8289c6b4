package workflow

import "scorekeeper/repository"

type EntrySubject struct {
	Entry         *repository.Entry
	SessionStatus repository.SessionStatus
}

type entryRule = Rule[repository.EntryStatus, *EntrySubject]

func NewEntryMachine() *Machine[repository.EntryStatus, *EntrySubject] {
	m := NewMachine[repository.EntryStatus, *EntrySubject]("entry",
		repository.EntryNew,
		repository.EntryInvited,
		repository.EntrySubmitted,
		repository.EntryApproved,
		repository.EntryWithdrawn,
	)
	sessionOpen := func(s *EntrySubject) error {
		if s.SessionStatus != repository.SessionOpened {
			return reject(ReasonSessionNotOpen, "session is %s", s.SessionStatus)
		}
		return nil
	}
	m.On(ActionInvite, []repository.EntryStatus{repository.EntryNew}, entryRule{
		To:          repository.EntryInvited,
		Description: "Entry invited",
	})
	m.On(ActionSubmit, []repository.EntryStatus{repository.EntryInvited}, entryRule{
		To:          repository.EntrySubmitted,
		Description: "Entry submitted",
		Guard:       sessionOpen,
	})
	m.On(ActionApprove, []repository.EntryStatus{repository.EntrySubmitted}, entryRule{
		To:          repository.EntryApproved,
		Description: "Entry approved",
		Guard:       sessionOpen,
	})
	m.On(ActionWithdraw, []repository.EntryStatus{repository.EntryInvited, repository.EntrySubmitted, repository.EntryApproved}, entryRule{
		To:          repository.EntryWithdrawn,
		Description: "Entry withdrawn",
	})
	return m
}
