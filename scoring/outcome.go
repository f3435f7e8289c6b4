package scoring

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"scorekeeper/repository"
)

var (
	ErrUnsupportedAwardLevel = errors.New("unsupported award level")
	ErrMissingThreshold      = errors.New("qualifier award has no threshold")
)

const (
	NameDeterminedInFinals = "(Result determined in Finals)"
	NamePostContest        = "(Result determined post-contest)"
	NameEnterManually      = "MUST ENTER WINNER MANUALLY"
	NameNoQualifiers       = "(No Qualifiers)"
	NameNoRecipient        = "(No Recipient)"
)

// Contender is an entry competing for an award with its official statistics across the session.
type Contender struct {
	EntryID   int
	Name      string
	TotPoints *int
	SngPoints *int
	PerPoints *int
	Mean      *float64
}

// Resolution is the computed outcome name and the branch that produced it.
type Resolution struct {
	Kind repository.ResolutionKind
	Name string
}

// Resolve names the recipient of an award for a round. It is deterministic in its inputs.
func Resolve(roundKind repository.RoundKind, award *repository.Award, contenders []Contender) (Resolution, error) {
	if roundKind != repository.RoundKindFinals && !award.IsSingle {
		return Resolution{Kind: repository.ResolutionInFinals, Name: NameDeterminedInFinals}, nil
	}
	switch award.Level {
	case repository.AwardLevelDeferred:
		return Resolution{Kind: repository.ResolutionDeferred, Name: NamePostContest}, nil
	case repository.AwardLevelManual, repository.AwardLevelRaw, repository.AwardLevelStandard:
		return Resolution{Kind: repository.ResolutionManual, Name: NameEnterManually}, nil
	case repository.AwardLevelQualifier:
		return resolveQualifiers(award, contenders)
	case repository.AwardLevelChampionship, repository.AwardLevelRepresentative:
		return resolveChampion(contenders), nil
	}
	return Resolution{}, fmt.Errorf("%w: %s for award %d", ErrUnsupportedAwardLevel, award.Level, award.ID)
}

func resolveQualifiers(award *repository.Award, contenders []Contender) (Resolution, error) {
	if award.Threshold == nil {
		return Resolution{}, fmt.Errorf("%w: award %d", ErrMissingThreshold, award.ID)
	}
	names := make([]string, 0)
	for _, contender := range contenders {
		if contender.Mean != nil && *contender.Mean >= *award.Threshold {
			names = append(names, contender.Name)
		}
	}
	if len(names) == 0 {
		return Resolution{Kind: repository.ResolutionNoQualifier, Name: NameNoQualifiers}, nil
	}
	slices.Sort(names)
	return Resolution{Kind: repository.ResolutionQualifiers, Name: strings.Join(names, ", ")}, nil
}

func resolveChampion(contenders []Contender) Resolution {
	scored := make([]Contender, 0, len(contenders))
	for _, contender := range contenders {
		if contender.TotPoints != nil {
			scored = append(scored, contender)
		}
	}
	if len(scored) == 0 {
		return Resolution{Kind: repository.ResolutionNoRecipient, Name: NameNoRecipient}
	}
	winner := slices.MinFunc(scored, compareChampionship)
	return Resolution{Kind: repository.ResolutionRecipient, Name: winner.Name}
}

// compareChampionship orders contenders best first: total, singing, performance, then name and entry id.
func compareChampionship(a, b Contender) int {
	return cmp.Or(
		cmp.Compare(deref(b.TotPoints), deref(a.TotPoints)),
		cmp.Compare(deref(b.SngPoints), deref(a.SngPoints)),
		cmp.Compare(deref(b.PerPoints), deref(a.PerPoints)),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.EntryID, b.EntryID),
	)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// BuildContenders folds official entry scores into contender statistics. Entries without scores
// are kept with nil statistics.
func BuildContenders(entries []*repository.Entry, scores []*repository.EntryScore) []Contender {
	byEntry := make(map[int][]*repository.Score, len(entries))
	for _, s := range scores {
		byEntry[s.EntryID] = append(byEntry[s.EntryID], &repository.Score{
			Category: s.Category,
			Kind:     s.Kind,
			Points:   s.Points,
		})
	}
	contenders := make([]Contender, 0, len(entries))
	for _, entry := range entries {
		totals := Aggregate(byEntry[entry.ID])
		contenders = append(contenders, Contender{
			EntryID:   entry.ID,
			Name:      entry.Name,
			TotPoints: totals.TotPoints,
			SngPoints: totals.SngPoints,
			PerPoints: totals.PerPoints,
			Mean:      totals.TotScore,
		})
	}
	return contenders
}
