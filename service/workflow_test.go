package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"scorekeeper/app_error"
	"scorekeeper/config"
	"scorekeeper/hierarchy"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const actor = "test"

var db *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("Could not construct pool, skipping database tests: %s", err)
		os.Exit(m.Run())
	}
	// uses pool to try to connect to Docker
	if err := pool.Client.Ping(); err != nil {
		log.Printf("Could not connect to Docker, skipping database tests: %s", err)
		os.Exit(m.Run())
	}

	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "POSTGRES_DB=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600) // Tell docker to hard kill the container in 10 minutes
	dsn := fmt.Sprintf("host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable",
		resource.GetPort("5432/tcp"))

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), config.GormConfig())
		if err != nil {
			return err
		}
		if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS ` + config.Schema).Error; err != nil {
			return err
		}
		return repository.AutoMigrate(db)
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	code := m.Run()
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if db == nil {
		t.Skip("docker is not available")
	}
	t.Cleanup(func() {
		tables := []string{"scores", "panelists", "songs", "appearances", "outcomes", "rounds", "contestants", "contests",
			"entries", "sessions", "assignments", "conventions", "awards", "entities", "state_logs"}
		for _, table := range tables {
			db.Exec("TRUNCATE " + config.Schema + "." + table + " RESTART IDENTITY CASCADE")
		}
	})
}

func createEntity(t *testing.T, service *EntityService, name string, kind repository.EntityKind, parentId *int) *repository.Entity {
	t.Helper()
	entity, err := service.CreateEntity(context.Background(), &repository.Entity{Name: name, Code: name, Kind: kind, ParentID: parentId})
	require.NoError(t, err)
	return entity
}

func requireGuardReason(t *testing.T, err error, reason string) {
	t.Helper()
	var guardErr *workflow.GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, reason, guardErr.Reason)
}

func TestHierarchyResortAndCycles(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	entities := NewEntityService(db)

	root := createEntity(t, entities, "BHS", repository.EntityKindInternational, nil)
	district := createEntity(t, entities, "FWD", repository.EntityKindDistrict, &root.ID)
	quartet := createEntity(t, entities, "Alpha", repository.EntityKindQuartet, &district.ID)

	_, err := entities.CreateEntity(ctx, &repository.Entity{Name: "Second root", Kind: repository.EntityKindDistrict})
	assert.Error(t, err)

	_, err = entities.SetParent(ctx, district.ID, &quartet.ID)
	assert.ErrorIs(t, err, hierarchy.ErrCycle)

	result, err := entities.ResortHierarchy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Entities)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	result, err = entities.ResortHierarchy(cancelled)
	require.NoError(t, err, "a shared resort outlives the caller that started it")
	assert.Equal(t, 3, result.Entities)

	sorted, err := entities.GetAllEntities()
	require.NoError(t, err)
	for _, entity := range sorted {
		assert.NotNil(t, entity.TreeSort, "entity %s has no tree sort", entity.Name)
	}
}

// TestContestLifecycle walks a one-round quartet contest from convention build to verification.
func TestContestLifecycle(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	dispatcher := NewNopDispatcher()
	entities := NewEntityService(db)
	awards := NewAwardService(db)
	conventions := NewConventionService(db, dispatcher)
	sessions := NewSessionService(db, dispatcher)
	entries := NewEntryService(db, dispatcher)
	rounds := NewRoundService(db, dispatcher)
	appearances := NewAppearanceService(db, dispatcher, 5)
	scores := NewScoreService(db)
	outcomes := NewOutcomeService(db)
	activations := NewActivationService(db)

	bhs := createEntity(t, entities, "BHS", repository.EntityKindInternational, nil)
	alpha := createEntity(t, entities, "Alpha", repository.EntityKindQuartet, &bhs.ID)
	beta := createEntity(t, entities, "Beta", repository.EntityKindQuartet, &bhs.ID)

	seeded, err := awards.SeedAwards(ctx, &config.AwardCatalog{Entities: []config.EntityAwards{{
		EntityCode: "BHS",
		Awards: []config.AwardDefinition{
			{Name: "International Quartet Championship", Kind: "quartet", Level: "championship", IsPrimary: true},
			{Name: "International Chorus Championship", Kind: "chorus", Level: "championship", IsPrimary: true},
		},
	}}})
	require.NoError(t, err)
	assert.Equal(t, 2, seeded.Created)

	convention, err := conventions.CreateConvention(&repository.Convention{
		Name:         "International",
		Year:         2026,
		EntityID:     bhs.ID,
		SessionKinds: []string{"quartet"},
	})
	require.NoError(t, err)
	convention, err = conventions.Transition(ctx, convention.ID, workflow.ActionBuild, actor)
	require.NoError(t, err)

	_, err = conventions.Transition(ctx, convention.ID, workflow.ActionOpen, actor)
	assert.ErrorIs(t, err, workflow.ErrGuardRejected)

	sessionList, err := sessions.GetSessionsForConvention(convention.ID)
	require.NoError(t, err)
	require.Len(t, sessionList, 1)
	session := sessionList[0]
	assert.Equal(t, workflow.MaxRounds, session.NumRounds)
	session, err = sessions.SetNumRounds(ctx, session.ID, 1)
	require.NoError(t, err)

	session, err = sessions.Transition(ctx, session.ID, workflow.ActionBuild, actor)
	require.NoError(t, err)
	_, err = sessions.SetNumRounds(ctx, session.ID, 2)
	assert.ErrorIs(t, err, workflow.ErrGuardRejected)

	contests, err := sessions.GetContestsForSession(session.ID)
	require.NoError(t, err)
	require.Len(t, contests, 1, "only the quartet award is admitted")

	_, err = sessions.Transition(ctx, session.ID, workflow.ActionOpen, actor)
	require.NoError(t, err)

	judges := []repository.PanelCategory{
		repository.PanelCategoryCA,
		repository.PanelCategoryMusic,
		repository.PanelCategoryMusic,
		repository.PanelCategoryPerformance,
		repository.PanelCategorySinging,
	}
	for i, category := range judges {
		assignment, err := conventions.CreateAssignment(&repository.Assignment{
			ConventionID: convention.ID,
			PersonName:   fmt.Sprintf("%s judge %d", category, i),
			Category:     category,
			Kind:         repository.PanelKindOfficial,
		})
		require.NoError(t, err)
		_, err = activations.Transition(ctx, TypeAssignment, assignment.ID, workflow.ActionActivate, actor)
		require.NoError(t, err)
	}

	points := map[int]int{}
	for draw, group := range []*repository.Entity{alpha, beta} {
		entry, err := entries.CreateEntry(&repository.Entry{SessionID: session.ID, EntityID: group.ID, Name: group.Name, Draw: draw + 1})
		require.NoError(t, err)
		for _, action := range []workflow.Action{workflow.ActionInvite, workflow.ActionSubmit, workflow.ActionApprove} {
			_, err = entries.Transition(ctx, entry.ID, action, actor)
			require.NoError(t, err)
		}
		points[entry.ID] = 80 - 10*draw
	}

	_, err = sessions.Transition(ctx, session.ID, workflow.ActionClose, actor)
	require.NoError(t, err)
	_, err = sessions.Transition(ctx, session.ID, workflow.ActionStart, actor)
	assert.ErrorIs(t, err, workflow.ErrGuardRejected, "first round is not built yet")

	roundList, err := rounds.GetRoundsForSession(session.ID)
	require.NoError(t, err)
	require.Len(t, roundList, 1)
	round := roundList[0]
	assert.Equal(t, repository.RoundKindFinals, round.Kind)

	_, err = rounds.Transition(ctx, round.ID, workflow.ActionBuild, actor)
	require.NoError(t, err)
	_, err = sessions.Transition(ctx, session.ID, workflow.ActionStart, actor)
	require.NoError(t, err)

	appearanceList, err := appearances.GetAppearancesForRound(round.ID)
	require.NoError(t, err)
	require.Len(t, appearanceList, 2)

	_, err = appearances.Start(ctx, appearanceList[0].ID, actor)
	assert.ErrorIs(t, err, workflow.ErrGuardRejected, "round is only built")

	_, err = rounds.Transition(ctx, round.ID, workflow.ActionStart, actor)
	require.NoError(t, err)

	panelists, err := scores.GetPanelistsForRound(round.ID)
	require.NoError(t, err)
	require.Len(t, panelists, len(judges))
	var administrator *repository.Panelist
	scorers := make([]*repository.Panelist, 0, len(panelists))
	for _, panelist := range panelists {
		if panelist.Category.Scored() {
			scorers = append(scorers, panelist)
		} else {
			administrator = panelist
		}
	}
	require.NotNil(t, administrator)
	require.Len(t, scorers, 4)

	for _, listed := range appearanceList {
		_, err = appearances.Start(ctx, listed.ID, actor)
		require.NoError(t, err)
		_, err = rounds.Transition(ctx, round.ID, workflow.ActionFinish, actor)
		assert.ErrorIs(t, err, workflow.ErrGuardRejected, "an appearance is on stage")
		_, err = appearances.Finish(ctx, listed.ID, actor)
		require.NoError(t, err)

		appearance, err := appearances.GetAppearanceById(listed.ID)
		require.NoError(t, err)
		require.Len(t, appearance.Songs, workflow.SongsPerAppearance)
		for _, song := range appearance.Songs {
			inputs := make([]ScoreInput, 0, len(scorers))
			for _, panelist := range scorers {
				inputs = append(inputs, ScoreInput{PanelistID: panelist.ID, Points: points[listed.EntryID]})
			}
			recorded, err := scores.RecordScores(ctx, song.ID, inputs)
			require.NoError(t, err)
			assert.Len(t, recorded, len(scorers))

			_, err = scores.RecordScores(ctx, song.ID, []ScoreInput{{PanelistID: administrator.ID, Points: 100}})
			assert.Equal(t, 400, app_error.StatusOf(err), "the contest administrator enters no points")
		}

		confirmed, result, err := appearances.Confirm(ctx, listed.ID, actor)
		require.NoError(t, err)
		require.IsType(t, workflow.Confirmed{}, result)
		require.NotNil(t, confirmed.TotPoints)
		assert.Equal(t, points[listed.EntryID]*len(scorers)*workflow.SongsPerAppearance, *confirmed.TotPoints)
	}

	_, err = rounds.Transition(ctx, round.ID, workflow.ActionFinish, actor)
	require.NoError(t, err)

	// a correction that splits the music judges
	first, err := appearances.GetAppearanceById(appearanceList[0].ID)
	require.NoError(t, err)
	confirmedTotal := *first.TotPoints
	music := scorers[0]
	require.Equal(t, repository.PanelCategoryMusic, music.Category)
	_, err = scores.RecordScores(ctx, first.Songs[0].ID, []ScoreInput{{PanelistID: music.ID, Points: 60}})
	require.NoError(t, err)

	_, err = rounds.Transition(ctx, round.ID, workflow.ActionReview, actor)
	requireGuardReason(t, err, workflow.ReasonTotalsStale)

	recomputed, result, err := appearances.Recompute(ctx, first.ID)
	require.NoError(t, err)
	require.IsType(t, workflow.ConfirmedPendingReview{}, result)
	assert.True(t, recomputed.VariancePending)
	assert.Equal(t, confirmedTotal, *recomputed.TotPoints)

	_, err = appearances.RecomputeConfirmed(ctx)
	require.NoError(t, err)
	swept, err := appearances.GetAppearanceById(first.ID)
	require.NoError(t, err)
	assert.True(t, swept.VariancePending)
	assert.Equal(t, confirmedTotal, *swept.TotPoints, "the sweep keeps disputed scores out of the totals")

	_, err = rounds.Transition(ctx, round.ID, workflow.ActionReview, actor)
	requireGuardReason(t, err, workflow.ReasonVariancePending)

	_, err = scores.RecordScores(ctx, first.Songs[0].ID, []ScoreInput{{PanelistID: music.ID, Points: points[first.EntryID]}})
	require.NoError(t, err)
	reconfirmed, result, err := appearances.Confirm(ctx, first.ID, actor)
	require.NoError(t, err)
	require.IsType(t, workflow.Confirmed{}, result)
	assert.False(t, reconfirmed.VariancePending)
	assert.Equal(t, confirmedTotal, *reconfirmed.TotPoints)

	for _, action := range []workflow.Action{workflow.ActionReview, workflow.ActionVerify} {
		_, err = rounds.Transition(ctx, round.ID, action, actor)
		require.NoError(t, err, "round %s", action)
	}

	resolved, err := outcomes.GetOutcomesForRound(round.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].Name)
	assert.Equal(t, "Alpha", *resolved[0].Name)
	assert.Equal(t, repository.ResolutionRecipient, resolved[0].Result)

	appearance, err := appearances.GetAppearanceById(appearanceList[0].ID)
	require.NoError(t, err)
	_, err = scores.RecordScores(ctx, appearance.Songs[0].ID, []ScoreInput{{PanelistID: scorers[0].ID, Points: 10}})
	assert.ErrorIs(t, err, workflow.ErrGuardRejected, "scores are locked once the round is verified")

	_, err = rounds.Transition(ctx, round.ID, workflow.ActionPublish, actor)
	require.NoError(t, err)
	resolved, err = outcomes.GetOutcomesForRound(round.ID)
	require.NoError(t, err)
	assert.True(t, resolved[0].Frozen)

	for _, action := range []workflow.Action{workflow.ActionFinish, workflow.ActionVerify} {
		_, err = sessions.Transition(ctx, session.ID, action, actor)
		require.NoError(t, err, "session %s", action)
	}
	for _, action := range []workflow.Action{workflow.ActionOpen, workflow.ActionClose, workflow.ActionStart, workflow.ActionFinish, workflow.ActionVerify} {
		_, err = conventions.Transition(ctx, convention.ID, action, actor)
		require.NoError(t, err, "convention %s", action)
	}

	logs, err := NewStateLogService(db).GetLogsForEntity(TypeRound, round.ID)
	require.NoError(t, err)
	require.Len(t, logs, 6)
	assert.Equal(t, string(workflow.ActionPublish), logs[5].Action)
	assert.Equal(t, actor, logs[5].Actor)

	_, err = rounds.Transition(ctx, round.ID, workflow.ActionBuild, actor)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
