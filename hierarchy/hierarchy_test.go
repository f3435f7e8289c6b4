package hierarchy

import (
	"testing"

	"scorekeeper/repository"
	"scorekeeper/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id int, kind repository.EntityKind, name string, code string, parent int) *repository.Entity {
	e := &repository.Entity{ID: id, Kind: kind, Name: name, Code: code, Status: repository.ActivationActive}
	if parent != 0 {
		e.ParentID = utils.Ptr(parent)
	}
	return e
}

func sampleTree() []*repository.Entity {
	return []*repository.Entity{
		node(1, repository.EntityKindInternational, "Barbershop Harmony Society", "BHS", 0),
		node(2, repository.EntityKindDistrict, "Johnny Appleseed", "JAD", 1),
		node(3, repository.EntityKindDistrict, "Cardinal", "CAR", 1),
		node(4, repository.EntityKindNoncomp, "Harmony Foundation", "HF", 1),
		node(5, repository.EntityKindDivision, "Southwest Division", "", 3),
		node(6, repository.EntityKindDivision, "Northeast Division", "", 3),
		node(7, repository.EntityKindChapter, "Zanesville", "J001", 2),
		node(8, repository.EntityKindChorus, "Alexandria Harmonizers", "", 7),
		node(9, repository.EntityKindQuartet, "Main Street", "", 2),
		node(10, repository.EntityKindQuartet, "Forefront", "", 3),
		node(11, repository.EntityKindChapter, "Akron", "J002", 2),
	}
}

func TestTreeSortOrder(t *testing.T) {
	sorts, err := TreeSort(sampleTree())
	require.NoError(t, err)

	expected := map[int]int{
		1:  1,  // root
		3:  2,  // district CAR
		6:  3,  // its divisions, by name
		5:  4,  //
		2:  5,  // district JAD
		4:  6,  // noncomp
		11: 7,  // chapters by name
		7:  8,  //
		8:  9,  // chorus
		10: 10, // quartets by name
		9:  11, //
	}
	assert.Equal(t, expected, sorts)
}

func TestTreeSortIsDeterministic(t *testing.T) {
	tree := sampleTree()
	first, err := TreeSort(tree)
	require.NoError(t, err)

	reversed := make([]*repository.Entity, len(tree))
	for i, e := range tree {
		reversed[len(tree)-1-i] = e
	}
	second, err := TreeSort(reversed)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTreeSortNewQuartetOnlyChangesTail(t *testing.T) {
	tree := sampleTree()
	before, err := TreeSort(tree)
	require.NoError(t, err)

	tree = append(tree, node(12, repository.EntityKindQuartet, "Acoustix", "", 2))
	after, err := TreeSort(tree)
	require.NoError(t, err)

	structural := []int{1, 2, 3, 4, 5, 6}
	for _, id := range structural {
		assert.Equal(t, before[id], after[id], "structural entity %d moved", id)
	}
	assert.Equal(t, 10, after[12], "new quartet sorts first among quartets")
	assert.Equal(t, before[10]+1, after[10])
	assert.Len(t, after, len(before)+1)
}

func TestTreeSortValuesAreContiguous(t *testing.T) {
	sorts, err := TreeSort(sampleTree())
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, v := range sorts {
		assert.False(t, seen[v], "duplicate tree_sort %d", v)
		seen[v] = true
	}
	for i := 1; i <= len(sorts); i++ {
		assert.True(t, seen[i], "missing tree_sort %d", i)
	}
}

func TestTreeSortLeavesUnreachedEntitiesUnsorted(t *testing.T) {
	tree := append(sampleTree(), node(20, repository.EntityKindDivision, "Orphan Division", "", 7))
	sorts, err := TreeSort(tree)
	require.NoError(t, err)
	_, ok := sorts[20]
	assert.False(t, ok)
}

func TestTreeSortRequiresSingleRoot(t *testing.T) {
	_, err := TreeSort([]*repository.Entity{node(2, repository.EntityKindDistrict, "A", "", 0)})
	assert.ErrorIs(t, err, ErrNoRoot)

	_, err = TreeSort([]*repository.Entity{
		node(1, repository.EntityKindInternational, "A", "", 0),
		node(2, repository.EntityKindInternational, "B", "", 0),
	})
	assert.ErrorIs(t, err, ErrMultipleRoot)
}

func TestAwardSort(t *testing.T) {
	entitySorts := map[int]int{1: 1, 2: 5}
	awards := []*repository.Award{
		{ID: 1, EntityID: 2, Name: "District Chorus", Kind: repository.AwardKindChorus, Level: repository.AwardLevelChampionship, Status: repository.ActivationActive},
		{ID: 2, EntityID: 1, Name: "International Quartet", Kind: repository.AwardKindQuartet, Level: repository.AwardLevelChampionship, Status: repository.ActivationActive},
		{ID: 3, EntityID: 1, Name: "International Chorus", Kind: repository.AwardKindChorus, Level: repository.AwardLevelChampionship, Status: repository.ActivationActive},
		{ID: 4, EntityID: 1, Name: "Quartet Qualifier", Kind: repository.AwardKindQuartet, Level: repository.AwardLevelQualifier, Status: repository.ActivationActive},
		{ID: 5, EntityID: 1, Name: "Retired", Kind: repository.AwardKindQuartet, Level: repository.AwardLevelChampionship, Status: repository.ActivationInactive},
		{ID: 6, EntityID: 99, Name: "Unsorted Entity", Kind: repository.AwardKindQuartet, Level: repository.AwardLevelChampionship, Status: repository.ActivationActive},
	}
	sorts := AwardSort(awards, entitySorts)

	assert.Equal(t, map[int]int{2: 1, 4: 2, 3: 3, 1: 4, 6: 5, 5: 6}, sorts)
}

func TestValidateParent(t *testing.T) {
	tree := sampleTree()
	byID := make(map[int]*repository.Entity)
	for _, e := range tree {
		byID[e.ID] = e
	}

	assert.NoError(t, ValidateParent(tree, byID[9], utils.Ptr(3)), "moving a quartet between districts")
	assert.NoError(t, ValidateParent(tree, &repository.Entity{Kind: repository.EntityKindQuartet}, utils.Ptr(2)))

	assert.ErrorIs(t, ValidateParent(tree, byID[3], utils.Ptr(5)), ErrCycle, "district under its own division")
	assert.ErrorIs(t, ValidateParent(tree, byID[3], utils.Ptr(3)), ErrCycle, "self parent")
	assert.ErrorIs(t, ValidateParent(tree, byID[9], utils.Ptr(404)), ErrUnknownParent)
	assert.ErrorIs(t, ValidateParent(tree, byID[9], nil), ErrRootKind)
	assert.ErrorIs(t, ValidateParent(tree, &repository.Entity{Kind: repository.EntityKindInternational}, nil), ErrMultipleRoot)
	assert.NoError(t, ValidateParent(tree, byID[1], nil))
}
