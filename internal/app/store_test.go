package app

import (
	"testing"

	"github.com/felixbrock/okrs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObjectives() []domain.Objective {
	return []domain.Objective{
		{
			Id:    "1",
			Title: "Grow revenue",
			KeyResults: []domain.KeyResult{
				{Id: "2", Description: "New customers", Current: 25, Target: 50, Metric: "customers"},
				{Id: "3", Description: "Churn review", Current: 100, Target: 100, Metric: "%"},
			},
		},
	}
}

func TestStoreReplaceDropsStaleResults(t *testing.T) {
	s := NewStore()

	assert.True(t, s.Replace(2, sampleObjectives()))
	assert.False(t, s.Replace(1, nil), "older refresh must not overwrite a newer one")
	assert.False(t, s.Replace(2, nil))

	snapshot := s.Snapshot()
	assert.Equal(t, uint64(2), snapshot.Version)
	require.Len(t, snapshot.Objectives, 1)
	assert.Equal(t, "Grow revenue", snapshot.Objectives[0].Title)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	objectives := sampleObjectives()
	s.Replace(1, objectives)

	objectives[0].KeyResults[0].Current = 0
	snapshot := s.Snapshot()
	snapshot.Objectives[0].Title = "changed"

	again := s.Snapshot()
	assert.Equal(t, "Grow revenue", again.Objectives[0].Title)
	assert.Equal(t, 25.0, again.Objectives[0].KeyResults[0].Current)
}

func TestStoreEchoOnlyAffectsPreview(t *testing.T) {
	s := NewStore()
	s.Replace(1, sampleObjectives())

	region := KeyResultRegion("1", "2")
	token := s.EchoProgress(region, 50)

	views := s.Snapshot().Views()
	require.Len(t, views, 1)
	o := views[0]
	assert.Equal(t, 75, o.Percentage, "rollup uses stored values")
	assert.False(t, o.Complete)

	kr := o.KeyResults[0]
	assert.Equal(t, 50, kr.Percentage)
	assert.True(t, kr.Preview)
	assert.Equal(t, 50.0, kr.PreviewCurrent)
	assert.Equal(t, 100, kr.PreviewPercentage)
	assert.False(t, o.KeyResults[1].Preview)

	s.ReleaseEcho(region, token)
	assert.False(t, s.Snapshot().Views()[0].KeyResults[0].Preview)
}

func TestStoreReleaseEchoKeepsNewerEcho(t *testing.T) {
	s := NewStore()
	region := KeyResultRegion("1", "2")

	first := s.EchoProgress(region, 10)
	second := s.EchoProgress(region, 20)
	assert.NotEqual(t, first, second)

	s.ReleaseEcho(region, first)
	assert.Equal(t, 20.0, s.Snapshot().Echoes[region], "an older submission cannot clear a newer echo")

	s.ReleaseEcho(region, second)
	assert.Empty(t, s.Snapshot().Echoes)
}

func TestStoreEchoClampsNegativeValues(t *testing.T) {
	s := NewStore()
	s.EchoProgress("r", -5)
	assert.Equal(t, 0.0, s.Snapshot().Echoes["r"])
}

func TestStoreStateTransitions(t *testing.T) {
	s := NewStore()
	region := ObjectiveRegion("1")

	assert.Equal(t, Idle, s.State(region))
	assert.Error(t, s.setState(region, Settled), "idle cannot settle")

	require.NoError(t, s.setState(region, Submitting))
	assert.True(t, s.State(region).Busy())
	assert.Error(t, s.setState(region, Submitting), "one submission per region")

	require.NoError(t, s.setState(region, Failed))
	assert.False(t, s.State(region).Busy())
	require.NoError(t, s.setState(region, Submitting))
	require.NoError(t, s.setState(region, Settled))
	assert.Equal(t, "settled", s.State(region).String())
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()

	var versions []uint64
	unsubscribe := s.Subscribe(func(snapshot Snapshot) {
		versions = append(versions, snapshot.Version)
	})

	s.Replace(1, sampleObjectives())
	s.Replace(2, sampleObjectives())
	unsubscribe()
	s.Replace(3, sampleObjectives())

	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestStoreSubscriberMayReadStore(t *testing.T) {
	s := NewStore()

	var titles []string
	s.Subscribe(func(Snapshot) {
		for _, o := range s.Snapshot().Objectives {
			titles = append(titles, o.Title)
		}
	})

	s.Replace(1, sampleObjectives())
	assert.Equal(t, []string{"Grow revenue"}, titles)
}

func TestViewsOfEmptyObjective(t *testing.T) {
	s := NewStore()
	s.Replace(1, []domain.Objective{{Id: "9", Title: "Empty"}})

	views := s.Snapshot().Views()
	require.Len(t, views, 1)
	assert.Equal(t, 0, views[0].Percentage)
	assert.False(t, views[0].Complete)
	assert.Empty(t, views[0].KeyResults)
}

func TestMutationStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "MutationState(9)", MutationState(9).String())
	assert.Equal(t, "objectives/1/key-results/2", KeyResultRegion("1", "2"))
}
