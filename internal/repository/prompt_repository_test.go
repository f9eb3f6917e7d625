package repository_test

import (
	"context"
	"testing"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptRepository(t *testing.T) {
	repo := repository.NewPromptRepository(newTestDB(t))
	ctx := context.Background()

	for i, id := range []string{"R2", "R1"} {
		n := 2 - i
		p := &model.Prompt{Section: model.SectionReading, Title: "Passage " + id, PassageNumber: &n}
		p.ID = id
		require.NoError(t, repo.Upsert(ctx, p))
	}
	talk := &model.Prompt{Section: model.SectionListening, Title: "Talk", AudioURL: "listening/L1/talk.mp3"}
	talk.ID = "L1"
	require.NoError(t, repo.Upsert(ctx, talk))

	reading, err := repo.ListBySection(ctx, model.SectionReading)
	require.NoError(t, err)
	require.Len(t, reading, 2)
	assert.Equal(t, "R1", reading[0].ID)
	assert.Equal(t, "R2", reading[1].ID)

	talk.Title = "Campus talk"
	require.NoError(t, repo.Upsert(ctx, talk))

	found, err := repo.FindByID(ctx, "L1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Campus talk", found.Title)
	assert.Equal(t, "listening/L1/talk.mp3", found.AudioURL)

	missing, err := repo.FindByID(ctx, "R404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	counts, err := repo.CountBySection(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[model.SectionReading])
	assert.EqualValues(t, 1, counts[model.SectionListening])

	byID, err := repo.FindByIDs(ctx, []string{"R1", "L1"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
}
