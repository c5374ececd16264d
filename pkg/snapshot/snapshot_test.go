package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataform/strata/pkg/model"
	"github.com/strataform/strata/pkg/snapshot"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	models := []model.Definition{
		{
			Name: "Post",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
				{Name: "title", Type: model.TypeString},
			},
			Relations: []model.Relation{
				{Name: "author", Kind: model.BelongsTo, Target: "User", ForeignKey: "authorId"},
			},
			Policies: map[model.Action]string{
				model.ActionRead: `record.published === true`,
			},
		},
	}

	require.NoError(t, snapshot.Save(path, models))

	loaded, err := snapshot.Load(path)
	require.NoError(t, err)
	assert.Equal(t, models, loaded)
}

func TestLoadAcceptsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	doc := `{"version":1,"models":[{"name":"User","schema":[{"name":"id","type":"uuid","primaryKey":true}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	models, err := snapshot.Load(path)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "User", models[0].Name)
	assert.True(t, models[0].Schema[0].PrimaryKey)
}

func TestLoadOptionalMissingFile(t *testing.T) {
	models, err := snapshot.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, models)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: [not: {balanced"), 0o644))

	_, err := snapshot.Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, snapshot.ErrInvalidSnapshot)
}
