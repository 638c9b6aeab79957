package boltdb

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/alanbriolat/video-grabber/internal/session"
)

func TestClients(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := New(path)
	require.NoError(err)
	version, err := db.Version()
	assert.NoError(err)
	assert.Equal(currentVersion, version)

	clients, err := db.ListClients()
	assert.NoError(err)
	assert.Empty(clients)

	state := session.ClientState{
		ID:        session.NewClientID(),
		Link:      "https://youtu.be/dQw4w9WgXcQ",
		UpdatedAt: time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(db.WriteClient(&state))
	require.NoError(db.Close())

	// Survives reopening
	db, err = New(path)
	require.NoError(err)
	defer db.Close()
	clients, err = db.ListClients()
	assert.NoError(err)
	if assert.Len(clients, 1) {
		assert.Equal(state.ID, clients[0].ID)
		assert.Equal(state.Link, clients[0].Link)
		assert.True(state.UpdatedAt.Equal(clients[0].UpdatedAt))
	}

	require.NoError(db.DeleteClient(&state))
	clients, err = db.ListClients()
	assert.NoError(err)
	assert.Empty(clients)
}

func TestNewerVersionRejected(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	path := filepath.Join(t.TempDir(), "state.db")

	raw, err := bbolt.Open(path, 0600, nil)
	require.NoError(err)
	require.NoError(raw.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(Buckets.Metadata)
		if err != nil {
			return err
		}
		versionBytes, _ := json.Marshal(currentVersion + 1)
		return metadata.Put(MetadataKeys.Version, versionBytes)
	}))
	require.NoError(raw.Close())

	_, err = New(path)
	assert.Error(err)
}

func TestWithSessionStore(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	path := filepath.Join(t.TempDir(), "state.db")
	id := session.NewClientID()

	db, err := New(path)
	require.NoError(err)
	store, err := session.New(session.Config{Database: db})
	require.NoError(err)
	require.NoError(store.SetLink(id, "https://youtu.be/dQw4w9WgXcQ"))
	require.NoError(db.Close())

	db, err = New(path)
	require.NoError(err)
	defer db.Close()
	store, err = session.New(session.Config{Database: db})
	require.NoError(err)
	link, err := store.TakeLink(id)
	assert.NoError(err)
	assert.Equal("https://youtu.be/dQw4w9WgXcQ", link)
}
