// Package boltdb persists session state in a bbolt database file.
package boltdb

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/alanbriolat/video-grabber/internal/session"
)

var Buckets = struct {
	Metadata []byte
	Clients  []byte
}{
	Metadata: []byte("__metadata__"),
	Clients:  []byte("clients"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

type Database interface {
	Close() error
	Version() (int, error)

	session.Database
}

type database struct {
	*bbolt.DB
}

func New(path string) (_ Database, err error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Clients); err != nil {
			return err
		}

		// Get the current version of the database
		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version > currentVersion {
			return fmt.Errorf("database version %d is newer than supported version %d", version, currentVersion)
		}

		// Set the current version of the database
		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &database{db}, nil
}

func (d database) Version() (version int, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		return json.Unmarshal(tx.Bucket(Buckets.Metadata).Get(MetadataKeys.Version), &version)
	})
	return version, err
}

func (d database) ListClients() (clients []session.ClientState, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Clients)
		return bucket.ForEach(func(k, v []byte) error {
			var state session.ClientState
			if err := json.Unmarshal(v, &state); err != nil {
				return err
			} else {
				clients = append(clients, state)
				return nil
			}
		})
	})
	if err != nil {
		return nil, err
	} else {
		return clients, nil
	}
}

func (d database) WriteClient(state *session.ClientState) error {
	if data, err := json.Marshal(state); err != nil {
		return err
	} else {
		err := d.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(Buckets.Clients)
			if err := bucket.Put([]byte(state.ID), data); err != nil {
				return err
			}
			return nil
		})
		return err
	}
}

func (d database) DeleteClient(state *session.ClientState) error {
	return d.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Clients)
		return bucket.Delete([]byte(state.ID))
	})
}
