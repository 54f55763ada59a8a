/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package state

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/wgo2tool/go-wgo2/pkg/log"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
)

const (
	RecordingsBucket = "recordings"
	OpenTimeout      = time.Second
)

// Store keeps the history of converted recordings keyed by source path
type Store struct {
	DB *bbolt.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: OpenTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "opening state database %s", path)
	}
	s := &Store{
		DB: db,
	}
	if err := s.createBucket(RecordingsBucket); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close ...
func (s *Store) Close() {
	s.DB.Close()
}

func (s *Store) createBucket(name string) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
}

// Put stores or replaces the entry for rec.Source
func (s *Store) Put(rec *recording.Recording) error {
	log.Debug("Storing recording: %s", rec.Source)
	recBytes, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(RecordingsBucket))
		return b.Put([]byte(rec.Source), recBytes)
	})
}

// Get returns the entry for a source path
func (s *Store) Get(source string) (*recording.Recording, error) {
	var rec *recording.Recording
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(RecordingsBucket))
		recBytes := b.Get([]byte(source))
		if recBytes == nil {
			return ErrRecordingNotFound{Key: source}
		}
		rec = &recording.Recording{}
		return yaml.Unmarshal(recBytes, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByName returns the entry whose recording name matches, e.g. REC00012
func (s *Store) GetByName(name string) (*recording.Recording, error) {
	recs, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.Name == name {
			return rec, nil
		}
	}
	return nil, ErrRecordingNotFound{Key: name}
}

// Has reports whether source was converted before
func (s *Store) Has(source string) (bool, error) {
	found := false
	err := s.DB.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(RecordingsBucket)).Get([]byte(source)) != nil
		return nil
	})
	return found, err
}

// List returns all entries ordered by recording time
func (s *Store) List() ([]*recording.Recording, error) {
	var recs []*recording.Recording
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(RecordingsBucket))
		return b.ForEach(func(k, v []byte) error {
			rec := &recording.Recording{}
			if err := yaml.Unmarshal(v, rec); err != nil {
				log.Error("Error while unmarshalling recording %s: %s", k, err)
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RecordedAt.Before(recs[j].RecordedAt) })
	return recs, nil
}

func (s *Store) Delete(source string) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(RecordingsBucket))
		if b.Get([]byte(source)) == nil {
			return ErrRecordingNotFound{Key: source}
		}
		return b.Delete([]byte(source))
	})
}
