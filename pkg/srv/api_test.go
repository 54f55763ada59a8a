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

package srv

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/layers"
	"github.com/wgo2tool/go-wgo2/pkg/layers/layerstest"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
	"github.com/wgo2tool/go-wgo2/pkg/state"
)

func newTestServer(t *testing.T) (*ApiServer, *state.Store) {
	dir := t.TempDir()
	cfg := config.NewConfig(filepath.Join(dir, "config"))
	cfg.StateDir = dir
	store, err := state.Open(cfg.StateDBPath())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	s, err := NewApiServer(context.Background(), cfg, store, recording.NewConverter(cfg.ConvertConfig))
	require.NoError(t, err)
	return s, store
}

func serve(s *ApiServer, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func telemetry() []byte {
	return layerstest.Stream(
		layerstest.Page(3, 0, layers.PageFlagBeginOfStream, layerstest.WGo2Header(layers.WGo2StatusSubtype)),
		layerstest.Page(3, 1, layers.PageFlagEndOfStream, layerstest.StatusRecords(10, 2, 5, 9)),
	)
}

func TestListRecordings(t *testing.T) {
	s, store := newTestServer(t)

	w := serve(s, "GET", "/api/recordings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	rec := &recording.Recording{
		Name:       "REC00001",
		Source:     "/media/REC00001.UGG",
		Output:     "/tmp/out.flac",
		RecordedAt: time.Date(2024, 1, 31, 14, 25, 1, 0, time.UTC),
		Markers:    []int{7},
	}
	require.NoError(t, store.Put(rec))

	w = serve(s, "GET", "/api/recordings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recs []*recording.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "REC00001", recs[0].Name)
	assert.Equal(t, []int{7}, recs[0].Markers)

	w = serve(s, "GET", "/api/recordings/REC00001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := &recording.Recording{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), got))
	assert.Equal(t, rec.Source, got.Source)

	w = serve(s, "GET", "/api/recordings/REC00002", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkers(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, "POST", "/api/markers", telemetry())
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"markers":[2,5,9],"hasMarkers":true}`, w.Body.String())

	// a peak stream only has no markers
	peak := layerstest.Page(2, 0, layers.PageFlagBeginOfStream|layers.PageFlagEndOfStream,
		layerstest.WGo2Header(layers.WGo2PeakSubtype))
	w = serve(s, "POST", "/api/markers", peak)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"markers":[],"hasMarkers":false}`, w.Body.String())

	bad := telemetry()
	bad[4] = 1
	w = serve(s, "POST", "/api/markers", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "revision")
}

func TestConvert(t *testing.T) {
	s, store := newTestServer(t)
	dir := t.TempDir()
	ugg := filepath.Join(dir, "REC00004.UGG")
	audio := layerstest.Stream(
		layerstest.Page(1, 0, layers.PageFlagBeginOfStream, layerstest.PCMHeader(1, 48000, 0)),
		layerstest.Page(1, 1, layers.PageFlagEndOfStream, []byte{1, 2, 3}),
	)
	require.NoError(t, writeFile(ugg, audio))
	require.NoError(t, writeFile(recording.EggPath(ugg), telemetry()))

	body, err := json.Marshal(&ConvertRequest{Source: ugg, Output: filepath.Join(dir, "out.wav")})
	require.NoError(t, err)
	w := serve(s, "POST", "/api/convert", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rec := &recording.Recording{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), rec))
	assert.Equal(t, []int{2, 5, 9}, rec.Markers)
	assert.Equal(t, int64(3), rec.FrameBytes)

	found, err := store.Has(ugg)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestConvertBadRequest(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, "POST", "/api/convert", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, "POST", "/api/convert", []byte(`{"source":"a.UGG"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, "POST", "/api/convert", []byte(`{"source":"a.UGG","output":"a.ogg"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "a.ogg"))
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	w := serve(s, "GET", "/api/convert", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func writeFile(path string, data []byte) error {
	return ioutil.WriteFile(path, data, 0644)
}
