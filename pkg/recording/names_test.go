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

package recording

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEggPath(t *testing.T) {
	assert.Equal(t, filepath.Join("media", "WGO2", "PEA00012.EGG"), EggPath(filepath.Join("media", "WGO2", "REC00012.UGG")))
	assert.Equal(t, "PEA7.EGG", EggPath("REC7.UGG"))
}

func TestOutputName(t *testing.T) {
	recordedAt := time.Date(2024, 1, 31, 14, 25, 1, 0, time.Local)
	assert.Equal(t, "20240131_142501.flac", OutputName(recordedAt, "", "flac"))
	assert.Equal(t, "20240131_142501_A1B2C3.wav", OutputName(recordedAt, "A1B2C3", ".wav"))
}

func TestFindRecordings(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"REC00002.UGG", "PEA00002.EGG", "sub/rec00001.ugg", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, ioutil.WriteFile(path, nil, 0644))
	}

	found, err := FindRecordings(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "REC00002.UGG"),
		filepath.Join(dir, "sub", "rec00001.ugg"),
	}, found)
}
