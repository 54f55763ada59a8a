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

package command

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/imroc/req"

	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
	"github.com/wgo2tool/go-wgo2/pkg/srv"
)

// Client is the remote interface to a running API server
type Client interface {
	ListRecordings() ([]*recording.Recording, error)
	GetRecording(name string) (*recording.Recording, error)
	Convert(source, output string, follow bool) (*recording.Recording, error)
	Markers(egg io.Reader) (*srv.MarkersResponse, error)
}

type ApiClient struct {
	ApiPrefix string
}

var _ Client = &ApiClient{}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.ApiConfig.Address, cfg.ApiConfig.Port),
	}
}

func (c *ApiClient) url(parts ...string) string {
	return c.ApiPrefix + "/" + strings.Join(parts, "/")
}

// checkStatus turns a non 200 response into an error carrying the server message
func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode == 200 {
		return nil
	}
	errResp := &srv.ErrorResponse{}
	if err := r.ToJSON(errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("%s: %s", r.Response().Status, errResp.Error)
	}
	return errors.New(r.Response().Status)
}

// ListRecordings sends request to get the conversion history
func (c *ApiClient) ListRecordings() ([]*recording.Recording, error) {
	r, err := req.Get(c.url("recordings"))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	var recs []*recording.Recording
	if err := r.ToJSON(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// GetRecording sends request to get one history entry by recording name
func (c *ApiClient) GetRecording(name string) (*recording.Recording, error) {
	r, err := req.Get(c.url("recordings", name))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	rec := &recording.Recording{}
	if err := r.ToJSON(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Convert asks the server to convert a recording it can reach on its own filesystem
func (c *ApiClient) Convert(source, output string, follow bool) (*recording.Recording, error) {
	body := &srv.ConvertRequest{
		Source: source,
		Output: output,
		Follow: follow,
	}
	r, err := req.Post(c.url("convert"), req.BodyJSON(body))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	rec := &recording.Recording{}
	if err := r.ToJSON(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Markers uploads a telemetry file and returns the markers decoded by the server
func (c *ApiClient) Markers(egg io.Reader) (*srv.MarkersResponse, error) {
	data, err := ioutil.ReadAll(egg)
	if err != nil {
		return nil, err
	}
	r, err := req.Post(c.url("markers"), req.Header{"Content-Type": "application/octet-stream"}, data)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	resp := &srv.MarkersResponse{}
	if err := r.ToJSON(resp); err != nil {
		return nil, err
	}
	return resp, nil
}
