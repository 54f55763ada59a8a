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

// go-wgo2 API
//
// RESTful APIs to convert recordings and query the conversion history
//
//	Schemes: http
//	Host: localhost:8004
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package srv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/wgo2tool/go-wgo2/pkg/codec"
	"github.com/wgo2tool/go-wgo2/pkg/config"
	"github.com/wgo2tool/go-wgo2/pkg/layers"
	"github.com/wgo2tool/go-wgo2/pkg/log"
	"github.com/wgo2tool/go-wgo2/pkg/recording"
	"github.com/wgo2tool/go-wgo2/pkg/state"
)

const (
	ShutdownTimeout = 5 * time.Second
)

// ConvertRequest ...
type ConvertRequest struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Follow bool   `json:"follow,omitempty"`
}

// MarkersResponse ...
type MarkersResponse struct {
	Markers    []int `json:"markers"`
	HasMarkers bool  `json:"hasMarkers"`
}

// ErrorResponse ...
type ErrorResponse struct {
	Error string `json:"error"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	store     *state.Store
	converter *recording.Converter
}

func NewApiServer(ctx context.Context, cfg *config.Config, store *state.Store, converter *recording.Converter) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.ApiConfig.Address, cfg.ApiConfig.Port)

	s := &ApiServer{
		Context:   ctx,
		Config:    cfg,
		store:     store,
		converter: converter,
	}
	s.configureRouter()
	return s, nil
}

// Run serves until the server context is done
func (s *ApiServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.Config.ApiConfig.Address, s.Config.ApiConfig.Port)
	log.Info("Starting API server: %s", addr)
	httpServer := &http.Server{
		Handler: handlers.LoggingHandler(log.Writer(), s.Router),
		Addr:    addr,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-s.Context.Done():
		log.Info("Stopping API server")
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /recordings list recordings
	subRouter.HandleFunc("/recordings", s.handleListRecordings()).Methods("GET")
	// swagger:operation GET /recordings/{name} get recording
	subRouter.HandleFunc("/recordings/{name}", s.handleGetRecording()).Methods("GET")
	// swagger:operation POST /convert convert recording
	subRouter.HandleFunc("/convert", s.handleConvert()).Methods("POST")
	// swagger:operation POST /markers decode markers from telemetry stream in body
	subRouter.HandleFunc("/markers", s.handleMarkers()).Methods("POST")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{Error: err.Error()})
}

// decodeErrorStatus maps container decoding errors to 422 and the rest to 500
func decodeErrorStatus(err error) int {
	var formatErr layers.ErrFormat
	var truncatedErr layers.ErrTruncated
	var featureErr layers.ErrUnsupportedFeature
	var codecErr codec.ErrUnknownCodec
	switch {
	case errors.As(err, &formatErr), errors.As(err, &truncatedErr),
		errors.As(err, &featureErr), errors.As(err, &codecErr),
		errors.Is(err, layers.ErrFormat{}):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *ApiServer) handleListRecordings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling list recordings request")
		recs, err := s.store.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if recs == nil {
			recs = []*recording.Recording{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func (s *ApiServer) handleGetRecording() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		log.Debug("Handling get recording request: %s", name)
		rec, err := s.store.GetByName(name)
		if err != nil {
			var notFound state.ErrRecordingNotFound
			if errors.As(err, &notFound) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *ApiServer) handleConvert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &ConvertRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.Source == "" || req.Output == "" {
			writeError(w, http.StatusBadRequest, errors.New("source and output are required"))
			return
		}
		log.Debug("Handling convert request: %s -> %s", req.Source, req.Output)

		rec, err := s.converter.Convert(r.Context(), req.Source, req.Output, req.Follow)
		if err != nil {
			var unsupported recording.ErrUnsupportedOutput
			if errors.As(pkgerrors.Cause(err), &unsupported) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeError(w, decodeErrorStatus(err), err)
			return
		}
		if err := s.store.Put(rec); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *ApiServer) handleMarkers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling markers request")
		markers, found, err := recording.DecodeMarkers(r.Body)
		if err != nil {
			writeError(w, decodeErrorStatus(err), err)
			return
		}
		if markers == nil {
			markers = []int{}
		}
		writeJSON(w, http.StatusOK, &MarkersResponse{Markers: markers, HasMarkers: found})
	}
}
