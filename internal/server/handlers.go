package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/server/middleware"
	"github.com/jonathan/internx-match/internal/types"
)

// maxBodyBytes caps request bodies; completion carries whole transcripts.
const maxBodyBytes = 1 << 20

// decodeBody decodes a JSON body into dst. An empty body is accepted when
// optional is true.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return &types.ValidationError{Message: "invalid request body"}
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &types.ValidationError{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent yields 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &types.ValidationError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &types.ValidationError{Field: name, Message: "must be a UUID"}
	}
	return &id, nil
}

// callerOf returns the authenticated caller for the request.
func callerOf(r *http.Request) types.Caller {
	return middleware.CallerFrom(r.Context())
}

// requireSelf rejects a body candidateId that names someone other than the caller.
func requireSelf(caller types.Caller, candidateID *uuid.UUID) error {
	if candidateID != nil && *candidateID != uuid.Nil && *candidateID != caller.UserID {
		return types.ErrNotAuthorized
	}
	return nil
}
