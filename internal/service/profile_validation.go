package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-locker/models"
)

var (
	errPayloadNotObject = errors.New("payload is not a JSON object")
	errPayloadEmpty     = errors.New("payload is an empty object")
	errPayloadShape     = errors.New("payload does not have the profile shape")
)

var profileFields = []string{"name", "email", "education", "skills", "certifications", "achievements", "summary"}

// validatePayload accepts a non-empty JSON object with at least one profile
// field, where every profile field present has the expected type. The
// accepted bytes are returned unchanged apart from surrounding whitespace.
func validatePayload(raw json.RawMessage) (json.RawMessage, models.ProfilePayload, error) {
	trimmed := bytes.TrimSpace(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return nil, models.ProfilePayload{}, errPayloadNotObject
	}
	if len(fields) == 0 {
		return nil, models.ProfilePayload{}, errPayloadEmpty
	}

	known := 0
	for _, field := range profileFields {
		if _, ok := fields[field]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, models.ProfilePayload{}, errPayloadShape
	}

	var payload models.ProfilePayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, models.ProfilePayload{}, fmt.Errorf("%w: %w", errPayloadShape, err)
	}

	return json.RawMessage(trimmed), payload, nil
}
