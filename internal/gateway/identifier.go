package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"myfitguide/internal/domain"
)

// identifierKeys are the id field names the backend uses, in priority order
var identifierKeys = []string{"_id", "idUsuario", "id"}

// ExtractUserID resolves the user identifier from a backend JSON object.
// It fails when none of the known keys holds a non-empty value.
func ExtractUserID(body []byte) (domain.UserID, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("decode identifier: %w", err)
	}
	return userIDFromFields(fields)
}

func userIDFromFields(fields map[string]json.RawMessage) (domain.UserID, error) {
	for _, key := range identifierKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if id, ok := identifierValue(raw); ok {
			return id, nil
		}
	}
	return "", ErrNoIdentifier
}

// identifierValue accepts strings, non-zero numbers and {"$oid": "..."} objects
func identifierValue(raw json.RawMessage) (domain.UserID, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		id := domain.UserID(strings.TrimSpace(s))
		return id, !id.IsZero()
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil && f != 0 {
			return domain.UserID(n.String()), true
		}
	}

	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil {
		id := domain.UserID(strings.TrimSpace(oid.OID))
		return id, !id.IsZero()
	}
	return "", false
}
