package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// NullableUUID is a patch field for an optional foreign key, such as the
// organizationId that scopes a parameter config. An absent key leaves the
// stored value alone, an explicit null clears it (a global config) and a
// UUID replaces it.
type NullableUUID struct {
	Set bool
	ID  *uuid.UUID
}

func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return nil
	case bytes.Equal(data, []byte("null")):
		*n = NullableUUID{Set: true}
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*n = NullableUUID{Set: true, ID: &id}
	return nil
}

// Apply returns the value to store given the current one. The result never
// aliases n.ID.
func (n NullableUUID) Apply(current *uuid.UUID) *uuid.UUID {
	if !n.Set {
		return current
	}
	if n.ID == nil {
		return nil
	}
	id := *n.ID
	return &id
}
