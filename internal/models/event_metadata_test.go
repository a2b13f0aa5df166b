package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMarshalEventMetadata_SetsKind(t *testing.T) {
	actor := uuid.New()

	raw := MarshalEventMetadata(AcceptedMetadata{Actor: actor})
	var accepted AcceptedMetadata
	assert.NoError(t, json.Unmarshal(raw, &accepted))
	assert.Equal(t, EventAccepted, accepted.Kind)
	assert.Equal(t, actor, accepted.Actor)

	raw = MarshalEventMetadata(DeclinedMetadata{Reason: "too expensive"})
	var declined DeclinedMetadata
	assert.NoError(t, json.Unmarshal(raw, &declined))
	assert.Equal(t, EventDeclined, declined.Kind)
	assert.Equal(t, "too expensive", declined.Reason)
	assert.Nil(t, declined.Actor)

	raw = MarshalEventMetadata(ViewedMetadata{})
	var viewed ViewedMetadata
	assert.NoError(t, json.Unmarshal(raw, &viewed))
	assert.Equal(t, EventViewed, viewed.Kind)
}

func TestMarshalEventMetadata_UnknownTypeStillJSON(t *testing.T) {
	raw := MarshalEventMetadata(map[string]string{"note": "manual"})
	assert.True(t, json.Valid(raw))
}
