package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHello(t *testing.T) {
	assert.NoError(t, Validate(&HelloData{Token: "abc", Protocol: 1}))
	assert.NoError(t, Validate(&HelloData{Guest: true, SessionID: "ABCD", GuestName: "ann"}))

	err := Validate(&HelloData{Guest: true, SessionID: "ABCD"})
	assert.ErrorContains(t, err, "GuestName: required_if")
}

func TestValidateRoomPayloads(t *testing.T) {
	assert.NoError(t, Validate(&RoomData{RoomID: "lobby"}))
	assert.ErrorContains(t, Validate(&RoomData{}), "RoomID: required")
	assert.ErrorContains(t, Validate(&PrivateRoomData{}), "OtherUserID: required")
	assert.NoError(t, Validate(&TypingData{}))
	assert.NoError(t, Validate(&MessageData{Content: ""}))
}
