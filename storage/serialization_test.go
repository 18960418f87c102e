package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petlog/healthrag/core"
)

func TestChangeEventRoundTrip(t *testing.T) {
	event := &core.ChangeEvent{
		EventID:   "4f1c9e0a-3a22-4f6e-9f34-1b2c3d4e5f60",
		Type:      core.EventCreated,
		RecordID:  42,
		OwnerID:   7,
		SubjectID: 3,
		Text:      "강아지가 계속 기침을 해요",
		MediaRef:  "s3://petlog-media/42.jpg",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	data, err := MarshalChangeEvent(event)
	require.NoError(t, err)

	decoded, err := UnmarshalChangeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.RecordID, decoded.RecordID)
	assert.Equal(t, event.OwnerID, decoded.OwnerID)
	assert.Equal(t, event.SubjectID, decoded.SubjectID)
	assert.Equal(t, event.Text, decoded.Text)
	assert.Equal(t, event.MediaRef, decoded.MediaRef)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))
}

func TestMarshalNilEvent(t *testing.T) {
	_, err := MarshalChangeEvent(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := UnmarshalChangeEvent([]byte{0xc1, 0xff, 0x00})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestOffsetRoundTrip(t *testing.T) {
	data := MarshalOffset(1<<40 + 17)
	require.Len(t, data, 8)

	offset, err := UnmarshalOffset(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40+17), offset)
}

func TestUnmarshalOffsetTruncated(t *testing.T) {
	_, err := UnmarshalOffset([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncatedData)
}
