// Copyright 2026 PetLog
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/petlog/healthrag/core"
)

// wireEvent is the stored form of a core.ChangeEvent. Field names are kept
// short to reduce value size; changing a tag breaks existing logs.
type wireEvent struct {
	EventID   string    `msgpack:"eid"`
	Type      string    `msgpack:"typ"`
	RecordID  int64     `msgpack:"rid"`
	OwnerID   int64     `msgpack:"oid"`
	SubjectID int64     `msgpack:"sid"`
	Text      string    `msgpack:"txt"`
	MediaRef  string    `msgpack:"med,omitempty"`
	Timestamp time.Time `msgpack:"ts"`
}

// MarshalChangeEvent serializes a change event for storage.
func MarshalChangeEvent(event *core.ChangeEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrSerializationFailed)
	}

	data, err := msgpack.Marshal(&wireEvent{
		EventID:   event.EventID,
		Type:      string(event.Type),
		RecordID:  event.RecordID,
		OwnerID:   event.OwnerID,
		SubjectID: event.SubjectID,
		Text:      event.Text,
		MediaRef:  event.MediaRef,
		Timestamp: event.Timestamp.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalChangeEvent deserializes a stored change event.
func UnmarshalChangeEvent(data []byte) (*core.ChangeEvent, error) {
	var wire wireEvent
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	return &core.ChangeEvent{
		EventID:   wire.EventID,
		Type:      core.EventType(wire.Type),
		RecordID:  wire.RecordID,
		OwnerID:   wire.OwnerID,
		SubjectID: wire.SubjectID,
		Text:      wire.Text,
		MediaRef:  wire.MediaRef,
		Timestamp: wire.Timestamp,
	}, nil
}

// MarshalOffset encodes an offset as 8 BigEndian bytes.
func MarshalOffset(offset uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, offset)
	return buf
}

// UnmarshalOffset decodes an offset written by MarshalOffset.
func UnmarshalOffset(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: offset value has %d bytes", ErrTruncatedData, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
