package storage

import "encoding/json"

// Session records cross every backend as JSON: columns/fields hold the
// identifiers and timestamps, and the session state and run history are
// serialized blobs. JSON keeps the stored shape identical across
// SQLite, Postgres, Redis and Mongo and readable when inspecting a
// database by hand.

// encodeValue serializes v; nil-like values encode to nil bytes.
func encodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// decodeValue deserializes data into a T; empty input yields the zero
// value.
func decodeValue[T any](data []byte) (T, error) {
	var out T
	if len(data) == 0 {
		return out, nil
	}
	err := json.Unmarshal(data, &out)
	return out, err
}

// cloneRecord deep-copies a record through the codec, so that stored
// records and returned records never alias caller memory.
func cloneRecord(rec *SessionRecord) (*SessionRecord, error) {
	data, err := encodeValue(rec)
	if err != nil {
		return nil, err
	}
	return decodeValue[*SessionRecord](data)
}
