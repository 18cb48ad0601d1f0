package assets

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

// ledgerRecordWith builds the JSON a ReadAsset evaluation returns for the
// given encoded payload.
func ledgerRecordWith(id, owner, encoded, offchainID string) []byte {
	record := LedgerAsset{
		ID:         id,
		Owner:      owner,
		Shared:     SharedString(""),
		Record:     encoded,
		OffchainID: offchainID,
	}
	data, err := json.Marshal(record)
	if err != nil {
		panic(err)
	}
	return data
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"flat object", `{"k":1}`},
		{"nested object", `{"patient":{"name":"alice","visits":[1,2,3]},"notes":"x"}`},
		{"string value", `"just a string"`},
		{"array", `[{"a":1},{"b":2}]`},
		{"number", `42`},
		{"unicode", `{"name":"Zoë","city":"Göteborg"}`},
		// payload text that is itself a plausible base64 fragment
		{"base64-like content", `{"blob":"aGVsbG8gd29ybGQ=","note":"QUJDRA=="}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodePayload(json.RawMessage(tt.payload))
			if err != nil {
				t.Fatalf("EncodePayload() error = %v", err)
			}

			record, err := DecodeAsset(ledgerRecordWith("asset1", "alice", encoded, "ref1"))
			if err != nil {
				t.Fatalf("DecodeAsset() error = %v", err)
			}

			var want, got any
			if err := json.Unmarshal([]byte(tt.payload), &want); err != nil {
				t.Fatalf("test payload is invalid: %v", err)
			}
			if err := json.Unmarshal(record.Record, &got); err != nil {
				t.Fatalf("decoded payload is invalid JSON: %v", err)
			}
			if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
				t.Errorf("round trip changed payload: got %v, want %v", got, want)
			}
		})
	}
}

// A record whose other fields contain the exact base64 blob must decode
// without corrupting those fields. The original implementation replaced the
// first textual occurrence of the blob in the serialized record, which broke
// exactly this case.
func TestDecodeAssetDoesNotTouchCollidingFields(t *testing.T) {
	encoded, err := EncodePayload(json.RawMessage(`{"k":1}`))
	if err != nil {
		t.Fatalf("EncodePayload() error = %v", err)
	}

	// the offchain reference happens to equal the encoded payload
	record, err := DecodeAsset(ledgerRecordWith("asset1", encoded, encoded, encoded))
	if err != nil {
		t.Fatalf("DecodeAsset() error = %v", err)
	}

	if record.Owner != encoded {
		t.Errorf("owner was altered during decode: got %q, want %q", record.Owner, encoded)
	}
	if record.OffchainID != encoded {
		t.Errorf("ofchain_id was altered during decode: got %q, want %q", record.OffchainID, encoded)
	}
	if string(record.Record) != `{"k":1}` {
		t.Errorf("payload not decoded: got %s", record.Record)
	}
}

func TestDecodeAssetLegacyBase64RecordField(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"legacy":true}`))
	data := []byte(`{"id":"asset1","owner":"alice","shared":"","base64_record":"` + encoded + `"}`)

	record, err := DecodeAsset(data)
	if err != nil {
		t.Fatalf("DecodeAsset() error = %v", err)
	}
	if string(record.Record) != `{"legacy":true}` {
		t.Errorf("legacy payload not decoded: got %s", record.Record)
	}
}

func TestDecodeAssetErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `not json at all`},
		{"payload not base64", `{"id":"a","owner":"o","shared":"","record":"!!not-base64!!"}`},
		{"payload not json", `{"id":"a","owner":"o","shared":"","record":"` + base64.StdEncoding.EncodeToString([]byte("{broken")) + `"}`},
		{"missing payload", `{"id":"a","owner":"o","shared":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAsset([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var gatewayErr *GatewayError
			if !errors.As(err, &gatewayErr) || gatewayErr.Code() != ErrCodeCodec {
				t.Errorf("expected codec error, got %v", err)
			}
		})
	}
}

func TestEncodePayloadRejectsInvalidJSON(t *testing.T) {
	if _, err := EncodePayload(json.RawMessage(`{broken`)); err == nil {
		t.Error("expected error for invalid JSON payload")
	}
	if _, err := EncodePayload(nil); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestEncodePayloadIsCanonical(t *testing.T) {
	// key order must not change the encoded blob
	a, err := EncodePayload(json.RawMessage(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatalf("EncodePayload() error = %v", err)
	}
	b, err := EncodePayload(json.RawMessage(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("EncodePayload() error = %v", err)
	}
	if a != b {
		t.Errorf("encoding is not canonical: %q != %q", a, b)
	}
}

func TestDecodeAssetsPreservesOrder(t *testing.T) {
	var list []json.RawMessage
	for i := 0; i < 5; i++ {
		encoded, err := EncodePayload(json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)))
		if err != nil {
			t.Fatalf("EncodePayload() error = %v", err)
		}
		list = append(list, ledgerRecordWith(fmt.Sprintf("asset%d", i), "alice", encoded, ""))
	}
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}

	records, err := DecodeAssets(data)
	if err != nil {
		t.Fatalf("DecodeAssets() error = %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}
	for i, record := range records {
		if record.ID != fmt.Sprintf("asset%d", i) {
			t.Errorf("record %d out of order: got id %s", i, record.ID)
		}
		if string(record.Record) != fmt.Sprintf(`{"n":%d}`, i) {
			t.Errorf("record %d payload: got %s", i, record.Record)
		}
	}
}

func TestDecodeAssetsEmptyList(t *testing.T) {
	records, err := DecodeAssets([]byte(`[]`))
	if err != nil {
		t.Fatalf("DecodeAssets() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}
