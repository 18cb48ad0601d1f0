package assets

// types.go defines the two representations of an asset record.
//
// The chaincode stores the caller-supplied payload as a base64 string in the
// "record" field (LedgerAsset). The HTTP API returns the payload inline as
// JSON (AssetRecord). The codec converts between the two by field assignment;
// the encoded blob is never located by text search in the serialized record.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SharedValue is the sharing marker on an asset record.
//
// Historically the chaincode stored both strings ("", a user id) and booleans
// in this field, so it is modeled as a tagged union rather than two optional
// fields. The zero value marshals as "" (not shared).
type SharedValue struct {
	str    string
	b      bool
	isBool bool
}

func SharedString(v string) SharedValue { return SharedValue{str: v} }
func SharedBool(v bool) SharedValue     { return SharedValue{b: v, isBool: true} }

// IsBool reports whether the value carries a boolean.
func (s SharedValue) IsBool() bool { return s.isBool }

func (s SharedValue) Bool() bool     { return s.b }
func (s SharedValue) String() string { return s.str }

// Arg renders the value as a chaincode transaction argument.
func (s SharedValue) Arg() string {
	if s.isBool {
		return strconv.FormatBool(s.b)
	}
	return s.str
}

func (s SharedValue) MarshalJSON() ([]byte, error) {
	if s.isBool {
		return json.Marshal(s.b)
	}
	return json.Marshal(s.str)
}

func (s *SharedValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = SharedValue{}
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SharedString(str)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("shared must be a string or a boolean: %w", err)
	}
	*s = SharedBool(b)
	return nil
}

// LedgerAsset is the record shape returned by the chaincode.
//
// Older chaincode versions emitted the encoded payload under "base64_record"
// instead of "record"; both are accepted and EncodedRecord resolves whichever
// is present.
type LedgerAsset struct {
	ID           string      `json:"id"`
	Owner        string      `json:"owner"`
	Shared       SharedValue `json:"shared"`
	Record       string      `json:"record,omitempty"`
	Base64Record string      `json:"base64_record,omitempty"`
	OffchainID   string      `json:"ofchain_id,omitempty"`
}

// EncodedRecord returns the base64 payload regardless of which field the
// chaincode used.
func (a *LedgerAsset) EncodedRecord() string {
	if a.Record != "" {
		return a.Record
	}
	return a.Base64Record
}

// AssetRecord is the wire form returned by the HTTP API: identical to
// LedgerAsset except the payload is inline JSON.
type AssetRecord struct {
	ID         string          `json:"id"`
	Owner      string          `json:"owner"`
	Shared     SharedValue     `json:"shared"`
	Record     json.RawMessage `json:"record"`
	OffchainID string          `json:"ofchain_id,omitempty"`
}
