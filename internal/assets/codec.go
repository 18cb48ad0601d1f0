package assets

// codec.go converts payloads across the wire/ledger boundary.
//
// Encoding canonicalizes the payload (RFC 8785 JCS) before base64 so that
// identical payloads always produce identical ledger blobs. Decoding assigns
// the decoded payload to the record field structurally; it never searches the
// serialized record for the base64 text, which corrupts output when another
// field happens to contain the same bytes.

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// EncodePayload canonicalizes a JSON payload and base64-encodes it for
// storage on the ledger.
func EncodePayload(payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", NewCodecError("payload is required")
	}

	canonical, err := jcs.Transform(payload)
	if err != nil {
		return "", WrapCodecError(err, "payload is not valid JSON")
	}

	return base64.StdEncoding.EncodeToString(canonical), nil
}

// DecodeAsset parses a single ledger record and replaces its base64 payload
// with the decoded JSON value.
func DecodeAsset(data []byte) (*AssetRecord, error) {
	var ledgerAsset LedgerAsset
	if err := json.Unmarshal(data, &ledgerAsset); err != nil {
		return nil, WrapCodecError(err, "ledger returned a malformed record")
	}
	return decodeLedgerAsset(&ledgerAsset)
}

// DecodeAssets parses a ledger record list, decoding every payload and
// preserving ledger order.
func DecodeAssets(data []byte) ([]AssetRecord, error) {
	var ledgerAssets []LedgerAsset
	if err := json.Unmarshal(data, &ledgerAssets); err != nil {
		return nil, WrapCodecError(err, "ledger returned a malformed record list")
	}

	records := make([]AssetRecord, 0, len(ledgerAssets))
	for i := range ledgerAssets {
		record, err := decodeLedgerAsset(&ledgerAssets[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func decodeLedgerAsset(ledgerAsset *LedgerAsset) (*AssetRecord, error) {
	encoded := ledgerAsset.EncodedRecord()
	if encoded == "" {
		return nil, NewCodecError("ledger record has no payload")
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, WrapCodecError(err, "ledger record payload is not valid base64")
	}

	if !json.Valid(payload) {
		return nil, NewCodecError("ledger record payload is not valid JSON")
	}

	return &AssetRecord{
		ID:         ledgerAsset.ID,
		Owner:      ledgerAsset.Owner,
		Shared:     ledgerAsset.Shared,
		Record:     json.RawMessage(payload),
		OffchainID: ledgerAsset.OffchainID,
	}, nil
}
