package assets

// service.go orchestrates the chaincode calls behind each API operation.
//
// Every operation binds one ledger session scoped to the acting identity,
// issues its evaluate/submit sequence, decodes the result and returns. There
// is no retry and no cross-request caching; the ledger is the single source
// of truth for asset state.

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// Chaincode functions invoked by the gateway.
const (
	txCreateAsset  = "CreateAssetV2"
	txReadAsset    = "ReadAsset"
	txUpdateAsset  = "UpdateAssetV2"
	txGetAllAssets = "GetAllAssets"
	txDeleteAsset  = "DeleteAsset"
)

// ContractInvoker is the bound contract handle a session exposes.
// Evaluate is a read-only query routed to a single peer; Submit is endorsed
// and ordered before it returns.
type ContractInvoker interface {
	Evaluate(name string, args ...string) ([]byte, error)
	Submit(name string, args ...string) ([]byte, error)
}

// SessionFunc runs against a bound contract handle.
type SessionFunc func(contract ContractInvoker) error

// Connector establishes a ledger session for the given user identity, runs
// fn against the resolved contract, and releases the session in all exit
// paths.
type Connector interface {
	WithContract(ctx context.Context, userID string, fn SessionFunc) error
}

// Service implements the asset record gateway operations.
type Service struct {
	connector Connector
	logger    *slog.Logger
}

func NewService(connector Connector, logger *slog.Logger) *Service {
	return &Service{connector: connector, logger: logger}
}

// CreateAsset encodes the payload, submits a create transaction under a fresh
// id, and returns the record as re-read from the ledger.
func (s *Service) CreateAsset(ctx context.Context, userID, owner string, payload json.RawMessage, offchainRef string) (*AssetRecord, error) {
	if owner == "" {
		return nil, NewMalformedRequestError("owner is required")
	}

	encoded, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	assetID := uuid.NewString()

	var created *AssetRecord
	err = s.connector.WithContract(ctx, userID, func(contract ContractInvoker) error {
		if _, err := contract.Submit(txCreateAsset, assetID, owner, "", encoded, offchainRef); err != nil {
			return WrapLedgerError(err, "create transaction failed")
		}

		data, err := contract.Evaluate(txReadAsset, assetID)
		if err != nil {
			return WrapLedgerError(err, "failed to read created asset")
		}

		created, err = DecodeAsset(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("asset created",
		slog.String("asset_id", assetID),
		slog.String("owner", owner))

	return created, nil
}

// GetAsset reads one record by id. An absent id is a ledger failure like any
// other; callers receive a generic error, not a distinct not-found result.
func (s *Service) GetAsset(ctx context.Context, userID, assetID string) (*AssetRecord, error) {
	if assetID == "" {
		return nil, NewMalformedRequestError("asset id is required")
	}

	var record *AssetRecord
	err := s.connector.WithContract(ctx, userID, func(contract ContractInvoker) error {
		data, err := contract.Evaluate(txReadAsset, assetID)
		if err != nil {
			return WrapLedgerError(err, "read transaction failed")
		}
		record, err = DecodeAsset(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListAssets returns every record on the ledger with decoded payloads,
// in the order the ledger reports them.
func (s *Service) ListAssets(ctx context.Context, userID string) ([]AssetRecord, error) {
	var records []AssetRecord
	err := s.connector.WithContract(ctx, userID, func(contract ContractInvoker) error {
		data, err := contract.Evaluate(txGetAllAssets)
		if err != nil {
			return WrapLedgerError(err, "list transaction failed")
		}
		records, err = DecodeAssets(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ShareAsset reads the current record, submits an update with only the shared
// marker changed, and returns the record as re-read from the ledger.
func (s *Service) ShareAsset(ctx context.Context, userID, assetID string, shared SharedValue) (*AssetRecord, error) {
	if assetID == "" {
		return nil, NewMalformedRequestError("asset id is required")
	}

	return s.updateAsset(ctx, userID, assetID, func(current *LedgerAsset) {
		current.Shared = shared
	})
}

// TransferAsset reads the current record, submits an update with only the
// owner changed, and returns the record as re-read from the ledger.
func (s *Service) TransferAsset(ctx context.Context, userID, assetID, newOwner string) (*AssetRecord, error) {
	if assetID == "" {
		return nil, NewMalformedRequestError("asset id is required")
	}
	if newOwner == "" {
		return nil, NewMalformedRequestError("newOwner is required")
	}

	record, err := s.updateAsset(ctx, userID, assetID, func(current *LedgerAsset) {
		current.Owner = newOwner
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("asset transferred",
		slog.String("asset_id", assetID),
		slog.String("new_owner", newOwner))

	return record, nil
}

// updateAsset performs the shared read-modify-write sequence: read the
// current record, apply mutate, submit the full record back, re-read.
func (s *Service) updateAsset(ctx context.Context, userID, assetID string, mutate func(*LedgerAsset)) (*AssetRecord, error) {
	var updated *AssetRecord
	err := s.connector.WithContract(ctx, userID, func(contract ContractInvoker) error {
		data, err := contract.Evaluate(txReadAsset, assetID)
		if err != nil {
			return WrapLedgerError(err, "read transaction failed")
		}

		var current LedgerAsset
		if err := json.Unmarshal(data, &current); err != nil {
			return WrapCodecError(err, "ledger returned a malformed record")
		}
		mutate(&current)

		_, err = contract.Submit(txUpdateAsset,
			assetID,
			current.Owner,
			current.Shared.Arg(),
			current.EncodedRecord(),
			current.OffchainID,
		)
		if err != nil {
			return WrapLedgerError(err, "update transaction failed")
		}

		data, err = contract.Evaluate(txReadAsset, assetID)
		if err != nil {
			return WrapLedgerError(err, "failed to read updated asset")
		}
		updated, err = DecodeAsset(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssetSeed is one entry of a bulk load request.
type AssetSeed struct {
	Owner      string          `json:"owner"`
	Record     json.RawMessage `json:"record"`
	OffchainID string          `json:"ofchain_id,omitempty"`
}

// LoadAssets bulk-creates assets in a single session. Creation stops at the
// first failure; already-submitted creates are not rolled back.
func (s *Service) LoadAssets(ctx context.Context, userID string, seeds []AssetSeed) ([]AssetRecord, error) {
	if len(seeds) == 0 {
		return nil, NewMalformedRequestError("at least one record is required")
	}

	encoded := make([]string, len(seeds))
	for i, seed := range seeds {
		if seed.Owner == "" {
			return nil, NewMalformedRequestError("owner is required for every record")
		}
		blob, err := EncodePayload(seed.Record)
		if err != nil {
			return nil, err
		}
		encoded[i] = blob
	}

	var created []AssetRecord
	err := s.connector.WithContract(ctx, userID, func(contract ContractInvoker) error {
		for i, seed := range seeds {
			assetID := uuid.NewString()
			if _, err := contract.Submit(txCreateAsset, assetID, seed.Owner, "", encoded[i], seed.OffchainID); err != nil {
				return WrapLedgerError(err, "create transaction failed")
			}
			data, err := contract.Evaluate(txReadAsset, assetID)
			if err != nil {
				return WrapLedgerError(err, "failed to read created asset")
			}
			record, err := DecodeAsset(data)
			if err != nil {
				return err
			}
			created = append(created, *record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("assets loaded", slog.Int("count", len(created)))
	return created, nil
}

// ShareAllAssets applies the shared marker to every asset on the ledger.
func (s *Service) ShareAllAssets(ctx context.Context, userID string, shared SharedValue) ([]AssetRecord, error) {
	var updated []AssetRecord
	err := s.connector.WithContract(ctx, userID, func(contract ContractInvoker) error {
		data, err := contract.Evaluate(txGetAllAssets)
		if err != nil {
			return WrapLedgerError(err, "list transaction failed")
		}

		var current []LedgerAsset
		if err := json.Unmarshal(data, &current); err != nil {
			return WrapCodecError(err, "ledger returned a malformed record list")
		}

		for i := range current {
			current[i].Shared = shared
			_, err := contract.Submit(txUpdateAsset,
				current[i].ID,
				current[i].Owner,
				shared.Arg(),
				current[i].EncodedRecord(),
				current[i].OffchainID,
			)
			if err != nil {
				return WrapLedgerError(err, "update transaction failed")
			}
			record, err := decodeLedgerAsset(&current[i])
			if err != nil {
				return err
			}
			updated = append(updated, *record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAllAssets removes every asset on the ledger and returns the number
// deleted.
func (s *Service) DeleteAllAssets(ctx context.Context, userID string) (int, error) {
	deleted := 0
	err := s.connector.WithContract(ctx, userID, func(contract ContractInvoker) error {
		data, err := contract.Evaluate(txGetAllAssets)
		if err != nil {
			return WrapLedgerError(err, "list transaction failed")
		}

		var current []LedgerAsset
		if err := json.Unmarshal(data, &current); err != nil {
			return WrapCodecError(err, "ledger returned a malformed record list")
		}

		for i := range current {
			if _, err := contract.Submit(txDeleteAsset, current[i].ID); err != nil {
				return WrapLedgerError(err, "delete transaction failed")
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}

	s.logger.Info("assets deleted", slog.Int("count", deleted))
	return deleted, nil
}
