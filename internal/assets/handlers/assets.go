// Package assethandlers implements the asset record endpoints.
package assethandlers

import (
	"encoding/json"
	"net/http"

	"github.com/asset-sharing-networks/ledgergate/internal/assets"
	"github.com/go-chi/chi/v5"
)

// IdentityHeader optionally selects the ledger identity a request acts as.
// The identity must already be enrolled; when absent the configured
// application identity is used.
const IdentityHeader = "X-Ledger-Identity"

// actingIdentity resolves the ledger identity for a request.
func actingIdentity(r *http.Request, defaultUserID string) string {
	if override := r.Header.Get(IdentityHeader); override != "" {
		return override
	}
	return defaultUserID
}

// request bodies

type CreateAssetRequest struct {
	Owner      string          `json:"owner"`
	Record     json.RawMessage `json:"record"`
	OffchainID string          `json:"ofchain_id"`
}

type ShareAssetRequest struct {
	ID     string             `json:"id"`
	Shared assets.SharedValue `json:"shared"`
}

type TransferAssetRequest struct {
	ID       string `json:"id"`
	NewOwner string `json:"newOwner"`
}

type LoadAssetsRequest struct {
	Records []assets.AssetSeed `json:"records"`
}

type ShareAllAssetsRequest struct {
	Shared assets.SharedValue `json:"shared"`
}

type DeleteAllAssetsResponse struct {
	Deleted int `json:"deleted"`
}

// HandleGetAllAssets godoc
//
//	@Summary	List all assets with decoded payloads
//	@Tags		Assets
//	@Produce	json
//	@Success	200	{array}		assets.AssetRecord
//	@Failure	500	{object}	assets.ErrorResponse
//	@Router		/getAllAssets [get]
func HandleGetAllAssets(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := service.ListAssets(r.Context(), actingIdentity(r, defaultUserID))
		if err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, records)
	}
}

// HandleGetAsset godoc
//
//	@Summary	Read one asset by id
//	@Tags		Assets
//	@Produce	json
//	@Param		assetId	path		string	true	"Asset ID"
//	@Success	200		{object}	assets.AssetRecord
//	@Failure	500		{object}	map[string]string	"empty object"
//	@Router		/getAsset/{assetId} [get]
func HandleGetAsset(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID := chi.URLParam(r, "assetId")

		record, err := service.GetAsset(r.Context(), actingIdentity(r, defaultUserID), assetID)
		if err != nil {
			// this endpoint has always answered failures with a bare
			// object; clients depend on the shape
			assets.LogRequestError(r, err)
			assets.RespondWithJSONPayload(w, http.StatusInternalServerError, struct{}{})
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, record)
	}
}

// HandleCreateAsset godoc
//
//	@Summary	Create an asset with an opaque payload
//	@Tags		Assets
//	@Accept		json
//	@Produce	json
//	@Param		asset	body		CreateAssetRequest	true	"Asset details"
//	@Success	200		{object}	assets.AssetRecord
//	@Failure	400		{object}	assets.ErrorResponse
//	@Failure	500		{object}	assets.ErrorResponse
//	@Router		/createAsset [post]
func HandleCreateAsset(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			assets.RespondWithErrorResponse(w, r, assets.WrapMalformedRequestError(err, "invalid request body"))
			return
		}

		record, err := service.CreateAsset(r.Context(), actingIdentity(r, defaultUserID), req.Owner, req.Record, req.OffchainID)
		if err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		assets.RespondWithPrettyJSON(w, http.StatusOK, record)
	}
}

// HandleShareAsset godoc
//
//	@Summary	Update the sharing marker on an asset
//	@Tags		Assets
//	@Accept		json
//	@Produce	json
//	@Param		share	body		ShareAssetRequest	true	"Share details"
//	@Success	200		{object}	assets.AssetRecord
//	@Failure	400		{object}	assets.ErrorResponse
//	@Failure	500		{object}	assets.ErrorResponse
//	@Router		/shareAsset [post]
func HandleShareAsset(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ShareAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			assets.RespondWithErrorResponse(w, r, assets.WrapMalformedRequestError(err, "invalid request body"))
			return
		}

		record, err := service.ShareAsset(r.Context(), actingIdentity(r, defaultUserID), req.ID, req.Shared)
		if err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, record)
	}
}

// HandleTransferAsset godoc
//
//	@Summary	Transfer an asset to a new owner
//	@Tags		Assets
//	@Accept		json
//	@Produce	json
//	@Param		transfer	body		TransferAssetRequest	true	"Transfer details"
//	@Success	200			{object}	assets.AssetRecord
//	@Failure	400			{object}	assets.ErrorResponse
//	@Failure	500			{object}	assets.ErrorResponse
//	@Router		/transferAsset [post]
func HandleTransferAsset(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransferAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			assets.RespondWithErrorResponse(w, r, assets.WrapMalformedRequestError(err, "invalid request body"))
			return
		}

		record, err := service.TransferAsset(r.Context(), actingIdentity(r, defaultUserID), req.ID, req.NewOwner)
		if err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, record)
	}
}

// HandleLoadAssets godoc
//
//	@Summary	Bulk-create assets
//	@Tags		Assets
//	@Accept		json
//	@Produce	json
//	@Param		seeds	body		LoadAssetsRequest	true	"Assets to create"
//	@Success	200		{array}		assets.AssetRecord
//	@Failure	400		{object}	assets.ErrorResponse
//	@Failure	500		{object}	assets.ErrorResponse
//	@Router		/loadAssets [post]
func HandleLoadAssets(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoadAssetsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			assets.RespondWithErrorResponse(w, r, assets.WrapMalformedRequestError(err, "invalid request body"))
			return
		}

		records, err := service.LoadAssets(r.Context(), actingIdentity(r, defaultUserID), req.Records)
		if err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, records)
	}
}

// HandleShareAllAssets godoc
//
//	@Summary	Update the sharing marker on every asset
//	@Tags		Assets
//	@Accept		json
//	@Produce	json
//	@Param		share	body		ShareAllAssetsRequest	true	"Share details"
//	@Success	200		{array}		assets.AssetRecord
//	@Failure	500		{object}	assets.ErrorResponse
//	@Router		/shareAllAssets [post]
func HandleShareAllAssets(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ShareAllAssetsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			assets.RespondWithErrorResponse(w, r, assets.WrapMalformedRequestError(err, "invalid request body"))
			return
		}

		records, err := service.ShareAllAssets(r.Context(), actingIdentity(r, defaultUserID), req.Shared)
		if err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, records)
	}
}

// HandleDeleteAllAssets godoc
//
//	@Summary	Delete every asset on the ledger
//	@Tags		Assets
//	@Produce	json
//	@Success	200	{object}	DeleteAllAssetsResponse
//	@Failure	500	{object}	assets.ErrorResponse
//	@Router		/deleteAllAssets [post]
func HandleDeleteAllAssets(service *assets.Service, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := service.DeleteAllAssets(r.Context(), actingIdentity(r, defaultUserID))
		if err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, DeleteAllAssetsResponse{Deleted: deleted})
	}
}
