package assethandlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/asset-sharing-networks/ledgergate/internal/assets"
	"github.com/google/uuid"
)

// Enroller onboards a ledger identity, creating it with the certificate
// authority if it does not already exist.
type Enroller interface {
	EnsureAdminEnrolled(ctx context.Context) error
	EnsureUserEnrolled(ctx context.Context, userID string) error
}

// TokenIssuer mints the mock access token returned with enrollment
// responses. The token is never checked by any other endpoint.
type TokenIssuer interface {
	Issue(email string) (string, error)
}

type EnrollUserRequest struct {
	Email string `json:"email"`
}

type EnrollUserResponse struct {
	User        EnrolledUser `json:"user"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
}

type EnrolledUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Status string `json:"status"`
}

// HandleEnrollUser godoc
//
//	@Summary		Enroll the application identity and issue a mock token
//	@Description	Idempotently enrolls the admin and acting ledger identity
//	@Description	against the certificate authority. The returned access
//	@Description	token is advisory only and is not required by any other
//	@Description	endpoint.
//	@Tags			Identity
//	@Accept			json
//	@Produce		json
//	@Param			user	body		EnrollUserRequest	true	"User email"
//	@Success		200		{object}	EnrollUserResponse
//	@Failure		500		{object}	assets.ErrorResponse
//	@Router			/enrollUser [post]
func HandleEnrollUser(enroller Enroller, issuer TokenIssuer, defaultUserID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnrollUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			assets.RespondWithErrorResponse(w, r, assets.WrapMalformedRequestError(err, "invalid request body"))
			return
		}
		if req.Email == "" {
			assets.RespondWithErrorResponse(w, r, assets.NewMalformedRequestError("email is required"))
			return
		}

		userID := actingIdentity(r, defaultUserID)

		if err := enroller.EnsureAdminEnrolled(r.Context()); err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}
		if err := enroller.EnsureUserEnrolled(r.Context(), userID); err != nil {
			assets.RespondWithErrorResponse(w, r, err)
			return
		}

		accessToken, err := issuer.Issue(req.Email)
		if err != nil {
			assets.RespondWithErrorResponse(w, r, assets.WrapInternalError(err, "failed to issue access token"))
			return
		}

		assets.RespondWithJSONPayload(w, http.StatusOK, EnrollUserResponse{
			User: EnrolledUser{
				ID:     uuid.NewString(),
				Name:   req.Email,
				Email:  req.Email,
				Avatar: "",
				Status: "online",
			},
			AccessToken: accessToken,
			TokenType:   "bearer",
		})
	}
}
