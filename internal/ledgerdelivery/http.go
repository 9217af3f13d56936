// Package ledgerdelivery manages delivery layer of ledger operations.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/ledgerbank/ledger-api/internal/middleware"
	"github.com/ledgerbank/ledger-api/pkg/errorspkg"
	"github.com/ledgerbank/ledger-api/pkg/tokenpkg"
	"github.com/ledgerbank/ledger-api/pkg/web"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Deposit(ctx context.Context, owner, amount string) (domain.OperationResult, error)
	Withdraw(ctx context.Context, owner, amount string) (domain.OperationResult, error)
	Pay(ctx context.Context, owner, amount, description string) (domain.OperationResult, error)
	Transfer(ctx context.Context, owner string, toAccountID int32, amount string) (domain.TransferTxResult, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{service: ls}
}

type operationRequest struct {
	Amount string `json:"amount" binding:"required,amount"`
}

type paymentRequest struct {
	Amount      string `json:"amount" binding:"required,amount"`
	Description string `json:"description" binding:"required,max=50"`
}

type transferRequest struct {
	ToAccountID int32  `json:"to_account_id" binding:"required,min=1"`
	Amount      string `json:"amount" binding:"required,amount"`
}

type operationData struct {
	Account  domain.Account  `json:"account"`
	Movement domain.Movement `json:"movement"`
}

type operationResponse struct {
	Data operationData `json:"data,omitempty"`
}

type transferData struct {
	Transfer domain.TransferTxResult `json:"transfer"`
}

type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

// Deposit handles http request to credit the caller's account.
func (h *Handler) Deposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req operationRequest
	if ok := bindRequest(gctx, &req); !ok {
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Deposit(ctx, authPayload.Username, req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		writeOperationError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, operationResponse{
		Data: operationData{result.Account, result.Movement},
	})
}

// Withdraw handles http request to debit the caller's account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req operationRequest
	if ok := bindRequest(gctx, &req); !ok {
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Withdraw(ctx, authPayload.Username, req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		writeOperationError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, operationResponse{
		Data: operationData{result.Account, result.Movement},
	})
}

// Pay handles http request to debit the caller's account with a
// caller-supplied description.
func (h *Handler) Pay(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req paymentRequest
	if ok := bindRequest(gctx, &req); !ok {
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Pay(ctx, authPayload.Username, req.Amount, req.Description)
	if err != nil {
		l.Info().Err(err).Send()
		writeOperationError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, operationResponse{
		Data: operationData{result.Account, result.Movement},
	})
}

// Transfer handles http request to move money from the caller's account to
// another account.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req transferRequest
	if ok := bindRequest(gctx, &req); !ok {
		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Transfer(ctx, authPayload.Username, req.ToAccountID, req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		writeOperationError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, transferResponse{Data: transferData{result}})
}

func bindRequest(gctx *gin.Context, req any) bool {
	if err := gctx.ShouldBindJSON(req); err != nil {
		l := zerolog.Ctx(gctx.Request.Context())
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})

			return false
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return false
	}

	return true
}

func writeOperationError(gctx *gin.Context, err error) {
	switch err {
	case domain.ErrAccountNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case
		domain.ErrInvalidAmount,
		domain.ErrInsufficientBalance,
		domain.ErrSameAccount:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}
