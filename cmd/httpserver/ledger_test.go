//go:build integration

package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ledgerbank/ledger-api/internal/domain"
	"github.com/ledgerbank/ledger-api/internal/integrationtest"
	"github.com/ledgerbank/ledger-api/internal/middleware"
	"github.com/ledgerbank/ledger-api/internal/test"
	"github.com/ledgerbank/ledger-api/pkg/tokenpkg"
	"github.com/ledgerbank/ledger-api/pkg/web"
)

func requireAmountEqual(t *testing.T, want, got string) {
	t.Helper()

	wantDecimal, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%v) returned error: %v", want, err)
	}

	gotDecimal, err := decimal.NewFromString(got)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%v) returned error: %v", got, err)
	}

	if !wantDecimal.Equal(gotDecimal) {
		t.Errorf("amount = %v, want %v", got, want)
	}
}

func TestDepositAPI(t *testing.T) {
	server := integrationtest.SetupServer(t)

	user := test.SeedUser(t, server.DB)
	account := test.SeedAccountWith1000Balance(t, server.DB, user.Username)

	tokenMaker, err := tokenpkg.NewPasetoMaker(server.Config.TokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", server.Config.TokenSymmetricKey, err)
	}

	body, err := json.Marshal(map[string]string{"amount": "100.50"})
	if err != nil {
		t.Fatalf("Encoding request body error: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Creating request error: %v", err)
	}

	err = middleware.AddAuthorization(req, tokenMaker, middleware.AuthTypeBearer,
		user.Username, server.Config.AccessTokenDuration)
	if err != nil {
		t.Fatalf("middleware.AddAuthorization returned error: %v", err)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status code: got %v, want %v, body: %v", w.Code, http.StatusOK, w.Body.String())
	}

	got := struct {
		Account  domain.Account  `json:"account"`
		Movement domain.Movement `json:"movement"`
	}{}
	res := web.Response{Data: &got}

	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("Decoding response body error: %v", err)
	}

	if got.Account.ID != account.ID {
		t.Errorf("got.Account.ID = %v, want %v", got.Account.ID, account.ID)
	}

	requireAmountEqual(t, "1100.50", got.Account.Balance)
	requireAmountEqual(t, "100.50", got.Movement.Amount)

	if got.Movement.Kind != domain.Credit {
		t.Errorf("got.Movement.Kind = %v, want %v", got.Movement.Kind, domain.Credit)
	}

	if got.Movement.Description != "deposit" {
		t.Errorf("got.Movement.Description = %v, want deposit", got.Movement.Description)
	}
}

func TestTransferAPI(t *testing.T) {
	server := integrationtest.SetupServer(t)

	user1 := test.SeedUser(t, server.DB)
	user2 := test.SeedUser(t, server.DB)
	account1 := test.SeedAccountWith1000Balance(t, server.DB, user1.Username)
	account2 := test.SeedAccountWith1000Balance(t, server.DB, user2.Username)
	amount := "100"

	tokenMaker, err := tokenpkg.NewPasetoMaker(server.Config.TokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", server.Config.TokenSymmetricKey, err)
	}

	authType := middleware.AuthTypeBearer
	duration := server.Config.AccessTokenDuration

	type requestBody struct {
		ToAccountID int32  `json:"to_account_id"`
		Amount      string `json:"amount"`
	}

	testCases := []struct {
		name           string
		requestBody    requestBody
		setupAuth      func(t *testing.T, r *http.Request) error
		wantStatusCode int
		checkData      func(t *testing.T, transfer domain.TransferTxResult)
		wantError      string
	}{
		{
			name: "OK",
			requestBody: requestBody{
				ToAccountID: account2.ID,
				Amount:      amount,
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, user1.Username, duration)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(t *testing.T, transfer domain.TransferTxResult) {
				requireAmountEqual(t, "900", transfer.FromAccount.Balance)
				requireAmountEqual(t, "1100", transfer.ToAccount.Balance)

				if transfer.FromMovement.Kind != domain.Debit {
					t.Errorf("transfer.FromMovement.Kind = %v, want %v", transfer.FromMovement.Kind, domain.Debit)
				}

				if transfer.ToMovement.Kind != domain.Credit {
					t.Errorf("transfer.ToMovement.Kind = %v, want %v", transfer.ToMovement.Kind, domain.Credit)
				}

				requireAmountEqual(t, amount, transfer.FromMovement.Amount)
				requireAmountEqual(t, amount, transfer.ToMovement.Amount)

				if transfer.FromMovement.TransferID == "" {
					t.Error(`transfer.FromMovement.TransferID = "", want non empty`)
				}

				if transfer.FromMovement.TransferID != transfer.ToMovement.TransferID {
					t.Errorf("transfer legs have different transfer ids: %v, %v",
						transfer.FromMovement.TransferID, transfer.ToMovement.TransferID)
				}

				if transfer.FromMovement.CounterpartyID == nil || *transfer.FromMovement.CounterpartyID != account2.ID {
					t.Errorf("transfer.FromMovement.CounterpartyID = %v, want %v",
						transfer.FromMovement.CounterpartyID, account2.ID)
				}

				if transfer.ToMovement.CounterpartyID == nil || *transfer.ToMovement.CounterpartyID != account1.ID {
					t.Errorf("transfer.ToMovement.CounterpartyID = %v, want %v",
						transfer.ToMovement.CounterpartyID, account1.ID)
				}
			},
		},
		{
			name: "RequiredToAccountID",
			requestBody: requestBody{
				ToAccountID: 0,
				Amount:      amount,
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, user1.Username, duration)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "ToAccountID is required",
		},
		{
			name: "RequiredAmount",
			requestBody: requestBody{
				ToAccountID: account2.ID,
				Amount:      "",
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, user1.Username, duration)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount is required",
		},
		{
			name: "InvalidAmount",
			requestBody: requestBody{
				ToAccountID: account2.ID,
				Amount:      "0.001",
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, user1.Username, duration)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive decimal with at most 2 decimal places",
		},
		{
			name: "ErrInsufficientBalance",
			requestBody: requestBody{
				ToAccountID: account2.ID,
				Amount:      "100000",
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, user1.Username, duration)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInsufficientBalance.Error(),
		},
		{
			name: "ErrSameAccount",
			requestBody: requestBody{
				ToAccountID: account1.ID,
				Amount:      amount,
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, user1.Username, duration)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrSameAccount.Error(),
		},
		{
			name: "ErrAccountNotFound",
			requestBody: requestBody{
				ToAccountID: account2.ID + 10_000,
				Amount:      amount,
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, user1.Username, duration)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
		{
			name: "NoAuthorization",
			requestBody: requestBody{
				ToAccountID: account2.ID,
				Amount:      amount,
			},
			setupAuth: func(t *testing.T, r *http.Request) error {
				return nil
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      middleware.ErrAuthHeaderNotFound.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			if err = tc.setupAuth(t, req); err != nil {
				t.Fatalf("tc.setupAuth(t, req) returned error: %v", err)
			}

			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)

			if got := w.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v, body: %v", got, tc.wantStatusCode, w.Body.String())
			}

			got := struct {
				Transfer domain.TransferTxResult `json:"transfer"`
			}{}
			res := web.Response{Data: &got}

			if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
				t.Errorf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if res.Error != tc.wantError {
					t.Errorf(`res.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkData(t, got.Transfer)
			}
		})
	}
}
