// Package gateway provides an HTTP client for the ledger service: account
// registration and login, and list/create/update/delete of the caller's
// transactions. Every failure is returned as an AppError kind.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/ledger"
)

// TokenSource supplies the bearer credential attached to each request.
type TokenSource interface {
	Token() (string, bool)
}

// Client communicates with the ledger service.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a new ledger service client. The credential is read from
// tokens at the start of every request.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: httpClient,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a remote account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/register", "", credentials{username, password}, nil)
}

// Login exchanges username and password for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", "", credentials{username, password}, &result); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", apperrors.WithMessage(apperrors.ErrNetwork, "login response did not contain a token")
	}
	return result.Token, nil
}

// ListAll fetches every transaction of the authenticated user.
func (c *Client) ListAll(ctx context.Context) ([]ledger.Transaction, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}

	var txs []ledger.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", token, nil, &txs); err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, malformed(err)
		}
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	return txs, nil
}

// Create stores a new transaction and returns it with its server-assigned id.
func (c *Client) Create(ctx context.Context, entry ledger.Entry) (ledger.Transaction, error) {
	token, err := c.bearer()
	if err != nil {
		return ledger.Transaction{}, err
	}

	var tx ledger.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", token, entry, &tx); err != nil {
		return ledger.Transaction{}, err
	}
	if err := tx.Validate(); err != nil {
		return ledger.Transaction{}, malformed(err)
	}
	return tx, nil
}

// Update replaces the fields of transaction id.
func (c *Client) Update(ctx context.Context, id ledger.ID, entry ledger.Entry) (ledger.Transaction, error) {
	token, err := c.bearer()
	if err != nil {
		return ledger.Transaction{}, err
	}

	var tx ledger.Transaction
	if err := c.do(ctx, http.MethodPut, transactionPath(id), token, entry, &tx); err != nil {
		return ledger.Transaction{}, err
	}
	if err := tx.Validate(); err != nil {
		return ledger.Transaction{}, malformed(err)
	}
	return tx, nil
}

// Delete removes transaction id. A missing transaction is reported as
// ErrTransactionNotFound; whether that is a failure is up to the caller.
func (c *Client) Delete(ctx context.Context, id ledger.ID) error {
	token, err := c.bearer()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, transactionPath(id), token, nil, nil)
}

func transactionPath(id ledger.ID) string {
	return "/transactions/" + url.PathEscape(string(id))
}

func (c *Client) bearer() (string, error) {
	if c.tokens == nil {
		return "", apperrors.ErrUnauthenticated
	}
	token, ok := c.tokens.Token()
	if !ok {
		return "", apperrors.ErrUnauthenticated
	}
	return token, nil
}

// do performs one request/response exchange. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrNetwork, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformed(fmt.Errorf("decoding %s %s response: %w", method, path, err))
	}
	return nil
}

// errorBody matches both {"error":{"code","message"}} and {"error":"message"}.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

func responseError(resp *http.Response) error {
	code, message := decodeErrorBody(resp.Body)

	var sentinel *apperrors.AppError
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		sentinel = apperrors.ErrUnauthenticated
		if code == apperrors.ErrInvalidCredentials.Code {
			sentinel = apperrors.ErrInvalidCredentials
		}
	case resp.StatusCode == http.StatusNotFound:
		sentinel = apperrors.ErrTransactionNotFound
	case resp.StatusCode == http.StatusConflict:
		sentinel = apperrors.ErrDuplicateUsername
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		sentinel = apperrors.ErrValidation
	default:
		return apperrors.Wrap(apperrors.ErrNetwork, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, message))
	}

	if message == "" {
		return sentinel
	}
	return apperrors.WithMessage(sentinel, message)
}

func decodeErrorBody(r io.Reader) (code, message string) {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil || len(body.Error) == 0 {
		return "", ""
	}

	var detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &detail); err == nil {
		return detail.Code, detail.Message
	}
	var plain string
	if err := json.Unmarshal(body.Error, &plain); err == nil {
		return "", plain
	}
	return "", ""
}

func malformed(err error) error {
	return apperrors.Wrap(apperrors.ErrNetwork, fmt.Errorf("malformed response: %w", err))
}
