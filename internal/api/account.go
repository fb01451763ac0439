package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// PaymentMethod is a card on the linked Resy account.
type PaymentMethod struct {
	ID       int64  `json:"id"`
	Display  string `json:"display"`
	Default  bool   `json:"is_default"`
	Selected bool   `json:"selected"`
}

// ResyAccount is the linkage state of the user's Resy credentials.
type ResyAccount struct {
	Linked         bool            `json:"linked"`
	Email          string          `json:"email,omitempty"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	PaymentMethods []PaymentMethod `json:"payment_methods,omitempty"`
}

// LinkResyRequest links or re-links a Resy account. PaymentMethodID alone
// changes the card used for bookings.
type LinkResyRequest struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password,omitempty"`
	PaymentMethodID int64  `json:"payment_method_id,omitempty"`
}

// GetResyAccount returns the linked account, if any.
func (c *Client) GetResyAccount(ctx context.Context) (ResyAccount, error) {
	var a ResyAccount
	q := url.Values{"user_id": {c.creds.UserID}}
	err := c.call(ctx, http.MethodGet, "/resy_account", q, nil, &a, "Failed to load Resy account")
	return a, err
}

// LinkResyAccount stores Resy credentials with the backend.
func (c *Client) LinkResyAccount(ctx context.Context, email, password string) (ResyAccount, error) {
	if email == "" || password == "" {
		return ResyAccount{}, errors.New("email and password required")
	}
	return c.postAccount(ctx, LinkResyRequest{Email: email, Password: password}, "Failed to link Resy account")
}

// SelectPaymentMethod picks the card used when a snipe books.
func (c *Client) SelectPaymentMethod(ctx context.Context, id int64) (ResyAccount, error) {
	if id <= 0 {
		return ResyAccount{}, errors.New("payment method id required")
	}
	return c.postAccount(ctx, LinkResyRequest{PaymentMethodID: id}, "Failed to update payment method")
}

func (c *Client) postAccount(ctx context.Context, req LinkResyRequest, fallback string) (ResyAccount, error) {
	req.UserID = c.creds.UserID
	var a ResyAccount
	if err := c.call(ctx, http.MethodPost, "/resy_account", nil, req, &a, fallback); err != nil {
		return ResyAccount{}, err
	}
	return a, nil
}

// UnlinkResyAccount removes the stored Resy credentials.
func (c *Client) UnlinkResyAccount(ctx context.Context) error {
	q := url.Values{"user_id": {c.creds.UserID}}
	return c.call(ctx, http.MethodDelete, "/resy_account", q, nil, nil, "Failed to unlink Resy account")
}
