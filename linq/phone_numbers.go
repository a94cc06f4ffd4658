package linq

import (
	"context"
	"net/http"
)

// PhoneNumber is a number provisioned to the partner account.
type PhoneNumber struct {
	ID           string   `json:"id,omitempty"`
	PhoneNumber  string   `json:"phone_number"`
	Status       string   `json:"status,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// PhoneNumberList is the response of PhoneNumbersService.List.
type PhoneNumberList struct {
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
}

// PhoneNumbersService handles communication with the phone number related methods.
type PhoneNumbersService struct {
	client *Client
}

// List fetches the phone numbers available to the partner.
func (s *PhoneNumbersService) List(ctx context.Context, opts ...RequestOption) (*PhoneNumberList, error) {
	return do[PhoneNumberList](ctx, s.client, &Request{
		Method: http.MethodGet,
		Path:   "/v3/phonenumbers",
	}, opts)
}
