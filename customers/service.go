package customers

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-account-dashboard/apiclient"
)

// RouteCustomers is the backend collection endpoint
const RouteCustomers = "/customers"

// Service reads customers from the backend through the shared API client,
// so an expired session is refreshed before the call fails.
type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]Customer, error) {
	var list []Customer
	if err := s.api.Get(ctx, RouteCustomers, &list); err != nil {
		return nil, fmt.Errorf("[customers List] %w", err)
	}
	return list, nil
}
