package distance

import (
	"context"
	"fmt"
	"strings"
)

// StubProvider serves routes from a fixture map keyed by the joined address
// list. Unknown routes either fail as unavailable or fall back to a fixed
// per-leg distance, depending on FailUnknown.
type StubProvider struct {
	Routes      map[string]Route
	FailUnknown bool
	Calls       int
}

func NewStubProvider() *StubProvider {
	return &StubProvider{Routes: map[string]Route{}}
}

func (s *StubProvider) AddRoute(addresses []string, route Route) {
	s.Routes[strings.Join(addresses, "|")] = route
}

func (s *StubProvider) RouteDistance(ctx context.Context, addresses []string) (Route, error) {
	s.Calls++
	if route, ok := s.Routes[strings.Join(addresses, "|")]; ok {
		return route, nil
	}
	if s.FailUnknown {
		return Route{}, &UnavailableError{Addresses: addresses, Err: fmt.Errorf("no fixture for route")}
	}
	// 10 km per leg keeps distances deterministic without fixtures.
	return Route{TotalDistanceKm: float64(len(addresses)-1) * 10}, nil
}

type StubCacheRepository struct {
	data map[string]Route
}

func NewStubCacheRepository() *StubCacheRepository {
	return &StubCacheRepository{data: map[string]Route{}}
}

func (s *StubCacheRepository) Get(ctx context.Context, routeHash string) (Route, bool, error) {
	route, ok := s.data[routeHash]
	return route, ok, nil
}

func (s *StubCacheRepository) Put(ctx context.Context, routeHash string, route Route) error {
	s.data[routeHash] = route
	return nil
}
