package distance

import (
	"context"
	"fmt"
	"strings"
)

// Route is the priced itinerary returned by the external distance provider.
type Route struct {
	TotalDistanceKm float64
	MapImageUrl     string
}

// Provider resolves the total road distance of an ordered address list
// (home -> institutions -> home). Implementations must never report a failed
// lookup as a zero distance.
type Provider interface {
	RouteDistance(ctx context.Context, addresses []string) (Route, error)
}

// UnavailableError signals that the provider could not resolve a route
// (geocoding miss, network failure). The affected day is skipped and flagged,
// never priced at zero.
type UnavailableError struct {
	Addresses []string
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("route distance unavailable for [%s]: %v", strings.Join(e.Addresses, " -> "), e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
