package distance

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CacheRepository stores resolved routes keyed by the hash of their ordered
// address list, so repeated recomputation does not re-query unchanged
// itineraries.
type CacheRepository interface {
	Get(ctx context.Context, routeHash string) (Route, bool, error)
	Put(ctx context.Context, routeHash string, route Route) error
}

type CacheRepositoryImpl struct {
	db *sql.DB
}

func NewCacheRepository(db *sql.DB) *CacheRepositoryImpl {
	return &CacheRepositoryImpl{db: db}
}

func (r *CacheRepositoryImpl) Get(ctx context.Context, routeHash string) (Route, bool, error) {
	query := `SELECT total_distance_km, map_image_url FROM distance_cache WHERE route_hash = $1`
	var route Route
	err := r.db.QueryRowContext(ctx, query, routeHash).Scan(&route.TotalDistanceKm, &route.MapImageUrl)
	if errors.Is(err, sql.ErrNoRows) {
		return Route{}, false, nil
	} else if err != nil {
		err := fmt.Errorf("could not query distance cache: %w", err)
		log.Error(err)
		return Route{}, false, err
	}
	return route, true, nil
}

func (r *CacheRepositoryImpl) Put(ctx context.Context, routeHash string, route Route) error {
	query := `INSERT INTO distance_cache (route_hash, total_distance_km, map_image_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (route_hash) DO UPDATE SET total_distance_km = $2, map_image_url = $3`
	if _, err := r.db.ExecContext(ctx, query, routeHash, route.TotalDistanceKm, route.MapImageUrl); err != nil {
		err := fmt.Errorf("could not store distance cache entry: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

// CachingProvider wraps a Provider with a persistent route cache. Cache
// failures degrade to a provider call instead of failing the lookup.
type CachingProvider struct {
	next Provider
	repo CacheRepository
}

func NewCachingProvider(next Provider, repo CacheRepository) *CachingProvider {
	return &CachingProvider{next: next, repo: repo}
}

func (p *CachingProvider) RouteDistance(ctx context.Context, addresses []string) (Route, error) {
	hash := RouteHash(addresses)

	cached, found, err := p.repo.Get(ctx, hash)
	if err == nil && found {
		log.Debugf("distance cache hit for route %s", hash[:12])
		return cached, nil
	}

	route, err := p.next.RouteDistance(ctx, addresses)
	if err != nil {
		return Route{}, err
	}
	if err := p.repo.Put(ctx, hash, route); err != nil {
		log.Warnf("failed to cache route distance: %v", err)
	}
	return route, nil
}

// RouteHash is the cache key for an ordered address list.
func RouteHash(addresses []string) string {
	sum := sha256.Sum256([]byte(strings.Join(addresses, "\x1f")))
	return hex.EncodeToString(sum[:])
}
