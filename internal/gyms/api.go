// Package gyms finds fitness centres near a location through the Overpass API.
package gyms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"

	"myfitguide/internal/domain"

	"github.com/coocood/freecache"
	"go.uber.org/zap"
)

const (
	oneHour          = 60 * 60
	gymsCacheExpire  = oneHour * 1
	defaultGymName   = "Gimnasio"
	DefaultRadiusM   = 2000
	overpassTimeoutS = 25

	maxResponseBytes = 4 << 20
)

// response is the subset of the Overpass JSON output we read
type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Api struct {
	cache       *freecache.Cache
	overpassUrl string // https://overpass-api.de/api/interpreter
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewApi(overpassUrl string, httpClient *http.Client, logger *zap.Logger) *Api {
	megabyte := 1024 * 1024
	cacheSize := 10 * megabyte

	return &Api{
		cache:       freecache.NewCache(cacheSize),
		overpassUrl: overpassUrl,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Nearby returns the fitness centres within radiusM meters of lat/lon, nearest first.
// Answers are cached for an hour per rounded coordinate.
func (a *Api) Nearby(ctx context.Context, lat, lon float64, radiusM int) ([]domain.Gym, error) {
	if radiusM <= 0 {
		radiusM = DefaultRadiusM
	}

	cacheKey := cacheKeyFor(lat, lon, radiusM)
	if cached, err := a.cache.Get([]byte(cacheKey)); err == nil {
		var gyms []domain.Gym
		if err := json.Unmarshal(cached, &gyms); err == nil {
			a.logger.Debug("Gyms served from cache", zap.String("key", cacheKey))
			return gyms, nil
		} else {
			a.logger.Error("Failed to read gyms from cache", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	form := url.Values{}
	form.Set("data", buildQuery(lat, lon, radiusM))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.overpassUrl+"?"+form.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read overpass response bytes: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass responded with status %d", resp.StatusCode)
	}

	var overpassResp response
	if err := json.Unmarshal(respBytes, &overpassResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overpass response bytes: %w", err)
	}

	gyms := toGyms(overpassResp.Elements)
	origin := domain.Location{Lat: lat, Lon: lon}
	sort.SliceStable(gyms, func(i, j int) bool {
		return origin.DistanceTo(gyms[i].Lat, gyms[i].Lon) < origin.DistanceTo(gyms[j].Lat, gyms[j].Lon)
	})

	if encoded, err := json.Marshal(gyms); err == nil {
		if err := a.cache.Set([]byte(cacheKey), encoded, gymsCacheExpire); err != nil {
			a.logger.Error("Failed to cache gyms", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	a.logger.Info("Gyms fetched from Overpass",
		zap.Int("count", len(gyms)),
		zap.Int("radius_m", radiusM),
	)
	return gyms, nil
}

func buildQuery(lat, lon float64, radiusM int) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radiusM, lat, lon)
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  node["leisure"="fitness_centre"]%s;
  way["leisure"="fitness_centre"]%s;
  relation["leisure"="fitness_centre"]%s;
);
out center;`, overpassTimeoutS, around, around, around)
}

// toGyms keeps nodes with coordinates and ways/relations with a center
func toGyms(elements []element) []domain.Gym {
	gyms := make([]domain.Gym, 0, len(elements))
	for _, el := range elements {
		var lat, lon float64
		switch {
		case el.Type == "node" && el.Lat != nil && el.Lon != nil:
			lat, lon = *el.Lat, *el.Lon
		case el.Type != "node" && el.Center != nil:
			lat, lon = el.Center.Lat, el.Center.Lon
		default:
			continue
		}

		name := el.Tags["name"]
		if name == "" {
			name = defaultGymName
		}
		gyms = append(gyms, domain.Gym{ID: el.ID, Lat: lat, Lon: lon, Name: name})
	}
	return gyms
}

func cacheKeyFor(lat, lon float64, radiusM int) string {
	round := func(f float64) float64 { return math.Round(f*1000) / 1000 }
	return fmt.Sprintf("gyms::%.3f::%.3f::%d", round(lat), round(lon), radiusM)
}
