package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grid-proximity-microservice/internal/config"
	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/grid-proximity-microservice/internal/domain/repository"
	"go.uber.org/zap"
)

// element - элемент ответа Overpass API (узел или way)
type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Tags  map[string]string `json:"tags,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
}

type overpassResponse struct {
	Elements []element `json:"elements"`
}

type client struct {
	httpClient   *http.Client
	baseURL      string
	queryTimeout int
	logger       *zap.Logger
}

// NewClient создает новый клиент для Overpass API
func NewClient(cfg *config.OverpassConfig, logger *zap.Logger) repository.OverpassRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:      cfg.BaseURL,
		queryTimeout: cfg.QueryTimeout,
		logger:       logger,
	}
}

// FetchInfrastructure загружает энергообъекты и линии для города.
// Теги узлов нормализуются в PowerObjectKind на этой границе: нераспознанное
// значение power фатально для выборки, у порогов нет безопасного default.
// Вершины линий разрешаются по таблице узлов ответа; ссылки на отсутствующие
// узлы пропускаются, порядок оставшихся вершин сохраняется.
func (c *client) FetchInfrastructure(ctx context.Context, city string, opts domain.FetchOptions) (*domain.InfrastructureSet, error) {
	query := c.buildInfrastructureQuery(city, opts)

	resp, err := c.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]domain.Point)
	var objects []domain.PowerObject
	var ways []element

	for _, el := range resp.Elements {
		switch el.Type {
		case "node":
			nodes[el.ID] = domain.Point{Lat: el.Lat, Lon: el.Lon}

			kind, ok, err := domain.KindFromTags(el.Tags)
			if err != nil {
				c.logger.Error("Unrecognized power object kind",
					zap.Int64("node_id", el.ID),
					zap.Error(err))
				return nil, fmt.Errorf("node %d: %w", el.ID, err)
			}
			if ok {
				objects = append(objects, domain.PowerObject{
					ID:   el.ID,
					Lat:  el.Lat,
					Lon:  el.Lon,
					Kind: kind,
				})
			}
		case "way":
			ways = append(ways, el)
		}
	}

	lines := make([]domain.PowerLine, 0, len(ways))
	for _, way := range ways {
		points := make([]domain.Point, 0, len(way.Nodes))
		for _, nodeID := range way.Nodes {
			if pt, ok := nodes[nodeID]; ok {
				points = append(points, pt)
			}
		}
		lines = append(lines, domain.PowerLine{
			ID:      way.ID,
			Points:  points,
			Voltage: way.Tags["voltage"],
		})
	}

	c.logger.Info("Infrastructure fetched",
		zap.String("city", city),
		zap.Int("objects", len(objects)),
		zap.Int("lines", len(lines)),
		zap.Int("nodes", len(nodes)))

	return &domain.InfrastructureSet{Objects: objects, Lines: lines}, nil
}

// FetchBuildings загружает точки жилых зданий для города
func (c *client) FetchBuildings(ctx context.Context, city string) ([]domain.ResidentialBuilding, error) {
	query := fmt.Sprintf(`[out:json][timeout:%d];
area[name=%q]->.searchArea;
(
  way["building"](area.searchArea);
  node(w)->.x;
);
out body;
>;
out skel qt;`, c.queryTimeout, city)

	resp, err := c.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	buildings := make([]domain.ResidentialBuilding, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if el.Type != "node" {
			continue
		}
		buildings = append(buildings, domain.ResidentialBuilding{
			ID:  el.ID,
			Lat: el.Lat,
			Lon: el.Lon,
		})
	}

	c.logger.Info("Buildings fetched",
		zap.String("city", city),
		zap.Int("buildings", len(buildings)))

	return buildings, nil
}

// buildInfrastructureQuery собирает Overpass QL запрос из явного набора
// категорий. Пустой набор даёт fallback-запрос по place=city.
func (c *client) buildInfrastructureQuery(city string, opts domain.FetchOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n", c.queryTimeout)
	fmt.Fprintf(&b, "area[name=%q]->.searchArea;\n(", city)

	if opts.Any() {
		if opts.PowerLines {
			b.WriteString(`way["power"="line"](area.searchArea);`)
		}
		if opts.CommunicationTowers {
			b.WriteString(`node["man_made"="tower"]["tower:type"="communication"](area.searchArea);`)
		}
		if opts.Substations {
			b.WriteString(`node["power"="substation"](area.searchArea);`)
		}
		if opts.Transformers {
			b.WriteString(`node["power"="transformer"](area.searchArea);`)
		}
		if opts.Converters {
			b.WriteString(`node["power"="converter"](area.searchArea);`)
		}
	} else {
		b.WriteString(`node["place"="city"](area.searchArea);`)
	}

	b.WriteString(");\nout body;\n>;\nout skel qt;")
	return b.String()
}

// execute выполняет запрос к Overpass API и декодирует ответ
func (c *client) execute(ctx context.Context, query string) (*overpassResponse, error) {
	params := url.Values{}
	params.Set("data", query)
	requestURL := c.baseURL + "?" + params.Encode()

	c.logger.Debug("Calling Overpass API", zap.Int("query_len", len(query)))

	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Overpass API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("overpass API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Overpass API call successful",
		zap.Int("elements", len(decoded.Elements)),
		zap.Duration("took", time.Since(started)))

	return &decoded, nil
}
