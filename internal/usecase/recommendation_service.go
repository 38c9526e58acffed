package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"github.com/catalogrank/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// DefaultTopK is the number of recommendations returned when the caller does not ask for a count
const DefaultTopK = 5

// RecommendationConfig holds configuration for the recommendation service
type RecommendationConfig struct {
	ScoreSaturation    float64
	SimilarityCacheTTL time.Duration
}

// RecommendationService ranks catalog products against a free-text query.
// The lexical path is always available; the similarity backend, when set,
// only fills slots the lexical ranking left empty.
type RecommendationService struct {
	scorer      *LexicalScorer
	synthesizer *DescriptionSynthesizer
	similarity  domain.SimilarityBackend
	cache       domain.CacheRepository
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewRecommendationService creates a recommendation service.
// similarity and cache may be nil.
func NewRecommendationService(
	similarity domain.SimilarityBackend,
	cache domain.CacheRepository,
	config RecommendationConfig,
	logger *zap.Logger,
) *RecommendationService {
	cacheTTL := config.SimilarityCacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	return &RecommendationService{
		scorer:      NewLexicalScorer(config.ScoreSaturation),
		synthesizer: NewDescriptionSynthesizer(),
		similarity:  similarity,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logging.OrNop(logger).Named("recommend"),
	}
}

// Recommend ranks the catalog against query and returns up to topK products.
// A non-positive topK returns every product with a positive score.
// Flow: score rows -> select top k -> (optional) backfill from similarity backend -> build products
func (s *RecommendationService) Recommend(
	ctx context.Context,
	catalog *domain.Catalog,
	query string,
	topK int,
) (*domain.RecommendationResult, error) {
	if catalog == nil {
		return nil, domain.ErrDataUnavailable
	}
	if err := catalog.Require(
		domain.ColumnID, domain.ColumnTitle, domain.ColumnDescription,
		domain.ColumnPrice, domain.ColumnCategories, domain.ColumnImages,
	); err != nil {
		return nil, err
	}

	top := SelectTopK(s.scorer.ScoreCatalog(catalog, query), topK)

	rows := catalog.Rows()
	products := make([]domain.Product, 0, len(top))
	for _, m := range top {
		products = append(products, s.buildProduct(&rows[m.Index], m.NormalizedScore))
	}

	if s.similarity != nil && topK > 0 && len(top) > 0 && len(products) < topK {
		products = s.backfill(ctx, catalog, top, products, topK)
	}

	s.logger.Debug("recommendation computed",
		zap.String("query", query),
		zap.Int("topK", topK),
		zap.Int("returned", len(products)),
	)
	metrics.RecommendationsReturned.Observe(float64(len(products)))

	return &domain.RecommendationResult{Query: query, Recommendations: products}, nil
}

// buildProduct normalizes a catalog row into its response shape
func (s *RecommendationService) buildProduct(row *domain.CatalogRow, score float64) domain.Product {
	product := domain.Product{
		UniqID:      row.ID,
		Title:       row.Title,
		Description: s.synthesizer.Synthesize(row.Title, row.Description),
		Categories:  ParseList(row.RawCategories),
		Score:       score,
	}

	if row.Brand != "" {
		brand := row.Brand
		product.Brand = &brand
	}
	if price, ok := ParseMoney(row.RawPrice); ok {
		product.Price = &price
	}
	if image, ok := ParseFirstImage(row.RawImages); ok {
		product.Image = &image
	}

	return product
}

// backfill appends neighbours of the best lexical match until topK products are present.
// Any backend failure leaves the lexical result untouched.
func (s *RecommendationService) backfill(
	ctx context.Context,
	catalog *domain.Catalog,
	top []domain.ScoredMatch,
	products []domain.Product,
	topK int,
) []domain.Product {
	seed := top[0].ID
	neighbours, err := s.similarNeighbours(ctx, seed, topK+len(top))
	if err != nil {
		s.logger.Warn("similarity backend unavailable, using lexical results only",
			zap.String("seed", seed),
			zap.Error(err),
		)
		return products
	}

	included := make(map[string]struct{}, len(products))
	for _, p := range products {
		included[p.UniqID] = struct{}{}
	}

	rows := catalog.Rows()
	for _, n := range neighbours {
		if len(products) >= topK {
			break
		}
		if _, dup := included[n.ID]; dup {
			continue
		}
		idx, ok := catalog.Lookup(n.ID)
		if !ok {
			continue
		}
		included[n.ID] = struct{}{}
		products = append(products, s.buildProduct(&rows[idx], clampUnit(n.Score)))
	}

	return products
}

// similarNeighbours queries the backend through the cache
func (s *RecommendationService) similarNeighbours(ctx context.Context, productID string, k int) ([]domain.SimilarMatch, error) {
	key := fmt.Sprintf("similar:%s:%d", productID, k)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var cached []domain.SimilarMatch
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.SimilarityLookups.WithLabelValues("cache_hit").Inc()
				return cached, nil
			}
		}
	}

	matches, err := s.similarity.SimilarByID(ctx, productID, k)
	if err != nil {
		metrics.SimilarityLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SimilarityLookups.WithLabelValues("backend").Inc()

	if s.cache != nil {
		if data, err := json.Marshal(matches); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				// caching is best effort
				s.logger.Debug("similarity cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return matches, nil
}

// clampUnit bounds a backend score to [0,1]
func clampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
