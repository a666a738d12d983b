package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/patrickmn/go-cache"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
)

// referenceRangeRepository reads the externally supplied range documents.
// The upstream format is one JSON document per parameter keyed by population
// bucket; the typed parse here fails closed on malformed buckets instead of
// defaulting. Documents change rarely, so parsed rows are cached.
type referenceRangeRepository struct {
	db    *sqlx.DB
	cache *cache.Cache
}

func NewReferenceRangeRepository(db *sqlx.DB) repository.ReferenceRangeRepository {
	return &referenceRangeRepository{
		db:    db,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

type rangeRow struct {
	Parameter string `db:"parameter"`
	Unit      string `db:"unit"`
	Buckets   []byte `db:"buckets"`
}

type bucketDoc struct {
	Min          *float64 `json:"min"`
	Max          *float64 `json:"max"`
	CriticalLow  *float64 `json:"critical_low"`
	CriticalHigh *float64 `json:"critical_high"`
}

func (r *referenceRangeRepository) GetRange(ctx context.Context, parameter string, bucket model.Bucket) (*model.ReferenceRange, error) {
	key := parameter + "/" + string(bucket)
	if cached, ok := r.cache.Get(key); ok {
		if cached == nil {
			return nil, nil
		}
		return cached.(*model.ReferenceRange), nil
	}

	var row rangeRow
	err := r.db.GetContext(ctx, &row, `
		SELECT parameter, unit, buckets
		FROM reference_ranges
		WHERE parameter = $1
	`, parameter)
	if errors.Is(err, sql.ErrNoRows) {
		r.cache.Set(key, nil, cache.DefaultExpiration)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reference range: %w", err)
	}

	var buckets map[string]bucketDoc
	if err := json.Unmarshal(row.Buckets, &buckets); err != nil {
		return nil, fmt.Errorf("malformed reference range document for %s: %w", parameter, err)
	}

	doc, ok := buckets[string(bucket)]
	if !ok {
		r.cache.Set(key, nil, cache.DefaultExpiration)
		return nil, nil
	}

	rng := &model.ReferenceRange{
		Parameter:    row.Parameter,
		Bucket:       bucket,
		Min:          doc.Min,
		Max:          doc.Max,
		CriticalLow:  doc.CriticalLow,
		CriticalHigh: doc.CriticalHigh,
		Unit:         row.Unit,
	}
	r.cache.Set(key, rng, cache.DefaultExpiration)
	return rng, nil
}
