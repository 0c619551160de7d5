package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// FetchBannerURL returns the channel banner of a profile ("" when unset).
func (r *ProfileRepo) FetchBannerURL(ctx context.Context, profileID string) (string, error) {
	var url string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(channel_banner_url, '') FROM profiles WHERE id = $1`,
		profileID).Scan(&url)
	return url, err
}
