package repo

import (
	"context"

	"reelforge/server/internal/domain"
	"reelforge/server/internal/infra"
	"reelforge/server/internal/sqlinline"
)

// AssetRepositoryPG implements domain.AssetRepository on PostgreSQL.
type AssetRepositoryPG struct {
	db infra.SQLExecutor
}

func NewAssetRepository(db infra.SQLExecutor) *AssetRepositoryPG {
	return &AssetRepositoryPG{db: db}
}

func (r *AssetRepositoryPG) SaveAll(ctx context.Context, generationID string, assets []domain.Asset) error {
	for _, asset := range assets {
		_, err := r.db.Exec(ctx, sqlinline.QInsertGenerationAsset,
			generationID,
			string(asset.Kind),
			asset.StorageKey,
			asset.URL,
			asset.MIME,
			asset.Bytes,
			asset.SceneIndex,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *AssetRepositoryPG) ListByGenerationID(ctx context.Context, generationID string) ([]domain.Asset, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListAssetsByGeneration, generationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.GenerationID,
			&asset.Kind,
			&asset.StorageKey,
			&asset.URL,
			&asset.MIME,
			&asset.Bytes,
			&asset.SceneIndex,
			&asset.CreatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
