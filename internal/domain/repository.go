package domain

import "context"

// GenerationRepository defines persistence for generation records. The
// coordinator is the sole writer to a claimed record's status and result
// during one run.
type GenerationRepository interface {
	Create(ctx context.Context, rec *GenerationRecord) error
	PatchStatus(ctx context.Context, id string, status GenerationStatus, result *GenerationResult) error
	GetByID(ctx context.Context, id string) (*GenerationRecord, error)
}

// AssetRepository handles persistence for generated artifacts.
type AssetRepository interface {
	SaveAll(ctx context.Context, generationID string, assets []Asset) error
	ListByGenerationID(ctx context.Context, generationID string) ([]Asset, error)
}
