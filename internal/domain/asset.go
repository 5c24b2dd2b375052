package domain

import "time"

// AssetKind enumerates generated artifact types.
type AssetKind string

const (
	AssetKindImage   AssetKind = "image"
	AssetKindAudio   AssetKind = "audio"
	AssetKindVideo   AssetKind = "video"
	AssetKindPackage AssetKind = "package"
	AssetKindData    AssetKind = "data"
)

// Asset represents a durable artifact belonging to a generation record.
type Asset struct {
	ID           string
	GenerationID string
	Kind         AssetKind
	StorageKey   string
	URL          string
	MIME         string
	Bytes        int64
	SceneIndex   int
	CreatedAt    time.Time
}
