// Package catalog publishes versioned codebook manifests.
//
// A manifest records how a codebook was built and where its artifacts live.
// Publishing assigns the next version number and moves the CURRENT pointer;
// Latest follows the pointer.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// ManifestFileName prefixes every manifest blob.
	ManifestFileName = "MANIFEST"
	// CurrentFileName names the pointer to the latest manifest.
	CurrentFileName = "CURRENT"
	// FormatVersion is the manifest encoding version.
	FormatVersion = 1
)

var (
	// ErrNoManifest is returned by Latest before the first publish.
	ErrNoManifest = errors.New("catalog: no manifest published")

	// ErrConcurrentPublish is returned when another writer published the
	// same version first.
	ErrConcurrentPublish = errors.New("catalog: concurrent publish detected")
)

// Manifest describes one published codebook.
type Manifest struct {
	Format    int       `json:"format"`
	Version   uint64    `json:"version"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	K          int    `json:"k"`
	Threshold  int    `json:"threshold"`
	Distance   string `json:"distance"`
	Matrix     string `json:"matrix,omitempty"`
	Seed       uint64 `json:"seed"`
	Clusters   int    `json:"clusters"`
	Prototypes int    `json:"prototypes"`

	// Files maps artifact kinds ("clusters", "prototypes", ...) to blob
	// names or URIs.
	Files map[string]string `json:"files,omitempty"`
}

// NewManifest returns a manifest with a fresh run id.
func NewManifest() Manifest {
	return Manifest{
		Format:    FormatVersion,
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Files:     make(map[string]string),
	}
}

// Catalog stores manifests.
type Catalog interface {
	// Publish stores m as the next version and returns that version.
	Publish(ctx context.Context, m Manifest) (uint64, error)
	// Latest returns the most recently published manifest.
	Latest(ctx context.Context) (Manifest, uint64, error)
}

func manifestName(version uint64, runID string) string {
	if runID == "" {
		return fmt.Sprintf("%s-%06d.json", ManifestFileName, version)
	}
	return fmt.Sprintf("%s-%06d-%s.json", ManifestFileName, version, runID)
}

func encode(m Manifest, version uint64) ([]byte, error) {
	m.Format = FormatVersion
	m.Version = version
	if m.RunID == "" {
		m.RunID = uuid.NewString()
	}
	return json.MarshalIndent(m, "", "  ")
}

func decode(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("catalog: decode manifest: %w", err)
	}
	if m.Format != FormatVersion {
		return Manifest{}, fmt.Errorf("catalog: unsupported manifest format: %d (expected %d)", m.Format, FormatVersion)
	}
	return m, nil
}
