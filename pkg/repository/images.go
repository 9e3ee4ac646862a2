package repository

import (
	"os"
	"path/filepath"

	"github.com/merchantry/merchantry/pkg/security"
)

// removeImages deletes the named files under the configured image
// directory. Cleanup is best-effort: failures are logged and never
// abort the record mutation.
func (r *Repository) removeImages(names []string) {
	for _, name := range names {
		if err := security.ValidateFileName(name); err != nil {
			r.logger.Warn("skipping unsafe image name", "collection", r.collection, "image", name, "error", err)
			continue
		}
		path := filepath.Join(r.imageDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("failed to remove image", "collection", r.collection, "image", name, "error", err)
		}
	}
}

// imageDifference returns the names present in old but absent from
// updated, preserving the stored order.
func imageDifference(old, updated []string) []string {
	keep := make(map[string]struct{}, len(updated))
	for _, name := range updated {
		keep[name] = struct{}{}
	}
	var removed []string
	for _, name := range old {
		if _, ok := keep[name]; !ok {
			removed = append(removed, name)
		}
	}
	return removed
}
