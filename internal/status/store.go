// Package status persists per-component installation state as one small JSON
// file per component. Reads never fail: a missing or unreadable record is
// reported as "not installed, not installing".
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"studiod/internal/common/fsutil"
	"studiod/pkg/types"
)

// Store reads and writes component status records under a directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a Store rooted at dir. The directory is created lazily on write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory holding the records.
func (s *Store) Dir() string { return s.dir }

// record is the on-disk layout. Timestamp is kept as text so records written
// without a zone offset still load.
type record struct {
	Installed  bool    `json:"installed"`
	Installing bool    `json:"installing"`
	Timestamp  *string `json:"timestamp"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (s *Store) path(c types.Component) string {
	return filepath.Join(s.dir, string(c)+"_status.json")
}

// Read returns the stored status for c, or the zero status if none is readable.
func (s *Store) Read(c types.Component) types.ComponentStatus {
	b, err := os.ReadFile(s.path(c))
	if err != nil {
		return types.ComponentStatus{}
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return types.ComponentStatus{}
	}
	st := types.ComponentStatus{Installed: rec.Installed, Installing: rec.Installing}
	if rec.Timestamp != nil {
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, *rec.Timestamp); err == nil {
				st.Timestamp = &ts
				break
			}
		}
	}
	return st
}

// Write replaces the record for c with the given flags and the current time.
func (s *Store) Write(c types.Component, installed, installing bool) (types.ComponentStatus, error) {
	if !c.Valid() {
		return types.ComponentStatus{}, fmt.Errorf("unknown component %q", c)
	}
	ts := s.now()
	stamp := ts.Format(time.RFC3339Nano)
	b, err := json.Marshal(record{Installed: installed, Installing: installing, Timestamp: &stamp})
	if err != nil {
		return types.ComponentStatus{}, err
	}
	if err := fsutil.EnsureDir(s.dir); err != nil {
		return types.ComponentStatus{}, err
	}
	if err := fsutil.WriteFileAtomic(s.path(c), b, 0o644); err != nil {
		return types.ComponentStatus{}, fmt.Errorf("write %s status: %w", c, err)
	}
	return types.ComponentStatus{Installed: installed, Installing: installing, Timestamp: &ts}, nil
}

// All returns the status of every component.
func (s *Store) All() types.StatusResponse {
	return types.StatusResponse{
		ComfyUI: s.Read(types.ComponentComfyApp),
		Models:  s.Read(types.ComponentModels),
		Nodes:   s.Read(types.ComponentPlugins),
	}
}
