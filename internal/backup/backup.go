// ABOUTME: Backup service writing one file per variant and reading them back
// ABOUTME: Atomic temp-file writes; load failures are logged and yield empty results

package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/settings"
	"github.com/2389/profilevault/internal/store"
)

// SerializationError reports a failure to encode, decode, read or write a
// backup file.
type SerializationError struct {
	Op     string
	Path   string
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("backup %s %s (%s): %v", e.Op, e.Path, e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Service saves and restores profile backups.
type Service struct {
	logger *slog.Logger
}

// NewService creates a backup service. Pass nil logger for default.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger.With("component", "backup")}
}

// FileName returns the backup file name for a variant.
func FileName(v keys.Variant, f Format) string {
	return store.TableName(v) + "." + f.Ext()
}

// Save writes profiles to dir, one file per variant. Every known variant
// gets a file, empty when it has no profiles, so a later Load returns
// exactly what was saved. Each file is replaced atomically.
func (s *Service) Save(profiles []*store.Profile, dir string, f Format) error {
	if _, err := ParseFormat(string(f)); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &SerializationError{Op: "save", Path: dir, Format: f, Err: err}
	}

	groups := make(map[keys.Variant][]*store.Profile)
	for _, v := range keys.Known() {
		groups[v] = []*store.Profile{}
	}
	for _, p := range profiles {
		if p == nil {
			continue
		}
		c := p.Clone()
		c.EnsureID()
		if !c.Variant.IsKnown() {
			s.logger.Warn("saving profile with unknown variant", "id", c.ID, "variant", c.Variant)
		}
		groups[c.Variant] = append(groups[c.Variant], c)
	}

	variants := make([]keys.Variant, 0, len(groups))
	for v := range groups {
		variants = append(variants, v)
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })

	for _, v := range variants {
		path := filepath.Join(dir, FileName(v, f))
		data, err := encode(f, groups[v])
		if err != nil {
			return &SerializationError{Op: "encode", Path: path, Format: f, Err: err}
		}
		if err := writeAtomic(path, data); err != nil {
			return &SerializationError{Op: "write", Path: path, Format: f, Err: err}
		}
		s.logger.Debug("backup written", "path", path, "count", len(groups[v]))
	}

	s.logger.Info("backup saved", "dir", dir, "format", f, "count", len(profiles))
	return nil
}

// Load reads the backup files of every known variant from dir. Missing or
// unreadable files contribute nothing; failures are logged.
func (s *Service) Load(dir string, f Format) []*store.Profile {
	var all []*store.Profile
	for _, v := range keys.Known() {
		all = append(all, s.LoadVariant(dir, v, f)...)
	}
	return all
}

// LoadVariant reads the backup file of one variant. It never fails: a
// missing file or a decode error yields an empty result.
func (s *Service) LoadVariant(dir string, v keys.Variant, f Format) []*store.Profile {
	profiles, err := s.readVariant(dir, v, f)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no backup file", "variant", v, "dir", dir, "format", f)
		} else {
			s.logger.Warn("backup load failed", "variant", v, "error", err)
		}
		return []*store.Profile{}
	}
	return profiles
}

func (s *Service) readVariant(dir string, v keys.Variant, f Format) ([]*store.Profile, error) {
	path := filepath.Join(dir, FileName(v, f))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SerializationError{Op: "read", Path: path, Format: f, Err: err}
	}
	decoded, err := decode(f, data)
	if err != nil {
		return nil, &SerializationError{Op: "decode", Path: path, Format: f, Err: err}
	}

	out := make([]*store.Profile, 0, len(decoded))
	for _, p := range decoded {
		if p == nil {
			continue
		}
		if p.Variant == "" {
			p.Variant = v
		}
		p.Settings = settings.Canonicalize(p.Settings)
		out = append(out, p)
	}
	return out, nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
