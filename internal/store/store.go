// ABOUTME: ProfileStore interface and the Profile entity persisted by it
// ABOUTME: Defines store errors and id generation for new profiles

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/settings"
)

// ErrNotFound is returned when a requested profile does not exist
var ErrNotFound = errors.New("not found")

// ErrUnknownVariant is returned when a profile's variant has no table
var ErrUnknownVariant = errors.New("unknown variant")

// PersistenceError wraps an I/O or SQL failure with the store operation that
// hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Profile is a named bundle of one user's configuration for one variant.
type Profile struct {
	ID           string       `json:"id" yaml:"id" toml:"id" xml:"id"`
	Name         string       `json:"name" yaml:"name" toml:"name" xml:"name"`
	Variant      keys.Variant `json:"variant" yaml:"variant" toml:"variant" xml:"variant"`
	Membership   bool         `json:"membership_status" yaml:"membership_status" toml:"membership_status" xml:"membership_status"`
	Mode         string       `json:"mode" yaml:"mode" toml:"mode" xml:"mode"`
	Playstyle    string       `json:"playstyle" yaml:"playstyle" toml:"playstyle" xml:"playstyle"`
	AutoProfiler bool         `json:"autoprofiler" yaml:"autoprofiler" toml:"autoprofiler" xml:"autoprofiler"`
	Settings     settings.Map `json:"settings_map" yaml:"settings_map" toml:"settings_map" xml:"settings_map"`
	Notes        string       `json:"notes" yaml:"notes" toml:"notes" xml:"notes"`
	LastUpdated  int64        `json:"last_updated" yaml:"last_updated" toml:"last_updated" xml:"last_updated"` // epoch millis
}

// NewProfile creates a profile with a fresh id and empty settings.
func NewProfile(name string, variant keys.Variant) *Profile {
	return &Profile{
		ID:          NewID(),
		Name:        name,
		Variant:     variant,
		Settings:    settings.Map{},
		LastUpdated: time.Now().UnixMilli(),
	}
}

// NewID generates a profile id (UUID v7, falling back to v4).
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// EnsureID assigns a fresh id when p has none and reports whether it did.
func (p *Profile) EnsureID() bool {
	if p.ID != "" {
		return false
	}
	p.ID = NewID()
	return true
}

// Touch sets LastUpdated to t.
func (p *Profile) Touch(t time.Time) {
	p.LastUpdated = t.UnixMilli()
}

// UpdatedAt returns LastUpdated as a time.
func (p *Profile) UpdatedAt() time.Time {
	return time.UnixMilli(p.LastUpdated)
}

// Clone returns a deep copy of p. The settings of the copy are never nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Settings = p.Settings.Clone()
	return &c
}

// ProfileStore defines the interface for profile persistence
type ProfileStore interface {
	// InitSchema creates missing tables. Safe to call on every startup.
	InitSchema(ctx context.Context) error

	// UpsertBatch writes every profile in one transaction. Profiles without
	// an id get one assigned.
	UpsertBatch(ctx context.Context, profiles []*Profile) error

	LoadAll(ctx context.Context) ([]*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store
	Close() error
}
