package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// LayoutKeyOpts are the layout settings that change the computed positions.
type LayoutKeyOpts struct {
	HorizontalSpacing float64 `json:"hs"`
	VerticalSpacing   float64 `json:"vs"`
	StartX            float64 `json:"sx"`
	StartY            float64 `json:"sy"`
	DefaultWidth      float64 `json:"dw"`
	DefaultHeight     float64 `json:"dh"`
	MaxDepth          int     `json:"md"`
	Axis              string  `json:"axis,omitempty"`
}

// ExportKeyOpts are the settings that change a rendered export.
type ExportKeyOpts struct {
	Format   string  `json:"format"`
	Axis     string  `json:"axis,omitempty"`
	Curve    string  `json:"curve,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey keys a layout of the document with the given hash.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// ExportKey keys a rendered export of a laid out document.
	ExportKey(docHash string, opts ExportKeyOpts) string
}

// DefaultKeyer hashes every option into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ExportKey returns "export:<sha256>".
func (DefaultKeyer) ExportKey(docHash string, opts ExportKeyOpts) string {
	return hashKey("export", docHash, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
