// Package snapshot serializes a built model for comparison and archival.
//
// A Snapshot holds the kernel entities a Recorder created plus a summary of
// every block. It is encoded with CBOR Core Deterministic Encoding, so equal
// models always produce identical bytes, and fingerprinted with BLAKE3.
package snapshot

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Version is the snapshot format version written by Marshal.
const Version = 1

// Snapshot is the serialized form of a build.
type Snapshot struct {
	Version  int             `cbor:"version"`
	Entities kernel.Entities `cbor:"entities"`
	Blocks   []BlockRecord   `cbor:"blocks"`
}

// BlockRecord summarizes one block of the tree.
type BlockRecord struct {
	Name       string     `cbor:"name"`
	Parent     int        `cbor:"parent"` // -1 for the root
	Volume     geom.Tag   `cbor:"volume"`
	Shells     []geom.Tag `cbor:"shells"`
	Zone       string     `cbor:"zone,omitempty"`
	Registered bool       `cbor:"registered"`
	Structured bool       `cbor:"structured"`
	Quadrated  bool       `cbor:"quadrated"`
	Seq        int        `cbor:"seq"`
}

// Fingerprint is the BLAKE3-256 digest of an encoded snapshot.
type Fingerprint [32]byte

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("snapshot: CBOR decoder initialization failed: " + err.Error())
	}
}

// New captures ents and the blocks of t. t may be nil.
func New(ents kernel.Entities, t *block.Tree) *Snapshot {
	s := &Snapshot{Version: Version, Entities: ents}
	if t == nil {
		return s
	}
	for h := block.Handle(0); int(h) < t.Len(); h++ {
		b := t.Block(h)
		rec := BlockRecord{
			Name:       b.Name,
			Parent:     int(b.Parent),
			Zone:       b.Zone,
			Registered: b.IsRegistered(),
			Structured: b.IsStructured(),
			Quadrated:  b.IsQuadrated(),
			Seq:        b.RegisterSeq(),
		}
		if b.Volume != nil {
			rec.Volume = b.Volume.Tag
		}
		for _, sh := range b.Shells {
			rec.Shells = append(rec.Shells, sh.Tag)
		}
		s.Blocks = append(s.Blocks, rec)
	}
	return s
}

// Marshal encodes s deterministically.
func Marshal(s *Snapshot) ([]byte, error) {
	data, err := encMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data and checks its version.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d, want %d", s.Version, Version)
	}
	return &s, nil
}

// Sum fingerprints encoded snapshot bytes.
func Sum(data []byte) Fingerprint {
	return Fingerprint(blake3.Sum256(data))
}

// WriteFile encodes s to path and returns its fingerprint.
func WriteFile(path string, s *Snapshot) (Fingerprint, error) {
	data, err := Marshal(s)
	if err != nil {
		return Fingerprint{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Fingerprint{}, fmt.Errorf("snapshot: %w", err)
	}
	return Sum(data), nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) (*Snapshot, Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Fingerprint{}, fmt.Errorf("snapshot: %w", err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return nil, Fingerprint{}, err
	}
	return s, Sum(data), nil
}
