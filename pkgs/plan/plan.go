// Package plan captures the product of a successful check pass: every stage
// reference in tree order together with its fully-substituted commands.
// Plans are written to disk for audit so a run can be reviewed before or
// after the fact without re-resolving the script.
package plan

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Plan is a serializable snapshot of a checked pipeline.
type Plan struct {
	Script    string    `cbor:"script"`    // source path or description
	Input     string    `cbor:"input"`     // starting filename, if any
	CreatedAt time.Time `cbor:"createdAt"` // when the check pass completed
	Stages    []Stage   `cbor:"stages"`    // stage references in tree order
}

// Stage is one resolved stage reference.
type Stage struct {
	Name     string   `cbor:"name"`
	Commands []string `cbor:"commands"` // fully substituted, declaration order
}

// encMode is a deterministic CBOR encoder so equal plans produce equal
// bytes and the digest is stable.
var encMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	encMode, err = opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("plan: building CBOR encoder: %v", err))
	}
}

// Encode writes the plan in canonical CBOR.
func (p *Plan) Encode(w io.Writer) error {
	data, err := encMode.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}

// Decode reads a plan previously written by Encode.
func Decode(r io.Reader) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var p Plan
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &p, nil
}

// Digest returns the SHA-256 of the plan's canonical encoding.
func (p *Plan) Digest() ([32]byte, error) {
	data, err := encMode.Marshal(p)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encoding plan for digest: %w", err)
	}
	return sha256.Sum256(data), nil
}
