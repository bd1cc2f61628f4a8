package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
)

// hashConfiguration computes a content hash of cfg used only to decide
// whether a write-back to the backing store is necessary ( §4.8
// point 5). gob+sha256 are both standard library: there is no serialization
// concern here worth pulling in a third-party codec for, since the encoding
// is never persisted or exchanged with another process — it exists purely
// as this package's internal change-detection key.
func hashConfiguration(cfg Configuration) [32]byte {
	var buf bytes.Buffer
	// gob.Encode on a value containing only structs/slices/arrays/bools never
	// errors; Configuration contains no channels, funcs or unsupported types.
	_ = gob.NewEncoder(&buf).Encode(cfg)
	return sha256.Sum256(buf.Bytes())
}
