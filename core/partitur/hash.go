package partitur

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Fingerprint hashes the canonical transcription (KAN tier content in index
// order) of a document. The pre- and post-alignment files of one writer
// invocation carry the same KAN tier, so differing fingerprints are early
// evidence that two files do not belong together.
func Fingerprint(doc *Document) string {
	var b strings.Builder
	for _, w := range doc.Words {
		fmt.Fprintf(&b, "%d %s\n", w.Index, strings.Join(w.Phonemes, " "))
	}
	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
