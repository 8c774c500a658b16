// Package output writes dedup.Match lists to disk. Match serialization
// lives outside the duplicate-finding core; it exists so this repo's
// driver has somewhere normative to write its results.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/mtreilly/dupfind/internal/dedup"
)

// ToJSONArray renders matches in the on-disk form downstream consumers
// replay: a JSON array whose elements are separated by ", ", with each
// element's fields in doc1_id, doc2_id, start_pos1, start_pos2, length
// order. This is a fixed textual contract, not a generic JSON encoding,
// so it is built by hand rather than via encoding/json (which inserts
// no space after ':' or ',').
func ToJSONArray(matches []dedup.Match) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf(
			`{"doc1_id": %d, "doc2_id": %d, "start_pos1": %d, "start_pos2": %d, "length": %d}`,
			m.Doc1ID, m.Doc2ID, m.StartPos1, m.StartPos2, m.Length,
		)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// WriteFile writes matches to path in the ToJSONArray form.
func WriteFile(path string, matches []dedup.Match) error {
	if err := os.WriteFile(path, []byte(ToJSONArray(matches)), 0o644); err != nil {
		return fmt.Errorf("write matches to %s: %w", path, err)
	}
	return nil
}
