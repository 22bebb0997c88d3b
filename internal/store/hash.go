package store

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sermonrefs/core/scripture"
)

// Hash returns the hex BLAKE3 digest identifying a verse's content within
// a translation. Provenance is not part of the hash, so the same text
// imported twice under different sources is still a duplicate.
func Hash(translation string, v scripture.Verse) string {
	var b strings.Builder
	b.WriteString(translation)
	b.WriteByte(0x1f)
	b.WriteString(v.Book)
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(v.Chapter))
	b.WriteByte(0x1f)
	b.WriteString(v.Verse.String())
	b.WriteByte(0x1f)
	b.WriteString(v.Text)

	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
