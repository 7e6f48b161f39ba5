package docfmt

import "hash/fnv"

// Hash fingerprints raw file content so reloads can skip writes that did not
// change anything.
func Hash(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
