// Package contenthash computes the file digests compared against the
// server's pull request analysis cache.
package contenthash

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
)

// byteOrderMarks are the UTF-8, UTF-16LE and UTF-16BE signatures, checked
// in order.
var byteOrderMarks = [][]byte{
	{0xEF, 0xBB, 0xBF},
	{0xFF, 0xFE},
	{0xFE, 0xFF},
}

// Hasher implements domain.ContentHasher.
type Hasher struct{}

func New() *Hasher {
	return &Hasher{}
}

// Hash returns the SHA-256 of the file content with its byte order mark
// removed.
func (h *Hasher) Hash(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Sum(data)
}

// Sum hashes in-memory content the same way Hash hashes a file. The body
// after the byte order mark is hashed as stored: files in a legacy code
// page are not valid UTF-8 and must not be folded onto one another by a
// decode.
func Sum(data []byte) ([]byte, error) {
	sum := sha256.Sum256(stripBOM(data))
	return sum[:], nil
}

func stripBOM(data []byte) []byte {
	for _, bom := range byteOrderMarks {
		if bytes.HasPrefix(data, bom) {
			return data[len(bom):]
		}
	}
	return data
}
