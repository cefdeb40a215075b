// Package sonarcache reads the analysis cache the server keeps for the pull
// request base branch.
//
// The cache travels as a stream of varint length-delimited protobuf
// messages, optionally gzip-compressed:
//
//	message SensorCacheEntry {
//	  string key  = 1;
//	  bytes  data = 2;
//	}
package sonarcache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/scanbridge/scanbridge/internal/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldKey  protowire.Number = 1
	fieldData protowire.Number = 2
)

var gzipMagic = []byte{0x1f, 0x8b}

// Decode reads every entry of a cache stream. Gzip-compressed streams are
// detected from their header.
func Decode(r io.Reader) ([]domain.CacheEntry, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(gzipMagic)); err == nil && bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening compressed cache: %w", err)
		}
		defer zr.Close()
		r = zr
	} else {
		r = br
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	var entries []domain.CacheEntry
	for len(data) > 0 {
		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("reading cache entry %d: %w", len(entries), protowire.ParseError(n))
		}
		data = data[n:]

		entry, err := decodeEntry(msg)
		if err != nil {
			return nil, fmt.Errorf("decoding cache entry %d: %w", len(entries), err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeEntry(msg []byte) (domain.CacheEntry, error) {
	var e domain.CacheEntry
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return e, protowire.ParseError(n)
		}
		msg = msg[n:]

		switch {
		case num == fieldKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Key = string(v)
			msg = msg[n:]
		case num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			e.Hash = append([]byte(nil), v...)
			msg = msg[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			msg = msg[n:]
		}
	}
	return e, nil
}

// Encode writes entries in the stream format Decode reads, gzip-compressed
// when compress is set.
func Encode(w io.Writer, entries []domain.CacheEntry, compress bool) error {
	var buf []byte
	for _, e := range entries {
		var msg []byte
		msg = protowire.AppendTag(msg, fieldKey, protowire.BytesType)
		msg = protowire.AppendString(msg, e.Key)
		msg = protowire.AppendTag(msg, fieldData, protowire.BytesType)
		msg = protowire.AppendBytes(msg, e.Hash)
		buf = protowire.AppendBytes(buf, msg)
	}

	if !compress {
		_, err := w.Write(buf)
		return err
	}
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(buf); err != nil {
		zw.Close()
		return fmt.Errorf("compressing cache: %w", err)
	}
	return zw.Close()
}
