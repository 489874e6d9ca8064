/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package codec turns records into the byte payloads persisted by the
// key-value backends. Payloads are JSON documents, zstd compressed once
// they grow past a small threshold.
package codec

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the payload size, in bytes, from which payloads are compressed
const compressThreshold = 512

// zstd frames start with this magic number
var frameMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	once    sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	initErr error
)

func setup() error {
	once.Do(func() {
		encoder, initErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if initErr != nil {
			return
		}
		decoder, initErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(64<<20),
		)
	})
	return initErr
}

// Encode serializes value into a payload
func Encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal %T: %w", value, err)
	}

	if len(data) < compressThreshold {
		return data, nil
	}

	if err := setup(); err != nil {
		return nil, fmt.Errorf("codec: zstd setup: %w", err)
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode deserializes a payload produced by Encode into value
func Decode(payload []byte, value any) error {
	data := payload
	if Compressed(payload) {
		if err := setup(); err != nil {
			return fmt.Errorf("codec: zstd setup: %w", err)
		}

		var err error
		if data, err = decoder.DecodeAll(payload, nil); err != nil {
			return fmt.Errorf("codec: decompress: %w", err)
		}
	}

	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("codec: unmarshal %T: %w", value, err)
	}
	return nil
}

// Compressed reports whether the payload is a zstd frame
func Compressed(payload []byte) bool {
	return bytes.HasPrefix(payload, frameMagic)
}
