// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package secretsharing

import (
	"encoding/binary"
	"fmt"
)

const (
	// ShareMagic prefixes every encoded share.
	ShareMagic = "SH"

	// ShareVersion is the only encoding version this package reads and writes.
	ShareVersion byte = 0x01

	// HeaderSize is the length of the fixed header preceding the y-values.
	HeaderSize = 9
)

// Share is one point set of a sharded secret: the x-coordinate shared by
// every byte position, the y-value of each byte's polynomial at X, and the
// threshold the secret was sharded with.
type Share struct {
	X         byte
	Threshold int
	Y         []byte
}

// Len returns the length of the secret this share belongs to.
func (s *Share) Len() int {
	return len(s.Y)
}

// Validate checks the structural invariants of a single share. It does not
// compare the share with any other.
func (s *Share) Validate() error {
	if s.Threshold == 0 {
		return ErrZeroThreshold
	}
	if s.Threshold < 0 || s.Threshold > MaxShares {
		return fmt.Errorf("%w: threshold %d out of range", ErrFormat, s.Threshold)
	}
	if s.X == 0 {
		return ErrZeroXCoordinate
	}
	if len(s.Y) == 0 {
		return ErrEmptyShare
	}
	return nil
}

// Encode serializes the share. The caller must ensure Validate passes;
// Encode does not re-check it.
func (s *Share) Encode() []byte {
	buf := make([]byte, HeaderSize+len(s.Y))
	copy(buf, ShareMagic)
	buf[2] = ShareVersion
	buf[3] = byte(s.Threshold)
	buf[4] = s.X
	binary.BigEndian.PutUint32(buf[5:HeaderSize], uint32(len(s.Y)))
	copy(buf[HeaderSize:], s.Y)
	return buf
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Share) MarshalBinary() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s.Encode(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Share) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeShare(data)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// DecodeShare parses an encoded share. The returned share does not alias data.
func DecodeShare(data []byte) (*Share, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedShare, len(data), HeaderSize)
	}
	if string(data[:2]) != ShareMagic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, data[:2])
	}
	if data[2] != ShareVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data[2])
	}
	if data[3] == 0 {
		return nil, ErrZeroThreshold
	}
	if data[4] == 0 {
		return nil, ErrZeroXCoordinate
	}
	length := binary.BigEndian.Uint32(data[5:HeaderSize])
	if length == 0 {
		return nil, ErrEmptyShare
	}
	body := data[HeaderSize:]
	if uint64(len(body)) < uint64(length) {
		return nil, fmt.Errorf("%w: have %d of %d y-values", ErrTruncatedShare, len(body), length)
	}
	if uint64(len(body)) > uint64(length) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrFormat, uint64(len(body))-uint64(length))
	}

	y := make([]byte, length)
	copy(y, body)
	return &Share{
		X:         data[4],
		Threshold: int(data[3]),
		Y:         y,
	}, nil
}

// String returns a description of the share header. The y-values are never
// printed.
func (s *Share) String() string {
	return fmt.Sprintf("Share{x=%d, threshold=%d, len=%d}", s.X, s.Threshold, len(s.Y))
}
