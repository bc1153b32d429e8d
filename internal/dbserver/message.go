// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package dbserver implements the menu request/response protocol used to
// fetch per-track assets live from a player that hasn't already had its
// database and analysis files acquired locally. It is a self-consistent
// reimplementation of the request/response shapes described for this core
// (request type, a small fixed argument list, length-prefixed binary
// arguments); it does not claim byte-for-byte compatibility with any real
// player's wire format.
package dbserver

import (
	"encoding/binary"
	"fmt"

	"github.com/deepspin/trackcore/internal/model"
)

// requestType identifies a menu request/response pair.
type requestType uint16

const (
	reqAnalysisTag requestType = 0x2002
	respAnalysisTag requestType = 0x4002

	reqBeatGrid  requestType = 0x2204
	respBeatGrid requestType = 0x4204

	reqAlbumArt  requestType = 0x2030
	respAlbumArt requestType = 0x4030

	reqCueListExt  requestType = 0x2104
	respCueListExt requestType = 0x4104
	reqCueList     requestType = 0x2105
	respCueList    requestType = 0x4105

	reqWaveformPreview  requestType = 0x2052
	respWaveformPreview requestType = 0x4052
	reqWaveformDetail   requestType = 0x2053
	respWaveformDetail  requestType = 0x4053
)

// argType identifies the wire representation of a single message argument.
type argType byte

const (
	argTypeNumber argType = 0x06
	argTypeBinary argType = 0x03
)

// arg is one length-prefixed argument in a Message.
type arg struct {
	kind argType
	data []byte
}

func numberArg(v uint32) arg {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return arg{kind: argTypeNumber, data: b}
}

func binaryArg(b []byte) arg {
	return arg{kind: argTypeBinary, data: b}
}

func (a arg) asUint32() uint32 {
	if len(a.data) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(a.data)
}

// Message is a single framed request or response: a transaction id, a
// request type, and its argument list.
type Message struct {
	TransactionID uint32
	Type          requestType
	Args          []arg
}

// encode serializes m as: transaction id (4 bytes), type (2 bytes), arg
// count (1 byte), then each arg as kind (1 byte), length (4 bytes), payload.
func (m Message) encode() []byte {
	buf := make([]byte, 0, 7+len(m.Args)*9)
	var hdr [7]byte
	binary.BigEndian.PutUint32(hdr[0:4], m.TransactionID)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(m.Type))
	hdr[6] = byte(len(m.Args))
	buf = append(buf, hdr[:]...)
	for _, a := range m.Args {
		var argHdr [5]byte
		argHdr[0] = byte(a.kind)
		binary.BigEndian.PutUint32(argHdr[1:5], uint32(len(a.data)))
		buf = append(buf, argHdr[:]...)
		buf = append(buf, a.data...)
	}
	return buf
}

// decodeMessage parses the framing encode produces back into a Message.
func decodeMessage(b []byte) (Message, error) {
	if len(b) < 7 {
		return Message{}, fmt.Errorf("dbserver: message too short (%d bytes)", len(b))
	}
	m := Message{
		TransactionID: binary.BigEndian.Uint32(b[0:4]),
		Type:          requestType(binary.BigEndian.Uint16(b[4:6])),
	}
	count := int(b[6])
	off := 7
	for i := 0; i < count; i++ {
		if off+5 > len(b) {
			return Message{}, fmt.Errorf("dbserver: truncated argument header at offset %d", off)
		}
		kind := argType(b[off])
		length := int(binary.BigEndian.Uint32(b[off+1 : off+5]))
		off += 5
		if off+length > len(b) {
			return Message{}, fmt.Errorf("dbserver: truncated argument payload at offset %d", off)
		}
		m.Args = append(m.Args, arg{kind: kind, data: b[off : off+length]})
		off += length
	}
	return m, nil
}

// menuTarget distinguishes the two menu roots a request can be scoped to:
// the slot's main track menu, or its raw data/analysis menu.
type menuTarget byte

const (
	menuTargetMain menuTarget = 0
	menuTargetData menuTarget = 1
)

// RMST packs a menu request's scope into a single argument: the menu
// target, the slot, and — for album art requests only — the track type
// distinguishing a rekordbox track from an unanalyzed one. Slot bytes reuse
// SlotType's own numbering directly, since this is a self-consistent
// protocol with no external wire format to match.
func rmst(target menuTarget, slot model.SlotType, trackType ...model.TrackType) uint32 {
	var tt model.TrackType
	if len(trackType) > 0 {
		tt = trackType[0]
	}
	return uint32(target)<<24 | uint32(byte(slot))<<16 | uint32(byte(tt))<<8
}

// FourCCEncode packs s (at most 4 ASCII characters) into the four-character
// code wire form: right-padded with zero bytes to 4 characters, packed
// big-endian, then stored byte-reversed (effectively little-endian). The
// reversal round-trips through FourCCDecode; it has no meaning beyond being
// this wire format's documented convention.
func FourCCEncode(s string) ([4]byte, error) {
	if len(s) > 4 {
		return [4]byte{}, fmt.Errorf("dbserver: four-character code %q longer than 4 bytes", s)
	}
	var padded [4]byte
	copy(padded[:], s)
	var out [4]byte
	for i := 0; i < 4; i++ {
		out[i] = padded[3-i]
	}
	return out, nil
}

// FourCCDecode reverses FourCCEncode, trimming the zero padding back off.
func FourCCDecode(b [4]byte) string {
	var un [4]byte
	for i := 0; i < 4; i++ {
		un[i] = b[3-i]
	}
	n := 4
	for n > 0 && un[n-1] == 0 {
		n--
	}
	return string(un[:n])
}
