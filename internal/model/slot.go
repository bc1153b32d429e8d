// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package model

import (
	"fmt"
	"strings"
)

// SlotType identifies a physical or logical media source on a player.
type SlotType int

const (
	// SlotUnknown marks a slot the finder could not classify; per the spec
	// boundary note, any slot outside {CD, SD, USB, Collection} is treated
	// as clearing the deck rather than as a distinct source.
	SlotUnknown SlotType = iota
	SlotCD
	SlotSD
	SlotUSB
	// SlotCollection represents rekordbox running on a desktop, reachable
	// on the network as the "collection" of a player's NFS export.
	SlotCollection
)

// String renders the slot for logging and cache keys.
func (s SlotType) String() string {
	switch s {
	case SlotCD:
		return "CD"
	case SlotSD:
		return "SD"
	case SlotUSB:
		return "USB"
	case SlotCollection:
		return "COLLECTION"
	default:
		return "UNKNOWN"
	}
}

// ParseSlotType parses the String() form of a SlotType, case-insensitively.
func ParseSlotType(s string) (SlotType, error) {
	switch strings.ToUpper(s) {
	case "CD":
		return SlotCD, nil
	case "SD":
		return SlotSD, nil
	case "USB":
		return SlotUSB, nil
	case "COLLECTION":
		return SlotCollection, nil
	default:
		return SlotUnknown, fmt.Errorf("model: unknown slot type %q", s)
	}
}

// Valid reports whether s is one of the four known slot types.
func (s SlotType) Valid() bool {
	switch s {
	case SlotCD, SlotSD, SlotUSB, SlotCollection:
		return true
	default:
		return false
	}
}

// NFSMountPath returns the path a file-transfer client mounts to read from
// this slot, per the dbserver/NFS bit contract. Only SD and USB are backed
// by a real mount; other slots have none.
func (s SlotType) NFSMountPath() (string, bool) {
	switch s {
	case SlotSD:
		return "/B/", true
	case SlotUSB:
		return "/C/", true
	default:
		return "", false
	}
}

// SlotRef identifies a specific media slot on a specific player.
type SlotRef struct {
	Player int
	Slot   SlotType
}

// String renders a stable key used for log fields and scratch file prefixes.
func (s SlotRef) String() string {
	return fmt.Sprintf("player-%d-slot-%s", s.Player, s.Slot)
}
