// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package dbserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/deepspin/trackcore/internal/model"
)

// Dialer opens a connection to a player's dbserver port. The real
// connection-establishment handshake (port discovery, the initial greeting
// exchange) is out of this core's scope; Dialer is the seam a caller fills
// in with that transport.
type Dialer interface {
	Dial(ctx context.Context, player int) (net.Conn, error)
}

// Client implements resolver.LiveFetcher by issuing menu requests over a
// connection obtained from a Dialer.
type Client struct {
	dial        Dialer
	menuTimeout time.Duration
}

// NewClient constructs a Client with the default 20-second per-request
// timeout.
func NewClient(dial Dialer) *Client {
	return &Client{dial: dial, menuTimeout: 20 * time.Second}
}

// FetchLive implements resolver.LiveFetcher, dispatching to the
// request/response pair for kind.
func (c *Client) FetchLive(ctx context.Context, track model.DataRef, kind model.AssetKind, media model.MediaDetails, tag model.TagKey) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.menuTimeout)
	defer cancel()

	switch kind {
	case model.AssetAnalysisTag:
		return c.fetchAnalysisTag(ctx, track, tag)
	case model.AssetBeatGrid:
		return c.fetchBeatGrid(ctx, track)
	case model.AssetAlbumArt:
		return c.fetchAlbumArt(ctx, track)
	case model.AssetCueList:
		return c.fetchCueList(ctx, track)
	case model.AssetWaveformPreview, model.AssetWaveformDetail:
		return c.fetchWaveform(ctx, track, kind, model.WaveformRGB)
	default:
		return nil, fmt.Errorf("dbserver: unsupported asset kind %s", kind)
	}
}

func (c *Client) roundTrip(ctx context.Context, player int, req Message) (Message, error) {
	conn, err := c.dial.Dial(ctx, player)
	if err != nil {
		return Message{}, fmt.Errorf("dbserver: dial player %d: %w", player, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(req.encode()); err != nil {
		return Message{}, fmt.Errorf("dbserver: write request: %w", err)
	}

	buf := make([]byte, 64*1024)
	n, err := conn.Read(buf)
	if err != nil {
		return Message{}, fmt.Errorf("dbserver: read response: %w", err)
	}
	resp, err := decodeMessage(buf[:n])
	if err != nil {
		return Message{}, err
	}
	return resp, nil
}

// fetchAnalysisTag fetches an arbitrary tagged section, skipping the
// response's 4-byte length prefix on the tag argument before treating the
// remainder as the section body.
func (c *Client) fetchAnalysisTag(ctx context.Context, track model.DataRef, tag model.TagKey) (model.TaggedSection, error) {
	typeTagCC, err := FourCCEncode(tag.TypeTag)
	if err != nil {
		return model.TaggedSection{}, err
	}
	fileExtCC, err := FourCCEncode(tag.FileExt)
	if err != nil {
		return model.TaggedSection{}, err
	}
	req := Message{
		Type: reqAnalysisTag,
		Args: []arg{
			numberArg(rmst(menuTargetMain, track.Slot.Slot)),
			numberArg(uint32(track.RekordboxID)),
			binaryArg(typeTagCC[:]),
			binaryArg(fileExtCC[:]),
		},
	}
	resp, err := c.roundTrip(ctx, track.Slot.Player, req)
	if err != nil {
		return model.TaggedSection{}, err
	}
	if resp.Type != respAnalysisTag || len(resp.Args) < 4 {
		return model.TaggedSection{}, fmt.Errorf("dbserver: unexpected analysis tag response")
	}
	payload := resp.Args[3].data
	if len(payload) < 4 {
		return model.TaggedSection{}, fmt.Errorf("dbserver: analysis tag response payload too short")
	}
	return model.TaggedSection{FileExt: tag.FileExt, TypeTag: tag.TypeTag, Body: payload[4:]}, nil
}

func (c *Client) fetchBeatGrid(ctx context.Context, track model.DataRef) (*model.BeatGrid, error) {
	req := Message{
		Type: reqBeatGrid,
		Args: []arg{
			numberArg(rmst(menuTargetData, track.Slot.Slot)),
			numberArg(uint32(track.RekordboxID)),
		},
	}
	resp, err := c.roundTrip(ctx, track.Slot.Player, req)
	if err != nil {
		return nil, err
	}
	if resp.Type != respBeatGrid || len(resp.Args) < 1 {
		return nil, fmt.Errorf("dbserver: unexpected beat grid response")
	}
	return model.DecodeBeatGrid(resp.Args[0].data)
}

func (c *Client) fetchAlbumArt(ctx context.Context, track model.DataRef) (model.AlbumArt, error) {
	req := Message{
		Type: reqAlbumArt,
		Args: []arg{
			numberArg(rmst(menuTargetData, track.Slot.Slot, model.TrackTypeRekordbox)),
			numberArg(uint32(track.RekordboxID)),
			numberArg(1), // request high-resolution art when available
		},
	}
	resp, err := c.roundTrip(ctx, track.Slot.Player, req)
	if err != nil {
		return model.AlbumArt{}, err
	}
	if resp.Type != respAlbumArt || len(resp.Args) < 1 {
		return model.AlbumArt{}, fmt.Errorf("dbserver: unexpected album art response")
	}
	return model.AlbumArt{Ref: track, Bytes: resp.Args[0].data}, nil
}

func (c *Client) fetchCueList(ctx context.Context, track model.DataRef) (*model.CueList, error) {
	req := Message{
		Type: reqCueListExt,
		Args: []arg{
			numberArg(rmst(menuTargetMain, track.Slot.Slot)),
			numberArg(uint32(track.RekordboxID)),
		},
	}
	resp, err := c.roundTrip(ctx, track.Slot.Player, req)
	if err == nil && resp.Type == respCueListExt && len(resp.Args) >= 1 {
		return model.BuildCueList(map[string][]byte{"PCO2": resp.Args[0].data}), nil
	}

	req.Type = reqCueList
	resp, err = c.roundTrip(ctx, track.Slot.Player, req)
	if err != nil {
		return nil, err
	}
	if resp.Type != respCueList || len(resp.Args) < 1 {
		return nil, fmt.Errorf("dbserver: unexpected cue list response")
	}
	return model.BuildCueList(map[string][]byte{"PCOB": resp.Args[0].data}), nil
}

// fetchWaveform walks the variant fallback chain, issuing one request per
// variant actually attempted until one succeeds.
func (c *Client) fetchWaveform(ctx context.Context, track model.DataRef, kind model.AssetKind, preferred model.WaveformVariant) (model.Waveform, error) {
	var fetched []byte
	var fetchErr error

	variant, ok := model.PreferredVariant(preferred, func(v model.WaveformVariant) bool {
		reqType, respType := waveformRequestTypes(kind)
		req := Message{
			Type: reqType,
			Args: []arg{
				numberArg(rmst(menuTargetData, track.Slot.Slot)),
				numberArg(uint32(track.RekordboxID)),
				numberArg(uint32(v)),
			},
		}
		resp, err := c.roundTrip(ctx, track.Slot.Player, req)
		if err != nil {
			fetchErr = err
			return false
		}
		if resp.Type != respType || len(resp.Args) < 1 {
			return false
		}
		fetched = resp.Args[0].data
		return true
	})
	if !ok {
		if fetchErr != nil {
			return model.Waveform{}, fetchErr
		}
		return model.Waveform{}, fmt.Errorf("dbserver: no waveform variant available for %s", track)
	}
	return model.Waveform{Ref: track, Variant: variant, Data: fetched}, nil
}

func waveformRequestTypes(kind model.AssetKind) (requestType, requestType) {
	if kind == model.AssetWaveformDetail {
		return reqWaveformDetail, respWaveformDetail
	}
	return reqWaveformPreview, respWaveformPreview
}
