package fplapi

import (
	"context"

	"fpl-assistant/internal/dataset"
)

// EnrichLiveStatus overlays live availability from bootstrap onto every
// player in the snapshot: chance of playing, injury news and status.
// The CSV mirror lags the official API by hours, so without this a
// freshly injured player still looks available until the next upstream
// commit. Players bootstrap does not know get the fully-fit defaults.
func (c *Client) EnrichLiveStatus(ctx context.Context, d *dataset.Dataset) error {
	b, err := c.GetBootstrap(ctx)
	if err != nil {
		return err
	}

	live := make(map[int]Element, len(b.Elements))
	for _, e := range b.Elements {
		live[e.ID] = e
	}

	for i := range d.Players {
		p := &d.Players[i]

		el, ok := live[p.ID]
		if !ok {
			p.ChanceOfPlaying = 100
			p.News = ""
			p.Status = "a"
			continue
		}

		// A null chance upstream means no doubt has been raised.
		p.ChanceOfPlaying = 100
		if el.ChanceOfPlayingNextRound != nil {
			p.ChanceOfPlaying = *el.ChanceOfPlayingNextRound
		}
		p.News = el.News
		p.Status = el.Status
		if p.Status == "" {
			p.Status = "a"
		}
	}
	return nil
}
