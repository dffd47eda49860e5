// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package sudrf

import (
	"context"
	"strings"

	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/utils/htmlutils"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// gbookHref is the citizens' appeals module; courts linking it accept
// filings online.
const gbookHref = "/modules.php?name=gbook"

// CheckElectronicFiling tells whether the court site offers online filing.
// Sites that cannot be reached are reported as unknown.
func (c *Client) CheckElectronicFiling(ctx context.Context, website string) courts.ElectronicFiling {
	if website == "" {
		return courts.FilingUnknown
	}

	if rest, ok := strings.CutPrefix(website, "http://"); ok {
		website = "https://" + rest
	}

	n, err := c.fetch(ctx, website, nil)
	if err != nil {
		log.Warn().Err(err).Str("website", website).Msg("court site unreachable")

		return courts.FilingUnknown
	}

	link := htmlutils.FindFirst(n, func(n *html.Node) bool {
		return htmlutils.IsElement(n, "a") && htmlutils.Attr(n, "href") == gbookHref
	})
	if link == nil {
		return courts.FilingNo
	}

	return courts.FilingYes
}

// UpdateElectronicFiling checks every record with a website, one at a time,
// and returns the updated copies. progress may be nil.
func (c *Client) UpdateElectronicFiling(ctx context.Context, records []courts.Record, progress func()) []courts.Record {
	ret := make([]courts.Record, len(records))

	for i, r := range records {
		if ctx.Err() != nil {
			ret[i] = r

			continue
		}

		if r.Website == "" {
			log.Warn().Str("court", r.Name).Msg("court has no website")

			r.ElectronicFiling = courts.FilingUnknown
		} else {
			r.ElectronicFiling = c.CheckElectronicFiling(ctx, r.Website)
		}

		ret[i] = r

		if progress != nil {
			progress()
		}
	}

	return ret
}
