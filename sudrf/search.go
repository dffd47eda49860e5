// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package sudrf

import (
	"context"
	"fmt"
	"net/url"

	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/utils/htmlutils"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// Candidate is a court returned by an address search.
type Candidate struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

func searchParams(region string, c courts.Category) url.Values {
	params := url.Values{}
	params.Set("id", "300")
	params.Set("court_subj", region)

	if c == courts.Local {
		params.Set("act", "go_ms_search")
		params.Set("searchtype", "ms")
	} else {
		params.Set("act", "go_search")
		params.Set("searchtype", "fs")
	}

	return params
}

// Search asks the registry which courts of category serve address. Results
// keep the registry order.
func (c *Client) Search(ctx context.Context, address string, category courts.Category) ([]Candidate, error) {
	log.Debug().Str("address", address).Stringer("category", category).Msg("sudrf: address search")

	n, err := c.fetch(ctx, c.searchURL(searchParams(c.region, category)), url.Values{"court_addr": {address}})
	if err != nil {
		return nil, fmt.Errorf("sudrf search: %w", err)
	}

	var ret []Candidate
	if category == courts.Local {
		ret = parseLocalSearch(n)
	} else {
		ret = parseDistrictSearch(n)
	}

	log.Debug().Int("candidates", len(ret)).Msg("sudrf: address search done")

	return ret, nil
}

// Magistrate results are table rows: the second td links the section name,
// the fifth td links its site.
func parseLocalSearch(n *html.Node) []Candidate {
	var ret []Candidate

	for _, row := range htmlutils.FindAll(n, htmlutils.ByTag("tr")) {
		cells := htmlutils.Children(row, "td")
		if len(cells) < 2 {
			continue
		}

		nameLink := htmlutils.FindFirst(cells[1], htmlutils.ByTag("a"))
		if nameLink == nil {
			continue
		}

		candidate := Candidate{Name: htmlutils.Text(nameLink)}

		if len(cells) >= 5 {
			if siteLink := htmlutils.FindFirst(cells[4], htmlutils.ByTag("a")); siteLink != nil {
				candidate.Website = htmlutils.Attr(siteLink, "href")
			}
		}

		ret = append(ret, candidate)
	}

	return ret
}

// District court results are list items with an "a.court-result" name and
// a link opening the court site.
func parseDistrictSearch(n *html.Node) []Candidate {
	var ret []Candidate

	for _, item := range htmlutils.FindAll(n, htmlutils.ByTag("li")) {
		nameLink := htmlutils.FindFirst(item, htmlutils.ByTagClass("a", "court-result"))
		if nameLink == nil {
			continue
		}

		candidate := Candidate{Name: htmlutils.Text(nameLink)}

		if siteLink := htmlutils.FindFirst(item, blankTarget); siteLink != nil {
			candidate.Website = htmlutils.Attr(siteLink, "href")
		}

		ret = append(ret, candidate)
	}

	return ret
}

func blankTarget(n *html.Node) bool {
	return htmlutils.IsElement(n, "a") && htmlutils.Attr(n, "target") == "_blank"
}
