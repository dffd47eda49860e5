// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package sudrf

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/podsudnost/podsudnost/utils/htmlutils"
	"golang.org/x/net/html"
)

// CatalogEntry is a court as listed by the registry catalog.
type CatalogEntry struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// Details is the contact information published on a court site.
type Details struct {
	Address   string
	Phone     string
	Email     string
	Territory string
}

const (
	labelCode    = "Классификационный код:"
	labelAddress = "Адрес:"
	labelPhone   = "Телефон:"
)

// labelValue returns the text following the <b>label</b> element in n.
func labelValue(n *html.Node, label string) string {
	b := htmlutils.FindFirst(n, func(n *html.Node) bool {
		return htmlutils.IsElement(n, "b") && htmlutils.Text(n) == label
	})
	if b == nil || b.NextSibling == nil {
		return ""
	}

	if b.NextSibling.Type == html.TextNode {
		return strings.Join(strings.Fields(b.NextSibling.Data), " ")
	}

	return htmlutils.Text(b.NextSibling)
}

func hasAttrPrefix(n *html.Node, tag, attr, prefix string) bool {
	return htmlutils.IsElement(n, tag) && strings.HasPrefix(htmlutils.Attr(n, attr), prefix)
}

// ListLocal retrieves every magistrate section of the region.
func (c *Client) ListLocal(ctx context.Context) ([]CatalogEntry, error) {
	params := url.Values{}
	params.Set("id", "300")
	params.Set("act", "go_ms_search")
	params.Set("searchtype", "ms")
	params.Set("var", "true")
	params.Set("ms_type", "ms")
	params.Set("ms_subj", c.region)

	n, err := c.fetch(ctx, c.searchURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("listing magistrate sections: %w", err)
	}

	return parseLocalCatalog(n), nil
}

func parseLocalCatalog(n *html.Node) []CatalogEntry {
	var ret []CatalogEntry

	for _, table := range htmlutils.FindAll(n, htmlutils.ByTagClass("table", "msSearchResultTbl")) {
		for _, row := range htmlutils.FindAll(table, htmlutils.ByTag("tr")) {
			nameLink := htmlutils.FindFirst(row, func(n *html.Node) bool {
				return hasAttrPrefix(n, "a", "onclick", "listcontrol")
			})
			if nameLink == nil {
				continue
			}

			info := htmlutils.FindFirst(row, htmlutils.ByTagClass("div", "courtInfoCont"))
			if info == nil {
				continue
			}

			code := labelValue(info, labelCode)
			if code == "" {
				continue
			}

			entry := CatalogEntry{
				Name: htmlutils.Text(nameLink),
				Code: code,
			}

			if site := htmlutils.FindFirst(info, blankTarget); site != nil {
				entry.Website = htmlutils.Attr(site, "href")
			}

			ret = append(ret, entry)
		}
	}

	return ret
}

// ListDistrict retrieves every federal court of the region.
func (c *Client) ListDistrict(ctx context.Context) ([]CatalogEntry, error) {
	params := url.Values{}
	params.Set("id", "300")
	params.Set("act", "go_search")
	params.Set("searchtype", "fs")
	params.Set("court_name", "")
	params.Set("court_subj", c.region)
	params.Set("court_type", "0")
	params.Set("court_okrug", "0")
	params.Set("vcourt_okrug", "0")

	n, err := c.fetch(ctx, c.searchURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("listing federal courts: %w", err)
	}

	return parseDistrictCatalog(n), nil
}

func parseDistrictCatalog(n *html.Node) []CatalogEntry {
	var ret []CatalogEntry

	for _, item := range htmlutils.FindAll(n, htmlutils.ByTag("li")) {
		nameLink := htmlutils.FindFirst(item, htmlutils.ByTagClass("a", "court-result"))
		if nameLink == nil {
			continue
		}

		info := htmlutils.FindFirst(item, htmlutils.ByTagClass("div", "courtInfoCont"))
		if info == nil {
			continue
		}

		entry := CatalogEntry{
			Name:    htmlutils.Text(nameLink),
			Code:    labelValue(info, labelCode),
			Address: labelValue(info, labelAddress),
			Phone:   labelValue(info, labelPhone),
		}

		if email := htmlutils.FindFirst(info, func(n *html.Node) bool {
			return htmlutils.IsElement(n, "a") && strings.Contains(htmlutils.Attr(n, "href"), "mailto:")
		}); email != nil {
			entry.Email = htmlutils.Text(email)
		}

		if site := htmlutils.FindFirst(info, func(n *html.Node) bool {
			href := htmlutils.Attr(n, "href")

			return htmlutils.IsElement(n, "a") && strings.Contains(href, "sudrf.ru") && !strings.Contains(href, "mailto:")
		}); site != nil {
			entry.Website = htmlutils.Attr(site, "href")
		}

		ret = append(ret, entry)
	}

	return ret
}

// CourtDetails scrapes the contact block and the served territory of a
// court site.
func (c *Client) CourtDetails(ctx context.Context, site string) (*Details, error) {
	site = strings.TrimRight(site, "/")

	n, err := c.fetch(ctx, site, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching court site %s: %w", site, err)
	}

	ret := parseDetails(n)

	terr, err := c.fetch(ctx, site+"/modules.php?name=sud_delo&op=terr", nil)
	if err != nil {
		return ret, fmt.Errorf("fetching territory of %s: %w", site, err)
	}

	ret.Territory = parseTerritory(terr)

	return ret, nil
}

func byID(tag, id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return htmlutils.IsElement(n, tag) && htmlutils.Attr(n, "id") == id
	}
}

func parseDetails(n *html.Node) *Details {
	ret := &Details{}

	if p := htmlutils.FindFirst(n, byID("p", "court_address")); p != nil {
		ret.Address = htmlutils.Text(p)
	}

	if p := htmlutils.FindFirst(n, htmlutils.ByTagClass("p", "person-phone")); p != nil {
		if span := htmlutils.FindFirst(p, htmlutils.ByTagClass("span", "right")); span != nil {
			ret.Phone = htmlutils.Text(span)
		}
	}

	if p := htmlutils.FindFirst(n, byID("p", "court_email")); p != nil {
		ret.Email = htmlutils.Text(p)
	}

	return ret
}

func parseTerritory(n *html.Node) string {
	elem := htmlutils.FindFirst(n, htmlutils.ByTagClass("div", "content"))
	if elem == nil {
		elem = htmlutils.FindFirst(n, htmlutils.ByTag("table"))
	}

	if elem == nil {
		return ""
	}

	return htmlutils.Text(elem)
}
