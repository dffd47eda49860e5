// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils provides utility functions for working with HTML.
package htmlutils

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Node2string appends the text of n and its descendants to sb, joining
// text nodes with a single space and collapsing inner whitespace.
func Node2string(n *html.Node, sb *strings.Builder) (err error) {
	if n.Type == html.TextNode {
		tmp := strings.Join(strings.Fields(n.Data), " ")

		// registry pages are served as windows-1251, so a REPLACEMENT
		// CHARACTER (U+FFFD) means we decoded with the wrong charset
		if idx := strings.IndexRune(tmp, utf8.RuneError); idx != -1 {
			return fmt.Errorf("charset missmatch found: `%s'", tmp)
		}

		if len(tmp) > 0 {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}
	} else {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			err = Node2string(child, sb)
			if err != nil {
				break
			}
		}
	}

	return err
}

// Text returns the text content of n. Decoding problems are ignored.
func Text(n *html.Node) string {
	sb := strings.Builder{}
	_ = Node2string(n, &sb)

	return sb.String()
}

// Validates that response seems to be an HTML response.
func hasHTMLContentType(media string) bool {
	const expectedMedia = "text/html"

	return strings.EqualFold(
		expectedMedia,
		media[0:min(len(media), len(expectedMedia))],
	)
}

// AsReader converts an HTTP response body to an io.Reader with the correct charset.
func AsReader(resp *http.Response) (io.Reader, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	media := resp.Header.Get("Content-Type")
	if !hasHTMLContentType(media) {
		return nil, fmt.Errorf("media type is %s", media)
	}

	rr, err := charset.NewReader(resp.Body, media)
	if err != nil {
		return nil, err
	}

	return rr, nil
}

// AsNode parses an io.Reader as an HTML node.
func AsNode(r io.Reader) (*html.Node, error) {
	n, err := html.Parse(r)
	if nil != err {
		return nil, fmt.Errorf("parsing body as HTML: %w", err)
	}

	return n, nil
}

/////////////////////////////////////////
/// Tree navigation

// Attr returns the value of the attribute key, or "" when missing.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}

	return ""
}

// HasClass reports whether n lists class in its class attribute.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}

	return false
}

// IsElement reports whether n is an element with the given tag.
func IsElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}

// FindAll returns the descendants of n matching pred, in document order.
// Matching nodes are not searched further.
func FindAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var ret []*html.Node

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if pred(child) {
			ret = append(ret, child)
		} else {
			ret = append(ret, FindAll(child, pred)...)
		}
	}

	return ret
}

// FindFirst returns the first descendant of n matching pred, or nil.
func FindFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if pred(child) {
			return child
		}

		if found := FindFirst(child, pred); found != nil {
			return found
		}
	}

	return nil
}

// Children returns the element children of n with the given tag.
func Children(n *html.Node, tag string) []*html.Node {
	var ret []*html.Node

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if IsElement(child, tag) {
			ret = append(ret, child)
		}
	}

	return ret
}

// ByTag matches elements with the given tag.
func ByTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return IsElement(n, tag)
	}
}

// ByTagClass matches elements with the given tag and class.
func ByTagClass(tag, class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return IsElement(n, tag) && HasClass(n, class)
	}
}
