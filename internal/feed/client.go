// Package feed talks to the python-build-standalone release feed on GitHub:
// the releases atom feed for tag discovery, the REST API for per-tag asset
// catalogs, and plain downloads for asset bytes.
package feed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"
)

// Repo is the GitHub repository publishing the builds.
const Repo = "astral-sh/python-build-standalone"

const (
	defaultSiteBase = "https://github.com/" + Repo
	defaultAPIBase  = "https://api.github.com"
)

// Client fetches release data. The zero value is usable; Token, when set, is
// forwarded as a bearer credential to raise API rate limits.
type Client struct {
	HTTP  *http.Client
	Token string
	Retry RetryPolicy

	// SiteBase and APIBase override the GitHub endpoints in tests.
	SiteBase string
	APIBase  string
}

// NewClient returns a client with a sane request timeout.
func NewClient(token string) *Client {
	return &Client{
		HTTP:  &http.Client{Timeout: 5 * time.Minute},
		Token: token,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) site() string {
	if c.SiteBase != "" {
		return c.SiteBase
	}
	return defaultSiteBase
}

func (c *Client) api() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return defaultAPIBase
}

// TagInfo is one release tag from the atom feed with its publication time.
type TagInfo struct {
	Tag     string
	Updated time.Time
}

// atomEntries mirrors the parts of the releases atom feed we read.
type atomEntries struct {
	Entries []struct {
		Title   string `xml:"title"`
		Updated string `xml:"updated"`
	} `xml:"entry"`
}

// Tags lists recent release tags from the atom feed, newest first. The atom
// feed is used instead of the API because it is faster and not rate limited.
func (c *Client) Tags(ctx context.Context) ([]TagInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.site()+"/releases.atom", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: releases feed answered %s", ErrFeedUnavailable, resp.Status)
	}

	var feed atomEntries
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: parsing releases feed: %v", ErrFeedUnavailable, err)
	}

	tags := make([]TagInfo, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if e.Title == "" {
			continue
		}
		updated, _ := time.Parse(time.RFC3339, e.Updated)
		tags = append(tags, TagInfo{Tag: e.Title, Updated: updated})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[j].Tag < tags[i].Tag })
	return tags, nil
}

// LatestTag returns the newest release tag by following the releases/latest
// redirect, which carries the tag as its final path element. Like the atom
// feed this avoids the rate-limited API.
func (c *Client) LatestTag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.site()+"/releases/latest", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: releases/latest answered %s", ErrFeedUnavailable, resp.Status)
	}

	tag := path.Base(resp.Request.URL.Path)
	if tag == "" || tag == "latest" || tag == "/" {
		return "", fmt.Errorf("%w: releases/latest did not redirect to a tag", ErrFeedUnavailable)
	}
	return tag, nil
}

// releasePayload mirrors the parts of the REST release object we read.
type releasePayload struct {
	Assets []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Digest             string `json:"digest"`
	} `json:"assets"`
}

// ReleaseAssets fetches the asset catalog for one release tag and parses the
// asset names through the feed grammar (ParseAssetName). Assets that do not
// fit the grammar are skipped, not errors.
func (c *Client) ReleaseAssets(ctx context.Context, tag string) ([]Asset, error) {
	resp, err := c.doRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.api()+"/repos/"+Repo+"/releases/tags/"+tag, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: tag %q", ErrReleaseNotFound, tag)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: release API answered %s", ErrFeedUnavailable, resp.Status)
	}

	var payload releasePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: parsing release %q: %v", ErrFeedUnavailable, tag, err)
	}

	var assets []Asset
	for _, a := range payload.Assets {
		key, distribution, ok := ParseAssetName(tag, a.Name)
		if !ok {
			continue
		}
		// Only sha256 digests are understood; anything else means no checksum.
		checksum, _ := strings.CutPrefix(a.Digest, "sha256:")
		if checksum == a.Digest {
			checksum = ""
		}
		assets = append(assets, Asset{
			Version:      key,
			Distribution: distribution,
			Name:         a.Name,
			URL:          a.BrowserDownloadURL,
			Checksum:     checksum,
		})
	}
	return assets, nil
}

// Download streams asset bytes from the given locator into w.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) error {
	resp, err := c.doRetry(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download %q answered %s", ErrFeedUnavailable, url, resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: downloading %q: %v", ErrFeedUnavailable, url, err)
	}
	return nil
}
