package proc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed/rss"
	"podfeed/internal/app/podfeed/podcast"
)

const (
	itunesNS  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	atomNS    = "http://www.w3.org/2005/Atom"
	generator = "podfeed"
)

// pubDate layouts tried in order, the first two are the common +0000 and GMT forms
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// ParseFeed extracts episodes from rss document in document order.
// Items without title or enclosure are skipped, unknown pubDate gives zero time.
func ParseFeed(data []byte) ([]podcast.Episode, error) {
	fp := rss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("can't parse rss: %w", err)
	}

	res := make([]podcast.Episode, 0, len(feed.Items))
	for i, item := range feed.Items {
		if item == nil {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			log.Printf("[WARN] skip item #%d without title", i)
			continue
		}
		if item.Enclosure == nil || strings.TrimSpace(item.Enclosure.URL) == "" {
			log.Printf("[WARN] skip item %q without enclosure", title)
			continue
		}

		ep := podcast.Episode{
			Title:   title,
			Summary: strings.TrimSpace(item.Description),
			Media: podcast.Media{
				URL:  strings.TrimSpace(item.Enclosure.URL),
				Size: parseLength(title, item.Enclosure.Length),
				Type: strings.TrimSpace(item.Enclosure.Type),
			},
			PubDate: parsePubDate(item),
		}
		if item.GUID != nil {
			ep.GUID = strings.TrimSpace(item.GUID.Value)
		}
		if item.ITunesExt != nil && item.ITunesExt.Duration != "" {
			if d, derr := podcast.ParseDuration(item.ITunesExt.Duration); derr == nil {
				ep.Duration = d
			}
		}
		res = append(res, ep)
	}

	return res, nil
}

func parseLength(title, length string) int64 {
	length = strings.TrimSpace(length)
	if length == "" {
		return 0
	}
	n, err := strconv.ParseInt(length, 10, 64)
	if err != nil || n < 0 {
		log.Printf("[WARN] bad enclosure length %q for %q, use 0", length, title)
		return 0
	}
	return n
}

func parsePubDate(item *rss.Item) time.Time {
	value := strings.TrimSpace(item.PubDate)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range pubDateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if !unresolvedZone(t) {
			return t.UTC()
		}
		name, _ := t.Zone()
		if loc, lerr := time.LoadLocation(name); lerr == nil {
			if t, err = time.ParseInLocation(layout, value, loc); err == nil && !unresolvedZone(t) {
				return t.UTC()
			}
		}
		break
	}
	if item.PubDateParsed != nil && !unresolvedZone(*item.PubDateParsed) {
		return item.PubDateParsed.UTC()
	}
	log.Printf("[DEBUG] unknown pubDate %q for %q", value, item.Title)
	return time.Time{}
}

// unresolvedZone reports a zone abbreviation time.Parse didn't know, it gets a made up zero offset
func unresolvedZone(t time.Time) bool {
	name, offset := t.Zone()
	if offset != 0 {
		return false
	}
	switch name {
	case "", "UTC", "GMT", "UT", "Z":
		return false
	}
	return true
}

// SerializeFeed renders feed as indented rss 2.0 document
func SerializeFeed(feed *podcast.Feed) ([]byte, error) {
	show := feed.Show
	explicit := "false"
	if show.Explicit {
		explicit = "true"
	}

	doc := rssDocument{
		Version: "2.0",
		ITunes:  itunesNS,
		Atom:    atomNS,
		Channel: rssChannel{
			Title:       show.Title,
			Link:        show.Link,
			Description: show.Description,
			Language:    show.Language,
			Generator:   generator,
			Author:      show.Author,
			Explicit:    explicit,
		},
	}
	if show.SelfURL != "" {
		doc.Channel.AtomLink = &atomLink{Href: show.SelfURL, Rel: "self", Type: "application/rss+xml"}
	}
	if show.Image != "" {
		doc.Channel.Image = &itunesImage{Href: show.Image}
	}
	if show.Category != "" {
		doc.Channel.Category = &itunesCategory{Text: show.Category}
	}

	var lastBuild time.Time
	doc.Channel.Items = make([]rssItem, 0, len(feed.Episodes))
	for _, ep := range feed.Episodes {
		item := rssItem{
			Title:       ep.Title,
			Enclosure:   rssEnclosure{URL: ep.Media.URL, Length: ep.Media.Size, Type: ep.Media.Type},
			Description: ep.Summary,
		}
		if item.Enclosure.Type == "" {
			item.Enclosure.Type = podcast.MediaTypeMP3
		}
		if !ep.PubDate.IsZero() {
			item.PubDate = ep.PubDate.UTC().Format(time.RFC1123Z)
			if ep.PubDate.After(lastBuild) {
				lastBuild = ep.PubDate
			}
		}
		if ep.GUID != "" {
			item.GUID = &rssGUID{Value: ep.GUID, IsPermaLink: "false"}
		}
		if ep.Duration > 0 {
			item.Duration = podcast.FormatDuration(ep.Duration)
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}
	// last build follows the newest episode, so re-rendering the same feed gives the same bytes
	if !lastBuild.IsZero() {
		doc.Channel.LastBuildDate = lastBuild.UTC().Format(time.RFC1123Z)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("can't marshal rss: %w", err)
	}

	buf := bytes.NewBufferString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	ITunes  string     `xml:"xmlns:itunes,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string          `xml:"title"`
	Link          string          `xml:"link"`
	Description   string          `xml:"description"`
	AtomLink      *atomLink       `xml:"atom:link,omitempty"`
	Language      string          `xml:"language,omitempty"`
	Generator     string          `xml:"generator"`
	LastBuildDate string          `xml:"lastBuildDate,omitempty"`
	Author        string          `xml:"itunes:author,omitempty"`
	Explicit      string          `xml:"itunes:explicit"`
	Image         *itunesImage    `xml:"itunes:image,omitempty"`
	Category      *itunesCategory `xml:"itunes:category,omitempty"`
	Items         []rssItem       `xml:"item"`
}

// field order of item is title, enclosure, description, pubDate
type rssItem struct {
	Title       string       `xml:"title"`
	Enclosure   rssEnclosure `xml:"enclosure"`
	Description string       `xml:"description"`
	PubDate     string       `xml:"pubDate,omitempty"`
	GUID        *rssGUID     `xml:"guid,omitempty"`
	Duration    string       `xml:"itunes:duration,omitempty"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type itunesImage struct {
	Href string `xml:"href,attr"`
}

type itunesCategory struct {
	Text string `xml:"text,attr"`
}
