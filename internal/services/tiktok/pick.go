package tiktok

import (
	"strings"
	"time"
)

// gearTier ranks preferred low-bitrate 540p renditions; zero means not preferred
func gearTier(gear string) int {
	g := strings.ToLower(gear)
	switch {
	case strings.Contains(g, "lowest_540"):
		return 3
	case strings.Contains(g, "lower_540"):
		return 2
	case strings.Contains(g, "540"):
		return 1
	}
	return 0
}

// PickRendition chooses the rendition to play: the best 540 tier, cheapest first within a
// tier, else the smallest bitrate overall. Renditions without a url are ignored.
func PickRendition(renditions []Bitrate) (Bitrate, bool) {
	var best Bitrate
	bestTier := -1
	found := false
	for _, r := range renditions {
		if firstURL(r.PlayAddr.URLList) == "" {
			continue
		}
		tier := gearTier(r.GearName)
		if !found || tier > bestTier || (tier == bestTier && r.Bitrate < best.Bitrate) {
			best, bestTier, found = r, tier, true
		}
	}
	return best, found
}

// PickVideos returns one pick per usable item that passes filters. now anchors MaxAge.
func PickVideos(resp *SearchResponse, keyword string, filters Filters, now time.Time) []PickedVideo {
	if resp == nil {
		return nil
	}
	picks := make([]PickedVideo, 0, len(resp.ItemList))
	for _, item := range resp.ItemList {
		pick, ok := pickItem(item, keyword)
		if !ok || !filters.allows(pick, now) {
			continue
		}
		picks = append(picks, pick)
	}
	return picks
}

func pickItem(item Item, keyword string) (PickedVideo, bool) {
	if item.ID == "" {
		return PickedVideo{}, false
	}
	pick := PickedVideo{
		ID:          item.ID,
		Keyword:     keyword,
		Description: item.Desc,
		Author:      item.Author.UniqueID,
		Cover:       item.Video.Cover,
		Duration:    item.Video.Duration,
		Views:       item.Stats.PlayCount,
		Likes:       item.Stats.DiggCount,
	}
	if item.CreateTime > 0 {
		pick.CreatedAt = time.Unix(item.CreateTime, 0).UTC()
	}

	if r, ok := PickRendition(item.Video.BitrateInfo); ok {
		pick.URL = firstURL(r.PlayAddr.URLList)
		pick.GearName = r.GearName
		pick.Bitrate = r.Bitrate
	} else if item.Video.PlayAddr != "" {
		pick.URL = item.Video.PlayAddr
	} else {
		return PickedVideo{}, false
	}
	return pick, true
}

func (f Filters) allows(v PickedVideo, now time.Time) bool {
	if f.MinViews > 0 && v.Views < f.MinViews {
		return false
	}
	if f.MinLikes > 0 && v.Likes < f.MinLikes {
		return false
	}
	if f.MaxDuration > 0 && v.Duration > f.MaxDuration {
		return false
	}
	if f.MaxAge > 0 && !v.CreatedAt.IsZero() && now.Sub(v.CreatedAt) > f.MaxAge {
		return false
	}
	return true
}

func firstURL(urls []string) string {
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return ""
}
