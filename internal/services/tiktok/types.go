package tiktok

import "time"

// SearchResponse is the decoded body of a video search
type SearchResponse struct {
	ItemList []Item `json:"item_list"`
	HasMore  bool   `json:"has_more"`
	Cursor   int64  `json:"cursor"`
}

// Item is a single video in a search response
type Item struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"createTime"` // unix seconds
	Author     Author `json:"author"`
	Stats      Stats  `json:"stats"`
	Video      Video  `json:"video"`
}

// Author identifies the creator of an item
type Author struct {
	ID       string `json:"id"`
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
}

// Stats holds engagement counters
type Stats struct {
	PlayCount    int64 `json:"playCount"`
	DiggCount    int64 `json:"diggCount"`
	CommentCount int64 `json:"commentCount"`
	ShareCount   int64 `json:"shareCount"`
}

// Video describes the playable renditions of an item
type Video struct {
	Duration    int       `json:"duration"` // seconds
	Cover       string    `json:"cover"`
	PlayAddr    string    `json:"playAddr"`
	BitrateInfo []Bitrate `json:"bitrateInfo"`
}

// Bitrate is one encoded rendition
type Bitrate struct {
	GearName string   `json:"GearName"`
	Bitrate  int64    `json:"Bitrate"`
	PlayAddr PlayAddr `json:"PlayAddr"`
}

// PlayAddr lists the CDN urls of a rendition
type PlayAddr struct {
	URLList  []string `json:"UrlList"`
	Width    int      `json:"Width"`
	Height   int      `json:"Height"`
	DataSize int64    `json:"DataSize"`
}

// PickedVideo is an item reduced to the rendition chosen for playback
type PickedVideo struct {
	ID          string    `json:"id"`
	Keyword     string    `json:"keyword"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
	Cover       string    `json:"cover,omitempty"`
	GearName    string    `json:"gear_name,omitempty"`
	Bitrate     int64     `json:"bitrate"`
	Duration    int       `json:"duration"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

// RankedVideo is a scored pick. Placeholder entries carry only a keyword.
type RankedVideo struct {
	PickedVideo
	Score       float64 `json:"score"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// Filters drops picks that fail any enabled bound. Zero values disable a bound.
type Filters struct {
	MinViews    int64
	MinLikes    int64
	MaxDuration int
	MaxAge      time.Duration
}
