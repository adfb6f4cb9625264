package youtube

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"github.com/nijaru/golf-directory/models"
)

var (
	durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

	latinLetter     = regexp.MustCompile(`[a-z]`)
	excludedScripts = []*regexp.Regexp{
		regexp.MustCompile(`[\x{3042}-\x{3093}]`), // hiragana
		regexp.MustCompile(`[\x{30A2}-\x{30F3}]`), // katakana
		regexp.MustCompile(`[\x{4E00}-\x{9FAF}]`), // kanji
		regexp.MustCompile(`[\x{00C0}-\x{00FF}]`), // accented latin
	}
)

// ParseDuration converts an ISO-8601 duration such as PT1H4M13S into seconds.
// Anything it cannot read is zero.
func ParseDuration(s string) int64 {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var total int64
	for i, unit := range []int64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}

// IsValidTitle keeps English-looking titles: at least one latin letter and
// no CJK or accented characters.
func IsValidTitle(title string) bool {
	t := strings.ToLower(title)
	if !latinLetter.MatchString(t) {
		return false
	}
	for _, re := range excludedScripts {
		if re.MatchString(t) {
			return false
		}
	}
	return true
}

// BestThumbnail prefers maxres, then high, medium and default.
func BestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func toVideo(item *yt.Video) models.Video {
	v := models.Video{ID: item.Id}
	if s := item.Snippet; s != nil {
		v.Title = s.Title
		v.Description = s.Description
		v.ChannelID = s.ChannelId
		v.ChannelTitle = s.ChannelTitle
		v.PublishedAt = parseTime(s.PublishedAt)
		v.ThumbnailURL = BestThumbnail(s.Thumbnails)
	}
	if st := item.Statistics; st != nil {
		v.ViewCount = int64(st.ViewCount)
		v.LikeCount = int64(st.LikeCount)
		v.CommentCount = int64(st.CommentCount)
	}
	if cd := item.ContentDetails; cd != nil {
		v.DurationSeconds = ParseDuration(cd.Duration)
	}
	v.EngagementRate = models.EngagementRate(v.ViewCount, v.LikeCount, v.CommentCount)
	return v
}

func toChannel(item *yt.Channel) models.Channel {
	c := models.Channel{ID: item.Id}
	if s := item.Snippet; s != nil {
		c.Title = s.Title
		c.Description = s.Description
		c.ThumbnailURL = BestThumbnail(s.Thumbnails)
	}
	if st := item.Statistics; st != nil {
		c.SubscriberCount = int64(st.SubscriberCount)
		c.VideoCount = int64(st.VideoCount)
		c.ViewCount = int64(st.ViewCount)
	}
	if cd := item.ContentDetails; cd != nil && cd.RelatedPlaylists != nil {
		c.UploadsPlaylistID = cd.RelatedPlaylists.Uploads
	}
	return c
}
