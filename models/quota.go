package models

import "time"

// Operation is a billable YouTube Data API call kind.
type Operation string

const (
	OpSearch      Operation = "search"
	OpVideoList   Operation = "video_list"
	OpChannelList Operation = "channel_list"
)

// DefaultDailyQuota is the YouTube Data API v3 default project ceiling.
const DefaultDailyQuota int64 = 10000

// QuotaDateLayout keys the ledger by UTC calendar date.
const QuotaDateLayout = "2006-01-02"

var operationCosts = map[Operation]int64{
	OpSearch:      100,
	OpVideoList:   1,
	OpChannelList: 1,
}

// Operations lists every known kind in a stable order.
func Operations() []Operation {
	return []Operation{OpSearch, OpVideoList, OpChannelList}
}

// Cost returns the units charged per call and whether the kind is known.
func (o Operation) Cost() (int64, bool) {
	c, ok := operationCosts[o]
	return c, ok
}

func (o Operation) Valid() bool {
	_, ok := operationCosts[o]
	return ok
}

// QuotaUsage is one day's row in the ledger.
type QuotaUsage struct {
	Date                  string `json:"date"`
	SearchOperations      int64  `json:"search_operations"`
	VideoListOperations   int64  `json:"video_list_operations"`
	ChannelListOperations int64  `json:"channel_list_operations"`
}

// TotalUnits is the weighted sum of the counters.
func (u *QuotaUsage) TotalUnits() int64 {
	if u == nil {
		return 0
	}
	return u.SearchOperations*operationCosts[OpSearch] +
		u.VideoListOperations*operationCosts[OpVideoList] +
		u.ChannelListOperations*operationCosts[OpChannelList]
}

// Count returns the raw counter for op.
func (u *QuotaUsage) Count(op Operation) int64 {
	if u == nil {
		return 0
	}
	switch op {
	case OpSearch:
		return u.SearchOperations
	case OpVideoList:
		return u.VideoListOperations
	case OpChannelList:
		return u.ChannelListOperations
	}
	return 0
}

// QuotaDate formats t as the ledger key for its UTC day.
func QuotaDate(t time.Time) string {
	return t.UTC().Format(QuotaDateLayout)
}
