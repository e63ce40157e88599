package models

// AccountData is the persisted form of one account: the folded aggregate
// plus the base64-encoded seen-set that keeps dedup exact across restarts.
type AccountData struct {
	Aggregate AggregateSnapshot `json:"aggregate"`
	Seen      string            `json:"seen"`
}

type Storage struct {
	Accounts map[string]*AccountData `json:"accounts"`
}
