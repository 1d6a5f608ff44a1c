package rtorrent

import "strconv"

type Priority int

const (
	PriorityOff Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityOff:
		return "off"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return strconv.Itoa(int(p))
	}
}

type State string

const (
	StateStopped      State = "STOPPED"
	StateActive       State = "ACTIVE"
	StatePaused       State = "PAUSED"
	StateHashChecking State = "HASH_CHECKING"
)

// Job is one download as the daemon reported it in a single query.
// Only Hash is stable; everything else may change between queries.
type Job struct {
	Hash           string   `json:"hash"`
	Name           string   `json:"name"`
	SizeBytes      int64    `json:"size_bytes"`
	CompletedBytes int64    `json:"completed_bytes"`
	Complete       bool     `json:"complete"`
	Directory      string   `json:"directory"`
	Label          string   `json:"label"`
	UpRate         int64    `json:"up_rate"`
	DownRate       int64    `json:"down_rate"`
	Active         bool     `json:"active"`
	Open           bool     `json:"open"`
	HashChecking   bool     `json:"hash_checking"`
	Peers          int64    `json:"peers"`
	Priority       Priority `json:"priority"`
	Ratio          float64  `json:"ratio"`
}

// State maps the daemon's flags onto the observable job states. Stopped
// covers both a freshly added inactive job and a soft-removed one.
func (j Job) State() State {
	switch {
	case j.HashChecking:
		return StateHashChecking
	case j.Active:
		return StateActive
	case j.Open:
		return StatePaused
	default:
		return StateStopped
	}
}

func (j Job) Progress() float64 {
	if j.SizeBytes <= 0 {
		return 0
	}
	return float64(j.CompletedBytes) / float64(j.SizeBytes)
}
