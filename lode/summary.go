package lode

// Summary aggregates archived sessions.
type Summary struct {
	Total          int            `json:"total" yaml:"total"`
	Done           int            `json:"done" yaml:"done"`
	Failed         int            `json:"failed" yaml:"failed"`
	Interrupted    int            `json:"interrupted" yaml:"interrupted"`
	BytesConfirmed int64          `json:"bytes_confirmed" yaml:"bytes_confirmed"`
	Retransmits    int64          `json:"retransmits" yaml:"retransmits"`
	PlayedMs       int64          `json:"played_ms" yaml:"played_ms"`
	ByBoard        map[string]int `json:"by_board" yaml:"by_board"`
}

// Summarize counts records by outcome and board.
func Summarize(records []SessionRecord) Summary {
	s := Summary{ByBoard: make(map[string]int)}
	for _, r := range records {
		s.Total++
		switch r.Outcome {
		case "done":
			s.Done++
		case "failed":
			s.Failed++
		case "interrupted":
			s.Interrupted++
		}
		s.BytesConfirmed += r.BytesConfirmed
		s.Retransmits += r.Retransmits
		s.PlayedMs += r.DurationMs
		if r.Board != "" {
			s.ByBoard[r.Board]++
		}
	}
	return s
}
