package domain

type SectionProgress struct {
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	RequiredDone  int     `json:"required_done"`
	RequiredTotal int     `json:"required_total"`
	OptionalDone  int     `json:"optional_done"`
	OptionalTotal int     `json:"optional_total"`
	Percent       float64 `json:"percent"`
}

type Progress struct {
	Sections      []SectionProgress `json:"sections"`
	RequiredDone  int               `json:"required_done"`
	RequiredTotal int               `json:"required_total"`
	Overall       float64           `json:"overall"`
}

// UnmetItem is a required item that blocks completion.
type UnmetItem struct {
	ItemID  string `json:"item_id"`
	Label   string `json:"label"`
	Section string `json:"section"`
	Hint    string `json:"hint"`
}
