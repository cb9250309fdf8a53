package dto

type PostRequest struct {
	Caption string `json:"caption" validate:"omitempty,max=2200"`
	DryRun  bool   `json:"dry_run"`
}

type HistoryRequest struct {
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`
}
