package discord

// ActivityType is the semantic hint Discord uses to render the verb in
// front of the presence ("Watching ...", "Listening to ...").
type ActivityType int

const (
	ActivityPlaying   ActivityType = 0
	ActivityListening ActivityType = 2
	ActivityWatching  ActivityType = 3
)

type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

type Activity struct {
	Type       ActivityType `json:"type"`
	Details    string       `json:"details,omitempty"`
	State      string       `json:"state,omitempty"`
	Timestamps *Timestamps  `json:"timestamps,omitempty"`
	Assets     *Assets      `json:"assets,omitempty"`
}

func (a Activity) IsEmpty() bool {
	return a.State == "" &&
		a.Details == "" &&
		a.Timestamps == nil &&
		a.Assets == nil
}
