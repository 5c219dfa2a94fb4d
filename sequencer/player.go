package sequencer

// Note describes one scheduled note as handed to OnNote hooks
type Note struct {
	Voice     string
	Frequency float64
	When      float64
	Duration  float64
	Period    float64 // loop period; zero for the looper
}

// VoiceStatus is a snapshot of one voice slot
type VoiceStatus struct {
	Name      string
	Frequency float64
	Active    bool
	When      float64
	Duration  float64
	Period    float64
}

// Source draws uniform indices for the looper
type Source interface {
	Intn(n int) int
}
