package tasks

import "fmt"

// Update reports the outcome of a background persistence job.
type Update struct {
	Phase   Phase  // Job type
	Message string // Human-readable message for display
	Err     error  // Set when the job failed
}

// Phase identifies a background job type.
type Phase int

const (
	RecordPlay Phase = iota
	DeleteTab
	Autosave
)

func (p Phase) String() string {
	switch p {
	case RecordPlay:
		return "record_play"
	case DeleteTab:
		return "delete_tab"
	case Autosave:
		return "autosave"
	default:
		return ""
	}
}

// Failed reports whether the update carries an error.
func (u Update) Failed() bool {
	return u.Err != nil
}

// sendUpdate sends an update through the channel without blocking.
func sendUpdate(updates chan<- Update, update Update) {
	if updates == nil {
		return
	}
	select {
	case updates <- update:
	default:
	}
}

func recordPlayUpdate(path string, err error) Update {
	if err != nil {
		return Update{Phase: RecordPlay, Message: fmt.Sprintf("play count not recorded for %s: %v", path, err), Err: err}
	}
	return Update{Phase: RecordPlay, Message: fmt.Sprintf("play recorded: %s", path)}
}

func droppedUpdate(phase Phase, what string) Update {
	err := fmt.Errorf("persistence queue full")
	return Update{Phase: phase, Message: fmt.Sprintf("%s dropped: %v", what, err), Err: err}
}

func deleteTabUpdate(key string, err error) Update {
	if err != nil {
		return Update{Phase: DeleteTab, Message: fmt.Sprintf("tab %s not deleted: %v", key, err), Err: err}
	}
	return Update{Phase: DeleteTab, Message: fmt.Sprintf("tab deleted: %s", key)}
}

func autosaveUpdate(tabs int, err error) Update {
	if err != nil {
		return Update{Phase: Autosave, Message: fmt.Sprintf("autosave failed: %v", err), Err: err}
	}
	return Update{Phase: Autosave, Message: fmt.Sprintf("saved %d tabs", tabs)}
}
