package content

import (
	"github.com/tenex-chat/inkwell/internal/persist"
)

// ManagerStatus is a point-in-time summary of one collection manager,
// exposed through vault_status and the CLI.
type ManagerStatus struct {
	File        string `json:"file"`
	State       string `json:"state"`
	Policy      string `json:"policy"`
	Records     int    `json:"records"`
	LoadFailed  bool   `json:"load_failed"`
	SavePending bool   `json:"save_pending"`
	LastSaveErr string `json:"last_save_error,omitempty"`
}

func managerStatus[C persist.Collection[C]](m *persist.Manager[C], records int) ManagerStatus {
	st := ManagerStatus{
		File:        m.FileName(),
		State:       m.State().String(),
		Policy:      m.Policy().String(),
		Records:     records,
		LoadFailed:  m.LoadFailed(),
		SavePending: m.SavePending(),
	}
	if err := m.LastSaveErr(); err != nil {
		st.LastSaveErr = err.Error()
	}
	return st
}
