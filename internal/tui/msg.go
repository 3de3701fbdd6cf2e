package tui

import (
	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/MuhamedUsman/letstore/internal/navigator"
	tea "github.com/charmbracelet/bubbletea"
)

type errMsg struct {
	// errHeader: header to display in the error dialog
	errHeader string
	// err to log
	err error
	// errStr: user-friendly err
	errStr string
}

// spaceFocusSwitchMsg is sent whenever currentFocus changes hands
type spaceFocusSwitchMsg struct{}

// authenticatedMsg is sent once a credential is confirmed by /auth/me
type authenticatedMsg struct {
	user domain.User
}

// authFailedMsg keeps the login screen up with status as its error line
type authFailedMsg struct {
	status string
}

// sessionExpiredMsg is sent when the backend rejects the credential,
// the client has already cleared the session at that point.
type sessionExpiredMsg struct{}

type logoutMsg struct{}

// reloadMsg asks the explorer to refetch the displayed listing
type reloadMsg struct{}

// navigatedMsg carries the outcome of a Navigate that needed a lookup
type navigatedMsg struct {
	gen uint64
	nav navigator.Navigator
	err error
}

type contentsMsg struct {
	gen      uint64
	contents domain.Contents
	err      error
}

type openShareMsg struct {
	item domain.Item
}

// dialog results carry the request they answer, a dialog drops answers
// to requests made before it was last opened or submitted
type shareDoneMsg struct {
	req uint64
	err error
}

type openLinkMsg struct {
	file domain.File
}

type linkDoneMsg struct {
	req  uint64
	link domain.PublicLink
	err  error
}

type openPromptMsg struct {
	kind promptKind
	// folder the prompt acts on
	folder navigator.Entry
}

type folderCreatedMsg struct {
	req    uint64
	folder domain.Folder
	err    error
}

// upload messages carry the id of the upload they belong to
type uploadProgressMsg struct {
	upload uint64
	// packing is set while a folder is zipped before it is sent
	packing     bool
	done, total int64
}

type uploadDoneMsg struct {
	upload uint64
	file   domain.File
	err    error
}

type deletedMsg struct {
	item domain.Item
	err  error
}

type downloadedMsg struct {
	file domain.File
	path string
	size int64
	err  error
}

func msgToCmd[T tea.Msg](msg T) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
