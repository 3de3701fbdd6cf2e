package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/bgtask"
	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/MuhamedUsman/letstore/internal/navigator"
	"github.com/MuhamedUsman/letstore/internal/zipr"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const (
	emptyFolderNameMessage = "Folder name cannot be empty"
	createFailedMessage    = "Failed to create folder. Please try again."
	noFileMessage          = "Please select a file to upload"
	uploadFailedMessage    = "Failed to upload file. Please try again."
	uploadCanceledMessage  = "Upload canceled"
)

type promptKind int

const (
	folderPrompt promptKind = iota
	uploadPrompt
)

// promptModel asks for a new folder name or for the path of a local file
// to upload, both into the folder the explorer displays.
type promptModel struct {
	ctx      context.Context
	client   *client.Client
	kind     promptKind
	folder   navigator.Entry
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	err      string
	// req is bumped on open and on every folder request
	req uint64
	// upload state, updates is nil when no upload runs
	upload      uint64
	done, total int64
	updates     chan tea.Msg
	cancel      context.CancelFunc
	// packing is set while a folder is zipped
	packing bool
	busy    bool
	active  bool
}

func initialPromptModel(ctx context.Context, c *client.Client) promptModel {
	return promptModel{
		ctx:      ctx,
		client:   c,
		input:    newDialogInputModel(""),
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(lipgloss.NewStyle().Foreground(highlightColor))),
		progress: progress.New(progress.WithScaledGradient(midHighlightColor.Dark, highlightColor.Dark), progress.WithoutPercentage()),
	}
}

func (m promptModel) Update(msg tea.Msg) (promptModel, tea.Cmd) {
	switch msg := msg.(type) {

	case openPromptMsg:
		m.kind, m.folder = msg.kind, msg.folder
		m.err, m.busy, m.active = "", false, true
		m.req++
		m.done, m.total, m.packing = 0, 0, false
		m.input.Reset()
		m.input.Placeholder = "Folder name"
		if m.kind == uploadPrompt {
			m.input.Placeholder = "Path of the file or folder to upload"
		}
		m.input.Width = max(0, dialogW()-dialogContainerStyle.GetHorizontalFrameSize()-dialogInputStyle.GetHorizontalFrameSize()-3)
		m.progress.Width = max(0, dialogW()-dialogContainerStyle.GetHorizontalFrameSize())
		currentFocus = promptSpace
		return m, tea.Batch(m.input.Focus(), msgToCmd(spaceFocusSwitchMsg{}))

	case tea.KeyMsg:
		if !m.active {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			if m.updates != nil {
				// the dialog closes once uploadDoneMsg reports the cancellation
				m.cancel()
				return m, nil
			}
			return m, m.hide()
		case "enter":
			if m.busy {
				return m, nil
			}
			return m.submit()
		}
		if m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case folderCreatedMsg:
		if errors.Is(msg.err, client.ErrUnauthorized) {
			return m, msgToCmd(sessionExpiredMsg{})
		}
		if !m.active || msg.req != m.req {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			slog.Error("creating folder", "parent", m.folder.ID, "err", msg.err)
			m.err = client.DetailOr(msg.err, createFailedMessage)
			return m, nil
		}
		return m, tea.Batch(m.hide(), msgToCmd(reloadMsg{}))

	case uploadProgressMsg:
		if msg.upload != m.upload || m.updates == nil {
			return m, nil
		}
		m.packing, m.done, m.total = msg.packing, msg.done, msg.total
		return m, waitForUpload(m.updates)

	case uploadDoneMsg:
		if msg.upload != m.upload || m.updates == nil {
			return m, nil
		}
		m.updates, m.cancel, m.busy = nil, nil, false
		switch {
		case errors.Is(msg.err, client.ErrUnauthorized):
			return m, msgToCmd(sessionExpiredMsg{})
		case errors.Is(msg.err, context.Canceled):
			return m, tea.Batch(m.hide(), msgToCmd(alertDialogMsg{header: "UPLOAD", body: uploadCanceledMessage}))
		case msg.err != nil:
			slog.Error("uploading file", "folder", m.folder.ID, "err", msg.err)
			m.err = client.DetailOr(msg.err, uploadFailedMessage)
			return m, nil
		}
		slog.Info("uploaded file", "file", msg.file.ID, "folder", m.folder.ID)
		return m, tea.Batch(m.hide(), msgToCmd(reloadMsg{}))

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.active {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	c := dialogContainerStyle.Width(dialogW())
	w := c.GetWidth() - c.GetHorizontalPadding()
	header := "NEW FOLDER"
	if m.kind == uploadPrompt {
		header = "UPLOAD FILE"
	}
	h := dialogHeaderStyle.Render(header)
	b := dialogBodyStyle.Render(runewidth.Truncate("into “"+m.folder.Name+"”", w, "…”"))
	in := dialogInputStyle.Width(max(0, w-dialogInputStyle.GetHorizontalBorderSize())).Render(m.input.View())

	var status string
	switch {
	case m.updates != nil:
		percent := 1.0
		if m.total > 0 {
			percent = float64(m.done) / float64(m.total)
		}
		counter := fmt.Sprintf("%s of %s", humanize.Bytes(uint64(m.done)), humanize.Bytes(uint64(m.total)))
		if m.packing {
			counter = "Packing folder… " + counter
		}
		status = lipgloss.JoinVertical(lipgloss.Left, m.progress.ViewAs(percent), dialogSuccessStyle.Render(counter))
	case m.busy:
		status = dialogSuccessStyle.Render(m.spinner.View() + " Creating...")
	case m.err != "":
		status = dialogErrStyle.Width(w).Render(m.err)
	}
	hint := "enter create • esc close"
	switch {
	case m.updates != nil:
		hint = "esc cancel upload"
	case m.kind == uploadPrompt:
		hint = "enter upload • esc close"
	}
	return c.Render(lipgloss.JoinVertical(lipgloss.Left, h, b, in, status, dialogHintStyle.Render(hint)))
}

func (m promptModel) submit() (promptModel, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if m.kind == folderPrompt {
		if value == "" {
			m.err = emptyFolderNameMessage
			return m, nil
		}
		m.err, m.busy = "", true
		m.req++
		c, ctx, parent, req := m.client, m.ctx, m.folder.ID, m.req
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			f, err := c.CreateFolder(ctx, value, parent)
			return folderCreatedMsg{req: req, folder: f, err: err}
		})
	}

	if value == "" {
		m.err = noFileMessage
		return m, nil
	}
	cmd, err := m.startUpload(expandHome(value))
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	return m, cmd
}

// startUpload streams path into the displayed folder as a background task,
// progress flows back through m.updates. A folder is zipped first and sent
// as <name>.zip.
func (m *promptModel) startUpload(path string) (tea.Cmd, error) {
	info, err := os.Stat(path)
	if err != nil {
		slog.Error("opening upload", "path", path, "err", err)
		return nil, errors.New(noFileMessage)
	}

	bt := bgtask.Get()
	ctx, cancel := context.WithCancel(bt.ShutdownCtx())
	updates := make(chan tea.Msg, 8)
	m.upload++
	m.updates, m.cancel = updates, cancel
	m.done, m.total, m.packing = 0, info.Size(), info.IsDir()
	m.err, m.busy = "", true

	id, c, folderID := m.upload, m.client, m.folder.ID
	report := func(packing bool, done, total int64) {
		select { // progress may be dropped, the final message may not
		case updates <- uploadProgressMsg{upload: id, packing: packing, done: done, total: total}:
		default:
		}
	}
	bt.Run(func(shutdownCtx context.Context) {
		defer close(updates)
		defer cancel()
		file, err := uploadPath(ctx, c, folderID, path, info.IsDir(), report)
		select {
		case updates <- uploadDoneMsg{upload: id, file: file, err: err}:
		case <-shutdownCtx.Done():
		}
	})
	return waitForUpload(updates), nil
}

func uploadPath(ctx context.Context, c *client.Client, folderID, path string, isDir bool, report func(packing bool, done, total int64)) (domain.File, error) {
	if isDir {
		tmp, err := os.MkdirTemp("", "letstore-upload-*")
		if err != nil {
			return domain.File{}, fmt.Errorf("creating archive dir: %w", err)
		}
		defer os.RemoveAll(tmp)
		z := zipr.New(zipr.Deflate, func(packed, total int64) { report(true, packed, total) })
		if path, err = z.Pack(ctx, path, tmp); err != nil {
			return domain.File{}, fmt.Errorf("packing folder: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.File{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return domain.File{}, fmt.Errorf("statting upload: %w", err)
	}
	total := info.Size()
	report(false, 0, total)
	return c.UploadFile(ctx, folderID, filepath.Base(path), f, func(sent int64) {
		report(false, sent, total)
	})
}

func waitForUpload(updates <-chan tea.Msg) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *promptModel) hide() tea.Cmd {
	m.active, m.busy = false, false
	m.input.Blur()
	currentFocus = explorerSpace
	return msgToCmd(spaceFocusSwitchMsg{})
}

// close hides the prompt and cancels an upload in progress.
func (m *promptModel) close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.updates, m.cancel = nil, nil
	m.active, m.busy = false, false
	m.input.Blur()
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/") && !strings.HasPrefix(rest, string(filepath.Separator))) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
