package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MuhamedUsman/letstore/internal/bgtask"
	"github.com/MuhamedUsman/letstore/internal/client"
	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/MuhamedUsman/letstore/internal/navigator"
	"github.com/MuhamedUsman/letstore/internal/sharing"
	"github.com/MuhamedUsman/letstore/internal/util"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipTable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

const (
	loadFailedMessage       = "Failed to load files and folders. Please try again."
	loadSharedFailedMessage = "Failed to load shared files. Please try again."
	openFailedMessage       = "Failed to open folder. Please try again."
	downloadFailedMessage   = "Failed to download file. Please try again."
	deleteFileFailedMessage = "Failed to delete file. Please try again."
	deleteDirFailedMessage  = "Failed to delete folder. Please try again."
	filesOnlyLinkMessage    = "Public links can only be created for files."
)

type viewMode int

const (
	ownView viewMode = iota
	sharedView
)

type filterState int

const (
	unfiltered filterState = iota
	filtering
	filterApplied
)

// filter uses the sahilm/fuzzy to filter through the list.
// returns the indexes of matched targets, best match first.
func filter(term string, targets []string) []int {
	matches := fuzzy.Find(term, targets)
	result := make([]int, len(matches))
	for i, r := range matches {
		result[i] = r.Index
	}
	return result
}

// row is one line of the listing, either a folder or a file.
type row struct {
	kind   domain.ItemKind
	folder domain.Folder
	file   domain.File
}

func (r row) name() string {
	if r.kind == domain.FolderKind {
		return r.folder.Name
	}
	return r.file.OriginalFilename
}

func (r row) item() domain.Item {
	if r.kind == domain.FolderKind {
		return domain.FolderItem(r.folder)
	}
	return domain.FileItem(r.file)
}

type explorerModel struct {
	ctx         context.Context
	client      *client.Client
	nav         navigator.Navigator
	tracker     *navigator.Tracker
	mode        viewMode
	table       table.Model
	filter      textinput.Model
	filterState filterState
	spinner     spinner.Model
	rows        []row
	filtered    []int
	// status is shown under the breadcrumb, statusErr paints it red
	status      string
	downloadDir string
	// downloads in flight
	downloads                    int
	loading, statusErr, showHelp bool
}

func initialExplorerModel(ctx context.Context, c *client.Client, downloadDir string) explorerModel {
	t := table.New(
		table.WithStyles(customTableStyles),
		table.WithColumns(getTableCols(0)),
		table.WithFocused(true),
	)
	return explorerModel{
		ctx:         ctx,
		client:      c,
		nav:         navigator.New(c),
		tracker:     new(navigator.Tracker),
		table:       t,
		filter:      newFilterInputModel(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(highlightColor))),
		downloadDir: downloadDir,
	}
}

func getTableCols(tableWidth int) []table.Column {
	cols := []string{"Name", "Type", "Size", "Modified", "Access"}
	tableWidth -= customTableStyles.Cell.GetHorizontalFrameSize() * len(cols)
	typeW := (tableWidth * 12) / 100
	sizeW := (tableWidth * 12) / 100
	modW := (tableWidth * 18) / 100
	accessW := (tableWidth * 12) / 100
	// whatever the divisions lost goes to the name
	nameW := max(0, tableWidth-(typeW+sizeW+modW+accessW))
	return []table.Column{
		{Title: cols[0], Width: nameW},
		{Title: cols[1], Width: typeW},
		{Title: cols[2], Width: sizeW},
		{Title: cols[3], Width: modW},
		{Title: cols[4], Width: accessW},
	}
}

func newFilterInputModel() textinput.Model {
	c := cursor.New()
	c.TextStyle = lipgloss.NewStyle().Foreground(highlightColor)
	c.Style = c.TextStyle.Reverse(true)

	f := textinput.New()
	f.PromptStyle = f.PromptStyle.Foreground(highlightColor).Align(lipgloss.Center)
	f.TextStyle = f.TextStyle.Foreground(highlightColor).Align(lipgloss.Center)
	f.Placeholder = "Filter by Name"
	f.PlaceholderStyle = f.PromptStyle.Faint(true)
	f.Cursor = c
	f.Cursor.SetMode(cursorMode)
	f.Prompt = ""
	return f
}

func (m explorerModel) Update(msg tea.Msg) (explorerModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.filterState == filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)

	case reloadMsg:
		return m, m.load()

	case spaceFocusSwitchMsg:
		if currentFocus == explorerSpace {
			m.table.Focus()
		} else {
			m.table.Blur()
		}
		return m, nil

	case navigatedMsg:
		if !m.tracker.Current(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			m.loading = false
			return m, msgToCmd(sessionOr(msg.err, func() tea.Msg {
				errStr := client.DetailOr(msg.err, openFailedMessage)
				if errors.Is(msg.err, navigator.ErrFolderNotFound) {
					errStr = "The folder no longer exists, refresh to see the latest listing."
				}
				return errMsg{errHeader: "FOLDER UNAVAILABLE", err: msg.err, errStr: errStr}
			}))
		}
		m.nav = msg.nav
		return m, m.load()

	case contentsMsg:
		if !m.tracker.Current(msg.gen) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			errStr := loadFailedMessage
			if m.mode == sharedView {
				errStr = loadSharedFailedMessage
			}
			m.status, m.statusErr = errStr, true
			return m, msgToCmd(sessionOr(msg.err, func() tea.Msg {
				return errMsg{errHeader: "LOADING FAILED", err: msg.err, errStr: errStr}
			}))
		}
		m.setContents(msg.contents)
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			errStr := deleteFileFailedMessage
			if msg.item.Kind == domain.FolderKind {
				errStr = deleteDirFailedMessage
			}
			return m, msgToCmd(sessionOr(msg.err, func() tea.Msg {
				return errMsg{errHeader: "DELETE FAILED", err: msg.err, errStr: client.DetailOr(msg.err, errStr)}
			}))
		}
		return m, m.load()

	case downloadedMsg:
		m.downloads--
		if msg.err != nil {
			return m, msgToCmd(sessionOr(msg.err, func() tea.Msg {
				return errMsg{errHeader: "DOWNLOAD FAILED", err: msg.err, errStr: client.DetailOr(msg.err, downloadFailedMessage)}
			}))
		}
		slog.Info("downloaded file", "file", msg.file.ID, "path", msg.path)
		return m, msgToCmd(alertDialogMsg{
			header: "DOWNLOADED",
			body:   fmt.Sprintf("Saved “%s” (%s) to %s", filepath.Base(msg.path), humanize.Bytes(uint64(msg.size)), filepath.Dir(msg.path)),
		})

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m explorerModel) handleFilterKey(msg tea.KeyMsg) (explorerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearFilter()
		return m, nil
	case "enter":
		m.filterState = filterApplied
		m.filter.Blur()
		if m.filter.Value() == "" {
			m.filterState = unfiltered
		}
		return m, nil
	case "up", "down":
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	prev := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != prev {
		m.applyFilter()
		m.table.GotoTop()
	}
	return m, cmd
}

func (m explorerModel) handleKey(msg tea.KeyMsg) (explorerModel, tea.Cmd) {
	key := msg.String()
	switch key {

	case "?":
		m.showHelp = !m.showHelp
		m.updateDimensions()
		return m, nil

	case "/":
		if len(m.rows) == 0 {
			return m, nil
		}
		m.filterState = filtering
		return m, m.filter.Focus()

	case "esc":
		if m.filterState == filterApplied {
			m.clearFilter()
		}
		return m, nil

	case "r":
		return m, m.load()

	case "tab":
		m.mode = (m.mode + 1) % 2
		m.clearFilter()
		m.rows = nil
		m.updateDimensions()
		return m, m.load()

	case "ctrl+l":
		return m, msgToCmd(logoutMsg{})

	case "d":
		if r, ok := m.selected(); ok && r.kind == domain.FileKind {
			return m, m.download(r.file)
		}
		return m, nil
	}

	if m.mode == sharedView {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	switch key {

	case "enter", "right", "l":
		if r, ok := m.selected(); ok && r.kind == domain.FolderKind {
			return m, m.navigate(r.folder.ID)
		}
		return m, nil

	case "backspace", "left", "h":
		if m.nav.AtRoot() {
			return m, nil
		}
		return m, m.navigate(m.nav.Parent())

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i, _ := strconv.Atoi(key)
		path := m.nav.Path()
		if i > len(path) {
			return m, nil
		}
		return m, m.navigate(path[i-1].ID)

	case "s":
		if r, ok := m.selected(); ok {
			return m, msgToCmd(openShareMsg{r.item()})
		}
		return m, nil

	case "p":
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if r.kind != domain.FileKind {
			return m, msgToCmd(alertDialogMsg{header: "FILES ONLY", body: filesOnlyLinkMessage})
		}
		return m, msgToCmd(openLinkMsg{r.file})

	case "x", "delete":
		if r, ok := m.selected(); ok {
			return m, m.confirmDelete(r)
		}
		return m, nil

	case "n":
		return m, msgToCmd(openPromptMsg{kind: folderPrompt, folder: m.currentEntry()})

	case "u":
		return m, msgToCmd(openPromptMsg{kind: uploadPrompt, folder: m.currentEntry()})
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m explorerModel) View(user domain.User) string {
	w := workableW()
	help := customExplorerHelp(m.showHelp, m.mode)
	help.Width(w)

	var top string
	if m.filterState == filtering {
		c := filterContainerStyle.Width(m.filter.Width)
		// grow by one once the text reaches the edge so the cursor fits
		if utf8.RuneCountInString(m.filter.Value()) >= c.GetWidth() {
			c = c.Width(c.GetWidth() + 1)
		}
		top = lipgloss.PlaceHorizontal(w, lipgloss.Center, c.Render(m.filter.View()))
	} else {
		top = m.breadcrumbView(w)
	}

	title := titleStyle.Render("letstore")
	if user.Username != "" {
		who := runewidth.Truncate(user.Username, max(0, w/3), "…")
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, statusBarStyle.Render("as "+who))
	}

	style := statusBarStyle
	if m.statusErr && !m.loading {
		style = errStatusStyle
	}
	status := style.Render(runewidth.Truncate(m.getStatus(), max(0, w-style.GetHorizontalFrameSize()), "…"))

	return lipgloss.JoinVertical(lipgloss.Left, title, top, status, m.table.View(), help.Render())
}

func (m *explorerModel) updateDimensions() {
	w := workableW()
	m.table.SetWidth(w)
	m.filter.Width = (w * 60) / 100 // 60% of available width
	helpHeight := lipgloss.Height(customExplorerHelp(m.showHelp, m.mode).String())
	const titleH, topH, statusH = 1, 1, 1
	m.table.SetHeight(max(3, workableH()-(titleH+topH+statusH+helpHeight)))
	m.table.SetColumns(getTableCols(w))
	m.populateTable()
}

// breadcrumbView renders the path as "1 Home › 2 Docs", dropping leading
// entries behind an ellipsis when it does not fit in w.
func (m explorerModel) breadcrumbView(w int) string {
	if m.mode == sharedView {
		return breadcrumbStyle.Render(breadcrumbCurrentStyle.Render("Shared with me"))
	}
	path := m.nav.Path()
	const sep = " › "
	parts := make([]string, len(path))
	widths := make([]int, len(path))
	for i, e := range path {
		style := lipgloss.NewStyle()
		if i == len(path)-1 {
			style = breadcrumbCurrentStyle
		}
		parts[i] = style.Render(e.Name)
		widths[i] = runewidth.StringWidth(e.Name)
		if i < 9 { // only the first nine entries have a shortcut
			idx := strconv.Itoa(i + 1)
			parts[i] = breadcrumbIndexStyle.Render(idx) + " " + parts[i]
			widths[i] += len(idx) + 1
		}
	}

	avail := w - breadcrumbStyle.GetHorizontalFrameSize()
	total := 0
	for i, pw := range widths {
		total += pw
		if i > 0 {
			total += runewidth.StringWidth(sep)
		}
	}
	first := 0
	// dropped entries leave an ellipsis behind
	fits := func() bool {
		if first > 0 {
			return total+runewidth.StringWidth("…"+sep) <= avail
		}
		return total <= avail
	}
	for !fits() && first < len(parts)-1 {
		total -= widths[first] + runewidth.StringWidth(sep)
		first++
	}
	crumb := strings.Join(parts[first:], sep)
	if first > 0 {
		crumb = "…" + sep + crumb
	}
	if !fits() {
		// a single entry still too wide, truncate its name
		last := path[len(path)-1]
		crumb = breadcrumbCurrentStyle.Render(runewidth.Truncate(last.Name, max(0, avail), "…"))
	}
	return breadcrumbStyle.Render(crumb)
}

func (m explorerModel) getStatus() string {
	if m.loading {
		return m.spinner.View() + " Loading…"
	}
	if m.status != "" {
		return m.status
	}
	var folders, files int
	for _, r := range m.rows {
		if r.kind == domain.FolderKind {
			folders++
		} else {
			files++
		}
	}
	s := fmt.Sprintf("%d folder/s, %d file/s", folders, files)
	if m.filterState != unfiltered {
		s = fmt.Sprintf("%d of %d match “%s”", len(m.filtered), len(m.rows), m.filter.Value())
	}
	if m.downloads > 0 {
		s += fmt.Sprintf(" • downloading %d", m.downloads)
	}
	return s
}

// load fetches the listing for the displayed folder, superseding any
// listing or lookup still in flight.
func (m *explorerModel) load() tea.Cmd {
	gen, ctx := m.tracker.Next(m.ctx)
	m.loading = true
	m.status, m.statusErr = "", false
	c, folderID, mode := m.client, m.nav.Current(), m.mode
	fetch := func() tea.Msg {
		if mode == sharedView {
			files, err := c.ListSharedFiles(ctx)
			return contentsMsg{gen: gen, contents: domain.Contents{Files: files}, err: err}
		}
		contents, err := c.ListContents(ctx, folderID)
		return contentsMsg{gen: gen, contents: contents, err: err}
	}
	return tea.Batch(m.spinner.Tick, fetch)
}

// navigate moves the breadcrumb to target. Entries already on it are
// resolved in place, anything else needs a lookup of the current folder.
func (m *explorerModel) navigate(target string) tea.Cmd {
	if next, ok := m.nav.Local(target); ok {
		if next.Current() == m.nav.Current() {
			return nil
		}
		m.nav = next
		m.clearFilter()
		return m.load()
	}
	gen, ctx := m.tracker.Next(m.ctx)
	m.loading = true
	m.clearFilter()
	nav := m.nav
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		next, err := nav.Navigate(ctx, target)
		return navigatedMsg{gen: gen, nav: next, err: err}
	})
}

// reset forgets the listing and the breadcrumb, requests in flight are dropped.
func (m *explorerModel) reset() {
	m.tracker.Stop()
	m.nav = navigator.New(m.client)
	m.mode = ownView
	m.clearFilter()
	m.rows = nil
	m.loading, m.showHelp = false, false
	m.status, m.statusErr = "", false
	m.table.SetCursor(0)
	m.populateTable()
}

func (m *explorerModel) setContents(c domain.Contents) {
	rows := make([]row, 0, len(c.Folders)+len(c.Files))
	for _, f := range c.Folders {
		rows = append(rows, row{kind: domain.FolderKind, folder: f})
	}
	for _, f := range c.Files {
		rows = append(rows, row{kind: domain.FileKind, file: f})
	}
	m.rows = rows
	if m.filterState != unfiltered {
		m.applyFilter()
	}
	m.populateTable()
	if m.table.Cursor() >= len(m.table.Rows()) {
		m.table.SetCursor(max(0, len(m.table.Rows())-1))
	}
}

func (m *explorerModel) applyFilter() {
	names := make([]string, len(m.rows))
	for i, r := range m.rows {
		names[i] = r.name()
	}
	m.filtered = filter(m.filter.Value(), names)
	m.populateTable()
}

func (m *explorerModel) clearFilter() {
	m.filterState = unfiltered
	m.filter.Reset()
	m.filter.Blur()
	m.filtered = nil
	m.populateTable()
}

// visible maps table rows to m.rows indexes.
func (m explorerModel) visible() []int {
	if m.filterState != unfiltered && m.filter.Value() != "" {
		return m.filtered
	}
	idx := make([]int, len(m.rows))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (m *explorerModel) populateTable() {
	cols := m.table.Columns()
	nameW := 0
	if len(cols) > 0 {
		nameW = cols[0].Width
	}
	visible := m.visible()
	rows := make([]table.Row, len(visible))
	for i, idx := range visible {
		r := m.rows[idx]
		if r.kind == domain.FolderKind {
			f := r.folder
			rows[i] = table.Row{
				runewidth.Truncate(f.Name+"/", nameW, "…"),
				"folder",
				"---",
				modified(f.UpdatedAt, f.CreatedAt),
				access(len(f.SharedWith), false),
			}
			continue
		}
		f := r.file
		rows[i] = table.Row{
			runewidth.Truncate(f.OriginalFilename, nameW, "…"),
			fileType(f),
			humanize.Bytes(uint64(f.Size)),
			modified(f.UpdatedAt, f.CreatedAt),
			access(len(f.SharedWith), f.IsPublic),
		}
	}
	m.table.SetRows(rows)
}

func (m explorerModel) selected() (row, bool) {
	visible := m.visible()
	c := m.table.Cursor()
	if c < 0 || c >= len(visible) {
		return row{}, false
	}
	return m.rows[visible[c]], true
}

func (m explorerModel) currentEntry() navigator.Entry {
	path := m.nav.Path()
	return path[len(path)-1]
}

func (m explorerModel) confirmDelete(r row) tea.Cmd {
	item := r.item()
	body := fmt.Sprintf("Are you sure you want to delete “%s”?", item.Name)
	if item.Kind == domain.FolderKind {
		body += " All files inside will also be deleted."
	}
	c, ctx := m.client, m.ctx
	return confirmCmd("DELETE "+strings.ToUpper(item.Kind.String())+"?", body, func() tea.Cmd {
		return func() tea.Msg {
			var err error
			if item.Kind == domain.FolderKind {
				err = c.DeleteFolder(ctx, item.ID)
			} else {
				err = c.DeleteFile(ctx, item.ID)
			}
			return deletedMsg{item: item, err: err}
		}
	})
}

// download saves f into the download folder as a background task, so that
// quitting waits for it to finish or be canceled.
func (m *explorerModel) download(f domain.File) tea.Cmd {
	m.downloads++
	c, dir := m.client, m.downloadDir
	return func() tea.Msg {
		var msg downloadedMsg
		bgtask.Get().RunAndBlock(func(shutdownCtx context.Context) {
			msg = downloadFile(shutdownCtx, c, f, dir)
		})
		return msg
	}
}

func downloadFile(ctx context.Context, c *client.Client, f domain.File, dir string) downloadedMsg {
	dl, err := c.DownloadFile(ctx, f.ID)
	if err != nil {
		return downloadedMsg{file: f, err: err}
	}
	defer dl.Body.Close()
	name := dl.Filename
	if name == "" {
		name = f.OriginalFilename
	}
	name = util.SanitizeFilename(name, sharing.FallbackFilename)
	path, n, err := util.SaveStream(dir, name, dl.Body)
	if err != nil {
		return downloadedMsg{file: f, err: fmt.Errorf("saving %q: %w", name, err)}
	}
	return downloadedMsg{file: f, path: path, size: n}
}

func modified(updated, created domain.Time) string {
	t := updated
	if t.IsZero() {
		t = created
	}
	if t.IsZero() {
		return "---"
	}
	return humanize.Time(t.Time)
}

func access(sharedWith int, public bool) string {
	switch {
	case public:
		return "public"
	case sharedWith > 0:
		return fmt.Sprintf("shared (%d)", sharedWith)
	default:
		return "private"
	}
}

func fileType(f domain.File) string {
	ext := strings.TrimPrefix(filepath.Ext(f.OriginalFilename), ".")
	if ext == "" || "."+ext == f.OriginalFilename { // .gitignore or similar files
		return "---"
	}
	return ext
}

func customExplorerHelp(show bool, mode viewMode) *lipTable.Table {
	baseStyle := lipgloss.NewStyle()
	var rows [][]string
	switch {
	case !show:
		rows = [][]string{{"?", "help"}}
	case mode == sharedView:
		rows = [][]string{
			{"d", "download file"},
			{"r", "refresh"},
			{"/", "filter"},
			{"tab", "my files"},
			{"ctrl+l", "log out"},
			{"?", "hide help"},
		}
	default:
		rows = [][]string{
			{"enter/→", "open folder"},
			{"backspace/←", "parent folder"},
			{"1-9", "jump to breadcrumb"},
			{"n", "new folder"},
			{"u", "upload file"},
			{"d", "download file"},
			{"s", "share with user"},
			{"p", "public link"},
			{"x", "delete"},
			{"r", "refresh"},
			{"/", "filter"},
			{"tab", "shared with me"},
			{"ctrl+l", "log out"},
			{"?", "hide help"},
		}
	}
	return lipTable.New().
		Border(lipgloss.HiddenBorder()).
		BorderBottom(false).
		Wrap(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			switch col {
			case 0:
				return baseStyle.Foreground(highlightColor).Align(lipgloss.Left).Faint(true) // key style
			case 1:
				return baseStyle.Foreground(midHighlightColor).Align(lipgloss.Right) // desc style
			default:
				return baseStyle
			}
		}).Rows(rows...)
}
