package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/prattle/core"
	"pkt.systems/prattle/internal/dataform"
	"pkt.systems/prattle/internal/logx"
	"pkt.systems/prattle/schema"
)

// HandlerConfig configures slash command behavior.
type HandlerConfig struct {
	DisableAuditLogging bool
}

// Handler routes slash commands and plain input to the hub and the windows.
type Handler struct {
	hub     Hub
	plugins Plugins
	cfg     HandlerConfig
}

// NewHandler constructs a command handler. plugins may be nil.
func NewHandler(hub Hub, plugins Plugins, cfg HandlerConfig) *Handler {
	return &Handler{hub: hub, plugins: plugins, cfg: cfg}
}

// Handle executes input when it is a slash command. It reports false for
// plain text, which callers pass to Say.
func (h *Handler) Handle(ctx context.Context, s Session, input string) (bool, error) {
	if ctx == nil {
		return false, errors.New("missing context")
	}
	cmd, ok := Parse(input)
	if !ok {
		return false, nil
	}
	userID := s.UserID()
	log := logx.WithUserWin(ctx, userID, currentSubject(s)).With("command", cmd.Name, "args", len(cmd.Args))
	if !h.cfg.DisableAuditLogging {
		log.Debug("audit command", "input", strings.TrimSpace(input))
	}
	log.Info("command slash request")
	var err error
	switch cmd.Name {
	case "":
		err = errors.New("invalid command")
	case "help":
		h.handleHelp(s)
	case "me":
		err = errors.New("usage: /me <action>")
	case "msg":
		err = h.handleMsg(ctx, s, cmd)
	case "join":
		err = h.handleJoin(s, cmd)
	case "leave":
		err = h.handleLeave(s)
	case "close":
		err = h.handleClose(s, cmd)
	case "win":
		err = h.handleWin(s, cmd)
	case "wins":
		h.handleWins(s)
	case "status":
		err = h.handleStatus(s, cmd)
	case "who":
		err = h.handleWho(s)
	case "info":
		err = h.handleInfo(s, cmd)
	case "roster":
		err = h.handlePanel(s, cmd, "roster")
	case "occupants":
		err = h.handlePanel(s, cmd, "occupants")
	case "otr":
		err = h.handleOTR(s, cmd)
	case "room":
		err = h.handleRoom(s, cmd)
	case "form":
		err = h.handleForm(s, cmd)
	case "xmlconsole":
		_, err = s.OpenXMLConsole()
	case "prefs":
		err = h.handlePrefs(s, cmd)
	case "theme":
		err = h.handleTheme(s, cmd)
	case "quit":
		s.Quit()
	default:
		handled := false
		if h.plugins != nil {
			handled, err = h.plugins.Run("/"+cmd.Name, cmd.Args)
		}
		if !handled {
			err = fmt.Errorf("unknown command: /%s", cmd.Name)
		}
	}
	if err != nil {
		log.Warn("command slash failed", "err", err)
	}
	return true, err
}

// Say sends plain input to whoever the current window talks to.
func (h *Handler) Say(ctx context.Context, s Session, text string) error {
	win := s.Current()
	if win == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	text = MessageText(text)
	userID := s.UserID()
	log := logx.WithUserWin(ctx, userID, win.Subject())
	switch win.Kind() {
	case schema.WindowChat:
		msg, err := h.hub.SendMessage(userID, win.Subject(), text)
		if err != nil {
			log.Warn("say failed", "err", err)
			return err
		}
		core.PrintOutgoing(win, msg.Time, "me", text)
		s.Prefs().AddRecent(win.Subject())
	case schema.WindowMuc:
		// The room echoes the message back to every occupant.
		if _, err := h.hub.SendRoom(userID, win.Subject(), text); err != nil {
			log.Warn("say failed", "err", err)
			return err
		}
	case schema.WindowPrivate:
		msg, err := h.hub.SendPrivate(userID, win.Subject(), text)
		if err != nil {
			log.Warn("say failed", "err", err)
			return err
		}
		core.PrintOutgoing(win, msg.Time, "me", text)
	case schema.WindowMucConfig:
		win.SavePrintln("Use /form set <field> <value>, /form submit or /form cancel.")
	default:
		win.SavePrintln("Unknown command: " + text)
	}
	return nil
}

func currentSubject(s Session) string {
	if win := s.Current(); win != nil {
		return win.Subject()
	}
	return ""
}

func (h *Handler) handleHelp(s Session) {
	win := s.Current()
	for _, line := range helpLines() {
		win.SavePrintln(line)
	}
	if h.plugins == nil {
		return
	}
	cmds := h.plugins.Commands()
	if len(cmds) == 0 {
		return
	}
	win.SavePrintln("Plugin commands:")
	for _, cmd := range cmds {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		win.SavePrintln(fmt.Sprintf("  %-28s %s", usage, cmd.Help))
	}
}

func helpLines() []string {
	return []string{
		"Commands:",
		"  /msg <jid> [message]         Open a chat, optionally sending a message.",
		"  /me <action>                 Send an action to the current chat or room.",
		"  /join <room> [nick]          Join or create a room.",
		"  /leave                       Leave the current room.",
		"  /close [n]                   Close window n or the current window.",
		"  /win <n>                     Switch to window n (Alt-1..Alt-0).",
		"  /wins                        List open windows.",
		"  /status <show> [message]     Set presence: online, chat, away, xa, dnd.",
		"  /who                         List contacts or room occupants.",
		"  /info [jid|nick]             Show details about a contact or occupant.",
		"  /roster show|hide            Toggle the roster panel in chat windows.",
		"  /occupants show|hide         Toggle the occupants panel in rooms.",
		"  /otr start|end|trust|untrust Mark the chat session encryption state.",
		"  /room config                 Edit the current room's configuration.",
		"  /form show|set|submit|cancel Work with an open configuration form.",
		"  /xmlconsole                  Open the protocol console.",
		"  /prefs [beep|flash on|off]   Show or change preferences.",
		"  /theme [name]                Show or change the theme.",
		"  /quit                        Leave prattle.",
		"Quote arguments that contain spaces. Start a line with // to send a literal /.",
		"Keys: PgUp/PgDn page, End jumps to the newest line, Alt-PgUp/Alt-PgDn scroll the side panel.",
	}
}

func (h *Handler) handleMsg(ctx context.Context, s Session, cmd Command) error {
	if len(cmd.Args) < 1 {
		return errors.New("usage: /msg <jid> [message]")
	}
	jid, err := schema.QualifyJID(cmd.Args[0], h.hub.Domain())
	if err != nil {
		return err
	}
	if jid.Domain == schema.RoomDomain(h.hub.Domain()) && jid.Resource != "" {
		if _, err := s.OpenPrivate(jid.String()); err != nil {
			return err
		}
		if body := cmd.Rest(1); body != "" {
			return h.Say(ctx, s, body)
		}
		return nil
	}
	if _, err := h.hub.Contact(jid.Bare()); err != nil {
		return err
	}
	if _, err := s.OpenChat(jid.Bare()); err != nil {
		return err
	}
	s.Prefs().AddRecent(jid.Bare())
	s.ApplyPrefs()
	if body := cmd.Rest(1); body != "" {
		return h.Say(ctx, s, body)
	}
	return nil
}

func (h *Handler) handleJoin(s Session, cmd Command) error {
	if len(cmd.Args) < 1 {
		return errors.New("usage: /join <room> [nick]")
	}
	roomJID, err := h.hub.RoomJID(cmd.Args[0])
	if err != nil {
		return err
	}
	nick := string(s.UserID())
	if len(cmd.Args) > 1 {
		nick = cmd.Args[1]
	}
	occupants, err := h.hub.JoinRoom(s.UserID(), roomJID, nick)
	if err != nil {
		return err
	}
	win, err := s.OpenMuc(roomJID)
	if err != nil {
		_ = h.hub.LeaveRoom(s.UserID(), roomJID)
		return err
	}
	names := make([]string, 0, len(occupants))
	for _, occ := range occupants {
		names = append(names, occ.Nick)
	}
	win.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeRoomInfo, Text: "-> You have joined the room as " + nick})
	win.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeRoomInfo, Text: "Room occupants: " + strings.Join(names, ", ")})
	return nil
}

func (h *Handler) handleLeave(s Session) error {
	win := s.Current()
	if win.Kind() != schema.WindowMuc {
		return errors.New("/leave only works in a room window")
	}
	return s.Close(0)
}

func (h *Handler) handleClose(s Session, cmd Command) error {
	slot := 0
	if len(cmd.Args) > 0 {
		n, err := parseSlot(cmd.Args[0])
		if err != nil {
			return err
		}
		slot = n
	}
	target := s.Current()
	if slot != 0 {
		target = s.Window(slot)
	}
	if target == nil {
		return fmt.Errorf("no window in slot %d", slot)
	}
	if core.HasModifiedForm(target) {
		return errors.New("the form has unsaved changes, use /form submit or /form cancel")
	}
	return s.Close(slot)
}

func parseSlot(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 10 {
		return 0, fmt.Errorf("window number must be 1-10, got %q", raw)
	}
	return n, nil
}

func (h *Handler) handleWin(s Session, cmd Command) error {
	if len(cmd.Args) != 1 {
		return errors.New("usage: /win <n>")
	}
	n, err := parseSlot(cmd.Args[0])
	if err != nil {
		return err
	}
	return s.Focus(n)
}

func (h *Handler) handleWins(s Session) {
	win := s.Current()
	win.SavePrintln("Active windows:")
	for _, info := range s.Windows() {
		line := fmt.Sprintf("%d: %s", info.Slot, info.Title)
		if info.Unread > 0 {
			line += fmt.Sprintf(", %d unread", info.Unread)
		}
		if info.Current {
			line += " (current)"
		}
		win.SavePrintln(line)
	}
}

func (h *Handler) handleStatus(s Session, cmd Command) error {
	if len(cmd.Args) < 1 {
		return errors.New("usage: /status <online|chat|away|xa|dnd> [message]")
	}
	show, err := schema.NormalizePresence(cmd.Args[0])
	if err != nil {
		return err
	}
	status := cmd.Rest(1)
	if err := h.hub.SetPresence(s.UserID(), show, status); err != nil {
		return err
	}
	s.Console().ShowStatusString(core.StatusString{From: "Status", Show: show, Status: status})
	return nil
}

func (h *Handler) handleWho(s Session) error {
	win := s.Current()
	if win.Kind() == schema.WindowMuc {
		occupants, err := h.hub.Occupants(win.Subject())
		if err != nil {
			return err
		}
		win.SavePrintln("Room occupants:")
		for _, occ := range occupants {
			win.ShowOccupant(occ)
		}
		return nil
	}
	roster := h.hub.Roster(s.UserID())
	if len(roster) == 0 {
		win.SavePrintln("No contacts.")
		return nil
	}
	win.SavePrintln("Contacts:")
	for _, contact := range roster {
		win.ShowContact(contact)
	}
	return nil
}

func (h *Handler) handleInfo(s Session, cmd Command) error {
	win := s.Current()
	switch win.Kind() {
	case schema.WindowMuc:
		if len(cmd.Args) != 1 {
			return errors.New("usage: /info <nick>")
		}
		occ, err := h.hub.Occupant(win.Subject(), cmd.Args[0])
		if err != nil {
			return err
		}
		win.ShowOccupantInfo(win.Subject(), occ)
		return nil
	case schema.WindowPrivate:
		jid, err := schema.ParseJID(win.Subject())
		if err != nil {
			return err
		}
		occ, err := h.hub.Occupant(jid.Bare(), jid.Resource)
		if err != nil {
			return err
		}
		win.ShowOccupantInfo(jid.Bare(), occ)
		return nil
	}
	target := ""
	if len(cmd.Args) > 0 {
		target = cmd.Args[0]
	} else if win.Kind() == schema.WindowChat {
		target = win.Subject()
	}
	if target == "" {
		return errors.New("usage: /info <jid>")
	}
	contact, err := h.hub.Contact(target)
	if err != nil {
		return err
	}
	win.ShowInfo(contact)
	return nil
}

func (h *Handler) handlePanel(s Session, cmd Command, panel string) error {
	if len(cmd.Args) != 1 || (cmd.Args[0] != "show" && cmd.Args[0] != "hide") {
		return fmt.Errorf("usage: /%s show|hide", panel)
	}
	visible := cmd.Args[0] == "show"
	p := s.Prefs()
	if panel == "roster" {
		p.Roster = visible
	} else {
		p.Occupants = visible
	}
	s.ApplyPrefs()
	s.Current().SavePrintln(fmt.Sprintf("%s panel %s.", strings.ToUpper(panel[:1])+panel[1:], map[bool]string{true: "enabled", false: "disabled"}[visible]))
	return nil
}

func (h *Handler) handleOTR(s Session, cmd Command) error {
	chat, ok := s.Current().(*core.ChatWindow)
	if !ok {
		return errors.New("/otr only works in a chat window")
	}
	if len(cmd.Args) != 1 {
		return errors.New("usage: /otr start|end|trust|untrust")
	}
	switch cmd.Args[0] {
	case "start":
		chat.SetOTR(true)
		chat.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeIncoming, Text: "OTR session started (untrusted)."})
	case "end":
		chat.SetOTR(false)
		chat.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeOffline, Text: "OTR session ended."})
	case "trust":
		if !core.IsOTR(chat) {
			return errors.New("no OTR session in progress")
		}
		chat.SetTrusted(true)
		chat.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeOnline, Text: "OTR session trusted."})
	case "untrust":
		if !core.IsOTR(chat) {
			return errors.New("no OTR session in progress")
		}
		chat.SetTrusted(false)
		chat.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeAway, Text: "OTR session untrusted."})
	default:
		return errors.New("usage: /otr start|end|trust|untrust")
	}
	return nil
}

func (h *Handler) handleRoom(s Session, cmd Command) error {
	win := s.Current()
	if win.Kind() != schema.WindowMuc {
		return errors.New("/room only works in a room window")
	}
	if len(cmd.Args) != 1 || cmd.Args[0] != "config" {
		return errors.New("usage: /room config")
	}
	form, err := h.hub.RoomForm(s.UserID(), win.Subject())
	if err != nil {
		return err
	}
	cfgWin, err := s.OpenMucConfig(win.Subject(), form)
	if err != nil {
		return err
	}
	showForm(cfgWin, form)
	return nil
}

func (h *Handler) handleForm(s Session, cmd Command) error {
	win, ok := s.Current().(*core.MucConfigWindow)
	if !ok {
		return errors.New("/form only works in a room configuration window")
	}
	form, ok := win.Form().(*dataform.Form)
	if !ok || form == nil {
		return errors.New("no form in this window")
	}
	if !form.Valid() {
		return dataform.ErrDestroyed
	}
	if len(cmd.Args) < 1 {
		return errors.New("usage: /form show|set <field> <value>|submit|cancel")
	}
	switch cmd.Args[0] {
	case "show":
		showForm(win, form)
	case "set":
		if len(cmd.Args) < 2 {
			return errors.New("usage: /form set <field> <value>")
		}
		value := cmd.Rest(2)
		if err := form.Set(cmd.Args[1], value); err != nil {
			return err
		}
		current, _ := form.Get(cmd.Args[1])
		win.SavePrintln(fmt.Sprintf("Field %s set to %q.", cmd.Args[1], current))
	case "submit":
		if _, err := h.hub.SubmitRoomForm(s.UserID(), win.Subject()); err != nil {
			return err
		}
		s.Console().SavePrintln("Room configuration for " + win.Subject() + " saved.")
		return s.Close(0)
	case "cancel":
		form.Reset()
		s.Console().SavePrintln("Room configuration for " + win.Subject() + " cancelled.")
		return s.Close(0)
	default:
		return errors.New("usage: /form show|set <field> <value>|submit|cancel")
	}
	return nil
}

func showForm(win core.Window, form *dataform.Form) {
	win.SavePrint(core.PrintRequest{ShowChar: '-', Theme: schema.ThemeRoomInfo, Text: form.Title()})
	for _, field := range form.Fields() {
		line := fmt.Sprintf("  %s (%s): %s", field.Label, field.Var, field.Value)
		if len(field.Options) > 0 {
			line += " [" + strings.Join(field.Options, "|") + "]"
		}
		win.SavePrintln(line)
	}
}

func (h *Handler) handlePrefs(s Session, cmd Command) error {
	p := s.Prefs()
	win := s.Current()
	if len(cmd.Args) == 0 {
		win.SavePrintln("Preferences:")
		win.SavePrintln("  beep: " + onOff(p.Beep))
		win.SavePrintln("  flash: " + onOff(p.Flash))
		win.SavePrintln("  roster: " + onOff(p.Roster))
		win.SavePrintln("  occupants: " + onOff(p.Occupants))
		return nil
	}
	if len(cmd.Args) != 2 || (cmd.Args[1] != "on" && cmd.Args[1] != "off") {
		return errors.New("usage: /prefs beep|flash on|off")
	}
	on := cmd.Args[1] == "on"
	switch cmd.Args[0] {
	case "beep":
		p.Beep = on
	case "flash":
		p.Flash = on
	default:
		return errors.New("usage: /prefs beep|flash on|off")
	}
	s.ApplyPrefs()
	win.SavePrintln(fmt.Sprintf("Preference %s set to %s.", cmd.Args[0], cmd.Args[1]))
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (h *Handler) handleTheme(s Session, cmd Command) error {
	win := s.Current()
	if len(cmd.Args) == 0 {
		names := make([]string, 0)
		for _, name := range schema.AvailableThemes() {
			names = append(names, string(name))
		}
		current := s.Prefs().Theme
		if current == "" {
			current = schema.DefaultTheme
		}
		win.SavePrintln("Current theme: " + string(current))
		win.SavePrintln("Available themes: " + strings.Join(names, ", "))
		return nil
	}
	name, ok := schema.NormalizeThemeName(cmd.Args[0])
	if !ok {
		return fmt.Errorf("unknown theme: %s", cmd.Args[0])
	}
	s.Prefs().Theme = name
	s.ApplyPrefs()
	win.SavePrintln("Theme set to " + string(name) + ".")
	return nil
}
