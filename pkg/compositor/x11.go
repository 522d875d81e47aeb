package compositor

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11ActiveWindow is the generic fallback: it speaks the X protocol
// directly (also reaching XWayland windows) instead of shelling out to
// a compositor tool.
func x11ActiveWindow(p *Provider) (WindowInfo, error) {
	client, err := newX11Client()
	if err != nil {
		return WindowInfo{}, fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer client.close()

	windowID, err := client.activeWindow()
	if err != nil {
		return WindowInfo{}, err
	}

	instance, class := client.windowClass(windowID)
	appID := instance
	if appID == "" {
		appID = class
	}

	info := WindowInfo{
		Title:       client.windowName(windowID),
		AppID:       appID,
		WindowClass: class,
		Workspace:   client.currentDesktop(),
		Geometry:    client.windowGeometry(windowID),
	}
	if pid := client.windowPID(windowID); pid != 0 {
		info.PID = strconv.FormatUint(uint64(pid), 10)
	}
	return info, nil
}

type x11Client struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

func newX11Client() (*x11Client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	client := &x11Client{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom),
	}

	atomNames := []string{
		"_NET_ACTIVE_WINDOW",
		"_NET_WM_NAME",
		"_NET_WM_PID",
		"_NET_CURRENT_DESKTOP",
		"WM_NAME",
		"WM_CLASS",
		"UTF8_STRING",
	}
	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, err
		}
		client.atoms[name] = reply.Atom
	}

	return client, nil
}

func (c *x11Client) close() {
	c.conn.Close()
}

func (c *x11Client) property(window xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *x11Client) activeWindow() (xproto.Window, error) {
	data, err := c.property(c.root, c.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err == nil && len(data) >= 4 {
		if window := xproto.Window(binary.LittleEndian.Uint32(data)); window != 0 {
			return window, nil
		}
	}

	// Some window managers don't maintain _NET_ACTIVE_WINDOW.
	reply, err := xproto.GetInputFocus(c.conn).Reply()
	if err != nil || reply.Focus == 0 || reply.Focus == c.root {
		return 0, fmt.Errorf("no active window found")
	}
	return c.topLevelParent(reply.Focus), nil
}

func (c *x11Client) topLevelParent(window xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(c.conn, window).Reply()
		if err != nil || reply.Parent == c.root || reply.Parent == 0 {
			return window
		}
		window = reply.Parent
	}
}

func (c *x11Client) windowName(window xproto.Window) string {
	data, err := c.property(window, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	data, err = c.property(window, c.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func (c *x11Client) windowClass(window xproto.Window) (instance, class string) {
	data, err := c.property(window, c.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return "", ""
	}

	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

func (c *x11Client) windowPID(window xproto.Window) uint32 {
	data, err := c.property(window, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

func (c *x11Client) currentDesktop() string {
	data, err := c.property(c.root, c.atoms["_NET_CURRENT_DESKTOP"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return ""
	}
	return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(data)), 10)
}

func (c *x11Client) windowGeometry(window xproto.Window) string {
	geom, err := xproto.GetGeometry(c.conn, xproto.Drawable(window)).Reply()
	if err != nil {
		return ""
	}

	// Window coordinates are relative to the parent; translate to root.
	x, y := int(geom.X), int(geom.Y)
	if trans, err := xproto.TranslateCoordinates(c.conn, window, c.root, 0, 0).Reply(); err == nil {
		x, y = int(trans.DstX), int(trans.DstY)
	}

	return formatGeometry(int(geom.Width), int(geom.Height), x, y)
}
