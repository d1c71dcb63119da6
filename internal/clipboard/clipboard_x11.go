//go:build !cgo && (linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import (
	"bytes"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog/log"
)

// Without cgo the clipboard is served by talking the X11 selection protocol
// directly. Wayland sessions work through XWayland.

var (
	initOnce sync.Once
	initErr  error
	owner    *selectionOwner
)

func ensureInit() error {
	initOnce.Do(func() {
		if !displayAvailable() {
			initErr = errNoDisplay
			return
		}
		o, err := newSelectionOwner()
		if err != nil {
			initErr = fmt.Errorf("connect to X server: %w", err)
			return
		}
		owner = o
	})
	return initErr
}

// WriteImage publishes img to the clipboard.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return owner.own(data)
}

// ReadImage returns the image currently on the clipboard.
func ReadImage() (image.Image, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := owner.request(owner.atoms.png)
	if err != nil {
		return nil, err
	}
	return decodePNG(data)
}

type atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	png       xproto.Atom
	transfer  xproto.Atom
	incr      xproto.Atom
}

// selectionOwner keeps a hidden window that answers selection requests
// for the PNG it last published. PNGs larger than one request are sent
// with the INCR protocol.
type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atoms
	chunk  int

	mu  sync.RWMutex
	png []byte

	// incr is only touched by the serve goroutine.
	incr transfers
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	mask := []uint32{xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify}
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, mask).Check(); err != nil {
		conn.Close()
		return nil, err
	}
	a, err := lookupAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		conn.Close()
		return nil, err
	}
	o := &selectionOwner{
		conn:   conn,
		window: win,
		atoms:  a,
		chunk:  chunkLimit(setup.MaximumRequestLength),
		incr:   transfers{},
	}
	go o.serve()
	return o, nil
}

func lookupAtoms(conn *xgb.Conn) (atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "image/png", "MANGAREADER_CLIPBOARD", "INCR"}
	found := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atoms{}, fmt.Errorf("intern atom %s: %w", name, err)
		}
		found[i] = reply.Atom
	}
	return atoms{clipboard: found[0], targets: found[1], png: found[2], transfer: found[3], incr: found[4]}, nil
}

func (o *selectionOwner) own(data []byte) error {
	o.mu.Lock()
	o.png = append([]byte(nil), data...)
	o.mu.Unlock()
	if err := xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("claim clipboard: %w", err)
	}
	reply, err := xproto.GetSelectionOwner(o.conn, o.atoms.clipboard).Reply()
	if err != nil {
		return fmt.Errorf("claim clipboard: %w", err)
	}
	if reply.Owner != o.window {
		return fmt.Errorf("claim clipboard: owned by window %d", reply.Owner)
	}
	return nil
}

// pumpEvents forwards events from conn until the connection closes or done
// is closed. X errors are logged and do not stop the pump.
func pumpEvents(conn *xgb.Conn, done <-chan struct{}) <-chan xgb.Event {
	events := make(chan xgb.Event, 16)
	go func() {
		defer close(events)
		for {
			ev, xerr := conn.WaitForEvent()
			switch {
			case ev == nil && xerr == nil:
				return
			case xerr != nil:
				log.Debug().Str("error", xerr.Error()).Msg("clipboard x11 error")
			default:
				select {
				case events <- ev:
				case <-done:
					return
				}
			}
		}
	}()
	return events
}

func (o *selectionOwner) serve() {
	for ev := range pumpEvents(o.conn, nil) {
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.png = nil
			o.mu.Unlock()
		case xproto.PropertyNotifyEvent:
			if e.State == xproto.PropertyDelete {
				o.continueIncr(e)
			}
		}
		for _, k := range o.incr.expire(time.Now()) {
			log.Debug().Uint32("requestor", k.requestor).Msg("clipboard transfer abandoned")
			o.stopWatching(xproto.Window(k.requestor))
		}
	}
}

// answer replies to a paste request from another client.
func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	prop := e.Property
	if prop == xproto.AtomNone {
		prop = e.Target
	}

	o.mu.RLock()
	data := o.png
	o.mu.RUnlock()

	var err error
	switch {
	case e.Target == o.atoms.targets:
		list := []xproto.Atom{o.atoms.targets}
		if len(data) > 0 {
			list = append(list, o.atoms.png)
		}
		buf := make([]byte, 4*len(list))
		for i, a := range list {
			xgb.Put32(buf[4*i:], uint32(a))
		}
		err = xproto.ChangePropertyChecked(o.conn, xproto.PropModeReplace, e.Requestor, prop,
			xproto.AtomAtom, 32, uint32(len(list)), buf).Check()
	case e.Target == o.atoms.png && len(data) > o.chunk:
		err = o.startIncr(e.Requestor, prop, data)
	case e.Target == o.atoms.png && len(data) > 0:
		err = xproto.ChangePropertyChecked(o.conn, xproto.PropModeReplace, e.Requestor, prop,
			o.atoms.png, 8, uint32(len(data)), data).Check()
	default:
		prop = xproto.AtomNone
	}
	if err != nil {
		log.Warn().Err(err).Msg("clipboard answer")
		prop = xproto.AtomNone
	}

	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  prop,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(reply.Bytes()))
}

// startIncr announces an incremental transfer of data. The requestor
// starts reading by deleting the INCR property.
func (o *selectionOwner) startIncr(requestor xproto.Window, prop xproto.Atom, data []byte) error {
	if err := xproto.ChangeWindowAttributesChecked(o.conn, requestor, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return fmt.Errorf("watch requestor: %w", err)
	}
	size := make([]byte, 4)
	xgb.Put32(size, uint32(len(data)))
	if err := xproto.ChangePropertyChecked(o.conn, xproto.PropModeReplace, requestor, prop,
		o.atoms.incr, 32, 1, size).Check(); err != nil {
		o.stopWatching(requestor)
		return err
	}
	key := transferKey{requestor: uint32(requestor), property: uint32(prop)}
	o.incr[key] = newIncrTransfer(data, o.chunk, time.Now())
	return nil
}

// continueIncr writes the next piece once the requestor consumed the last.
func (o *selectionOwner) continueIncr(e xproto.PropertyNotifyEvent) {
	key := transferKey{requestor: uint32(e.Window), property: uint32(e.Atom)}
	tr, ok := o.incr[key]
	if !ok {
		return
	}
	piece, done := tr.next(time.Now())
	err := xproto.ChangePropertyChecked(o.conn, xproto.PropModeReplace, e.Window, e.Atom,
		o.atoms.png, 8, uint32(len(piece)), piece).Check()
	if err != nil || done {
		if err != nil {
			log.Warn().Err(err).Msg("clipboard transfer")
		}
		delete(o.incr, key)
		o.stopWatching(e.Window)
	}
}

func (o *selectionOwner) stopWatching(requestor xproto.Window) {
	xproto.ChangeWindowAttributes(o.conn, requestor, xproto.CwEventMask, []uint32{xproto.EventMaskNoEvent})
}

// request converts the clipboard selection to target on a short-lived
// connection and returns the transferred bytes. Every wait on the owner is
// bounded by transferTimeout.
func (o *selectionOwner) request(target xproto.Atom) ([]byte, error) {
	o.mu.RLock()
	local := o.png
	o.mu.RUnlock()
	if local != nil {
		reply, err := xproto.GetSelectionOwner(o.conn, o.atoms.clipboard).Reply()
		if err == nil && reply.Owner == o.window {
			return append([]byte(nil), local...), nil
		}
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	done := make(chan struct{})
	defer close(done)
	events := pumpEvents(conn, done)

	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, win)

	if err := xproto.ConvertSelectionChecked(conn, win, o.atoms.clipboard, target, o.atoms.transfer, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	ev, err := awaitEvent(events, transferTimeout, func(ev xgb.Event) bool {
		n, ok := ev.(xproto.SelectionNotifyEvent)
		return ok && n.Requestor == win
	})
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", err)
	}
	n := ev.(xproto.SelectionNotifyEvent)
	if n.Property == xproto.AtomNone {
		return nil, ErrEmpty
	}
	prop, err := xproto.GetProperty(conn, true, win, n.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
	if err != nil {
		return nil, err
	}
	if prop.Type != o.atoms.incr {
		return append([]byte(nil), prop.Value...), nil
	}
	return readIncr(conn, events, win, n.Property)
}

// readIncr collects an incremental transfer. Deleting the property asks the
// owner for the next piece and an empty piece marks the end.
func readIncr(conn *xgb.Conn, events <-chan xgb.Event, win xproto.Window, prop xproto.Atom) ([]byte, error) {
	var buf bytes.Buffer
	for {
		_, err := awaitEvent(events, transferTimeout, func(ev xgb.Event) bool {
			p, ok := ev.(xproto.PropertyNotifyEvent)
			return ok && p.Window == win && p.Atom == prop && p.State == xproto.PropertyNewValue
		})
		if err != nil {
			return nil, fmt.Errorf("read clipboard after %d bytes: %w", buf.Len(), err)
		}
		piece, err := xproto.GetProperty(conn, true, win, prop, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if err != nil {
			return nil, err
		}
		if len(piece.Value) == 0 {
			return buf.Bytes(), nil
		}
		buf.Write(piece.Value)
	}
}
