package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/ceylontrails/tripplanner/pkg/concurrent"
	"github.com/ceylontrails/tripplanner/pkg/http/usecases"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub
}

func (u *User) readRequest() (*subscribeRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &subscribeRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Subscribe reads the next subscribe frame, binds the connection to the
// requested session, and replies with the current session snapshot. A
// connection may re-subscribe to a different session at any time.
func (u *User) Subscribe() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}

	if req == nil {
		return nil
	}

	validate := validator.New()

	if err := validate.Struct(req); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		errResp := envelope{"error": map[string]string{
			"code":    http.StatusText(http.StatusBadRequest),
			"message": fmt.Sprintf("validation error: %v", vvString),
		}}
		return u.write(errResp)
	}

	view, err := u.hub.plannerService.Session(req.SessionID)
	if err != nil {
		errResp := envelope{"error": map[string]string{
			"code":    http.StatusText(http.StatusNotFound),
			"message": err.Error(),
		}}
		return u.write(errResp)
	}

	u.hub.subscribe(u, req.SessionID)

	resp := envelope{"data": NewSessionResponse(view)}
	return u.write(resp)
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

// Hub fans recomputed session snapshots out to every websocket connection
// subscribed to that session.
type Hub struct {
	mu             sync.RWMutex
	seq            uint
	us             []*User
	ns             map[uint]*User
	sessions       map[string]map[uint]*User
	userSession    map[uint]string
	plannerService PlannerService

	pool *concurrent.WorkerPool
}

func NewHub(pool *concurrent.WorkerPool, plannerService PlannerService) *Hub {
	hub := &Hub{
		pool:           pool,
		ns:             make(map[uint]*User),
		us:             make([]*User, 0),
		sessions:       make(map[string]map[uint]*User),
		userSession:    make(map[uint]string),
		plannerService: plannerService,
	}

	return hub
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

func (h *Hub) subscribe(user *User, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.userSession[user.id]; ok {
		delete(h.sessions[prev], user.id)
		if len(h.sessions[prev]) == 0 {
			delete(h.sessions, prev)
		}
	}

	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[uint]*User)
	}
	h.sessions[sessionID][user.id] = user
	h.userSession[user.id] = sessionID
}

func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, oki := h.ns[user.id]; !oki {
		return
	}
	delete(h.ns, user.id)

	if sessionID, ok := h.userSession[user.id]; ok {
		delete(h.sessions[sessionID], user.id)
		if len(h.sessions[sessionID]) == 0 {
			delete(h.sessions, sessionID)
		}
		delete(h.userSession, user.id)
	}

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
}

func (h *Hub) RemoveAllUser() {
	h.mu.RLock()
	us := append([]*User(nil), h.us...)
	h.mu.RUnlock()

	for _, user := range us {
		h.Remove(user)
	}
}

// Notify implements usecases.Notifier. It is called from the planner's
// asynchronous route and geocode completions, so the actual writes are
// scheduled on the worker pool rather than done inline.
func (h *Hub) Notify(sessionID string, view *usecases.SessionView) {
	h.mu.RLock()
	subscribers := make([]*User, 0, len(h.sessions[sessionID]))
	for _, user := range h.sessions[sessionID] {
		subscribers = append(subscribers, user)
	}
	h.mu.RUnlock()

	if len(subscribers) == 0 {
		return
	}

	resp := envelope{"data": NewSessionResponse(view)}
	for _, user := range subscribers {
		user := user
		h.pool.Schedule(func() {
			if err := user.write(resp); err != nil {
				h.Remove(user)
				user.conn.Close()
			}
		})
	}
}
