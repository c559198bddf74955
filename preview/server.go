package preview

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/guanlun/psan1-rendering-engine/log"
	"github.com/guanlun/psan1-rendering-engine/renderer"
)

const (
	// Key presses received while the render loop is busy are buffered up
	// to this limit and dropped afterwards.
	keyBufferSize = 16

	// Only the latest few resize requests matter.
	resizeBufferSize = 4
)

var (
	ErrAlreadyListening = errors.New("preview: server is already listening")
)

// Server streams rendered frames to websocket clients and collects the key
// presses and resize requests they send back. Frames are published from the
// render loop; the loop drains Keys() and Resizes() between frames.
type Server struct {
	logger   log.Logger
	upgrader websocket.Upgrader

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*sync.Mutex

	frameMutex sync.RWMutex
	lastFrame  []byte

	keys    chan byte
	resizes chan ResizeRequest

	httpServer *http.Server
	listener   net.Listener
}

// Create a new preview server.
func NewServer() *Server {
	return &Server{
		logger: log.New("preview"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		keys:    make(chan byte, keyBufferSize),
		resizes: make(chan ResizeRequest, resizeBufferSize),
	}
}

// Get the http handler serving the websocket endpoint (/ws) and the last
// published frame (/frame.png).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/frame.png", s.serveFrame)
	return mux
}

// Start listening on addr. Connections are served in the background until
// Close is called.
func (s *Server) Listen(addr string) error {
	if s.listener != nil {
		return ErrAlreadyListening
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler()}

	go func() {
		err := s.httpServer.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("server stopped: %s", err.Error())
		}
	}()

	s.logger.Noticef("preview available at ws://%s/ws", listener.Addr().String())
	return nil
}

// Get the listen address or an empty string if the server is not listening.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Get the channel receiving key presses from connected clients.
func (s *Server) Keys() <-chan byte {
	return s.keys
}

// Get the channel receiving frame resize requests from connected clients.
func (s *Server) Resizes() <-chan ResizeRequest {
	return s.resizes
}

// Get the number of connected clients.
func (s *Server) NumClients() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// Encode img and broadcast it to all clients, preceded by a FrameMessage
// built from stats. Clients that fail to receive the frame are dropped.
func (s *Server) Publish(stats renderer.FrameStats, img image.Image) error {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	if err != nil {
		return err
	}
	frame := buf.Bytes()

	s.frameMutex.Lock()
	s.lastFrame = frame
	s.frameMutex.Unlock()

	msg := newFrameMessage(stats)
	clientsToRemove := []*websocket.Conn{}

	s.clientsMutex.RLock()
	for client, mutex := range s.clients {
		mutex.Lock()
		err = client.WriteJSON(msg)
		if err == nil {
			err = client.WriteMessage(websocket.BinaryMessage, frame)
		}
		mutex.Unlock()
		if err != nil {
			s.logger.Warningf("dropping client %s: %s", client.RemoteAddr(), err.Error())
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	s.clientsMutex.RUnlock()

	if len(clientsToRemove) > 0 {
		s.clientsMutex.Lock()
		for _, client := range clientsToRemove {
			client.Close()
			delete(s.clients, client)
		}
		s.clientsMutex.Unlock()
	}

	return nil
}

// Disconnect all clients and stop listening.
func (s *Server) Close() error {
	s.clientsMutex.Lock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	s.clientsMutex.Unlock()

	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Close()
	s.httpServer = nil
	s.listener = nil
	return err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warningf("websocket upgrade failed: %s", err.Error())
		return
	}
	defer conn.Close()

	s.clientsMutex.Lock()
	s.clients[conn] = &sync.Mutex{}
	s.clientsMutex.Unlock()
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.clientsMutex.Unlock()
	}()
	s.logger.Infof("client %s connected", conn.RemoteAddr())

	for {
		var msg ControlMessage
		err = conn.ReadJSON(&msg)
		if err != nil {
			s.logger.Debugf("client %s disconnected: %s", conn.RemoteAddr(), err.Error())
			return
		}
		if msg.Key != "" {
			s.queueKey(msg.Key, conn)
		}
		if msg.Resize != nil {
			s.queueResize(msg.Resize, conn)
		}
	}
}

func (s *Server) queueKey(key string, conn *websocket.Conn) {
	if len(key) != 1 {
		s.logger.Warningf("ignoring invalid key %q from %s", key, conn.RemoteAddr())
		return
	}

	select {
	case s.keys <- key[0]:
	default:
		s.logger.Warningf("key buffer full; dropping key %q", key)
	}
}

func (s *Server) queueResize(dims []uint32, conn *websocket.Conn) {
	if len(dims) != 2 {
		s.logger.Warningf("ignoring invalid resize %v from %s", dims, conn.RemoteAddr())
		return
	}

	select {
	case s.resizes <- ResizeRequest{Width: dims[0], Height: dims[1]}:
	default:
		s.logger.Warningf("resize buffer full; dropping resize to %dx%d", dims[0], dims[1])
	}
}

func (s *Server) serveFrame(w http.ResponseWriter, r *http.Request) {
	s.frameMutex.RLock()
	frame := s.lastFrame
	s.frameMutex.RUnlock()

	if frame == nil {
		http.Error(w, "no frame rendered yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(frame)
}
