// Package devserver serves an assets tree the way the browser loader
// expects it: /assets/index.json for the manifest and /assets/<path>
// for each listed file. Clients connected to /ws are pushed the new
// manifest whenever the index is rebuilt.
package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/tqbf/assetindex/pkg/index"
	"github.com/tqbf/assetindex/pkg/paths"
)

const (
	TypeIndex = "index"

	writeTimeout = 5 * time.Second
)

// Update is the websocket message carrying a manifest.
type Update struct {
	Type  string   `json:"type"`
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
}

type Server struct {
	root string
	opts index.Options

	mu       sync.RWMutex
	manifest *index.Manifest
	encoded  []byte
	update   []byte
	files    map[string]bool

	// SubscriberBuffer is how many updates may queue for one
	// websocket client before it is dropped as too slow.
	SubscriberBuffer int

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}
}

type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

// New builds the initial index for root.
func New(root string, opts index.Options) (*Server, error) {
	s := &Server{
		root:             root,
		opts:             opts,
		SubscriberBuffer: 4,
		subs:             make(map[*subscriber]struct{}),
	}
	if _, err := s.Rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Manifest() *index.Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest
}

// Rebuild walks the tree again, swaps in the new manifest and pushes
// it to every websocket client.
func (s *Server) Rebuild() (*index.Manifest, error) {
	m, err := index.Build(s.root, s.opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := index.Encode(&buf, m, false); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	update, err := json.Marshal(Update{
		Type:  TypeIndex,
		Dirs:  m.Dirs,
		Files: m.Files,
	})
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	files := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		files[filepath.ToSlash(f)] = true
	}

	s.mu.Lock()
	s.manifest = m
	s.encoded = buf.Bytes()
	s.update = update
	s.files = files
	s.mu.Unlock()

	s.publish(update)
	return m, nil
}

// Handler serves the index and the assets under prefix and the live
// update socket at /ws.
func (s *Server) Handler(prefix string) http.Handler {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	if prefix == "//" {
		prefix = "/"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET "+prefix+"index.json", s.handleIndex)
	mux.Handle("GET "+prefix,
		http.StripPrefix(prefix, http.HandlerFunc(s.handleFile)),
	)
	return mux
}

func (s *Server) handleIndex(
	w http.ResponseWriter, r *http.Request,
) {
	s.mu.RLock()
	body := s.encoded
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(body)
}

func (s *Server) handleFile(
	w http.ResponseWriter, r *http.Request,
) {
	rel := r.URL.Path
	if err := paths.ValidateRelPath(rel); err != nil {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	rel = path.Clean(rel)

	s.mu.RLock()
	listed := s.files[rel]
	s.mu.RUnlock()
	if !listed {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if !paths.IsWithinDir(s.root, full) {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleWS(
	w http.ResponseWriter, r *http.Request,
) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Debug("ws accept", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())

	sub := &subscriber{
		msgs: make(chan []byte, s.SubscriberBuffer),
		closeSlow: func() {
			conn.Close(
				websocket.StatusPolicyViolation,
				"connection too slow to keep up with updates",
			)
		},
	}
	s.addSubscriber(sub)
	defer s.deleteSubscriber(sub)

	slog.Debug("ws client connected", "remote", r.RemoteAddr)

	s.mu.RLock()
	current := s.update
	s.mu.RUnlock()
	if err := writeMsg(ctx, conn, current); err != nil {
		return
	}

	for {
		select {
		case msg := <-sub.msgs:
			if err := writeMsg(ctx, conn, msg); err != nil {
				return
			}
		case <-ctx.Done():
			slog.Debug("ws client gone", "remote", r.RemoteAddr)
			return
		}
	}
}

func writeMsg(
	ctx context.Context, conn *websocket.Conn, msg []byte,
) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

func (s *Server) addSubscriber(sub *subscriber) {
	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()
}

func (s *Server) deleteSubscriber(sub *subscriber) {
	s.subsMu.Lock()
	delete(s.subs, sub)
	s.subsMu.Unlock()
}

func (s *Server) publish(msg []byte) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for sub := range s.subs {
		select {
		case sub.msgs <- msg:
		default:
			go sub.closeSlow()
		}
	}
}

// Subscribers reports how many websocket clients are connected.
func (s *Server) Subscribers() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}
