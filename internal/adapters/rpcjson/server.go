package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeParseError     = -32700

	codeBadRequest   = 40000
	codeUnauthorized = 40100
	codeForbidden    = 40300
	codeNotFound     = 40400
	codeInternal     = 50000
)

type Server struct {
	service     *application.GameService
	listener    net.Listener
	path        string
	guestUserID uint
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start listens on a unix socket at path. A non-zero guestUserID lets calls
// without a token play as that user; admin methods still need a token.
func Start(path string, service *application.GameService, guestUserID uint) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, listener: ln, path: path, guestUserID: guestUserID}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "auth.login":
		return s.handleAuthLogin(ctx, req)
	case "auth.whoami":
		identity, rpcResp, ok := s.authz(ctx, req, "")
		if !ok {
			return rpcResp
		}
		return success(req.ID, map[string]any{"id": identity.User.ID, "email": identity.User.Email})
	case "game.state":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		out, err := s.service.GetState(ctx, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	case "game.character.create":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		var p application.CreateCharacterInput
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.CreateCharacter(ctx, identity.User.ID, p)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	case "game.activity":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		var p struct {
			ActivityID uint `json:"activity_id"`
		}
		if !decodeParams(req.Params, &p) || p.ActivityID == 0 {
			return invalidParams(req.ID)
		}
		out, err := s.service.PerformActivity(ctx, identity.User.ID, p.ActivityID)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	case "game.sub_activities":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		var p struct {
			ActivityID uint `json:"activity_id"`
		}
		if !decodeParams(req.Params, &p) || p.ActivityID == 0 {
			return invalidParams(req.ID)
		}
		out, err := s.service.ListSubActivities(ctx, identity.User.ID, p.ActivityID)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	case "game.advance_time":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		var p struct {
			Hours int `json:"hours"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.AdvanceTime(ctx, identity.User.ID, p.Hours)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	case "game.reset":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		clock, err := s.service.Reset(ctx, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, map[string]any{"message": "Gioco resettato", "clock": clock})
	case "shop.list":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		out, err := s.service.ListShop(ctx, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	case "shop.purchase":
		identity, rpcResp, ok := s.authz(ctx, req, application.PermissionGamePlay)
		if !ok {
			return rpcResp
		}
		var p struct {
			ItemID uint `json:"item_id"`
		}
		if !decodeParams(req.Params, &p) || p.ItemID == 0 {
			return invalidParams(req.ID)
		}
		out, err := s.service.Purchase(ctx, identity.User.ID, p.ItemID)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	case "audit.list":
		_, rpcResp, ok := s.authz(ctx, req, application.PermissionAuditRead)
		if !ok {
			return rpcResp
		}
		var p struct {
			Limit int `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ListAuditLogs(ctx, p.Limit)
		if err != nil {
			return appError(req.ID, err)
		}
		return success(req.ID, out)
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeMethodNotFound, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) handleAuthLogin(ctx context.Context, req request) response {
	var p struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		TokenName string `json:"token_name"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	u, token, err := s.service.LoginWithAPIToken(ctx, p.Email, p.Password, p.TokenName, nil)
	if err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeUnauthorized, Message: "invalid credentials"}, ID: req.ID}
	}
	return success(req.ID, map[string]any{"user_id": u.ID, "email": u.Email, "token": token})
}

func (s *Server) authz(ctx context.Context, req request, permission string) (domain.Identity, response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if len(req.Params) > 0 && json.Unmarshal(req.Params, &p) != nil {
		return domain.Identity{}, invalidParams(req.ID), false
	}

	var (
		identity domain.Identity
		err      error
	)
	switch {
	case strings.TrimSpace(p.Token) != "":
		identity, err = s.service.AuthenticateBearerToken(ctx, p.Token)
	case s.guestUserID != 0:
		identity, err = s.service.GuestIdentity(ctx, s.guestUserID)
	default:
		err = domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Identity{}, response{JSONRPC: "2.0", Error: &rpcError{Code: codeUnauthorized, Message: "unauthorized"}, ID: req.ID}, false
	}
	if permission != "" && !s.service.Can(identity, permission) {
		return domain.Identity{}, response{JSONRPC: "2.0", Error: &rpcError{Code: codeForbidden, Message: "forbidden"}, ID: req.ID}, false
	}
	return identity, response{}, true
}

// decodeParams treats missing params as an empty object.
func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Unmarshal(raw, out) == nil
}

func success(id, result any) response {
	return response{JSONRPC: "2.0", Result: result, ID: id}
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidParams, Message: "invalid params"}, ID: id}
}

func appError(id any, err error) response {
	code := codeBadRequest
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		code = codeNotFound
	case domain.KindUnauthorized:
		code = codeUnauthorized
	case domain.KindInvalid, domain.KindPrecondition, domain.KindConflict:
	default:
		code = codeInternal
		log.Printf("rpc internal error: %v", err)
	}
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: application.PublicMessage(err)}, ID: id}
}
