package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

// gameCall is one game operation as both servers expose it: a JSON-RPC
// method on the socket and a REST route over HTTP. An empty method means
// the socket has no equivalent.
type gameCall struct {
	method string
	params map[string]any

	verb string
	path string
	body any
}

type transport interface {
	do(ctx context.Context, call gameCall, out any) error
}

var errNotOnSocket = errors.New("not available over the unix socket")

// callError is a failure reported by the server, with the HTTP status or
// JSON-RPC error code it came with.
type callError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *callError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// gameClient is the typed game API the CLI commands use, independent of
// the transport underneath.
type gameClient struct {
	transport transport
}

func newGameClient(s session) gameClient {
	if s.Transport == transportHTTP {
		return gameClient{transport: newHTTPTransport(s.Server, s.Token)}
	}
	return gameClient{transport: newSocketTransport(s.Socket, s.Token)}
}

type loginReply struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type whoAmIReply struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type resetReply struct {
	Message string           `json:"message"`
	Clock   domain.GameClock `json:"clock"`
}

func (c gameClient) Login(ctx context.Context, email, password, tokenName string) (loginReply, error) {
	var out loginReply
	err := c.transport.do(ctx, gameCall{
		method: "auth.login",
		params: map[string]any{"email": email, "password": password, "token_name": tokenName},
		verb:   http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]any{"email": email, "password": password, "mode": "token", "token_name": tokenName},
	}, &out)
	return out, err
}

func (c gameClient) WhoAmI(ctx context.Context) (whoAmIReply, error) {
	var out whoAmIReply
	err := c.transport.do(ctx, gameCall{method: "auth.whoami", verb: http.MethodGet, path: "/api/auth/whoami"}, &out)
	return out, err
}

// Logout ends the server side session where the transport has one.
func (c gameClient) Logout(ctx context.Context) error {
	err := c.transport.do(ctx, gameCall{verb: http.MethodPost, path: "/api/auth/logout"}, nil)
	if errors.Is(err, errNotOnSocket) {
		return nil
	}
	return err
}

func (c gameClient) State(ctx context.Context) (domain.GameState, error) {
	var out domain.GameState
	err := c.transport.do(ctx, gameCall{method: "game.state", verb: http.MethodGet, path: "/game/state"}, &out)
	return out, err
}

func (c gameClient) CreateCharacter(ctx context.Context, in application.CreateCharacterInput) (domain.Character, error) {
	var out domain.Character
	err := c.transport.do(ctx, gameCall{
		method: "game.character.create",
		params: map[string]any{"name": in.Name, "personality": in.Personality, "look": in.Look, "avatar": in.Avatar},
		verb:   http.MethodPost,
		path:   "/game/character",
		body:   in,
	}, &out)
	return out, err
}

// FindActivity looks an activity up by title among those available today.
func (c gameClient) FindActivity(ctx context.Context, title string) (domain.Activity, error) {
	state, err := c.State(ctx)
	if err != nil {
		return domain.Activity{}, err
	}
	for _, a := range state.Activities {
		if strings.EqualFold(a.Title, strings.TrimSpace(title)) {
			return a, nil
		}
	}
	return domain.Activity{}, fmt.Errorf("no activity %q on day %d", title, state.Clock.Day)
}

func (c gameClient) Perform(ctx context.Context, activityID uint) (application.ActivityResult, error) {
	var out application.ActivityResult
	err := c.transport.do(ctx, gameCall{
		method: "game.activity",
		params: map[string]any{"activity_id": activityID},
		verb:   http.MethodPost,
		path:   "/game/activity/" + strconv.FormatUint(uint64(activityID), 10),
	}, &out)
	return out, err
}

func (c gameClient) SubActivities(ctx context.Context, activityID uint) ([]domain.Activity, error) {
	var out []domain.Activity
	err := c.transport.do(ctx, gameCall{
		method: "game.sub_activities",
		params: map[string]any{"activity_id": activityID},
		verb:   http.MethodGet,
		path:   fmt.Sprintf("/game/activity/%d/sub-activities", activityID),
	}, &out)
	return out, err
}

func (c gameClient) Advance(ctx context.Context, hours int) (application.AdvanceResult, error) {
	var out application.AdvanceResult
	err := c.transport.do(ctx, gameCall{
		method: "game.advance_time",
		params: map[string]any{"hours": hours},
		verb:   http.MethodPost,
		path:   "/game/advance-time",
		body:   map[string]any{"hours": hours},
	}, &out)
	return out, err
}

func (c gameClient) Reset(ctx context.Context) (resetReply, error) {
	var out resetReply
	err := c.transport.do(ctx, gameCall{method: "game.reset", verb: http.MethodPost, path: "/game/reset"}, &out)
	return out, err
}

func (c gameClient) Shop(ctx context.Context) ([]domain.ShopItem, error) {
	var out []domain.ShopItem
	err := c.transport.do(ctx, gameCall{method: "shop.list", verb: http.MethodGet, path: "/game/shop"}, &out)
	return out, err
}

func (c gameClient) Buy(ctx context.Context, itemID uint) (application.PurchaseResult, error) {
	var out application.PurchaseResult
	err := c.transport.do(ctx, gameCall{
		method: "shop.purchase",
		params: map[string]any{"item_id": itemID},
		verb:   http.MethodPost,
		path:   "/game/shop/purchase",
		body:   map[string]any{"itemId": itemID},
	}, &out)
	return out, err
}

func (c gameClient) Audit(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	err := c.transport.do(ctx, gameCall{
		method: "audit.list",
		params: map[string]any{"limit": limit},
		verb:   http.MethodGet,
		path:   "/api/admin/audit?limit=" + strconv.Itoa(limit),
	}, &out)
	return out, err
}

type httpTransport struct {
	client *http.Client
	server string
	token  string
}

func newHTTPTransport(server, token string) httpTransport {
	return httpTransport{
		client: &http.Client{Timeout: 20 * time.Second},
		server: strings.TrimRight(server, "/"),
		token:  token,
	}
}

func (t httpTransport) do(ctx context.Context, call gameCall, out any) error {
	var body io.Reader
	if call.body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(call.body); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, call.verb, t.server+call.path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		return &callError{Code: resp.StatusCode, Message: errorMessage(payload)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// errorMessage pulls the message out of an error or failed purchase body.
func errorMessage(payload []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(payload, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(payload))
}
