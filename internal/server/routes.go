package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"catan-server/internal/boardgame/engine"
	"catan-server/internal/boardgame/match"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.HelloWorldHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/websocket", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.frontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"message": "Hello World"}
	jsonResp, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(jsonResp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp, _ := json.Marshal(map[string]string{"status": "ok"})
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// websocketHandler accepts one duplex connection, assigns or resumes
// a stable playerId, and pumps client intents in and actor events out
// for the lifetime of the socket.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()
	connectionID := uuid.New().String()
	s.connectionManager.AddConnection(connectionID, socket)
	log.Printf("new connection: %s", connectionID)

	playerID := s.identifyPlayer(r, connectionID, socket, ctx)

	stopPump := make(chan struct{})
	defer close(stopPump)

	defer func() {
		s.connectionManager.RemoveConnection(connectionID)
		s.health.RemoveConnection(connectionID)
		s.rateLimiter.RemoveConnection(connectionID)
		if actor, _, ok := s.sessionManager.GetActorForPlayer(playerID); ok {
			actor.Unsubscribe(playerID)
		}
		log.Printf("connection closed: %s", connectionID)
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		s.health.UpdateActivity(connectionID)
		if !s.rateLimiter.Allow(connectionID) {
			s.sendError(socket, ctx, "error", "InternalError", "rate limit exceeded")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(socket, ctx, "error", "InvalidPayload", "invalid JSON")
			continue
		}
		if err := ValidateMessageType(msg.Type); err != nil {
			s.sendError(socket, ctx, "error", "InvalidPayload", err.Error())
			continue
		}

		s.route(socket, ctx, connectionID, &playerID, msg)
	}
}

// identifyPlayer resolves the playerId for a freshly accepted socket:
// reused from a ?playerId= query param if it's a known live player
// (reconnection), otherwise freshly minted. Either way the client is
// told its playerId via connection:established.
func (s *Server) identifyPlayer(r *http.Request, connectionID string, socket *websocket.Conn, ctx context.Context) string {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		playerID = uuid.New().String()
	}

	if old := s.connectionManager.AddConnectionWithToken(connectionID, socket, playerID); old != "" {
		if oldConn := s.connectionManager.Socket(old); oldConn != nil {
			s.sendMessage(oldConn, context.Background(), ServerMessage{
				Type:    "player:disconnected",
				Payload: map[string]string{"reason": "connected_elsewhere"},
			})
			oldConn.Close(websocket.StatusNormalClosure, "connected from another device")
		}
		s.connectionManager.RemoveConnection(old)
	}

	s.sendMessage(socket, ctx, ServerMessage{Type: "connection:established", Payload: ConnectionEstablished{PlayerID: playerID}})

	if actor, code, ok := s.sessionManager.GetActorForPlayer(playerID); ok {
		s.connectionManager.SetGameCode(connectionID, code)
		s.resumeGameStream(actor, playerID, socket)
		snap := actor.Snapshot()
		s.sendMessage(socket, ctx, ServerMessage{Type: "game:state", Payload: GameStateMessage{State: snap, YourPlayerID: playerID}})
	} else if lobby, ok := s.lobbyManager.Get(s.connectionManager.players[connectionID].Code); ok {
		s.broadcastLobbyState(lobby)
	}

	return playerID
}

// resumeGameStream subscribes playerID to actor's event stream and
// starts a goroutine forwarding every event to socket until the
// subscription is dropped.
func (s *Server) resumeGameStream(actor *GameActor, playerID string, socket *websocket.Conn) {
	events := actor.Subscribe(playerID)
	go func() {
		for ev := range events {
			if actor.NeedsResync(playerID) {
				s.sendMessage(socket, context.Background(), ServerMessage{
					Type:    "game:state",
					Payload: GameStateMessage{State: actor.Snapshot(), YourPlayerID: playerID},
				})
			}
			s.sendMessage(socket, context.Background(), translateEvent(ev))
		}
	}()
}

func (s *Server) sendMessage(socket *websocket.Conn, ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return socket.Write(ctx, websocket.MessageText, data)
}

// sendError reports a local failure back to just the submitting
// socket. wireType is the namespaced event name (e.g. "lobby:error",
// "build:error", "trade:error") per spec.md §6's wire validation
// rules; errors are never broadcast to other players.
func (s *Server) sendError(socket *websocket.Conn, ctx context.Context, wireType, code, message string) {
	if err := s.sendMessage(socket, ctx, ServerMessage{Type: wireType, Payload: ErrorPayload{Code: code, Message: message}}); err != nil {
		log.Printf("failed to send error message: %v", err)
	}
}

// route dispatches one validated client message to its handler.
// playerID is a pointer because lobby:create mints the host's seat
// from the already-assigned connection playerId — it never changes
// after identifyPlayer runs, but handlers read through it uniformly.
func (s *Server) route(socket *websocket.Conn, ctx context.Context, connectionID string, playerID *string, msg ClientMessage) {
	switch msg.Type {
	case "ping":
		s.sendMessage(socket, ctx, ServerMessage{Type: "pong", Payload: struct{}{}})

	case "lobby:create":
		s.handleLobbyCreate(socket, ctx, connectionID, *playerID, msg.Payload)
	case "lobby:join":
		s.handleLobbyJoin(socket, ctx, connectionID, *playerID, msg.Payload)
	case "lobby:leave":
		s.handleLobbyLeave(socket, ctx, connectionID, *playerID)
	case "lobby:ready":
		s.handleLobbyReady(socket, ctx, connectionID, *playerID, msg.Payload)
	case "lobby:set_color":
		s.handleLobbySetColor(socket, ctx, connectionID, *playerID, msg.Payload)
	case "lobby:start_game":
		s.handleLobbyStart(socket, ctx, connectionID, *playerID)

	case "game:request_state":
		s.handleRequestState(socket, ctx, *playerID)
	case "game:roll_for_order":
		s.dispatchGame(socket, ctx, "game:error", *playerID, match.Command{Type: match.ActionRollForOrder})
	case "game:roll_dice":
		s.dispatchGame(socket, ctx, "game:error", *playerID, match.Command{Type: match.ActionRollDice})
	case "game:end_turn":
		s.dispatchGame(socket, ctx, "game:error", *playerID, match.Command{Type: match.ActionEndTurn})

	case "build:settlement":
		var req BuildSettlementRequest
		if s.decode(socket, ctx, "build:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "build:error", *playerID, match.Command{Type: match.ActionBuildSettlement, VertexID: req.VertexID})
		}
	case "build:city":
		var req BuildCityRequest
		if s.decode(socket, ctx, "build:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "build:error", *playerID, match.Command{Type: match.ActionBuildCity, VertexID: req.VertexID})
		}
	case "build:road":
		var req BuildRoadRequest
		if s.decode(socket, ctx, "build:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "build:error", *playerID, match.Command{Type: match.ActionBuildRoad, EdgeID: req.EdgeID})
		}
	case "build:dev_card":
		s.dispatchGame(socket, ctx, "build:error", *playerID, match.Command{Type: match.ActionBuyDevCard})

	case "robber:move":
		var req RobberMoveRequest
		if s.decode(socket, ctx, "robber:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "robber:error", *playerID, match.Command{Type: match.ActionMoveRobber, HexID: req.HexID})
		}
	case "robber:steal":
		var req RobberStealRequest
		if s.decode(socket, ctx, "robber:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "robber:error", *playerID, match.Command{Type: match.ActionStealResource, VictimID: req.VictimID})
		}
	case "robber:discard":
		var req RobberDiscardRequest
		if s.decode(socket, ctx, "robber:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "robber:error", *playerID, match.Command{Type: match.ActionDiscard, Discard: req.Discard.ToResourceCount()})
		}

	case "trade:propose":
		var req TradeProposeRequest
		if s.decode(socket, ctx, "trade:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "trade:error", *playerID, match.Command{
				Type: match.ActionProposeTrade, TargetPlayerID: req.TargetPlayerID,
				Give: req.Give.ToResourceCount(), Want: req.Want.ToResourceCount(), TradeID: uuid.New().String(),
			})
		}
	case "trade:accept":
		s.dispatchGame(socket, ctx, "trade:error", *playerID, match.Command{Type: match.ActionAcceptTrade})
	case "trade:reject":
		s.dispatchGame(socket, ctx, "trade:error", *playerID, match.Command{Type: match.ActionRejectTrade})
	case "trade:cancel":
		s.dispatchGame(socket, ctx, "trade:error", *playerID, match.Command{Type: match.ActionCancelTrade})
	case "trade:bank":
		var req BankTradeRequest
		if s.decode(socket, ctx, "trade:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "trade:error", *playerID, match.Command{Type: match.ActionBankTrade, FirstResource: engine.Resource(req.Give), SecondResource: engine.Resource(req.Want)})
		}
	case "trade:port":
		var req BankTradeRequest
		if s.decode(socket, ctx, "trade:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "trade:error", *playerID, match.Command{Type: match.ActionPortTrade, FirstResource: engine.Resource(req.Give), SecondResource: engine.Resource(req.Want)})
		}

	case "devcard:play_knight":
		s.dispatchGame(socket, ctx, "devcard:error", *playerID, match.Command{Type: match.ActionPlayKnight})
	case "devcard:play_road_building":
		s.dispatchGame(socket, ctx, "devcard:error", *playerID, match.Command{Type: match.ActionPlayRoadBuilding})
	case "devcard:play_year_of_plenty":
		var req YearOfPlentyRequest
		if s.decode(socket, ctx, "devcard:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "devcard:error", *playerID, match.Command{Type: match.ActionPlayYearOfPlenty, FirstResource: engine.Resource(req.First), SecondResource: engine.Resource(req.Second)})
		}
	case "devcard:play_monopoly":
		var req MonopolyRequest
		if s.decode(socket, ctx, "devcard:error", msg.Payload, &req) {
			s.dispatchGame(socket, ctx, "devcard:error", *playerID, match.Command{Type: match.ActionPlayMonopoly, Resource: engine.Resource(req.Resource)})
		}

	case "chat:send":
		var req ChatSendRequest
		if s.decode(socket, ctx, "error", msg.Payload, &req) {
			s.handleChatSend(*playerID, req)
		}

	default:
		s.sendError(socket, ctx, "error", "InvalidPayload", fmt.Sprintf("unhandled message type: %s", msg.Type))
	}
}

func (s *Server) decode(socket *websocket.Conn, ctx context.Context, wireType string, payload json.RawMessage, dst any) bool {
	if err := json.Unmarshal(payload, dst); err != nil {
		s.sendError(socket, ctx, wireType, "InvalidPayload", "malformed payload")
		return false
	}
	return true
}

// dispatchGame submits a command to playerID's actor and reports a
// local error back to just this submitter, per spec.md §7's policy
// that rule/state-machine errors are never broadcast.
func (s *Server) dispatchGame(socket *websocket.Conn, ctx context.Context, wireType string, playerID string, cmd match.Command) {
	actor, _, ok := s.sessionManager.GetActorForPlayer(playerID)
	if !ok {
		s.sendError(socket, ctx, wireType, "NotInGame", "no active game for this player")
		return
	}
	if _, err := actor.Submit(playerID, cmd); err != nil {
		s.sendError(socket, ctx, wireType, errorKindOf(err), err.Error())
		return
	}

	if snap := actor.Snapshot(); snap.Status == engine.StatusFinished {
		s.endGame(snap.Code, snap)
	}
}

func errorKindOf(err error) string {
	if gerr, ok := err.(*engine.GameError); ok {
		return string(gerr.Kind)
	}
	if err == ErrBusy {
		return "InternalError"
	}
	return "InternalError"
}

func (s *Server) handleRequestState(socket *websocket.Conn, ctx context.Context, playerID string) {
	actor, _, ok := s.sessionManager.GetActorForPlayer(playerID)
	if !ok {
		s.sendError(socket, ctx, "game:error", "NotInGame", "no active game for this player")
		return
	}
	s.sendMessage(socket, ctx, ServerMessage{Type: "game:state", Payload: GameStateMessage{State: actor.Snapshot(), YourPlayerID: playerID}})
}

func (s *Server) handleChatSend(playerID string, req ChatSendRequest) {
	actor, _, ok := s.sessionManager.GetActorForPlayer(playerID)
	if !ok {
		return
	}
	snap := actor.Snapshot()
	username := playerID
	if p, ok := snap.Player(playerID); ok {
		username = p.Username
	}
	actor.broadcast([]engine.Event{{Type: "chat:message", Payload: ChatMessage{PlayerID: playerID, Username: username, Message: req.Message}}})
}

// translateEvent converts an engine.Event into the wire ServerMessage
// shape. Event.Type is already the wire event name chosen by the
// action that emitted it (e.g. "build:settlement_placed"); this is a
// pass-through by design, keeping the event vocabulary defined in one
// place (the engine actions) rather than duplicated here.
func translateEvent(ev engine.Event) ServerMessage {
	return ServerMessage{Type: ev.Type, Payload: ev.Payload}
}

// ---- lobby handlers ----

func (s *Server) handleLobbyCreate(socket *websocket.Conn, ctx context.Context, connectionID, playerID string, payload json.RawMessage) {
	var req LobbyCreateRequest
	if !s.decode(socket, ctx, "lobby:error", payload, &req) {
		return
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = 4
	}
	lobby, err := s.lobbyManager.Create(playerID, req.Username, req.MaxPlayers)
	if err != nil {
		s.sendError(socket, ctx, "lobby:error", "InvalidPayload", err.Error())
		return
	}
	s.connectionManager.SetGameCode(connectionID, lobby.Code)
	s.broadcastLobbyState(lobby)
}

func (s *Server) handleLobbyJoin(socket *websocket.Conn, ctx context.Context, connectionID, playerID string, payload json.RawMessage) {
	var req LobbyJoinRequest
	if !s.decode(socket, ctx, "lobby:error", payload, &req) {
		return
	}
	lobby, err := s.lobbyManager.Join(req.Code, playerID, req.Username)
	if err != nil {
		s.sendError(socket, ctx, "lobby:error", "CodeUnknown", err.Error())
		return
	}
	s.connectionManager.SetGameCode(connectionID, lobby.Code)
	s.broadcastLobbyState(lobby)
}

func (s *Server) handleLobbyLeave(socket *websocket.Conn, ctx context.Context, connectionID, playerID string) {
	code := s.codeForConnection(connectionID)
	if code == "" {
		s.sendError(socket, ctx, "lobby:error", "NotInGame", "not in a lobby")
		return
	}
	lobby, deleted, err := s.lobbyManager.Leave(code, playerID)
	if err != nil {
		s.sendError(socket, ctx, "lobby:error", "NotInGame", err.Error())
		return
	}
	if !deleted {
		s.broadcastLobbyState(lobby)
	}
}

func (s *Server) handleLobbyReady(socket *websocket.Conn, ctx context.Context, connectionID, playerID string, payload json.RawMessage) {
	var req LobbyReadyRequest
	if !s.decode(socket, ctx, "lobby:error", payload, &req) {
		return
	}
	code := s.codeForConnection(connectionID)
	lobby, err := s.lobbyManager.SetReady(code, playerID, req.Ready)
	if err != nil {
		s.sendError(socket, ctx, "lobby:error", "InvalidPayload", err.Error())
		return
	}
	s.broadcastLobbyState(lobby)
}

func (s *Server) handleLobbySetColor(socket *websocket.Conn, ctx context.Context, connectionID, playerID string, payload json.RawMessage) {
	var req LobbySetColorRequest
	if !s.decode(socket, ctx, "lobby:error", payload, &req) {
		return
	}
	code := s.codeForConnection(connectionID)
	lobby, err := s.lobbyManager.SetColor(code, playerID, engine.PlayerColor(req.Color))
	if err != nil {
		s.sendError(socket, ctx, "lobby:error", "ColorTaken", err.Error())
		return
	}
	s.broadcastLobbyState(lobby)
}

func (s *Server) handleLobbyStart(socket *websocket.Conn, ctx context.Context, connectionID, playerID string) {
	code := s.codeForConnection(connectionID)
	lobby, err := s.lobbyManager.CanStart(code, playerID)
	if err != nil {
		s.sendError(socket, ctx, "lobby:error", "InvalidPayload", err.Error())
		return
	}

	s.lobbyManager.MarkStarting(code)
	s.broadcastLobbyState(lobby)

	go func(l *Lobby) {
		time.Sleep(3 * time.Second)
		s.lobbyManager.MarkStarted(l.Code)

		players := make([]engine.NewPlayerInput, len(l.Players))
		for i, p := range l.Players {
			players[i] = engine.NewPlayerInput{ID: p.ID, UserID: p.ID, Username: p.Username, Color: p.Color}
		}
		actor, err := s.sessionManager.StartGame(l.Code, players)
		if err != nil {
			log.Printf("failed to start game %s: %v", l.Code, err)
			return
		}

		for _, p := range l.Players {
			if connID := s.connectionManager.ConnectionFor(p.ID); connID != "" {
				if sock := s.connectionManager.Socket(connID); sock != nil {
					s.resumeGameStream(actor, p.ID, sock)
					s.sendMessage(sock, context.Background(), ServerMessage{
						Type: "game:started", Payload: GameStateMessage{State: actor.Snapshot(), YourPlayerID: p.ID},
					})
				}
			}
		}
	}(lobby)
}

func (s *Server) codeForConnection(connectionID string) string {
	s.connectionManager.mu.RLock()
	defer s.connectionManager.mu.RUnlock()
	return s.connectionManager.players[connectionID].Code
}

func (s *Server) broadcastLobbyState(lobby *Lobby) {
	for _, p := range lobby.Players {
		connID := s.connectionManager.ConnectionFor(p.ID)
		if connID == "" {
			continue
		}
		sock := s.connectionManager.Socket(connID)
		if sock == nil {
			continue
		}
		s.sendMessage(sock, context.Background(), ServerMessage{Type: "lobby:state", Payload: buildLobbyStateMessage(lobby, p.ID)})
	}
}

func buildLobbyStateMessage(lobby *Lobby, forPlayerID string) LobbyStateMessage {
	players := make([]LobbyPlayerView, len(lobby.Players))
	for i, p := range lobby.Players {
		players[i] = LobbyPlayerView{
			ID: p.ID, Username: p.Username, Color: string(p.Color),
			IsReady: p.IsReady, IsHost: p.IsHost, IsYou: p.ID == forPlayerID,
		}
	}
	return LobbyStateMessage{
		Code: lobby.Code, HostID: lobby.HostID, Players: players,
		MaxPlayers: lobby.MaxPlayers, Status: string(lobby.Status),
	}
}
