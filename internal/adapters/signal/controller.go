package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/duetchat/duet/internal/app"
	"github.com/duetchat/duet/internal/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Relay       *app.Relay
	ReadLimit   int64
	PingPeriod  time.Duration
	authLimiter *AuthRateLimiter
}

func NewController(relay *app.Relay, readLimit int64, pingPeriod time.Duration, authBurst int, authWindow time.Duration) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Controller{
		Relay:       relay,
		ReadLimit:   readLimit,
		PingPeriod:  pingPeriod,
		authLimiter: NewAuthRateLimiter(authBurst, authWindow),
	}
}

// HandleWS upgrades the request and runs the connection's pumps. The
// connection id is a fresh uuid; the client-token cookie only scopes
// auth rate limiting.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	clientToken := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWSConn(uuid.NewString(), ws)
	log.Info().Str("module", "signal").Str("conn", conn.id).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn, clientToken)
	}()
}

func (ctl *Controller) dispatch(ctx context.Context, conn *wsConn, clientToken string, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", conn.id).Msg("bad json")
		return
	}

	switch env.Type {
	case core.EvAuthenticate:
		if !ctl.authLimiter.Allow(clientToken) {
			log.Warn().Str("module", "signal").Str("conn", conn.id).Msg("auth rate limited")
			_ = conn.Send(core.NewAuthError("too many attempts"))
			return
		}
		var p authenticatePayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.Authenticate(ctx, conn, p.Token)
	case core.EvJoinCallQueue:
		var p joinQueuePayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.JoinCallQueue(ctx, conn, p.GenderPreference)
	case core.EvLeaveCallQueue:
		ctl.Relay.LeaveCallQueue(conn)
	case core.EvCallEnded:
		ctl.Relay.CallEnded(conn)
	case core.EvTyping:
		var p typingPayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.Typing(conn, p.RecipientID)
	case core.EvStopTyping:
		var p typingPayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.StopTyping(conn, p.RecipientID)
	case core.EvMessage:
		var p messagePayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.Message(ctx, conn, p.ConversationID, p.Content, p.RecipientUsername)
	case core.EvVideoCallOffer:
		var p offerPayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.VideoCallOffer(conn, p.RecipientID, p.Offer)
	case core.EvVideoCallAnswer:
		var p answerPayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.VideoCallAnswer(conn, p.CallerID, p.Answer)
	case core.EvIceCandidate:
		var p candidatePayload
		if !unmarshal(conn, data, &p) {
			return
		}
		ctl.Relay.IceCandidate(conn, p.RecipientID, p.Candidate)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func unmarshal(conn *wsConn, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", conn.id).Msg("bad payload")
		return false
	}
	return true
}
