package websocket

import (
	"net/http"
	"time"

	"social-graph/config"
	"social-graph/pkg/jwt"
	"social-graph/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Subprotocol 浏览器无法设置请求头时，令牌随子协议列表发送：
// Sec-WebSocket-Protocol: social-graph.v1, <token>
// 服务端只回显协议名，不回显令牌
const Subprotocol = "social-graph.v1"

var upgrader = websocket.Upgrader{
	Subprotocols: []string{Subprotocol},
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// requestToken 优先取 ?token=，否则取子协议列表中协议名以外的一项
func requestToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	for _, p := range websocket.Subprotocols(c.Request) {
		if p != Subprotocol && p != "" {
			return p
		}
	}
	return ""
}

// Handler 返回 /ws 路由处理函数
// 令牌来自 ?token= 或子协议列表，校验规则与 HTTP 接口一致（含登出吊销）
func (m *Manager) Handler(auth jwt.Authenticator, wsCfg config.WebSocketConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			response.Unauthorized(c, "missing token")
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Fail(c, err)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		// 客户端声明了 Subprotocol 时由 upgrader 回显协议名
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			m.log.Warn("WebSocket升级失败", zap.Error(err))
			return
		}

		client := &Client{
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		m.AddClient(userID, client)
		m.log.Info("WebSocket已连接", zap.Uint("user_id", userID))

		defer func() {
			m.RemoveClient(userID, client)
			_ = conn.Close()
			m.log.Info("WebSocket已断开", zap.Uint("user_id", userID))
		}()

		go m.writePump(client, wsCfg.PingInterval)
		m.readPump(client, wsCfg.ReadTimeout)
	}
}

// writePump 写协程：发送事件 + 定时发送ping心跳
func (m *Manager) writePump(client *Client, pingInterval time.Duration) {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	conn := client.Conn
	for {
		select {
		case msg, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// readPump 读协程（接收心跳/客户端消息），超时未收到任何读事件则断开
// 客户端消息内容不做处理，仅用于保持连接
func (m *Manager) readPump(client *Client, readTimeout time.Duration) {
	if readTimeout <= 0 {
		readTimeout = 90 * time.Second
	}
	conn := client.Conn
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}
