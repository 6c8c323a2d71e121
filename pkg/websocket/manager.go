package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"social-graph/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventFriendAdded 有人把当前用户加为好友
const EventFriendAdded = "friend_added"

// Client 代表一个WebSocket连接的用户
// UserID: 用户ID
// Conn: WebSocket连接
// Send: 发送消息的通道

type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// Event 推送给客户端的关系事件
type Event struct {
	Type           string `json:"type"`
	RelationshipID uint   `json:"relationship_id"`
	From           uint   `json:"from"`
	To             uint   `json:"to"`
	Timestamp      int64  `json:"timestamp"`
}

// Manager 管理所有在线用户的WebSocket连接
// 每个用户保留最新的一条连接，不在线时事件直接丢弃

type Manager struct {
	clients map[uint]*Client // 在线用户
	lock    sync.RWMutex
	log     *zap.Logger
}

// NewManager 创建连接管理器
func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[uint]*Client),
		log:     log,
	}
}

// AddClient 添加新连接，同一用户的旧连接被替换
func (m *Manager) AddClient(userID uint, client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if old, ok := m.clients[userID]; ok && old != client {
		close(old.Send)
	}
	m.clients[userID] = client
}

// RemoveClient 移除连接，已被新连接替换时不做处理
func (m *Manager) RemoveClient(userID uint, client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if c, ok := m.clients[userID]; ok && c == client {
		close(c.Send)
		delete(m.clients, userID)
	}
}

// SendToUser 推送消息给指定用户，返回是否投递到发送队列
func (m *Manager) SendToUser(userID uint, msg []byte) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	client, ok := m.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.Send <- msg:
		return true
	default:
		// 发送队列已满，可能连接已断开
		return false
	}
}

// IsOnline 判断用户是否在线
func (m *Manager) IsOnline(userID uint) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// RelationshipAdded 通知被添加的一方
func (m *Manager) RelationshipAdded(edge *model.Relationship) {
	ts := edge.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	payload, err := json.Marshal(Event{
		Type:           EventFriendAdded,
		RelationshipID: edge.ID,
		From:           edge.UserID,
		To:             edge.RelatedUserID,
		Timestamp:      ts.Unix(),
	})
	if err != nil {
		m.log.Error("序列化关系事件失败", zap.Error(err))
		return
	}
	if m.SendToUser(edge.RelatedUserID, payload) {
		m.log.Debug("关系事件已推送", zap.Uint("to", edge.RelatedUserID))
	}
}
