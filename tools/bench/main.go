package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 对同一条好友边并发 PUT，校验只落库一条

type APITestStats struct {
	TotalRequests  int
	Created        int
	Existed        int
	FailedRequests int
	TotalLatency   time.Duration
	MaxLatency     time.Duration
	MinLatency     time.Duration
	mu             sync.Mutex
}

func (s *APITestStats) Add(code int, err error, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalRequests++
	switch {
	case err != nil:
		s.FailedRequests++
		return
	case code == http.StatusCreated:
		s.Created++
	case code == http.StatusOK:
		s.Existed++
	default:
		s.FailedRequests++
		return
	}
	s.TotalLatency += latency
	if latency > s.MaxLatency {
		s.MaxLatency = latency
	}
	if s.MinLatency == 0 || latency < s.MinLatency {
		s.MinLatency = latency
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var client = &http.Client{Timeout: 8 * time.Second}

func send(method, url, token string, body interface{}) (int, *envelope, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, &env, nil
}

// signup 注册并登录一个随机用户，返回用户ID与令牌
func signup(base string) (uint, string, error) {
	name := "bench_" + uuid.NewString()[:8]
	pw := uuid.NewString()

	code, env, err := send(http.MethodPost, base+"/auth/register", "", map[string]string{
		"username": name, "email": name + "@bench.local", "password": pw,
	})
	if err != nil || code != http.StatusCreated {
		return 0, "", fmt.Errorf("register %s: status=%d err=%v", name, code, err)
	}
	var reg struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		return 0, "", err
	}

	code, env, err = send(http.MethodPost, base+"/auth/login", "", map[string]string{
		"username": name, "password": pw,
	})
	if err != nil || code != http.StatusOK {
		return 0, "", fmt.Errorf("login %s: status=%d err=%v", name, code, err)
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		return 0, "", err
	}
	return reg.User.ID, login.AccessToken, nil
}

func countEdges(base string, userID uint, token string) (int, error) {
	var (
		total  int
		cursor uint
	)
	for {
		url := fmt.Sprintf("%s/api/v1/users/%d/friends?limit=100&after=%d", base, userID, cursor)
		code, env, err := send(http.MethodGet, url, token, nil)
		if err != nil || code != http.StatusOK {
			return 0, fmt.Errorf("list: status=%d err=%v", code, err)
		}
		var page struct {
			Items      []json.RawMessage `json:"items"`
			NextCursor uint              `json:"next_cursor"`
		}
		if err := json.Unmarshal(env.Data, &page); err != nil {
			return 0, err
		}
		total += len(page.Items)
		if page.NextCursor == 0 {
			return total, nil
		}
		cursor = page.NextCursor
	}
}

func runIdempotencyBench(base string, concurrency, perGoroutine int) bool {
	fmt.Println("\n=== 并发添加好友测试开始 ===")
	fmt.Printf("目标: %s 并发: %d 每协程请求: %d\n", base, concurrency, perGoroutine)

	owner, token, err := signup(base)
	if err != nil {
		fmt.Println("准备用户失败:", err)
		return false
	}
	target, _, err := signup(base)
	if err != nil {
		fmt.Println("准备用户失败:", err)
		return false
	}
	url := fmt.Sprintf("%s/api/v1/users/%d/friends/%d", base, owner, target)

	stats := &APITestStats{}
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				t0 := time.Now()
				code, _, err := send(http.MethodPut, url, token, nil)
				stats.Add(code, err, time.Since(t0))
			}
		}()
	}
	wg.Wait()
	took := time.Since(start)

	edges, err := countEdges(base, owner, token)
	if err != nil {
		fmt.Println("读取好友列表失败:", err)
		return false
	}

	fmt.Println("\n=== 测试结果 ===")
	fmt.Printf("耗时: %v\n", took)
	fmt.Printf("总请求: %d 新建(201): %d 已存在(200): %d 失败: %d\n",
		stats.TotalRequests, stats.Created, stats.Existed, stats.FailedRequests)
	if ok := stats.Created + stats.Existed; ok > 0 {
		fmt.Printf("延迟 平均: %v 最大: %v 最小: %v\n",
			stats.TotalLatency/time.Duration(ok), stats.MaxLatency, stats.MinLatency)
		fmt.Printf("QPS: %.2f\n", float64(ok)/took.Seconds())
	}
	fmt.Printf("落库边数: %d\n", edges)

	passed := stats.Created == 1 && edges == 1 && stats.FailedRequests == 0
	if passed {
		fmt.Println("结果: 通过")
	} else {
		fmt.Println("结果: 失败（期望恰好一次 201 且只有一条边）")
	}
	return passed
}

func intArg(i, def int) int {
	if len(os.Args) > i {
		if v, err := strconv.Atoi(os.Args[i]); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// 用法: bench [并发数] [每协程请求数] [baseURL]
func main() {
	concurrency := intArg(1, 20)
	perGoroutine := intArg(2, 5)
	baseURL := "http://localhost:8080"
	if len(os.Args) > 3 {
		baseURL = os.Args[3]
	}

	fmt.Println("=== social-graph 关系幂等性压测 ===")
	fmt.Printf("开始时间: %s\n", time.Now().Format("2006-01-02 15:04:05"))

	if !runIdempotencyBench(baseURL, concurrency, perGoroutine) {
		os.Exit(1)
	}
	fmt.Println("\n=== 测试完成 ===")
}
