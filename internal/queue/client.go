package queue

import (
	"fmt"
	"strings"

	"github.com/shoplite/shoplite/internal/config"
	"github.com/shoplite/shoplite/internal/constants"

	"github.com/hibiken/asynq"
)

// DefaultQueue 默认队列名称
const DefaultQueue = constants.QueueDefault

const (
	fallbackRedisHost = "127.0.0.1"
	fallbackRedisPort = 6379
)

// Client 队列客户端封装，禁用时所有入队操作退化为空操作
type Client struct {
	inner *asynq.Client
	queue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	c := &Client{queue: DefaultQueue}
	if cfg == nil || !cfg.Enabled {
		return c, nil
	}
	c.inner = asynq.NewClient(redisOptFromConfig(cfg))
	return c, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

func (c *Client) enqueue(task *asynq.Task, err error, opts []asynq.Option) error {
	if err != nil {
		return err
	}
	options := append([]asynq.Option{asynq.Queue(c.queue)}, opts...)
	_, err = c.inner.Enqueue(task, options...)
	return err
}

// EnqueueOrderConfirmationEmail 推送订单确认邮件任务
func (c *Client) EnqueueOrderConfirmationEmail(payload OrderConfirmationEmailPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderConfirmationEmailTask(payload)
	return c.enqueue(task, err, opts)
}

// EnqueueCartCleanup 推送购物车清理任务
func (c *Client) EnqueueCartCleanup(payload CartCleanupPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCartCleanupTask(payload)
	return c.enqueue(task, err, opts)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{DefaultQueue: 1},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOptFromConfig(cfg), serverCfg
}

func redisOptFromConfig(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{
		Addr: fmt.Sprintf("%s:%d", fallbackRedisHost, fallbackRedisPort),
	}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = fallbackRedisHost
	}
	port := cfg.Port
	if port <= 0 {
		port = fallbackRedisPort
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
