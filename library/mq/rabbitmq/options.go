package rabbitmq

import (
	"net"
	"net/url"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Options broker 地址与账号
type Options struct {
	Host     string
	Port     string
	Username string
	Password string
	VHost    string
}

func DefaultOptions() Options {
	return Options{Host: "localhost", Port: "5672", Username: "guest", Password: "guest", VHost: "/"}
}

// BuildURL 账号与 vhost 都会转义, 默认 vhost "/" 写作 %2F
func (o Options) BuildURL() string {
	u := url.URL{
		Scheme:  "amqp",
		User:    url.UserPassword(o.Username, o.Password),
		Host:    net.JoinHostPort(o.Host, o.Port),
		Path:    "/" + o.VHost,
		RawPath: "/" + url.PathEscape(o.VHost),
	}
	return u.String()
}

// ConsumerOptions 队列消费参数
type ConsumerOptions struct {
	Queue string
	// Exchange 为空时不声明交换机, 队列走默认交换机
	Exchange     string
	ExchangeType string
	RoutingKey   string

	ConsumerTag   string
	AutoAck       bool
	PrefetchCount int // <=0 时与 Workers 相同
	Workers       int
}

func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{Queue: "default-queue", ExchangeType: "direct", PrefetchCount: 1, Workers: 1}
}

func (o ConsumerOptions) withDefaults() ConsumerOptions {
	o.Workers = max(o.Workers, 1)
	if o.PrefetchCount <= 0 {
		o.PrefetchCount = o.Workers
	}
	if o.ExchangeType == "" {
		o.ExchangeType = "direct"
	}
	if o.ConsumerTag == "" {
		o.ConsumerTag = "consumer-" + gonanoid.Must(8)
	}
	return o
}

// PublisherOptions 发布参数, Queue 非空时会声明该队列
type PublisherOptions struct {
	Exchange     string
	ExchangeType string
	RoutingKey   string
	Queue        string

	Mandatory bool
	Immediate bool
}

func DefaultPublisherOptions() PublisherOptions {
	return PublisherOptions{ExchangeType: "direct"}
}
