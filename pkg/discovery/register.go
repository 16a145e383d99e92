package discovery

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/hashicorp/consul/api"
)

// Registration is a live Consul registration; call Deregister on shutdown.
type Registration struct {
	client *api.Client
	ID     string
}

// RegisterService 将 HTTP 服务注册到 Consul, with an HTTP check on healthPath.
func RegisterService(serviceName string, servicePort int, consulAddr, healthPath string) (*Registration, error) {
	// 1. 获取 Consul 客户端
	config := api.DefaultConfig()
	config.Address = consulAddr
	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	// 2. 获取本机 IP (非 Loopback)
	localIP, err := getOutboundIP()
	if err != nil {
		return nil, err
	}

	// 3. 创建注册对象
	// ID 必须唯一，通常使用 "服务名-IP-端口"
	serviceID := ServiceID(serviceName, localIP, servicePort)

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Port:    servicePort,
		Address: localIP,
		Tags:    []string{"supplyhub", "http"},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", localIP, servicePort, healthPath),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s", // 挂了30秒后自动注销
		},
	}

	// 4. 发送注册请求
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, err
	}

	slog.Info("service registered", "service", serviceName, "id", serviceID, "address", localIP, "port", servicePort)
	return &Registration{client: client, ID: serviceID}, nil
}

func (r *Registration) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.ID)
}

func ServiceID(name, ip string, port int) string {
	return fmt.Sprintf("%s-%s-%d", name, ip, port)
}

// getOutboundIP 获取本机对外 IP
// 因为如果是 Docker 或局域网，不能注册 127.0.0.1，否则 Consul 健康检查找不到
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
