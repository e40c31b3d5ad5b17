/*
	往etcd注册本服务实例，供上游做服务发现
	注册带租约，keepalive断了之后key会自己过期
*/

package service

import (
	"context"
	"errors"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/newsky/SparkGBM/rock-share/base/logger"
)

// ResponseTimeout 响应超时时间
const ResponseTimeout = 10 * time.Second

// LeaseTTL 注册租约时长，秒
const LeaseTTL = 30

type Etcd struct {
	client *clientv3.Client
}

func (e *Etcd) GetClient() *clientv3.Client {
	return e.client
}

func NewEtcd(endpoints []string, dialTimeout time.Duration, username, password string) (*Etcd, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("no etcd endpoints")
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
		Username:    username,
		Password:    password,
	})
	if err != nil {
		return nil, err
	}

	checkCtx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	_, err = cli.Status(checkCtx, endpoints[0])
	cancel()
	if err != nil {
		cli.Close()
		return nil, err
	}
	return &Etcd{cli}, nil
}

func (e *Etcd) Close() error {
	return e.client.Close()
}

func (e *Etcd) Put(key string, value string) (*clientv3.PutResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ResponseTimeout)
	resp, err := e.client.Put(ctx, key, value)
	cancel()
	return resp, err
}

func (e *Etcd) Get(key string) (*clientv3.GetResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ResponseTimeout)
	resp, err := e.client.Get(ctx, key)
	cancel()
	return resp, err
}

func (e *Etcd) Delete(key string) (*clientv3.DeleteResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ResponseTimeout)
	resp, err := e.client.Delete(ctx, key)
	cancel()
	return resp, err
}

// Register 带租约注册并在后台续租，ctx取消时注销
func (e *Etcd) Register(ctx context.Context, key string, value string) error {
	grantCtx, cancel := context.WithTimeout(ctx, ResponseTimeout)
	lease, err := e.client.Grant(grantCtx, LeaseTTL)
	cancel()
	if err != nil {
		return err
	}

	putCtx, cancel := context.WithTimeout(ctx, ResponseTimeout)
	_, err = e.client.Put(putCtx, key, value, clientv3.WithLease(lease.ID))
	cancel()
	if err != nil {
		return err
	}

	keepAlive, err := e.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				// 注销之后key随租约过期
				revokeCtx, cancel := context.WithTimeout(context.Background(), ResponseTimeout)
				_, _ = e.client.Revoke(revokeCtx, lease.ID)
				cancel()
				return
			case resp, ok := <-keepAlive:
				if !ok {
					logger.Warnf("etcd keepalive channel closed for %s", key)
					return
				}
				_ = resp
			}
		}
	}()

	logger.Infof("registered %s at etcd with lease %d", key, lease.ID)
	return nil
}
