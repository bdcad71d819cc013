package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"icu-monitor/internal/client"
	"icu-monitor/internal/logger"
	"icu-monitor/internal/session"
)

const defaultServer = "http://localhost:8000"

var errNotLoggedIn = errors.New("not logged in, run `icuctl login` first")

// options 全局 flag
type options struct {
	server      string
	sessionPath string
	bypass      bool
	verbose     bool
}

// defaultOptions 环境变量 ICU_SERVER / ICU_BYPASS 提供默认值
func defaultOptions() *options {
	o := &options{server: defaultServer}
	if v := os.Getenv("ICU_SERVER"); v != "" {
		o.server = v
	}
	if b, err := strconv.ParseBool(os.Getenv("ICU_BYPASS")); err == nil {
		o.bypass = b
	}
	return o
}

// app 单次命令执行所需的组件
type app struct {
	opts     *options
	logger   *zap.Logger
	client   *client.Client
	store    *session.FileTokenStore
	provider *session.Provider
	roles    *session.RoleProvider
	out      io.Writer
}

func (o *options) newApp(out io.Writer) (*app, error) {
	path := o.sessionPath
	if path == "" {
		p, err := session.DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	log := logger.NewCLILogger(o.verbose)
	c := client.New(o.server, log)
	store := session.NewFileTokenStore(path)
	provider := session.NewProvider(c, store, o.bypass, log)
	return &app{
		opts:     o,
		logger:   log,
		client:   c,
		store:    store,
		provider: provider,
		roles:    session.NewRoleProvider(provider),
		out:      out,
	}, nil
}

// requireUser 恢复会话，未登录时报错
func (a *app) requireUser(ctx context.Context) (*session.User, error) {
	u, err := a.provider.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errNotLoggedIn
	}
	return u, nil
}

// requireRoute 当前角色无权访问 route 时报错
func (a *app) requireRoute(ctx context.Context, route string) (*session.User, error) {
	u, err := a.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !a.roles.CanAccess(route) {
		return nil, fmt.Errorf("role %q cannot access %s", u.Role, route)
	}
	return u, nil
}

// notesPath 与会话文件同目录
func (a *app) notesPath() string {
	return filepath.Join(filepath.Dir(a.store.Path()), "notes.yaml")
}

// wsURL http(s)://host -> ws(s)://host/ws
func wsURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
