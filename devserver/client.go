package devserver

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/reload"
	"github.com/wippyai/native-bridge/script"
)

// Event names on the dev channel.
const (
	EventReload       = "reload"
	EventReloaded     = "reloaded"
	EventReloadFailed = "reload_failed"
)

// DefaultConnectTimeout bounds the initial connection.
const DefaultConnectTimeout = 15 * time.Second

// Options configures a Client.
type Options struct {
	Logger *zap.Logger
	// URL of the dev server, e.g. http://localhost:8090/socket.io/.
	URL       string
	Namespace string
	// Path is reread when a reload carries no program bytes.
	Path               string
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

// Emitter sends acknowledgements. *socket.Socket implements it.
type Emitter interface {
	Emit(ev string, args ...any) error
}

// Client listens for reload requests from a dev server.
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc
	io     *socket.Socket
	out    Emitter
	target reload.Reloader
	opts   Options
	logger *zap.Logger
	wg     sync.WaitGroup
}

// Dial connects to the dev server and starts serving reload requests on
// target. It returns once connected or when ctx ends.
func Dial(ctx context.Context, opts Options, target reload.Reloader) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = Logger()
	}
	if opts.Namespace == "" {
		opts.Namespace = "/"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	logger := opts.Logger.With(zap.String("url", opts.URL))

	parsed, err := url.Parse(opts.URL)
	if err != nil || parsed.Host == "" {
		return nil, errors.New(errors.PhaseReload, errors.KindInvalidInput).
			Op("devserver").Detail("invalid dev server url %q", opts.URL).Cause(err).Build()
	}

	sockOpts := socket.DefaultOptions()
	if parsed.Path != "" && parsed.Path != "/" {
		sockOpts.SetPath(parsed.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{ctx: cctx, cancel: cancel, io: io, out: io, target: target, opts: opts, logger: logger}

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("connected to dev server", zap.Any("sid", io.Id()))
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(args ...any) {
		var err error = errors.New(errors.PhaseReload, errors.KindInvalidInput).Op("devserver").Detail("connect failed").Build()
		if len(args) > 0 {
			if e, ok := args[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.On(types.EventName(EventReload), func(args ...any) {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handle(c.ctx, args)
		}()
	})
	io.On(types.EventName("disconnect"), func(args ...any) {
		logger.Info("dev server disconnected", zap.Any("reason", args))
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			c.Close()
			return nil, errors.New(errors.PhaseReload, errors.KindInvalidInput).
				Op("devserver").Detail("connect to %s", opts.URL).Cause(err).Build()
		}
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	case <-time.After(opts.ConnectTimeout):
		c.Close()
		return nil, errors.New(errors.PhaseReload, errors.KindInvalidInput).
			Op("devserver").Detail("timed out after %s connecting to %s", opts.ConnectTimeout, opts.URL).Build()
	}
}

// handle runs one reload request and acknowledges it.
func (c *Client) handle(ctx context.Context, args []any) {
	src, err := SourceFrom(args, c.opts.Path)
	if err == nil {
		var res reload.Result
		res, err = c.target.Reload(ctx, src)
		if err == nil {
			c.emit(EventReloaded, map[string]any{
				"session": res.Session,
				"program": res.Program,
				"digest":  res.Digest,
				"epoch":   res.Epoch,
				"tookMs":  res.Duration.Milliseconds(),
			})
			return
		}
	}
	c.logger.Warn("remote reload failed", zap.Error(err))
	c.emit(EventReloadFailed, map[string]any{"program": src.Name, "error": err.Error()})
}

func (c *Client) emit(event string, payload map[string]any) {
	if err := c.out.Emit(event, payload); err != nil {
		c.logger.Debug("acknowledgement not sent", zap.String("event", event), zap.Error(err))
	}
}

// Close disconnects and waits for running reloads to finish.
func (c *Client) Close() {
	c.cancel()
	if c.io != nil {
		c.io.Disconnect()
	}
	c.wg.Wait()
}

// SourceFrom builds the program source of a reload request. A request
// without program bytes rereads path.
func SourceFrom(args []any, path string) (script.Source, error) {
	name := filepath.Base(path)
	var data string
	if len(args) > 0 {
		switch v := args[0].(type) {
		case nil:
		case string:
			data = v
		case []byte:
			if len(v) == 0 {
				break
			}
			return script.Source{Name: name, Path: path, Bytes: v}, nil
		case map[string]any:
			if n, ok := v["name"].(string); ok && n != "" {
				name = n
			}
			if d, ok := v["data"].(string); ok {
				data = d
			}
		default:
			return script.Source{}, errors.New(errors.PhaseReload, errors.KindInvalidInput).
				Op(EventReload).Detail("unsupported payload %T", v).Build()
		}
	}

	if data == "" {
		if path == "" {
			return script.Source{}, errors.New(errors.PhaseReload, errors.KindInvalidInput).
				Op(EventReload).Detail("no program bytes and no program path").Build()
		}
		return script.ReadFile(path)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return script.Source{}, errors.New(errors.PhaseReload, errors.KindInvalidInput).
			Op(EventReload).Detail("program bytes are not base64").Cause(err).Build()
	}
	return script.Source{Name: name, Path: path, Bytes: raw}, nil
}
