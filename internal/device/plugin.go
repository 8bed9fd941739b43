package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/plugin"
)

// Plugin actions a microphone plugin must declare.
const (
	ActionMute   = "mic-mute"
	ActionUnmute = "mic-unmute"
)

// PluginMicrophone delegates toggling to an external plugin. It covers
// platforms whose native mute API is not reachable from Go directly.
type PluginMicrophone struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginMicrophone picks the named plugin, or the first plugin declaring
// both microphone actions when name is empty.
func NewPluginMicrophone(m *plugin.Manager, name string, timeout time.Duration) (*PluginMicrophone, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no plugin manager", ErrDeviceUnavailable)
	}

	var (
		p   *plugin.Plugin
		err error
	)
	if name != "" {
		p, err = m.Get(name)
		if err == nil && !(p.Supports(ActionMute) && p.Supports(ActionUnmute)) {
			err = fmt.Errorf("plugin %q lacks %s/%s actions", name, ActionMute, ActionUnmute)
		}
	} else {
		p, err = m.FindByActions(ActionMute, ActionUnmute)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PluginMicrophone{
		plugin:   p,
		executor: plugin.NewExecutor(timeout),
	}, nil
}

// Name returns the plugin's name.
func (m *PluginMicrophone) Name() string {
	return m.plugin.Manifest.Name
}

// SetMicrophoneEnabled runs the plugin's mic-mute or mic-unmute action.
func (m *PluginMicrophone) SetMicrophoneEnabled(ctx context.Context, enable bool) error {
	action := ActionMute
	if enable {
		action = ActionUnmute
	}

	resp, err := m.executor.Execute(ctx, m.plugin, &plugin.Request{Action: action})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if resp.Success {
		return nil
	}

	return responseError(resp)
}

func responseError(resp *plugin.Response) error {
	msg := resp.Error
	if msg == "" {
		msg = "plugin reported failure"
	}
	switch resp.Code {
	case plugin.CodePermissionDenied:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	case plugin.CodeDeviceUnavailable, plugin.CodeUnsupported:
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
	default:
		return errors.Join(ErrDeviceUnavailable, errors.New(msg))
	}
}
